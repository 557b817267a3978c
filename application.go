package sks

import (
	"github.com/crtlabs/sks/objects"
	"github.com/crtlabs/sks/storage"
)

type Application struct {
	Database storage.TokenStorage
	Slots    []*Slot
	Config   *Config
}

// NewApplication loads the configuration, opens the storage and populates
// one slot per configured token. A token missing from the storage is
// initialized with the configured pins.
func NewApplication() (*Application, error) {
	config, err := GetConfig()
	if err != nil {
		return nil, err
	}
	db, err := storage.NewDatabase(config.Criptoki.DatabaseType)
	if err != nil {
		return nil, objects.NewError("NewApplication", err.Error(), objects.CKR_DEVICE_ERROR)
	}
	if err = db.InitStorage(); err != nil {
		return nil, objects.NewError("NewApplication", err.Error(), objects.CKR_DEVICE_ERROR)
	}

	app := &Application{
		Database: db,
		Slots:    make([]*Slot, len(config.Criptoki.Slots)),
		Config:   config,
	}
	for i, slotConf := range config.Criptoki.Slots {
		slot := &Slot{
			ID:          uint32(i),
			Application: app,
			Sessions:    make(Sessions),
		}
		token, err := db.GetToken(slotConf.Label)
		if err != nil {
			token, err = objects.NewToken(slotConf.Label, slotConf.Pin, slotConf.SoPin)
			if err != nil {
				return nil, err
			}
			if err = db.SaveToken(token); err != nil {
				return nil, objects.NewError("NewApplication", err.Error(), objects.CKR_DEVICE_ERROR)
			}
		}
		maxHandle, err := db.GetMaxHandle()
		if err != nil {
			return nil, objects.NewError("NewApplication", err.Error(), objects.CKR_DEVICE_ERROR)
		}
		token.SetNextHandle(maxHandle)
		slot.InsertToken(token)
		app.Slots[i] = slot
	}
	return app, nil
}

func (app *Application) GetSessionSlot(handle objects.SessionHandle) (*Slot, error) {
	for _, slot := range app.Slots {
		if slot.HasSession(handle) {
			return slot, nil
		}
	}
	return nil, objects.NewError("Application.GetSessionSlot", "session not found", objects.CKR_SESSION_HANDLE_INVALID)
}

func (app *Application) GetSession(handle objects.SessionHandle) (*Session, error) {
	slot, err := app.GetSessionSlot(handle)
	if err != nil {
		return nil, err
	}
	return slot.GetSession(handle)
}

func (app *Application) GetSlot(id uint32) (*Slot, error) {
	if int(id) >= len(app.Slots) {
		return nil, objects.NewError("Application.GetSlot", "index out of bounds", objects.CKR_SLOT_ID_INVALID)
	}
	return app.Slots[int(id)], nil
}

// Close closes all sessions and the storage.
func (app *Application) Close() error {
	for _, slot := range app.Slots {
		slot.CloseAllSessions()
	}
	return app.Database.CloseStorage()
}

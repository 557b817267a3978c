package sks

import (
	"sync"

	"github.com/crtlabs/sks/objects"
)

type Slot struct {
	ID          uint32
	token       *objects.Token
	Sessions    Sessions
	Application *Application
	sync.Mutex
}

func (slot *Slot) IsTokenPresent() bool {
	return slot.token != nil
}

func (slot *Slot) OpenSession(flags uint64) (objects.SessionHandle, error) {
	if !slot.IsTokenPresent() {
		return 0, objects.NewError("Slot.OpenSession", "token not present", objects.CKR_TOKEN_NOT_PRESENT)
	}
	session := NewSession(flags, slot)
	handle := session.GetHandle()
	slot.Lock()
	defer slot.Unlock()
	slot.Sessions[handle] = session
	return handle, nil
}

func (slot *Slot) CloseSession(handle objects.SessionHandle) error {
	if !slot.IsTokenPresent() {
		return objects.NewError("Slot.CloseSession", "token not present", objects.CKR_TOKEN_NOT_PRESENT)
	}
	slot.Lock()
	defer slot.Unlock()
	if _, ok := slot.Sessions[handle]; !ok {
		return objects.NewError("Slot.CloseSession", "session handle doesn't exist in this slot", objects.CKR_SESSION_HANDLE_INVALID)
	}
	delete(slot.Sessions, handle)
	return nil
}

func (slot *Slot) CloseAllSessions() {
	slot.Lock()
	defer slot.Unlock()
	slot.Sessions = make(Sessions)
}

func (slot *Slot) GetSession(handle objects.SessionHandle) (*Session, error) {
	if !slot.IsTokenPresent() {
		return nil, objects.NewError("Slot.GetSession", "token not present", objects.CKR_TOKEN_NOT_PRESENT)
	}
	slot.Lock()
	defer slot.Unlock()
	session, ok := slot.Sessions[handle]
	if !ok {
		return nil, objects.NewError("Slot.GetSession", "session handle doesn't exist in this slot", objects.CKR_SESSION_HANDLE_INVALID)
	}
	return session, nil
}

func (slot *Slot) HasSession(handle objects.SessionHandle) bool {
	slot.Lock()
	defer slot.Unlock()
	_, ok := slot.Sessions[handle]
	return ok
}

func (slot *Slot) GetToken() (*objects.Token, error) {
	if !slot.IsTokenPresent() {
		return nil, objects.NewError("Slot.GetToken", "token not present", objects.CKR_TOKEN_NOT_PRESENT)
	}
	return slot.token, nil
}

func (slot *Slot) InsertToken(token *objects.Token) {
	slot.token = token
}

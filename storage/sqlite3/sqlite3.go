package sqlite3

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/crtlabs/sks/objects"
)

// DB is a wrapper over a sql.DB object, complying with the token storage
// interface.
type DB struct {
	*sql.DB
}

func GetDatabase(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return &DB{DB: db}, nil
}

// Creates the tables if they don't exist yet.
func (db *DB) InitStorage() error {
	for _, stmt := range CreateStmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveToken rewrites the token and its persistent objects in one
// transaction. Session objects never reach the storage.
func (db *DB) SaveToken(token *objects.Token) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(CleanCryptoObjectsQuery, token.Label); err != nil {
		return err
	}
	if _, err := tx.Exec(CleanAttributesQuery, token.Label); err != nil {
		return err
	}
	if _, err := tx.Exec(InsertTokenQuery, token.Label, token.Pin, token.SoPin); err != nil {
		return err
	}

	objectStmt, err := tx.Prepare(InsertCryptoObjectQuery)
	if err != nil {
		return err
	}
	attrStmt, err := tx.Prepare(InsertAttributeQuery)
	if err != nil {
		return err
	}
	for _, object := range token.Objects {
		if object.Type != objects.TokenObject {
			continue
		}
		if _, err := objectStmt.Exec(token.Label, uint32(object.Handle)); err != nil {
			return err
		}
		for position, attr := range object.Attributes.Entries() {
			if _, err := attrStmt.Exec(token.Label, uint32(object.Handle), position, uint32(attr.Type), attr.Value); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (db *DB) GetToken(label string) (*objects.Token, error) {
	var pin, soPin string
	if err := db.QueryRow(GetTokenQuery, label).Scan(&pin, &soPin); err != nil {
		return nil, err
	}
	token := &objects.Token{
		Label:   label,
		Pin:     pin,
		SoPin:   soPin,
		Objects: make(objects.CryptoObjects),
	}

	rows, err := db.Query(GetCryptoObjectAttrsQuery, label)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var handle uint32
		var attrType sql.NullInt64
		var attrValue []byte
		if err := rows.Scan(&handle, &attrType, &attrValue); err != nil {
			return nil, err
		}
		object, ok := token.Objects[objects.ObjectHandle(handle)]
		if !ok {
			object = &objects.CryptoObject{
				Handle:     objects.ObjectHandle(handle),
				Type:       objects.TokenObject,
				Attributes: objects.NewAttributeList(),
			}
			token.Objects[object.Handle] = object
		}
		if attrType.Valid {
			object.Attributes.Set(objects.AttrType(attrType.Int64), attrValue)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return token, nil
}

func (db *DB) GetMaxHandle() (objects.ObjectHandle, error) {
	var handle uint32
	if err := db.QueryRow(GetMaxHandleQuery).Scan(&handle); err != nil {
		return 0, err
	}
	return objects.ObjectHandle(handle), nil
}

func (db *DB) CloseStorage() error {
	return db.Close()
}

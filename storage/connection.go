package storage

import (
	"fmt"

	"github.com/crtlabs/sks/storage/sqlite3"
)

func NewDatabase(dbType string) (TokenStorage, error) {
	switch dbType {
	case "sqlite3":
		sqliteConfig, err := sqlite3.GetConfig()
		if err != nil {
			return nil, fmt.Errorf("sqlite3 config not defined")
		}
		return sqlite3.GetDatabase(sqliteConfig.Path)
	default:
		return nil, fmt.Errorf("storage option not found")
	}
}

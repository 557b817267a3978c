package storage

import (
	"github.com/crtlabs/sks/objects"
)

type TokenStorage interface {
	// Executes the logic necessary to initialize the storage.
	InitStorage() error

	// Saves a token and all its objects into the storage, or returns an
	// error.
	SaveToken(*objects.Token) error

	// Retrieves a token from the storage or returns an error.
	GetToken(string) (*objects.Token, error)

	// Returns the biggest object handle in the storage.
	GetMaxHandle() (objects.ObjectHandle, error)

	// Finalizes the use of the storage. The storage is not usable
	// if this method is called.
	CloseStorage() error
}

// Package sks is the token service boundary: applications, slots, tokens
// and sessions. A session receives every operation, runs it through the
// policy engine and only then touches the keystore and the storage.
package sks

import (
	"log"

	"github.com/crtlabs/sks/objects"
)

// ErrorToRV transforms an error into its boundary return value, logging
// anything that is not a plain success.
func ErrorToRV(err error) objects.RV {
	if err == nil {
		return objects.CKR_OK
	}
	switch e := err.(type) {
	case *objects.P11Error:
		log.Printf("[%s] %s [Code %d]\n", e.Who, e.Description, int(e.Code))
		return e.Code
	case objects.P11Error:
		log.Printf("[%s] %s [Code %d]\n", e.Who, e.Description, int(e.Code))
		return e.Code
	default:
		log.Printf("[General error] %+v [Code %d]\n", err, int(objects.CKR_GENERAL_ERROR))
		return objects.CKR_GENERAL_ERROR
	}
}

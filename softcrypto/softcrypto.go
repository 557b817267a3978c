// Package softcrypto is the software keystore backend. It produces, derives,
// wraps and uses secret material after the policy engine has authorized the
// request; it performs no authorization of its own.
package softcrypto

import (
	"crypto/rand"

	"github.com/crtlabs/sks/objects"
)

// GenerateSecretValue draws byteSize bytes from the system entropy source.
func GenerateSecretValue(byteSize uint32) ([]byte, error) {
	if byteSize == 0 {
		return nil, objects.NewError("GenerateSecretValue", "zero-length secret requested", objects.CKR_ATTRIBUTE_VALUE_INVALID)
	}
	value := make([]byte, byteSize)
	if _, err := rand.Read(value); err != nil {
		return nil, objects.NewError("GenerateSecretValue", "entropy source failed: "+err.Error(), objects.CKR_DEVICE_ERROR)
	}
	return value, nil
}

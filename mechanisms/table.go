package mechanisms

import (
	"github.com/crtlabs/sks/objects"
)

// The mechanism registry. Populated once at startup and read-only for the
// process lifetime, so concurrent unsynchronized reads are safe.
var registry = map[objects.MechanismType]*Descriptor{
	objects.CKM_AES_KEY_GEN: {
		Type:       objects.CKM_AES_KEY_GEN,
		Flags:      objects.CKF_GENERATE,
		KeyTypes:   []objects.KeyType{objects.CKK_AES},
		MinKeySize: 16,
		MaxKeySize: 32,
	},
	objects.CKM_GENERIC_SECRET_KEY_GEN: {
		Type:     objects.CKM_GENERIC_SECRET_KEY_GEN,
		Flags:    objects.CKF_GENERATE,
		KeyTypes: []objects.KeyType{objects.CKK_GENERIC_SECRET},
	},
	objects.CKM_AES_ECB: {
		Type:     objects.CKM_AES_ECB,
		Flags:    objects.CKF_ENCRYPT | objects.CKF_DECRYPT | objects.CKF_WRAP | objects.CKF_UNWRAP,
		KeyTypes: []objects.KeyType{objects.CKK_AES},
	},
	objects.CKM_AES_CBC: {
		Type:     objects.CKM_AES_CBC,
		Flags:    objects.CKF_ENCRYPT | objects.CKF_DECRYPT | objects.CKF_WRAP | objects.CKF_UNWRAP,
		KeyTypes: []objects.KeyType{objects.CKK_AES},
	},
	objects.CKM_AES_CBC_PAD: {
		Type:     objects.CKM_AES_CBC_PAD,
		Flags:    objects.CKF_ENCRYPT | objects.CKF_DECRYPT | objects.CKF_WRAP | objects.CKF_UNWRAP,
		KeyTypes: []objects.KeyType{objects.CKK_AES},
	},
	objects.CKM_AES_CTR: {
		Type:     objects.CKM_AES_CTR,
		Flags:    objects.CKF_ENCRYPT | objects.CKF_DECRYPT,
		KeyTypes: []objects.KeyType{objects.CKK_AES},
	},
	objects.CKM_AES_GCM: {
		Type:     objects.CKM_AES_GCM,
		Flags:    objects.CKF_ENCRYPT | objects.CKF_DECRYPT,
		KeyTypes: []objects.KeyType{objects.CKK_AES},
	},
	objects.CKM_AES_KEY_WRAP: {
		Type:     objects.CKM_AES_KEY_WRAP,
		Flags:    objects.CKF_WRAP | objects.CKF_UNWRAP,
		KeyTypes: []objects.KeyType{objects.CKK_AES},
	},
	objects.CKM_AES_CMAC: {
		Type:     objects.CKM_AES_CMAC,
		Flags:    objects.CKF_SIGN | objects.CKF_VERIFY,
		KeyTypes: []objects.KeyType{objects.CKK_AES},
	},
	objects.CKM_SHA_1_HMAC: {
		Type:     objects.CKM_SHA_1_HMAC,
		Flags:    objects.CKF_SIGN | objects.CKF_VERIFY,
		KeyTypes: []objects.KeyType{objects.CKK_GENERIC_SECRET},
	},
	objects.CKM_SHA256_HMAC: {
		Type:     objects.CKM_SHA256_HMAC,
		Flags:    objects.CKF_SIGN | objects.CKF_VERIFY,
		KeyTypes: []objects.KeyType{objects.CKK_GENERIC_SECRET},
	},
	objects.CKM_SHA384_HMAC: {
		Type:     objects.CKM_SHA384_HMAC,
		Flags:    objects.CKF_SIGN | objects.CKF_VERIFY,
		KeyTypes: []objects.KeyType{objects.CKK_GENERIC_SECRET},
	},
	objects.CKM_SHA512_HMAC: {
		Type:     objects.CKM_SHA512_HMAC,
		Flags:    objects.CKF_SIGN | objects.CKF_VERIFY,
		KeyTypes: []objects.KeyType{objects.CKK_GENERIC_SECRET},
	},
	objects.CKM_SHA_1: {
		Type:            objects.CKM_SHA_1,
		Flags:           objects.CKF_DIGEST,
		AlwaysAvailable: true,
	},
	objects.CKM_SHA256: {
		Type:            objects.CKM_SHA256,
		Flags:           objects.CKF_DIGEST,
		AlwaysAvailable: true,
	},
	objects.CKM_SHA384: {
		Type:            objects.CKM_SHA384,
		Flags:           objects.CKF_DIGEST,
		AlwaysAvailable: true,
	},
	objects.CKM_SHA512: {
		Type:            objects.CKM_SHA512,
		Flags:           objects.CKF_DIGEST,
		AlwaysAvailable: true,
	},
	objects.CKM_AES_ECB_ENCRYPT_DATA: {
		Type:     objects.CKM_AES_ECB_ENCRYPT_DATA,
		Flags:    objects.CKF_DERIVE,
		KeyTypes: []objects.KeyType{objects.CKK_AES},
	},
	objects.CKM_SHA256_KEY_DERIVATION: {
		Type:     objects.CKM_SHA256_KEY_DERIVATION,
		Flags:    objects.CKF_DERIVE,
		KeyTypes: []objects.KeyType{objects.CKK_AES, objects.CKK_GENERIC_SECRET},
	},
	objects.CKM_HKDF_DERIVE: {
		Type:     objects.CKM_HKDF_DERIVE,
		Flags:    objects.CKF_DERIVE,
		KeyTypes: []objects.KeyType{objects.CKK_AES, objects.CKK_GENERIC_SECRET},
	},
}

// Types returns the registered mechanism types, for token information
// queries. Order is unspecified.
func Types() []objects.MechanismType {
	types := make([]objects.MechanismType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}

package softcrypto

import (
	"crypto/aes"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/crtlabs/sks/mechanisms"
	"github.com/crtlabs/sks/objects"
)

// DeriveSecretValue computes the child secret of byteSize bytes from the
// parent secret under the derivation mechanism. The mechanism parameter
// carries the per-mechanism input: the data block for ECB encryption, the
// context info for HKDF, nothing for plain digest derivation.
func DeriveSecretValue(mechanism *mechanisms.Mechanism, parentValue []byte, byteSize uint32) ([]byte, error) {
	switch mechanism.Type {
	case objects.CKM_AES_ECB_ENCRYPT_DATA:
		return deriveECBEncryptData(parentValue, mechanism.Parameter, byteSize)
	case objects.CKM_SHA256_KEY_DERIVATION:
		return deriveSHA256(parentValue, byteSize)
	case objects.CKM_HKDF_DERIVE:
		return deriveHKDF(parentValue, mechanism.Parameter, byteSize)
	}
	return nil, objects.NewError("DeriveSecretValue", "mechanism does not derive keys", objects.CKR_MECHANISM_INVALID)
}

// deriveECBEncryptData encrypts the parameter block with the parent key and
// takes the leading bytes as the child secret.
func deriveECBEncryptData(parentValue, data []byte, byteSize uint32) ([]byte, error) {
	block, err := aes.NewCipher(parentValue)
	if err != nil {
		return nil, objects.NewError("DeriveSecretValue", "parent is not a valid cipher key", objects.CKR_KEY_SIZE_RANGE)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, objects.NewError("DeriveSecretValue", "data to encrypt is not block aligned", objects.CKR_MECHANISM_PARAM_INVALID)
	}
	if byteSize > uint32(len(data)) {
		return nil, objects.NewError("DeriveSecretValue", "requested length exceeds encrypted data", objects.CKR_MECHANISM_PARAM_INVALID)
	}
	out := make([]byte, len(data))
	for i := 0; i < len(data); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], data[i:i+aes.BlockSize])
	}
	return out[:byteSize], nil
}

// deriveSHA256 digests the parent secret and takes the leading bytes.
func deriveSHA256(parentValue []byte, byteSize uint32) ([]byte, error) {
	digest := sha256.Sum256(parentValue)
	if byteSize > uint32(len(digest)) {
		return nil, objects.NewError("DeriveSecretValue", "requested length exceeds digest size", objects.CKR_KEY_SIZE_RANGE)
	}
	return digest[:byteSize], nil
}

func deriveHKDF(parentValue, info []byte, byteSize uint32) ([]byte, error) {
	reader := hkdf.New(sha256.New, parentValue, nil, info)
	out := make([]byte, byteSize)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, objects.NewError("DeriveSecretValue", "key expansion failed: "+err.Error(), objects.CKR_DEVICE_ERROR)
	}
	return out, nil
}

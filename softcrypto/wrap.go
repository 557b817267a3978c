package softcrypto

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"

	"github.com/crtlabs/sks/mechanisms"
	"github.com/crtlabs/sks/objects"
)

var keyWrapIV = []byte{0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6}

// WrapValue encrypts the wrapped object's secret under the wrapping key.
func WrapValue(mechanism *mechanisms.Mechanism, wrappingValue, value []byte) ([]byte, error) {
	switch mechanism.Type {
	case objects.CKM_AES_KEY_WRAP:
		return wrapRFC3394(wrappingValue, value)
	case objects.CKM_AES_ECB, objects.CKM_AES_CBC, objects.CKM_AES_CBC_PAD:
		return runWrapCipher(mechanism, mechanisms.Encrypt, wrappingValue, value)
	}
	return nil, objects.NewError("WrapValue", "mechanism does not wrap keys", objects.CKR_MECHANISM_INVALID)
}

// UnwrapValue recovers a secret wrapped with WrapValue.
func UnwrapValue(mechanism *mechanisms.Mechanism, wrappingValue, wrapped []byte) ([]byte, error) {
	switch mechanism.Type {
	case objects.CKM_AES_KEY_WRAP:
		return unwrapRFC3394(wrappingValue, wrapped)
	case objects.CKM_AES_ECB, objects.CKM_AES_CBC, objects.CKM_AES_CBC_PAD:
		value, err := runWrapCipher(mechanism, mechanisms.Decrypt, wrappingValue, wrapped)
		if err != nil {
			return nil, objects.NewError("UnwrapValue", "wrapped key does not decrypt", objects.CKR_WRAPPED_KEY_INVALID)
		}
		return value, nil
	}
	return nil, objects.NewError("UnwrapValue", "mechanism does not unwrap keys", objects.CKR_MECHANISM_INVALID)
}

func runWrapCipher(mechanism *mechanisms.Mechanism, function mechanisms.ProcessingFunction, keyValue, input []byte) ([]byte, error) {
	op, err := NewOperation(function, mechanism, keyValue)
	if err != nil {
		return nil, err
	}
	return op.Final(input)
}

// wrapRFC3394 implements the AES key wrap of RFC 3394 with the default
// initial value. The plaintext must be at least two 64-bit blocks.
func wrapRFC3394(kek, plaintext []byte) ([]byte, error) {
	if len(plaintext) < 16 || len(plaintext)%8 != 0 {
		return nil, objects.NewError("WrapValue", "plaintext must be 8-byte aligned and at least 16 bytes", objects.CKR_ARGUMENTS_BAD)
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, objects.NewError("WrapValue", "wrapping key is not a valid cipher key", objects.CKR_KEY_SIZE_RANGE)
	}
	n := len(plaintext) / 8
	a := append([]byte(nil), keyWrapIV...)
	r := make([]byte, len(plaintext))
	copy(r, plaintext)

	buf := make([]byte, 16)
	for j := 0; j < 6; j++ {
		for i := 0; i < n; i++ {
			copy(buf[:8], a)
			copy(buf[8:], r[i*8:i*8+8])
			block.Encrypt(buf, buf)
			t := uint64(n*j + i + 1)
			copy(a, buf[:8])
			binary.BigEndian.PutUint64(a, binary.BigEndian.Uint64(a)^t)
			copy(r[i*8:i*8+8], buf[8:])
		}
	}
	return append(a, r...), nil
}

func unwrapRFC3394(kek, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 24 || len(ciphertext)%8 != 0 {
		return nil, objects.NewError("UnwrapValue", "wrapped key has an invalid length", objects.CKR_WRAPPED_KEY_INVALID)
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, objects.NewError("UnwrapValue", "wrapping key is not a valid cipher key", objects.CKR_KEY_SIZE_RANGE)
	}
	n := len(ciphertext)/8 - 1
	a := append([]byte(nil), ciphertext[:8]...)
	r := make([]byte, n*8)
	copy(r, ciphertext[8:])

	buf := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n - 1; i >= 0; i-- {
			t := uint64(n*j + i + 1)
			binary.BigEndian.PutUint64(buf[:8], binary.BigEndian.Uint64(a)^t)
			copy(buf[8:], r[i*8:i*8+8])
			block.Decrypt(buf, buf)
			copy(a, buf[:8])
			copy(r[i*8:i*8+8], buf[8:])
		}
	}
	if subtle.ConstantTimeCompare(a, keyWrapIV) != 1 {
		return nil, objects.NewError("UnwrapValue", "integrity check failed", objects.CKR_WRAPPED_KEY_INVALID)
	}
	return r, nil
}

package softcrypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crtlabs/sks/mechanisms"
	"github.com/crtlabs/sks/objects"
)

// RFC 3394 section 4.1.
func TestKeyWrapKnownVector(t *testing.T) {
	kek := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	plaintext := mustHex(t, "00112233445566778899aabbccddeeff")
	expected := mustHex(t, "1fa68b0a8112b447aef34bd8fb5a7b829d3e862371d2cfe5")

	mechanism := &mechanisms.Mechanism{Type: objects.CKM_AES_KEY_WRAP}
	wrapped, err := WrapValue(mechanism, kek, plaintext)
	require.NoError(t, err)
	assert.Equal(t, expected, wrapped)

	out, err := UnwrapValue(mechanism, kek, wrapped)
	require.NoError(t, err)
	assert.Equal(t, plaintext, out)
}

func TestKeyWrapDetectsTampering(t *testing.T) {
	kek := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	mechanism := &mechanisms.Mechanism{Type: objects.CKM_AES_KEY_WRAP}
	wrapped, err := WrapValue(mechanism, kek, make([]byte, 24))
	require.NoError(t, err)

	wrapped[3] ^= 1
	_, err = UnwrapValue(mechanism, kek, wrapped)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_WRAPPED_KEY_INVALID, objects.ErrorRV(err))
}

func TestKeyWrapRejectsShortInput(t *testing.T) {
	kek := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	mechanism := &mechanisms.Mechanism{Type: objects.CKM_AES_KEY_WRAP}
	_, err := WrapValue(mechanism, kek, make([]byte, 8))
	require.Error(t, err)
}

func TestCBCPadWrapRoundTrip(t *testing.T) {
	kek := mustHex(t, "603deb1015ca71be2b73aef0857d7781")
	iv := make([]byte, 16)
	mechanism := &mechanisms.Mechanism{Type: objects.CKM_AES_CBC_PAD, Parameter: iv}
	secret := []byte("a secret of odd length")

	wrapped, err := WrapValue(mechanism, kek, secret)
	require.NoError(t, err)
	out, err := UnwrapValue(mechanism, kek, wrapped)
	require.NoError(t, err)
	assert.Equal(t, secret, out)
}

func TestWrapRejectsNonWrapMechanism(t *testing.T) {
	_, err := WrapValue(&mechanisms.Mechanism{Type: objects.CKM_SHA256}, make([]byte, 16), make([]byte, 16))
	require.Error(t, err)
	assert.Equal(t, objects.CKR_MECHANISM_INVALID, objects.ErrorRV(err))
}

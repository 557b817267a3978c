package mechanisms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crtlabs/sks/objects"
)

func TestLookupUnknownMechanism(t *testing.T) {
	_, err := Lookup(objects.CKM_VENDOR_DEFINED | 0x42)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_MECHANISM_INVALID, objects.ErrorRV(err))
}

func TestDescriptorAllows(t *testing.T) {
	d, err := Lookup(objects.CKM_AES_KEY_GEN)
	require.NoError(t, err)
	assert.True(t, d.Allows(Generate))
	assert.False(t, d.Allows(Encrypt))
	assert.False(t, d.Allows(Derive))

	d, err = Lookup(objects.CKM_AES_CBC_PAD)
	require.NoError(t, err)
	assert.True(t, d.Allows(Wrap))
	assert.True(t, d.Allows(Unwrap))
	assert.False(t, d.Allows(Sign))
}

func TestCheckMechanismFlags(t *testing.T) {
	require.NoError(t, CheckMechanismFlags(objects.CKM_AES_CMAC, objects.CKF_SIGN))
	err := CheckMechanismFlags(objects.CKM_AES_CMAC, objects.CKF_SIGN|objects.CKF_ENCRYPT)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_MECHANISM_INVALID, objects.ErrorRV(err))
}

func TestKeySizeBoundsUnits(t *testing.T) {
	min, max, err := KeySizeBounds(objects.CKK_AES, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), min)
	assert.Equal(t, uint32(32), max)

	min, max, err = KeySizeBounds(objects.CKK_AES, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(128), min)
	assert.Equal(t, uint32(256), max)

	// Generic secrets are bounded in bits.
	min, max, err = KeySizeBounds(objects.CKK_GENERIC_SECRET, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), min)
	assert.Equal(t, uint32(4096), max)

	min, max, err = KeySizeBounds(objects.CKK_GENERIC_SECRET, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), min)
	assert.Equal(t, uint32(512), max)

	_, _, err = KeySizeBounds(objects.CKK_RSA, false)
	require.Error(t, err)
}

func TestCheckKeySize(t *testing.T) {
	require.NoError(t, CheckKeySize(nil, objects.CKK_AES, 16))
	require.NoError(t, CheckKeySize(nil, objects.CKK_AES, 32))

	err := CheckKeySize(nil, objects.CKK_AES, 8)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_KEY_SIZE_RANGE, objects.ErrorRV(err))

	err = CheckKeySize(nil, objects.CKK_AES, 48)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_KEY_SIZE_RANGE, objects.ErrorRV(err))
}

func TestCheckKeySizeDescriptorNarrows(t *testing.T) {
	d := &Descriptor{
		Type:       objects.CKM_AES_KEY_GEN,
		KeyTypes:   []objects.KeyType{objects.CKK_AES},
		MinKeySize: 24,
		MaxKeySize: 32,
	}
	require.NoError(t, CheckKeySize(d, objects.CKK_AES, 24))
	err := CheckKeySize(d, objects.CKK_AES, 16)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_KEY_SIZE_RANGE, objects.ErrorRV(err))
}

func TestTypesCoversRegistry(t *testing.T) {
	types := Types()
	assert.Len(t, types, len(registry))
	assert.Contains(t, types, objects.CKM_AES_KEY_GEN)
	assert.Contains(t, types, objects.CKM_SHA256)
}

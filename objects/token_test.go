package objects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenRejectsLongLabel(t *testing.T) {
	_, err := NewToken("a-label-that-is-way-too-long-for-a-token", "1234", "5678")
	require.Error(t, err)
	assert.Equal(t, CKR_ARGUMENTS_BAD, ErrorRV(err))
}

func TestTokenLogin(t *testing.T) {
	token, err := NewToken("TEST", "1234", "5678")
	require.NoError(t, err)

	err = token.Login(CKU_USER, "wrong")
	require.Error(t, err)
	assert.Equal(t, CKR_PIN_INCORRECT, ErrorRV(err))
	assert.False(t, token.IsLoggedIn())

	require.NoError(t, token.Login(CKU_USER, "1234"))
	assert.True(t, token.IsLoggedIn())
	assert.Equal(t, User, token.GetSecurityLevel())

	// A second login as the other user is rejected.
	err = token.Login(CKU_SO, "5678")
	require.Error(t, err)
	assert.Equal(t, CKR_USER_ANOTHER_ALREADY_LOGGED_IN, ErrorRV(err))

	token.Logout()
	assert.False(t, token.IsLoggedIn())
	assert.Equal(t, Public, token.GetSecurityLevel())

	require.NoError(t, token.Login(CKU_SO, "5678"))
	assert.Equal(t, SecurityOfficer, token.GetSecurityLevel())
}

func TestTokenObjectHandles(t *testing.T) {
	token, err := NewToken("TEST", "1234", "5678")
	require.NoError(t, err)

	attrs := NewAttributeList()
	attrs.SetBool(CKA_TOKEN, true)
	object := NewCryptoObject(attrs)
	handle := token.AddObject(object)
	assert.Equal(t, ObjectHandle(1), handle)

	got, err := token.GetObject(handle)
	require.NoError(t, err)
	assert.Equal(t, object, got)

	require.NoError(t, token.DeleteObject(handle))
	_, err = token.GetObject(handle)
	require.Error(t, err)
	assert.Equal(t, CKR_OBJECT_HANDLE_INVALID, ErrorRV(err))

	// The counter never reuses a handle, even past persisted ones.
	token.SetNextHandle(10)
	second := NewCryptoObject(NewAttributeList())
	assert.Equal(t, ObjectHandle(11), token.AddObject(second))
}

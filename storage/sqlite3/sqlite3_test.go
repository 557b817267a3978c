package sqlite3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crtlabs/sks/objects"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := GetDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.InitStorage())
	t.Cleanup(func() { _ = db.CloseStorage() })
	return db
}

func newTestToken(t *testing.T) *objects.Token {
	t.Helper()
	token, err := objects.NewToken("TEST", "1234", "5678")
	require.NoError(t, err)
	return token
}

func persistentKeyAttrs(label string) *objects.AttributeList {
	attrs := objects.NewAttributeList()
	attrs.SetULong(objects.CKA_CLASS, uint32(objects.CKO_SECRET_KEY))
	attrs.SetULong(objects.CKA_KEY_TYPE, uint32(objects.CKK_AES))
	attrs.SetBool(objects.CKA_TOKEN, true)
	attrs.Set(objects.CKA_LABEL, []byte(label))
	attrs.Set(objects.CKA_VALUE, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	return attrs
}

func TestSaveAndGetToken(t *testing.T) {
	db := openTestDB(t)
	token := newTestToken(t)
	token.AddObject(objects.NewCryptoObject(persistentKeyAttrs("one")))
	token.AddObject(objects.NewCryptoObject(persistentKeyAttrs("two")))

	require.NoError(t, db.SaveToken(token))
	loaded, err := db.GetToken("TEST")
	require.NoError(t, err)
	assert.True(t, token.Equals(loaded))

	// Attribute order survives the round trip.
	object, err := loaded.GetObject(1)
	require.NoError(t, err)
	entries := object.Attributes.Entries()
	assert.Equal(t, objects.CKA_CLASS, entries[0].Type)
	assert.Equal(t, objects.CKA_VALUE, entries[4].Type)
}

func TestGetTokenUnknownLabel(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetToken("MISSING")
	require.Error(t, err)
}

func TestSessionObjectsAreNotPersisted(t *testing.T) {
	db := openTestDB(t)
	token := newTestToken(t)
	token.AddObject(objects.NewCryptoObject(persistentKeyAttrs("kept")))

	ephemeral := persistentKeyAttrs("dropped")
	ephemeral.SetBool(objects.CKA_TOKEN, false)
	token.AddObject(objects.NewCryptoObject(ephemeral))

	require.NoError(t, db.SaveToken(token))
	loaded, err := db.GetToken("TEST")
	require.NoError(t, err)
	assert.Len(t, loaded.Objects, 1)
}

func TestSaveTokenReplacesDeletedObjects(t *testing.T) {
	db := openTestDB(t)
	token := newTestToken(t)
	handle := token.AddObject(objects.NewCryptoObject(persistentKeyAttrs("doomed")))
	require.NoError(t, db.SaveToken(token))

	require.NoError(t, token.DeleteObject(handle))
	require.NoError(t, db.SaveToken(token))

	loaded, err := db.GetToken("TEST")
	require.NoError(t, err)
	assert.Len(t, loaded.Objects, 0)
}

func TestGetMaxHandle(t *testing.T) {
	db := openTestDB(t)

	max, err := db.GetMaxHandle()
	require.NoError(t, err)
	assert.Equal(t, objects.ObjectHandle(0), max)

	token := newTestToken(t)
	token.AddObject(objects.NewCryptoObject(persistentKeyAttrs("one")))
	token.AddObject(objects.NewCryptoObject(persistentKeyAttrs("two")))
	require.NoError(t, db.SaveToken(token))

	max, err = db.GetMaxHandle()
	require.NoError(t, err)
	assert.Equal(t, objects.ObjectHandle(2), max)
}

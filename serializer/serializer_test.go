package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crtlabs/sks/objects"
)

func TestTemplateRoundTrip(t *testing.T) {
	entries := []*objects.Attribute{
		objects.NewULongAttribute(objects.CKA_CLASS, uint32(objects.CKO_SECRET_KEY)),
		objects.NewBoolAttribute(objects.CKA_TOKEN, true),
		{Type: objects.CKA_LABEL, Value: []byte("round trip")},
		{Type: objects.CKA_ID, Value: nil},
	}
	decoded, err := DecodeTemplate(EncodeTemplate(entries))
	require.NoError(t, err)
	require.Len(t, decoded, len(entries))
	for i, entry := range entries {
		assert.Equal(t, entry.Type, decoded[i].Type)
		assert.Equal(t, len(entry.Value), len(decoded[i].Value))
	}
}

func TestDecodeTemplatePreservesDuplicates(t *testing.T) {
	entries := []*objects.Attribute{
		objects.NewBoolAttribute(objects.CKA_SENSITIVE, true),
		objects.NewBoolAttribute(objects.CKA_SENSITIVE, false),
	}
	decoded, err := DecodeTemplate(EncodeTemplate(entries))
	require.NoError(t, err)
	assert.Len(t, decoded, 2)
}

func TestDecodeTemplateTruncatedHeader(t *testing.T) {
	_, err := DecodeTemplate([]byte{1, 2, 3})
	require.Error(t, err)
	assert.Equal(t, objects.CKR_ARGUMENTS_BAD, objects.ErrorRV(err))
}

func TestDecodeTemplateTruncatedValue(t *testing.T) {
	buffer := EncodeTemplate([]*objects.Attribute{
		{Type: objects.CKA_VALUE, Value: []byte{1, 2, 3, 4}},
	})
	_, err := DecodeTemplate(buffer[:len(buffer)-1])
	require.Error(t, err)
	assert.Equal(t, objects.CKR_ARGUMENTS_BAD, objects.ErrorRV(err))
}

func TestDecodeTemplateOversizedValue(t *testing.T) {
	buffer := []byte{
		0x11, 0x00, 0x00, 0x00, // CKA_VALUE
		0xff, 0xff, 0xff, 0x7f, // absurd size
	}
	_, err := DecodeTemplate(buffer)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_ARGUMENTS_BAD, objects.ErrorRV(err))
}

func TestListRoundTrip(t *testing.T) {
	list := objects.NewAttributeList()
	list.SetULong(objects.CKA_CLASS, uint32(objects.CKO_SECRET_KEY))
	list.SetULong(objects.CKA_KEY_TYPE, uint32(objects.CKK_AES))
	list.SetBool(objects.CKA_SENSITIVE, true)

	decoded, err := DecodeList(EncodeList(list))
	require.NoError(t, err)
	assert.True(t, list.Equals(decoded))
}

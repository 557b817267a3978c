// Package serializer implements the codec for the attribute buffers
// exchanged with the untrusted caller: a sequence of little-endian
// (type, size, value) entries.
package serializer

import (
	"encoding/binary"

	"github.com/crtlabs/sks/objects"
)

const entryHeaderSize = 8

// Maximum accepted size for a single attribute value. Templates come from
// the untrusted side, so a corrupt length must not drive an allocation.
const maxValueSize = 1 << 16

// DecodeTemplate decodes a caller template buffer into discrete attribute
// entries. Entry order and duplicates are preserved; the template processor
// decides what they mean.
func DecodeTemplate(buffer []byte) ([]*objects.Attribute, error) {
	entries := make([]*objects.Attribute, 0, 8)
	for off := 0; off < len(buffer); {
		if len(buffer)-off < entryHeaderSize {
			return nil, objects.NewError("serializer.DecodeTemplate", "truncated attribute header", objects.CKR_ARGUMENTS_BAD)
		}
		attrType := binary.LittleEndian.Uint32(buffer[off:])
		size := binary.LittleEndian.Uint32(buffer[off+4:])
		off += entryHeaderSize
		if size > maxValueSize {
			return nil, objects.NewError("serializer.DecodeTemplate", "attribute value too large", objects.CKR_ARGUMENTS_BAD)
		}
		if uint32(len(buffer)-off) < size {
			return nil, objects.NewError("serializer.DecodeTemplate", "truncated attribute value", objects.CKR_ARGUMENTS_BAD)
		}
		value := make([]byte, size)
		copy(value, buffer[off:off+int(size)])
		off += int(size)
		entries = append(entries, &objects.Attribute{
			Type:  objects.AttrType(attrType),
			Value: value,
		})
	}
	return entries, nil
}

// EncodeTemplate serializes attribute entries into the wire layout
// DecodeTemplate accepts.
func EncodeTemplate(entries []*objects.Attribute) []byte {
	size := 0
	for _, entry := range entries {
		size += entryHeaderSize + len(entry.Value)
	}
	buffer := make([]byte, 0, size)
	var word [4]byte
	for _, entry := range entries {
		binary.LittleEndian.PutUint32(word[:], uint32(entry.Type))
		buffer = append(buffer, word[:]...)
		binary.LittleEndian.PutUint32(word[:], uint32(len(entry.Value)))
		buffer = append(buffer, word[:]...)
		buffer = append(buffer, entry.Value...)
	}
	return buffer
}

// EncodeList serializes a completed attribute list, entry order preserved.
func EncodeList(list *objects.AttributeList) []byte {
	return EncodeTemplate(list.Entries())
}

// DecodeList decodes a buffer produced by EncodeList back into a list.
func DecodeList(buffer []byte) (*objects.AttributeList, error) {
	entries, err := DecodeTemplate(buffer)
	if err != nil {
		return nil, err
	}
	return objects.NewAttributeListFromEntries(entries)
}

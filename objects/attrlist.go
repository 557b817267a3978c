package objects

import (
	"bytes"

	"github.com/google/uuid"
)

// An AttributeList is the ordered attribute collection owned by a crypto
// object. Entries keep insertion order and attribute types are unique within
// a list.
type AttributeList struct {
	entries []*Attribute
	index   map[AttrType]int
}

func NewAttributeList() *AttributeList {
	return &AttributeList{
		index: make(map[AttrType]int),
	}
}

// NewAttributeListFromEntries builds a list from decoded template entries.
// A type repeated with a different value makes the template inconsistent;
// exact repetitions are collapsed.
func NewAttributeListFromEntries(entries []*Attribute) (*AttributeList, error) {
	list := NewAttributeList()
	for _, entry := range entries {
		if prev, err := list.Get(entry.Type); err == nil {
			if !prev.Equals(entry) {
				return nil, NewError("NewAttributeListFromEntries", "conflicting values for the same attribute", CKR_TEMPLATE_INCONSISTENT)
			}
			continue
		}
		list.Set(entry.Type, entry.Value)
	}
	return list, nil
}

// Get returns the attribute with the given type, or an error if the list
// does not carry it.
func (list *AttributeList) Get(attrType AttrType) (*Attribute, error) {
	if i, ok := list.index[attrType]; ok {
		return list.entries[i], nil
	}
	return nil, NewError("AttributeList.Get", "attribute not present", CKR_ATTRIBUTE_TYPE_INVALID)
}

// Has returns true if the list carries the attribute type.
func (list *AttributeList) Has(attrType AttrType) bool {
	_, ok := list.index[attrType]
	return ok
}

// Set inserts the attribute or overwrites its value, keeping types unique.
func (list *AttributeList) Set(attrType AttrType, value []byte) {
	owned := make([]byte, len(value))
	copy(owned, value)
	if i, ok := list.index[attrType]; ok {
		list.entries[i].Value = owned
		return
	}
	list.index[attrType] = len(list.entries)
	list.entries = append(list.entries, &Attribute{Type: attrType, Value: owned})
}

func (list *AttributeList) SetBool(attrType AttrType, value bool) {
	list.Set(attrType, EncodeBool(value))
}

func (list *AttributeList) SetULong(attrType AttrType, value uint32) {
	list.Set(attrType, EncodeULong(value))
}

// Bool reads a boolean attribute. The second result reports presence.
func (list *AttributeList) Bool(attrType AttrType) (value, present bool) {
	attr, err := list.Get(attrType)
	if err != nil {
		return false, false
	}
	return attr.IsTrue(), true
}

// ULong reads a 32-bit scalar attribute.
func (list *AttributeList) ULong(attrType AttrType) (uint32, error) {
	attr, err := list.Get(attrType)
	if err != nil {
		return 0, err
	}
	return attr.ULong()
}

// Entries returns the attributes in insertion order. The slice is shared
// with the list and must not be modified.
func (list *AttributeList) Entries() []*Attribute {
	return list.entries
}

func (list *AttributeList) Len() int {
	return len(list.entries)
}

// Class returns the declared object class. Every completed list carries
// exactly one.
func (list *AttributeList) Class() (ObjectClass, error) {
	v, err := list.ULong(CKA_CLASS)
	if err != nil {
		return CKO_VENDOR_DEFINED, NewError("AttributeList.Class", "list carries no class", CKR_TEMPLATE_INCOMPLETE)
	}
	return ObjectClass(v), nil
}

// KeyType returns the declared key type of a key-class list.
func (list *AttributeList) KeyType() (KeyType, error) {
	v, err := list.ULong(CKA_KEY_TYPE)
	if err != nil {
		return CKK_VENDOR_DEFINED, NewError("AttributeList.KeyType", "list carries no key type", CKR_TEMPLATE_INCOMPLETE)
	}
	return KeyType(v), nil
}

// Copy returns a deep copy of the list.
func (list *AttributeList) Copy() *AttributeList {
	out := NewAttributeList()
	for _, entry := range list.entries {
		out.Set(entry.Type, entry.Value)
	}
	return out
}

// Equals returns true if both lists carry the same attributes in the same
// order.
func (list *AttributeList) Equals(list2 *AttributeList) bool {
	if len(list.entries) != len(list2.entries) {
		return false
	}
	for i, entry := range list.entries {
		if !entry.Equals(list2.entries[i]) {
			return false
		}
	}
	return true
}

// Merge produces a list with overlay's entries plus the base entries the
// overlay does not override. Used to apply defaults under an explicit
// template. Neither input is modified.
func Merge(base, overlay *AttributeList) *AttributeList {
	out := overlay.Copy()
	for _, entry := range base.entries {
		if !out.Has(entry.Type) {
			out.Set(entry.Type, entry.Value)
		}
	}
	return out
}

// AddMissingAttributeID ensures both halves of a pair carry a shared CKA_ID.
// If one half already carries a non-empty id it is copied to the other;
// otherwise a version-5 UUID of the pair's identifying material is set on
// both, so repeated completion of the same pair yields the same id. Two
// halves that arrive with different non-empty ids are inconsistent.
func AddMissingAttributeID(attrs1, attrs2 *AttributeList) error {
	if attrs1 == nil || attrs2 == nil {
		return NewError("AddMissingAttributeID", "got nil attribute list", CKR_ARGUMENTS_BAD)
	}
	id1 := attributeID(attrs1)
	id2 := attributeID(attrs2)
	switch {
	case len(id1) > 0 && len(id2) > 0:
		if !bytes.Equal(id1, id2) {
			return NewError("AddMissingAttributeID", "pair halves carry different ids", CKR_TEMPLATE_INCONSISTENT)
		}
	case len(id1) > 0 && len(id2) == 0:
		attrs2.Set(CKA_ID, id1)
	case len(id2) > 0 && len(id1) == 0:
		attrs1.Set(CKA_ID, id2)
	case len(id1) == 0 && len(id2) == 0:
		generated := generatePairID(attrs1, attrs2)
		attrs1.Set(CKA_ID, generated)
		attrs2.Set(CKA_ID, generated)
	}
	return nil
}

func attributeID(attrs *AttributeList) []byte {
	attr, err := attrs.Get(CKA_ID)
	if err != nil {
		return nil
	}
	return attr.Value
}

func generatePairID(attrs1, attrs2 *AttributeList) []byte {
	material := make([]byte, 0, 64)
	for _, attrs := range []*AttributeList{attrs1, attrs2} {
		for _, attrType := range []AttrType{CKA_CLASS, CKA_KEY_TYPE, CKA_LABEL} {
			if attr, err := attrs.Get(attrType); err == nil {
				material = append(material, EncodeULong(uint32(attrType))...)
				material = append(material, attr.Value...)
			}
		}
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, material)
	return id[:]
}

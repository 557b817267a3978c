package objects

import "bytes"

// An attribute related to a crypto object.
type Attribute struct {
	Type  AttrType
	Value []byte
}

func NewBoolAttribute(attrType AttrType, value bool) *Attribute {
	return &Attribute{Type: attrType, Value: EncodeBool(value)}
}

func NewULongAttribute(attrType AttrType, value uint32) *Attribute {
	return &Attribute{Type: attrType, Value: EncodeULong(value)}
}

// Equals returns true if the attributes are equal.
func (attribute *Attribute) Equals(attribute2 *Attribute) bool {
	return attribute.Type == attribute2.Type &&
		bytes.Equal(attribute.Value, attribute2.Value)
}

// IsTrue returns true if the attribute holds a boolean true value. Empty or
// non-boolean values count as false.
func (attribute *Attribute) IsTrue() bool {
	b, ok := DecodeBool(attribute.Value)
	return ok && b
}

// ULong decodes the attribute as a 32-bit scalar.
func (attribute *Attribute) ULong() (uint32, error) {
	v, ok := DecodeULong(attribute.Value)
	if !ok {
		return 0, NewError("Attribute.ULong", "value is not a scalar", CKR_ATTRIBUTE_VALUE_INVALID)
	}
	return v, nil
}

// Copy returns an attribute with its own copy of the value.
func (attribute *Attribute) Copy() *Attribute {
	value := make([]byte, len(attribute.Value))
	copy(value, attribute.Value)
	return &Attribute{Type: attribute.Type, Value: value}
}

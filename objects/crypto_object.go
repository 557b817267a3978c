package objects

// Lifetime of an object: bound to the token or to the creating session.
type CryptoObjectType int

const (
	SessionObject CryptoObjectType = iota
	TokenObject
)

// A cryptoObject related to a token.
type CryptoObject struct {
	Handle     ObjectHandle
	Type       CryptoObjectType
	Attributes *AttributeList
}

// A map of cryptoobjects
type CryptoObjects map[ObjectHandle]*CryptoObject

func NewCryptoObject(attrs *AttributeList) *CryptoObject {
	objType := SessionObject
	if persistent, _ := attrs.Bool(CKA_TOKEN); persistent {
		objType = TokenObject
	}
	return &CryptoObject{
		Type:       objType,
		Attributes: attrs,
	}
}

func (object *CryptoObject) GetHandle() ObjectHandle {
	return object.Handle
}

// FindAttribute returns the attribute with the given type, or nil.
func (object *CryptoObject) FindAttribute(attrType AttrType) *Attribute {
	attr, err := object.Attributes.Get(attrType)
	if err != nil {
		return nil
	}
	return attr
}

// Match returns true if every attribute of the template is present on the
// object with the same value.
func (object *CryptoObject) Match(template *AttributeList) bool {
	for _, entry := range template.Entries() {
		attr := object.FindAttribute(entry.Type)
		if attr == nil || !attr.Equals(entry) {
			return false
		}
	}
	return true
}

// Equals returns true if the crypto objects are equal.
func (object *CryptoObject) Equals(object2 *CryptoObject) bool {
	return object.Handle == object2.Handle &&
		object.Attributes.Equals(object2.Attributes)
}

// Equals returns true if the maps of cryptoobjects are equal.
func (objects CryptoObjects) Equals(objects2 CryptoObjects) bool {
	if len(objects) != len(objects2) {
		return false
	}
	for handle, object := range objects {
		object2, ok := objects2[handle]
		if !ok {
			return false
		}
		if !object.Equals(object2) {
			return false
		}
	}
	return true
}

package policy

import (
	"github.com/crtlabs/sks/objects"
)

type attrKind int

const (
	kindBool attrKind = iota
	kindULong
	kindBytes
)

// Every attribute type the engine understands, with its value class. An
// attribute outside this table is rejected, never defaulted silently.
var knownAttributes = map[objects.AttrType]attrKind{
	objects.CKA_CLASS:              kindULong,
	objects.CKA_TOKEN:              kindBool,
	objects.CKA_PRIVATE:            kindBool,
	objects.CKA_LABEL:              kindBytes,
	objects.CKA_APPLICATION:        kindBytes,
	objects.CKA_VALUE:              kindBytes,
	objects.CKA_OBJECT_ID:          kindBytes,
	objects.CKA_TRUSTED:            kindBool,
	objects.CKA_KEY_TYPE:           kindULong,
	objects.CKA_ID:                 kindBytes,
	objects.CKA_SENSITIVE:          kindBool,
	objects.CKA_ENCRYPT:            kindBool,
	objects.CKA_DECRYPT:            kindBool,
	objects.CKA_WRAP:               kindBool,
	objects.CKA_UNWRAP:             kindBool,
	objects.CKA_SIGN:               kindBool,
	objects.CKA_VERIFY:             kindBool,
	objects.CKA_DERIVE:             kindBool,
	objects.CKA_START_DATE:         kindBytes,
	objects.CKA_END_DATE:           kindBytes,
	objects.CKA_VALUE_LEN:          kindULong,
	objects.CKA_EXTRACTABLE:        kindBool,
	objects.CKA_LOCAL:              kindBool,
	objects.CKA_NEVER_EXTRACTABLE:  kindBool,
	objects.CKA_ALWAYS_SENSITIVE:   kindBool,
	objects.CKA_KEY_GEN_MECHANISM:  kindULong,
	objects.CKA_MODIFIABLE:         kindBool,
	objects.CKA_COPYABLE:           kindBool,
	objects.CKA_DESTROYABLE:        kindBool,
	objects.CKA_WRAP_WITH_TRUSTED:  kindBool,
	objects.CKA_ALLOWED_MECHANISMS: kindBytes,
}

// Attributes the engine computes at creation time. A caller template must
// not set them.
var runtimeAttributes = map[objects.AttrType]bool{
	objects.CKA_LOCAL:             true,
	objects.CKA_ALWAYS_SENSITIVE:  true,
	objects.CKA_NEVER_EXTRACTABLE: true,
	objects.CKA_KEY_GEN_MECHANISM: true,
}

// Attributes that may be changed after the object is registered, provided
// the object is modifiable.
var modifiableAttributes = map[objects.AttrType]bool{
	objects.CKA_LABEL:       true,
	objects.CKA_ID:          true,
	objects.CKA_APPLICATION: true,
	objects.CKA_START_DATE:  true,
	objects.CKA_END_DATE:    true,
}

// Default values for any stored object. Objects persist on the token unless
// the template opts out, so creation always needs write permission by
// default.
func storedObjectDefaults() *objects.AttributeList {
	defaults := objects.NewAttributeList()
	defaults.SetBool(objects.CKA_TOKEN, true)
	defaults.SetBool(objects.CKA_PRIVATE, false)
	defaults.SetBool(objects.CKA_MODIFIABLE, true)
	defaults.SetBool(objects.CKA_COPYABLE, true)
	defaults.SetBool(objects.CKA_DESTROYABLE, true)
	defaults.Set(objects.CKA_LABEL, nil)
	return defaults
}

func keyObjectDefaults() *objects.AttributeList {
	defaults := objects.NewAttributeList()
	defaults.Set(objects.CKA_ID, nil)
	defaults.Set(objects.CKA_START_DATE, nil)
	defaults.Set(objects.CKA_END_DATE, nil)
	defaults.SetBool(objects.CKA_DERIVE, false)
	defaults.Set(objects.CKA_ALLOWED_MECHANISMS, nil)
	return defaults
}

func secretKeyDefaults() *objects.AttributeList {
	defaults := objects.NewAttributeList()
	defaults.SetBool(objects.CKA_SENSITIVE, false)
	defaults.SetBool(objects.CKA_EXTRACTABLE, true)
	defaults.SetBool(objects.CKA_ENCRYPT, false)
	defaults.SetBool(objects.CKA_DECRYPT, false)
	defaults.SetBool(objects.CKA_SIGN, false)
	defaults.SetBool(objects.CKA_VERIFY, false)
	defaults.SetBool(objects.CKA_WRAP, false)
	defaults.SetBool(objects.CKA_UNWRAP, false)
	defaults.SetBool(objects.CKA_WRAP_WITH_TRUSTED, false)
	defaults.SetBool(objects.CKA_TRUSTED, false)
	return defaults
}

func dataObjectDefaults() *objects.AttributeList {
	defaults := objects.NewAttributeList()
	defaults.Set(objects.CKA_APPLICATION, nil)
	defaults.Set(objects.CKA_OBJECT_ID, nil)
	return defaults
}

func certificateDefaults() *objects.AttributeList {
	defaults := objects.NewAttributeList()
	defaults.SetBool(objects.CKA_TRUSTED, false)
	return defaults
}

// Attributes a derived object inherits from its parent unless the template
// overrides them. Overrides may only restrict, never widen; widening is
// caught by CheckCreatedAttrsAgainstParentKey.
var inheritedAttributes = []objects.AttrType{
	objects.CKA_SENSITIVE,
	objects.CKA_EXTRACTABLE,
	objects.CKA_WRAP_WITH_TRUSTED,
	objects.CKA_KEY_TYPE,
}

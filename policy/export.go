package policy

import (
	"github.com/crtlabs/sks/objects"
)

// AttributeIsExportable reports whether the attribute's value may leave the
// token. The secret value is gated by the sensitivity policy; everything
// else is public metadata.
func AttributeIsExportable(attrType objects.AttrType, attrs *objects.AttributeList) bool {
	if attrType != objects.CKA_VALUE {
		return true
	}
	class, err := attrs.Class()
	if err != nil || class != objects.CKO_SECRET_KEY {
		return true
	}
	sensitive, _ := attrs.Bool(objects.CKA_SENSITIVE)
	extractable, _ := attrs.Bool(objects.CKA_EXTRACTABLE)
	return !sensitive && extractable
}

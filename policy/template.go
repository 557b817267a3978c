package policy

import (
	"github.com/crtlabs/sks/mechanisms"
	"github.com/crtlabs/sks/objects"
)

// CreateAttributesFromTemplate builds the complete, defaulted attribute
// list for a new object from caller-supplied template entries. The protocol
// in play is selected by the processing function and the presence of a
// parent list (derivation). classHint supplies the object class when the
// template omits it; pass objects.CKO_VENDOR_DEFINED for none.
func CreateAttributesFromTemplate(template []*objects.Attribute, function mechanisms.ProcessingFunction, classHint objects.ObjectClass, parent *objects.AttributeList) (*objects.AttributeList, error) {
	list, err := objects.NewAttributeListFromEntries(template)
	if err != nil {
		return nil, err
	}
	if err := validateTemplateEntries(list); err != nil {
		return nil, err
	}

	class, err := list.Class()
	if err != nil {
		if classHint == objects.CKO_VENDOR_DEFINED {
			return nil, objects.NewError("CreateAttributesFromTemplate", "template declares no object class", objects.CKR_TEMPLATE_INCOMPLETE)
		}
		class = classHint
		list.SetULong(objects.CKA_CLASS, uint32(class))
	}

	switch function {
	case mechanisms.Generate, mechanisms.GeneratePair, mechanisms.Import, mechanisms.Unwrap, mechanisms.Derive:
	default:
		return nil, objects.NewError("CreateAttributesFromTemplate", "function cannot create objects", objects.CKR_ARGUMENTS_BAD)
	}

	if function == mechanisms.Derive {
		if parent == nil {
			return nil, objects.NewError("CreateAttributesFromTemplate", "derivation needs a parent attribute list", objects.CKR_ARGUMENTS_BAD)
		}
		inheritFromParent(list, parent)
	} else if parent != nil {
		return nil, objects.NewError("CreateAttributesFromTemplate", "parent attributes only apply to derivation", objects.CKR_ARGUMENTS_BAD)
	}

	if err := checkValueForFunction(list, class, function); err != nil {
		return nil, err
	}

	defaults, err := defaultsForClass(list, class)
	if err != nil {
		return nil, err
	}
	completed := objects.Merge(defaults, list)

	setRuntimeAttributes(completed, class, function, parent)
	return completed, nil
}

func validateTemplateEntries(list *objects.AttributeList) error {
	for _, entry := range list.Entries() {
		kind, known := knownAttributes[entry.Type]
		if !known {
			return objects.NewError("CreateAttributesFromTemplate", "unknown attribute type in template", objects.CKR_ATTRIBUTE_TYPE_INVALID)
		}
		if runtimeAttributes[entry.Type] {
			return objects.NewError("CreateAttributesFromTemplate", "template sets a runtime attribute", objects.CKR_ATTRIBUTE_READ_ONLY)
		}
		switch kind {
		case kindBool:
			if _, ok := objects.DecodeBool(entry.Value); !ok {
				return objects.NewError("CreateAttributesFromTemplate", "boolean attribute with bad value size", objects.CKR_ATTRIBUTE_VALUE_INVALID)
			}
		case kindULong:
			if _, ok := objects.DecodeULong(entry.Value); !ok {
				return objects.NewError("CreateAttributesFromTemplate", "scalar attribute with bad value size", objects.CKR_ATTRIBUTE_VALUE_INVALID)
			}
		}
	}
	return nil
}

// inheritFromParent copies the inheritable parent attributes the template
// leaves unset. A template override that relaxes a parent restriction stays
// in place here; the validator's parent cross-check rejects it.
func inheritFromParent(list, parent *objects.AttributeList) {
	for _, attrType := range inheritedAttributes {
		if list.Has(attrType) {
			continue
		}
		if attr, err := parent.Get(attrType); err == nil {
			list.Set(attrType, attr.Value)
		}
	}
}

func checkValueForFunction(list *objects.AttributeList, class objects.ObjectClass, function mechanisms.ProcessingFunction) error {
	switch function {
	case mechanisms.Generate, mechanisms.GeneratePair, mechanisms.Derive:
		if list.Has(objects.CKA_VALUE) {
			return objects.NewError("CreateAttributesFromTemplate", "template supplies a value the token must produce", objects.CKR_TEMPLATE_INCONSISTENT)
		}
		if class == objects.CKO_SECRET_KEY && !list.Has(objects.CKA_VALUE_LEN) {
			return objects.NewError("CreateAttributesFromTemplate", "secret key template without value length", objects.CKR_TEMPLATE_INCOMPLETE)
		}
	case mechanisms.Import:
		if !list.Has(objects.CKA_VALUE) {
			return objects.NewError("CreateAttributesFromTemplate", "import template without a value", objects.CKR_TEMPLATE_INCOMPLETE)
		}
	case mechanisms.Unwrap:
		// The value arrives from the unwrap backend after authorization.
		if list.Has(objects.CKA_VALUE) {
			return objects.NewError("CreateAttributesFromTemplate", "unwrap template supplies a value", objects.CKR_TEMPLATE_INCONSISTENT)
		}
	}
	return nil
}

func defaultsForClass(list *objects.AttributeList, class objects.ObjectClass) (*objects.AttributeList, error) {
	defaults := storedObjectDefaults()
	switch class {
	case objects.CKO_SECRET_KEY:
		if !list.Has(objects.CKA_KEY_TYPE) {
			return nil, objects.NewError("CreateAttributesFromTemplate", "key template without key type", objects.CKR_TEMPLATE_INCOMPLETE)
		}
		for _, entry := range keyObjectDefaults().Entries() {
			defaults.Set(entry.Type, entry.Value)
		}
		for _, entry := range secretKeyDefaults().Entries() {
			defaults.Set(entry.Type, entry.Value)
		}
	case objects.CKO_DATA:
		if list.Has(objects.CKA_KEY_TYPE) {
			return nil, objects.NewError("CreateAttributesFromTemplate", "data object with a key type", objects.CKR_TEMPLATE_INCONSISTENT)
		}
		for _, entry := range dataObjectDefaults().Entries() {
			defaults.Set(entry.Type, entry.Value)
		}
	case objects.CKO_CERTIFICATE:
		for _, entry := range certificateDefaults().Entries() {
			defaults.Set(entry.Type, entry.Value)
		}
	default:
		return nil, objects.NewError("CreateAttributesFromTemplate", "object class not supported", objects.CKR_ATTRIBUTE_VALUE_INVALID)
	}
	return defaults, nil
}

// setRuntimeAttributes stamps the attributes only the engine may decide.
func setRuntimeAttributes(list *objects.AttributeList, class objects.ObjectClass, function mechanisms.ProcessingFunction, parent *objects.AttributeList) {
	local := function == mechanisms.Generate || function == mechanisms.GeneratePair
	list.SetBool(objects.CKA_LOCAL, local)

	if class != objects.CKO_SECRET_KEY {
		return
	}
	sensitive, _ := list.Bool(objects.CKA_SENSITIVE)
	extractable, _ := list.Bool(objects.CKA_EXTRACTABLE)

	alwaysSensitive := sensitive
	neverExtractable := !extractable
	switch function {
	case mechanisms.Import, mechanisms.Unwrap:
		// The clear value existed outside the token at least once.
		alwaysSensitive = false
		neverExtractable = false
	case mechanisms.Derive:
		if parent != nil {
			parentAlways, _ := parent.Bool(objects.CKA_ALWAYS_SENSITIVE)
			parentNever, _ := parent.Bool(objects.CKA_NEVER_EXTRACTABLE)
			alwaysSensitive = alwaysSensitive && parentAlways
			neverExtractable = neverExtractable && parentNever
		}
	}
	list.SetBool(objects.CKA_ALWAYS_SENSITIVE, alwaysSensitive)
	list.SetBool(objects.CKA_NEVER_EXTRACTABLE, neverExtractable)
}

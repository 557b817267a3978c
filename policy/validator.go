package policy

import (
	"github.com/crtlabs/sks/mechanisms"
	"github.com/crtlabs/sks/objects"
)

// Attributes that may only move in the restrictive direction when a child
// is derived from a parent. sensitive and wrap_with_trusted restrict when
// true, extractable restricts when false.
var monotonicAttributes = []struct {
	attrType      objects.AttrType
	restrictsWhen bool
}{
	{objects.CKA_SENSITIVE, true},
	{objects.CKA_WRAP_WITH_TRUSTED, true},
	{objects.CKA_EXTRACTABLE, false},
}

// ValidateGeneration runs the full check sequence for creating an object
// from token randomness. The checks run in a fixed order and the first
// failure is returned untouched.
func ValidateGeneration(session Session, mechanism *mechanisms.Mechanism, attrs *objects.AttributeList) error {
	if err := CheckTokenState(session, attrs); err != nil {
		return err
	}
	function := mechanisms.Generate
	if err := CheckMechanismAgainstProcessing(session, mechanism.Type, function, mechanisms.StepOneShot); err != nil {
		return err
	}
	if err := checkMechanismProducesKeyType(mechanism.Type, attrs); err != nil {
		return err
	}
	if err := CheckCreatedAttrsAgainstProcessing(function, attrs); err != nil {
		return err
	}
	return CheckCreatedAttrsAgainstToken(session, attrs)
}

// ValidateImport runs the check sequence for creating an object from clear
// caller-supplied data. No mechanism is involved.
func ValidateImport(session Session, attrs *objects.AttributeList) error {
	if err := CheckTokenState(session, attrs); err != nil {
		return err
	}
	if err := CheckCreatedAttrsAgainstProcessing(mechanisms.Import, attrs); err != nil {
		return err
	}
	return CheckCreatedAttrsAgainstToken(session, attrs)
}

// ValidateUse runs the check sequence for using an existing object with a
// processing function. It creates nothing; step selects the point in the
// operation state machine being entered.
func ValidateUse(session Session, mechanism *mechanisms.Mechanism, function mechanisms.ProcessingFunction, step mechanisms.ProcessingStep, parent *objects.AttributeList) error {
	if err := CheckMechanismAgainstProcessing(session, mechanism.Type, function, step); err != nil {
		return err
	}
	if parent == nil {
		return nil
	}
	if err := CheckParentAttrsAgainstProcessing(mechanism.Type, function, parent); err != nil {
		return err
	}
	return CheckAccessAttrsAgainstToken(session, parent)
}

// ValidateDerivation runs the check sequence for creating an object from an
// existing parent object. Both the parent's fitness and the child's
// attributes are validated, the parent first.
func ValidateDerivation(session Session, mechanism *mechanisms.Mechanism, parent, child *objects.AttributeList) error {
	if err := CheckTokenState(session, child); err != nil {
		return err
	}
	function := mechanisms.Derive
	if err := CheckMechanismAgainstProcessing(session, mechanism.Type, function, mechanisms.StepOneShot); err != nil {
		return err
	}
	if err := CheckParentAttrsAgainstProcessing(mechanism.Type, function, parent); err != nil {
		return err
	}
	if err := CheckAccessAttrsAgainstToken(session, parent); err != nil {
		return err
	}
	if err := CheckCreatedAttrsAgainstParentKey(mechanism.Type, parent, child); err != nil {
		return err
	}
	if err := CheckCreatedAttrsAgainstProcessing(function, child); err != nil {
		return err
	}
	return CheckCreatedAttrsAgainstToken(session, child)
}

// CheckCreatedAttrsAgainstParentKey enforces the monotonic restriction on
// derivation: a child may tighten the parent's protection attributes but
// never relax them.
func CheckCreatedAttrsAgainstParentKey(mechanismType objects.MechanismType, parent, child *objects.AttributeList) error {
	for _, m := range monotonicAttributes {
		parentValue, parentSet := parent.Bool(m.attrType)
		if !parentSet {
			continue
		}
		childValue, childSet := child.Bool(m.attrType)
		if !childSet {
			continue
		}
		if parentValue == m.restrictsWhen && childValue != m.restrictsWhen {
			return objects.NewError("CheckCreatedAttrsAgainstParentKey", "child relaxes a parent restriction", objects.CKR_RESTRICTION_WIDENED)
		}
	}
	// Key material sliced out of the parent cannot be longer than the
	// parent's own secret.
	if mechanismType == objects.CKM_AES_ECB_ENCRYPT_DATA {
		parentSize, parentOK := secretSize(parent)
		childSize, childOK := secretSize(child)
		if parentOK && childOK && childSize > parentSize {
			return objects.NewError("CheckCreatedAttrsAgainstParentKey", "derived key longer than its parent", objects.CKR_TEMPLATE_INCONSISTENT)
		}
	}
	return nil
}

// CheckCreatedAttrs cross-checks the two halves of a generated pair. attrs2
// may be nil for a single object, in which case only attrs1's internal
// consistency applies.
func CheckCreatedAttrs(attrs1, attrs2 *objects.AttributeList) error {
	if attrs2 == nil {
		return nil
	}
	keyType1, err := attrs1.KeyType()
	if err != nil {
		return err
	}
	keyType2, err := attrs2.KeyType()
	if err != nil {
		return err
	}
	if keyType1 != keyType2 {
		return objects.NewError("CheckCreatedAttrs", "pair halves declare different key types", objects.CKR_KEY_TYPE_INCONSISTENT)
	}
	for _, m := range monotonicAttributes {
		v1, ok1 := attrs1.Bool(m.attrType)
		v2, ok2 := attrs2.Bool(m.attrType)
		if ok1 && ok2 && v1 != v2 {
			return objects.NewError("CheckCreatedAttrs", "pair halves disagree on a protection attribute", objects.CKR_RESTRICTION_WIDENED)
		}
	}
	return objects.AddMissingAttributeID(attrs1, attrs2)
}

// CheckWrapAccess authorizes exporting the wrapped object's material under
// the wrapping key.
func CheckWrapAccess(wrapping, wrapped *objects.AttributeList) error {
	if extractable, _ := wrapped.Bool(objects.CKA_EXTRACTABLE); !extractable {
		return objects.NewError("CheckWrapAccess", "object is not extractable", objects.CKR_KEY_UNEXTRACTABLE)
	}
	if wrapWithTrusted, _ := wrapped.Bool(objects.CKA_WRAP_WITH_TRUSTED); wrapWithTrusted {
		if trusted, _ := wrapping.Bool(objects.CKA_TRUSTED); !trusted {
			return objects.NewError("CheckWrapAccess", "object requires a trusted wrapping key", objects.CKR_KEY_NOT_WRAPPABLE)
		}
	}
	return nil
}

// MaxMinKeySize mirrors the registry bounds with the max first, the shape
// callers filling mechanism info structures expect.
func MaxMinKeySize(keyType objects.KeyType, bitSizeOnly bool) (max, min uint32, err error) {
	min, max, err = mechanisms.KeySizeBounds(keyType, bitSizeOnly)
	return max, min, err
}

// checkMechanismProducesKeyType rejects a generation template whose key
// type the mechanism cannot produce.
func checkMechanismProducesKeyType(mechanismType objects.MechanismType, attrs *objects.AttributeList) error {
	class, err := attrs.Class()
	if err != nil {
		return err
	}
	if class != objects.CKO_SECRET_KEY {
		return nil
	}
	keyType, err := attrs.KeyType()
	if err != nil {
		return err
	}
	d, err := mechanisms.Lookup(mechanismType)
	if err != nil {
		return err
	}
	if !d.AcceptsKeyType(keyType) {
		return objects.NewError("ValidateGeneration", "mechanism cannot produce the key type", objects.CKR_TEMPLATE_INCONSISTENT)
	}
	return nil
}

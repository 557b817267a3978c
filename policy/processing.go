package policy

import (
	"github.com/crtlabs/sks/mechanisms"
	"github.com/crtlabs/sks/objects"
)

// Usage flag the parent object must carry to serve each processing
// function.
var requiredParentFlag = map[mechanisms.ProcessingFunction]objects.AttrType{
	mechanisms.Derive:  objects.CKA_DERIVE,
	mechanisms.Encrypt: objects.CKA_ENCRYPT,
	mechanisms.Decrypt: objects.CKA_DECRYPT,
	mechanisms.Sign:    objects.CKA_SIGN,
	mechanisms.Verify:  objects.CKA_VERIFY,
	mechanisms.Wrap:    objects.CKA_WRAP,
	mechanisms.Unwrap:  objects.CKA_UNWRAP,
}

// Functions driven through a session operation slot with the
// Init -> {OneShot | Update* -> Final} state machine.
func usesOperationSlot(function mechanisms.ProcessingFunction) bool {
	switch function {
	case mechanisms.Digest, mechanisms.Encrypt, mechanisms.Decrypt, mechanisms.Sign, mechanisms.Verify:
		return true
	}
	return false
}

// CheckMechanismAgainstProcessing validates that the mechanism exists, that
// it permits the requested function, that the token state allows invoking
// it, and that the step transition is legal for the session's operation
// slot.
func CheckMechanismAgainstProcessing(session Session, mechanismType objects.MechanismType, function mechanisms.ProcessingFunction, step mechanisms.ProcessingStep) error {
	d, err := mechanisms.Lookup(mechanismType)
	if err != nil {
		return err
	}
	if !d.Allows(function) {
		return objects.NewError("CheckMechanismAgainstProcessing", "function not permitted for mechanism", objects.CKR_MECHANISM_INVALID)
	}
	if session.TokenRestricted() && !d.AlwaysAvailable {
		return objects.NewError("CheckMechanismAgainstProcessing", "mechanism unavailable in restricted token state", objects.CKR_MECHANISM_INVALID)
	}
	if !usesOperationSlot(function) {
		return nil
	}
	_, active := session.ActiveFunction()
	switch step {
	case mechanisms.StepInit, mechanisms.StepOneShot:
		if active {
			return objects.NewError("CheckMechanismAgainstProcessing", "operation already active", objects.CKR_OPERATION_ACTIVE)
		}
	case mechanisms.StepUpdate, mechanisms.StepFinal:
		activeFunction, ok := session.ActiveFunction()
		if !ok || activeFunction != function {
			return objects.NewError("CheckMechanismAgainstProcessing", "operation not initialized", objects.CKR_OPERATION_NOT_INITIALIZED)
		}
	default:
		return objects.NewError("CheckMechanismAgainstProcessing", "invalid processing step", objects.CKR_ARGUMENTS_BAD)
	}
	return nil
}

// CheckCreatedAttrsAgainstProcessing validates that the new object's
// attributes are achievable by the function that creates it.
func CheckCreatedAttrsAgainstProcessing(function mechanisms.ProcessingFunction, attrs *objects.AttributeList) error {
	local, _ := attrs.Bool(objects.CKA_LOCAL)
	switch function {
	case mechanisms.Generate, mechanisms.GeneratePair:
		if !local {
			return objects.NewError("CheckCreatedAttrsAgainstProcessing", "generation cannot produce a non-local object", objects.CKR_TEMPLATE_INCONSISTENT)
		}
	case mechanisms.Import, mechanisms.Unwrap, mechanisms.Derive:
		if local {
			return objects.NewError("CheckCreatedAttrsAgainstProcessing", "only generation produces local objects", objects.CKR_TEMPLATE_INCONSISTENT)
		}
	default:
		return objects.NewError("CheckCreatedAttrsAgainstProcessing", "function cannot create objects", objects.CKR_ARGUMENTS_BAD)
	}

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
	size, ok := secretSize(attrs)
	if !ok {
		return nil
	}
	return mechanisms.CheckKeySize(nil, keyType, size)
}

// CheckParentAttrsAgainstProcessing validates that the parent object can
// serve as input to the function under the mechanism.
func CheckParentAttrsAgainstProcessing(mechanismType objects.MechanismType, function mechanisms.ProcessingFunction, parent *objects.AttributeList) error {
	d, err := mechanisms.Lookup(mechanismType)
	if err != nil {
		return err
	}
	if flagType, ok := requiredParentFlag[function]; ok {
		if allowed, _ := parent.Bool(flagType); !allowed {
			return objects.NewError("CheckParentAttrsAgainstProcessing", "key does not permit the function", objects.CKR_KEY_FUNCTION_NOT_PERMITTED)
		}
	}
	keyType, err := parent.KeyType()
	if err != nil {
		return err
	}
	if !d.AcceptsKeyType(keyType) {
		return objects.NewError("CheckParentAttrsAgainstProcessing", "key type inconsistent with mechanism", objects.CKR_KEY_TYPE_INCONSISTENT)
	}
	if size, ok := secretSize(parent); ok {
		if err := mechanisms.CheckKeySize(d, keyType, size); err != nil {
			return err
		}
	}
	return nil
}

// secretSize reports the secret's byte length, from the value when present
// or from the declared value length.
func secretSize(attrs *objects.AttributeList) (uint32, bool) {
	if attr, err := attrs.Get(objects.CKA_VALUE); err == nil && len(attr.Value) > 0 {
		return uint32(len(attr.Value)), true
	}
	if size, err := attrs.ULong(objects.CKA_VALUE_LEN); err == nil {
		return size, true
	}
	return 0, false
}

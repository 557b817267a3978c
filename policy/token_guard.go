package policy

import (
	"github.com/crtlabs/sks/objects"
)

// CheckTokenState is the write gate run first in every creation protocol:
// a persistent object cannot be created through a read-only session.
func CheckTokenState(session Session, attrs *objects.AttributeList) error {
	if attrs == nil {
		return nil
	}
	if persistent, _ := attrs.Bool(objects.CKA_TOKEN); persistent && session.IsReadOnly() {
		return objects.NewError("CheckTokenState", "session is read only", objects.CKR_SESSION_READ_ONLY)
	}
	return nil
}

// CheckCreatedAttrsAgainstToken validates a new object's attribute list
// against the session login state and write posture.
func CheckCreatedAttrsAgainstToken(session Session, attrs *objects.AttributeList) error {
	if err := CheckTokenState(session, attrs); err != nil {
		return err
	}
	if ObjectIsPrivate(attrs) && !session.IsLoggedIn() {
		return objects.NewError("CheckCreatedAttrsAgainstToken", "private object on a public session", objects.CKR_USER_NOT_LOGGED_IN)
	}
	if trusted, _ := attrs.Bool(objects.CKA_TRUSTED); trusted && session.SecurityLevel() != objects.SecurityOfficer {
		return objects.NewError("CheckCreatedAttrsAgainstToken", "only the security officer may set trusted", objects.CKR_ATTRIBUTE_READ_ONLY)
	}
	return nil
}

// CheckAccessAttrsAgainstToken validates use of an existing object against
// the session state.
func CheckAccessAttrsAgainstToken(session Session, attrs *objects.AttributeList) error {
	if ObjectIsPrivate(attrs) && !session.IsLoggedIn() {
		return objects.NewError("CheckAccessAttrsAgainstToken", "private object on a public session", objects.CKR_USER_NOT_LOGGED_IN)
	}
	return nil
}

// CheckModifyAttrsAgainstToken validates an attribute update on a
// registered object.
func CheckModifyAttrsAgainstToken(session Session, attrs *objects.AttributeList, updates []*objects.Attribute) error {
	if err := CheckAccessAttrsAgainstToken(session, attrs); err != nil {
		return err
	}
	if persistent, _ := attrs.Bool(objects.CKA_TOKEN); persistent && session.IsReadOnly() {
		return objects.NewError("CheckModifyAttrsAgainstToken", "session is read only", objects.CKR_SESSION_READ_ONLY)
	}
	if modifiable, _ := attrs.Bool(objects.CKA_MODIFIABLE); !modifiable {
		return objects.NewError("CheckModifyAttrsAgainstToken", "object is not modifiable", objects.CKR_ACTION_PROHIBITED)
	}
	for _, update := range updates {
		if !modifiableAttributes[update.Type] {
			return objects.NewError("CheckModifyAttrsAgainstToken", "attribute is read only once registered", objects.CKR_ATTRIBUTE_READ_ONLY)
		}
	}
	return nil
}

// ObjectIsPrivate is a pure predicate over the attribute list.
func ObjectIsPrivate(attrs *objects.AttributeList) bool {
	private, _ := attrs.Bool(objects.CKA_PRIVATE)
	return private
}

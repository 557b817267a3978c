package sks

import (
	"sync"

	"github.com/crtlabs/sks/mechanisms"
	"github.com/crtlabs/sks/objects"
	"github.com/crtlabs/sks/policy"
	"github.com/crtlabs/sks/softcrypto"
)

type Session struct {
	sync.Mutex
	Slot   *Slot
	Handle objects.SessionHandle
	flags  uint64

	// finding things
	findInitialized bool
	foundObjects    []objects.ObjectHandle

	// the in-flight multi-part operation, if any
	operation *softcrypto.Operation
}

type Sessions map[objects.SessionHandle]*Session

var sessionHandle = objects.SessionHandle(0)

func NewSession(flags uint64, currentSlot *Slot) *Session {
	sessionHandle++
	return &Session{
		Slot:   currentSlot,
		Handle: sessionHandle,
		flags:  flags,
	}
}

func (session *Session) GetHandle() objects.SessionHandle {
	return session.Handle
}

func (session *Session) GetCurrentSlot() *Slot {
	return session.Slot
}

// IsReadOnly reports whether the session was opened without write access.
func (session *Session) IsReadOnly() bool {
	return session.flags&objects.CKF_RW_SESSION == 0
}

func (session *Session) IsLoggedIn() bool {
	return session.Slot.token != nil && session.Slot.token.IsLoggedIn()
}

func (session *Session) SecurityLevel() objects.SecurityLevel {
	if session.Slot.token == nil {
		return objects.Public
	}
	return session.Slot.token.GetSecurityLevel()
}

func (session *Session) TokenRestricted() bool {
	return session.Slot.token != nil && session.Slot.token.IsRestricted()
}

// ActiveFunction returns the processing function of the in-flight
// multi-part operation on this session, if any.
func (session *Session) ActiveFunction() (mechanisms.ProcessingFunction, bool) {
	if session.operation == nil {
		return 0, false
	}
	return session.operation.Function(), true
}

func (session *Session) GetState() (uint64, error) {
	switch session.SecurityLevel() {
	case objects.SecurityOfficer:
		return objects.CKS_RW_SO_FUNCTIONS, nil
	case objects.User:
		if session.IsReadOnly() {
			return objects.CKS_RO_USER_FUNCTIONS, nil
		}
		return objects.CKS_RW_USER_FUNCTIONS, nil
	case objects.Public:
		if session.IsReadOnly() {
			return objects.CKS_RO_PUBLIC_SESSION, nil
		}
		return objects.CKS_RW_PUBLIC_SESSION, nil
	}
	return 0, objects.NewError("Session.GetState", "invalid security level", objects.CKR_GENERAL_ERROR)
}

func (session *Session) Login(userType objects.UserType, pin string) error {
	token, err := session.Slot.GetToken()
	if err != nil {
		return err
	}
	return token.Login(userType, pin)
}

func (session *Session) Logout() error {
	token, err := session.Slot.GetToken()
	if err != nil {
		return err
	}
	token.Logout()
	return nil
}

// CreateObject registers an object built from clear caller-supplied data
// and sets its handle.
func (session *Session) CreateObject(template []*objects.Attribute) (*objects.CryptoObject, error) {
	attrs, err := policy.CreateAttributesFromTemplate(template, mechanisms.Import, objects.CKO_VENDOR_DEFINED, nil)
	if err != nil {
		return nil, err
	}
	if err := policy.ValidateImport(session, attrs); err != nil {
		return nil, err
	}
	return session.registerObject(attrs)
}

// GenerateKey creates a secret key from token randomness under the
// mechanism.
func (session *Session) GenerateKey(mechanism *mechanisms.Mechanism, template []*objects.Attribute) (*objects.CryptoObject, error) {
	attrs, err := policy.CreateAttributesFromTemplate(template, mechanisms.Generate, objects.CKO_SECRET_KEY, nil)
	if err != nil {
		return nil, err
	}
	if err := policy.ValidateGeneration(session, mechanism, attrs); err != nil {
		return nil, err
	}
	byteSize, err := attrs.ULong(objects.CKA_VALUE_LEN)
	if err != nil {
		return nil, err
	}
	value, err := softcrypto.GenerateSecretValue(byteSize)
	if err != nil {
		return nil, err
	}
	attrs.Set(objects.CKA_VALUE, value)
	attrs.SetULong(objects.CKA_KEY_GEN_MECHANISM, uint32(mechanism.Type))
	return session.registerObject(attrs)
}

// DeriveKey creates a secret key from an existing parent key under a
// derivation mechanism.
func (session *Session) DeriveKey(mechanism *mechanisms.Mechanism, parentHandle objects.ObjectHandle, template []*objects.Attribute) (*objects.CryptoObject, error) {
	parent, err := session.getObject(parentHandle)
	if err != nil {
		return nil, err
	}
	attrs, err := policy.CreateAttributesFromTemplate(template, mechanisms.Derive, objects.CKO_SECRET_KEY, parent.Attributes)
	if err != nil {
		return nil, err
	}
	if err := policy.ValidateDerivation(session, mechanism, parent.Attributes, attrs); err != nil {
		return nil, err
	}
	byteSize, err := attrs.ULong(objects.CKA_VALUE_LEN)
	if err != nil {
		return nil, err
	}
	parentValue, err := parent.Attributes.Get(objects.CKA_VALUE)
	if err != nil {
		return nil, err
	}
	value, err := softcrypto.DeriveSecretValue(mechanism, parentValue.Value, byteSize)
	if err != nil {
		return nil, err
	}
	attrs.Set(objects.CKA_VALUE, value)
	return session.registerObject(attrs)
}

// GetAttributeValue reads attributes from a registered object, withholding
// the ones the exportability policy protects.
func (session *Session) GetAttributeValue(handle objects.ObjectHandle, attrTypes []objects.AttrType) ([]*objects.Attribute, error) {
	object, err := session.getObject(handle)
	if err != nil {
		return nil, err
	}
	out := make([]*objects.Attribute, 0, len(attrTypes))
	for _, attrType := range attrTypes {
		attr, err := object.Attributes.Get(attrType)
		if err != nil {
			return nil, err
		}
		if !policy.AttributeIsExportable(attrType, object.Attributes) {
			return nil, objects.NewError("Session.GetAttributeValue", "attribute is sensitive", objects.CKR_ATTRIBUTE_SENSITIVE)
		}
		out = append(out, attr.Copy())
	}
	return out, nil
}

// SetAttributeValue updates the modifiable attributes of a registered
// object.
func (session *Session) SetAttributeValue(handle objects.ObjectHandle, updates []*objects.Attribute) error {
	object, err := session.getObject(handle)
	if err != nil {
		return err
	}
	if err := policy.CheckModifyAttrsAgainstToken(session, object.Attributes, updates); err != nil {
		return err
	}
	for _, update := range updates {
		object.Attributes.Set(update.Type, update.Value)
	}
	return session.saveToken()
}

// WrapKey exports the wrapped object's secret encrypted under the wrapping
// key.
func (session *Session) WrapKey(mechanism *mechanisms.Mechanism, wrappingHandle, wrappedHandle objects.ObjectHandle) ([]byte, error) {
	wrapping, err := session.keyObject(wrappingHandle, "Session.WrapKey", objects.CKR_WRAPPING_KEY_HANDLE_INVALID)
	if err != nil {
		return nil, err
	}
	wrapped, err := session.keyObject(wrappedHandle, "Session.WrapKey", objects.CKR_KEY_HANDLE_INVALID)
	if err != nil {
		return nil, err
	}
	if err := policy.ValidateUse(session, mechanism, mechanisms.Wrap, mechanisms.StepOneShot, wrapping.Attributes); err != nil {
		return nil, err
	}
	if err := policy.CheckWrapAccess(wrapping.Attributes, wrapped.Attributes); err != nil {
		return nil, err
	}
	wrappingValue, err := wrapping.Attributes.Get(objects.CKA_VALUE)
	if err != nil {
		return nil, err
	}
	value, err := wrapped.Attributes.Get(objects.CKA_VALUE)
	if err != nil {
		return nil, err
	}
	return softcrypto.WrapValue(mechanism, wrappingValue.Value, value.Value)
}

// UnwrapKey registers a new key recovered from wrapped material.
func (session *Session) UnwrapKey(mechanism *mechanisms.Mechanism, unwrappingHandle objects.ObjectHandle, wrapped []byte, template []*objects.Attribute) (*objects.CryptoObject, error) {
	unwrapping, err := session.keyObject(unwrappingHandle, "Session.UnwrapKey", objects.CKR_UNWRAPPING_KEY_HANDLE_INVALID)
	if err != nil {
		return nil, err
	}
	if err := policy.ValidateUse(session, mechanism, mechanisms.Unwrap, mechanisms.StepOneShot, unwrapping.Attributes); err != nil {
		return nil, err
	}
	attrs, err := policy.CreateAttributesFromTemplate(template, mechanisms.Unwrap, objects.CKO_SECRET_KEY, nil)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckCreatedAttrsAgainstProcessing(mechanisms.Unwrap, attrs); err != nil {
		return nil, err
	}
	if err := policy.CheckCreatedAttrsAgainstToken(session, attrs); err != nil {
		return nil, err
	}
	unwrappingValue, err := unwrapping.Attributes.Get(objects.CKA_VALUE)
	if err != nil {
		return nil, err
	}
	value, err := softcrypto.UnwrapValue(mechanism, unwrappingValue.Value, wrapped)
	if err != nil {
		return nil, err
	}
	if class, err := attrs.Class(); err == nil && class == objects.CKO_SECRET_KEY {
		keyType, err := attrs.KeyType()
		if err != nil {
			return nil, err
		}
		if err := mechanisms.CheckKeySize(nil, keyType, uint32(len(value))); err != nil {
			return nil, err
		}
	}
	attrs.Set(objects.CKA_VALUE, value)
	attrs.SetULong(objects.CKA_VALUE_LEN, uint32(len(value)))
	return session.registerObject(attrs)
}

// ProcessingInit starts a multi-part operation on this session. keyHandle
// is zero for keyless mechanisms (digests).
func (session *Session) ProcessingInit(function mechanisms.ProcessingFunction, mechanism *mechanisms.Mechanism, keyHandle objects.ObjectHandle) error {
	keyAttrs, keyValue, err := session.operationKey(keyHandle)
	if err != nil {
		return err
	}
	if err := policy.ValidateUse(session, mechanism, function, mechanisms.StepInit, keyAttrs); err != nil {
		return err
	}
	operation, err := softcrypto.NewOperation(function, mechanism, keyValue)
	if err != nil {
		return err
	}
	session.operation = operation
	return nil
}

// ProcessingUpdate feeds one part of the input to the active operation.
func (session *Session) ProcessingUpdate(data []byte) ([]byte, error) {
	if session.operation == nil {
		return nil, objects.NewError("Session.ProcessingUpdate", "operation not initialized", objects.CKR_OPERATION_NOT_INITIALIZED)
	}
	return session.operation.Update(data)
}

// ProcessingFinal finishes the active operation and clears the slot.
func (session *Session) ProcessingFinal(data []byte) ([]byte, error) {
	if session.operation == nil {
		return nil, objects.NewError("Session.ProcessingFinal", "operation not initialized", objects.CKR_OPERATION_NOT_INITIALIZED)
	}
	out, err := session.operation.Final(data)
	session.operation = nil
	return out, err
}

// ProcessingVerifyFinal finishes an active verification against the
// caller's signature and clears the slot.
func (session *Session) ProcessingVerifyFinal(data, signature []byte) error {
	if session.operation == nil {
		return objects.NewError("Session.ProcessingVerifyFinal", "operation not initialized", objects.CKR_OPERATION_NOT_INITIALIZED)
	}
	err := session.operation.VerifyFinal(data, signature)
	session.operation = nil
	return err
}

// ProcessingOneShot runs a complete single-part operation without touching
// the session's operation slot.
func (session *Session) ProcessingOneShot(function mechanisms.ProcessingFunction, mechanism *mechanisms.Mechanism, keyHandle objects.ObjectHandle, data []byte) ([]byte, error) {
	keyAttrs, keyValue, err := session.operationKey(keyHandle)
	if err != nil {
		return nil, err
	}
	if err := policy.ValidateUse(session, mechanism, function, mechanisms.StepOneShot, keyAttrs); err != nil {
		return nil, err
	}
	operation, err := softcrypto.NewOperation(function, mechanism, keyValue)
	if err != nil {
		return nil, err
	}
	return operation.Final(data)
}

func (session *Session) FindObjectsInit(template []*objects.Attribute) error {
	if session.findInitialized {
		return objects.NewError("Session.FindObjectsInit", "operation already initialized", objects.CKR_OPERATION_ACTIVE)
	}
	token, err := session.Slot.GetToken()
	if err != nil {
		return err
	}
	attrs, err := objects.NewAttributeListFromEntries(template)
	if err != nil {
		return err
	}
	session.foundObjects = make([]objects.ObjectHandle, 0)
	for _, object := range token.Objects {
		if policy.ObjectIsPrivate(object.Attributes) && !session.IsLoggedIn() {
			continue
		}
		if attrs.Len() == 0 || object.Match(attrs) {
			session.foundObjects = append(session.foundObjects, object.Handle)
		}
	}
	session.findInitialized = true
	return nil
}

func (session *Session) FindObjects(maxObjectCount int) ([]objects.ObjectHandle, error) {
	if !session.findInitialized {
		return nil, objects.NewError("Session.FindObjects", "operation not initialized", objects.CKR_OPERATION_NOT_INITIALIZED)
	}
	if maxObjectCount < 0 {
		return nil, objects.NewError("Session.FindObjects", "negative object count", objects.CKR_ARGUMENTS_BAD)
	}
	limit := len(session.foundObjects)
	if maxObjectCount < limit {
		limit = maxObjectCount
	}
	result := session.foundObjects[:limit]
	session.foundObjects = session.foundObjects[limit:]
	return result, nil
}

func (session *Session) FindObjectsFinal() error {
	if !session.findInitialized {
		return objects.NewError("Session.FindObjectsFinal", "operation not initialized", objects.CKR_OPERATION_NOT_INITIALIZED)
	}
	session.findInitialized = false
	session.foundObjects = nil
	return nil
}

func (session *Session) DestroyObject(handle objects.ObjectHandle) error {
	object, err := session.getObject(handle)
	if err != nil {
		return err
	}
	if destroyable, _ := object.Attributes.Bool(objects.CKA_DESTROYABLE); !destroyable {
		return objects.NewError("Session.DestroyObject", "object is not destroyable", objects.CKR_ACTION_PROHIBITED)
	}
	token, err := session.Slot.GetToken()
	if err != nil {
		return err
	}
	if err := token.DeleteObject(handle); err != nil {
		return err
	}
	if object.Type == objects.TokenObject {
		return session.saveToken()
	}
	return nil
}

// getObject resolves a handle and applies the access policy.
func (session *Session) getObject(handle objects.ObjectHandle) (*objects.CryptoObject, error) {
	token, err := session.Slot.GetToken()
	if err != nil {
		return nil, err
	}
	object, err := token.GetObject(handle)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckAccessAttrsAgainstToken(session, object.Attributes); err != nil {
		return nil, err
	}
	return object, nil
}

// keyObject resolves a handle that names a key, reporting a handle that
// does not resolve with the key-specific status code callers expect.
// Access failures keep their own codes.
func (session *Session) keyObject(handle objects.ObjectHandle, who string, code objects.RV) (*objects.CryptoObject, error) {
	object, err := session.getObject(handle)
	if err != nil {
		if objects.ErrorRV(err) == objects.CKR_OBJECT_HANDLE_INVALID {
			return nil, objects.NewError(who, "key handle does not resolve", code)
		}
		return nil, err
	}
	return object, nil
}

// operationKey resolves the key of a processing operation. A zero handle
// means the mechanism is keyless.
func (session *Session) operationKey(keyHandle objects.ObjectHandle) (*objects.AttributeList, []byte, error) {
	if keyHandle == 0 {
		return nil, nil, nil
	}
	object, err := session.keyObject(keyHandle, "Session.operationKey", objects.CKR_KEY_HANDLE_INVALID)
	if err != nil {
		return nil, nil, err
	}
	value, err := object.Attributes.Get(objects.CKA_VALUE)
	if err != nil {
		return nil, nil, err
	}
	return object.Attributes, value.Value, nil
}

// registerObject adds the completed object to the token and persists the
// token if the object outlives the session.
func (session *Session) registerObject(attrs *objects.AttributeList) (*objects.CryptoObject, error) {
	token, err := session.Slot.GetToken()
	if err != nil {
		return nil, err
	}
	object := objects.NewCryptoObject(attrs)
	token.AddObject(object)
	if object.Type == objects.TokenObject {
		if err := session.saveToken(); err != nil {
			return nil, err
		}
	}
	return object, nil
}

func (session *Session) saveToken() error {
	token, err := session.Slot.GetToken()
	if err != nil {
		return err
	}
	if err := session.Slot.Application.Database.SaveToken(token); err != nil {
		return objects.NewError("Session.saveToken", err.Error(), objects.CKR_DEVICE_ERROR)
	}
	return nil
}

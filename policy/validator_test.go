package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crtlabs/sks/mechanisms"
	"github.com/crtlabs/sks/objects"
)

type fakeSession struct {
	readOnly   bool
	loggedIn   bool
	level      objects.SecurityLevel
	restricted bool
	active     mechanisms.ProcessingFunction
	hasActive  bool
}

func (s *fakeSession) IsReadOnly() bool                     { return s.readOnly }
func (s *fakeSession) IsLoggedIn() bool                     { return s.loggedIn }
func (s *fakeSession) SecurityLevel() objects.SecurityLevel { return s.level }
func (s *fakeSession) TokenRestricted() bool                { return s.restricted }
func (s *fakeSession) ActiveFunction() (mechanisms.ProcessingFunction, bool) {
	return s.active, s.hasActive
}

func userSession() *fakeSession {
	return &fakeSession{loggedIn: true, level: objects.User}
}

func rwUserSession() *fakeSession {
	s := userSession()
	s.readOnly = false
	return s
}

func completedGenAttrs(t *testing.T, byteSize uint32) *objects.AttributeList {
	t.Helper()
	template := []*objects.Attribute{
		objects.NewULongAttribute(objects.CKA_CLASS, uint32(objects.CKO_SECRET_KEY)),
		objects.NewULongAttribute(objects.CKA_KEY_TYPE, uint32(objects.CKK_AES)),
		objects.NewULongAttribute(objects.CKA_VALUE_LEN, byteSize),
	}
	attrs, err := CreateAttributesFromTemplate(template, mechanisms.Generate, objects.CKO_VENDOR_DEFINED, nil)
	require.NoError(t, err)
	return attrs
}

func aesKeyGen() *mechanisms.Mechanism {
	return &mechanisms.Mechanism{Type: objects.CKM_AES_KEY_GEN}
}

func TestValidateGeneration(t *testing.T) {
	require.NoError(t, ValidateGeneration(rwUserSession(), aesKeyGen(), completedGenAttrs(t, 32)))
}

func TestGenerationFailsFastOnReadOnlySession(t *testing.T) {
	session := userSession()
	session.readOnly = true
	// The write gate fires before the bad mechanism is even looked at.
	badMechanism := &mechanisms.Mechanism{Type: objects.CKM_VENDOR_DEFINED | 0x42}
	err := ValidateGeneration(session, badMechanism, completedGenAttrs(t, 32))
	require.Error(t, err)
	assert.Equal(t, objects.CKR_SESSION_READ_ONLY, objects.ErrorRV(err))
}

func TestGenerationRejectsWrongFunctionMechanism(t *testing.T) {
	digest := &mechanisms.Mechanism{Type: objects.CKM_SHA256}
	err := ValidateGeneration(rwUserSession(), digest, completedGenAttrs(t, 32))
	require.Error(t, err)
	assert.Equal(t, objects.CKR_MECHANISM_INVALID, objects.ErrorRV(err))
}

func TestGenerationRejectsOutOfRangeKeySize(t *testing.T) {
	err := ValidateGeneration(rwUserSession(), aesKeyGen(), completedGenAttrs(t, 8))
	require.Error(t, err)
	assert.Equal(t, objects.CKR_KEY_SIZE_RANGE, objects.ErrorRV(err))
}

func TestGenerationRejectsPrivateObjectOnPublicSession(t *testing.T) {
	attrs := completedGenAttrs(t, 32)
	attrs.SetBool(objects.CKA_PRIVATE, true)
	session := &fakeSession{level: objects.Public}
	err := ValidateGeneration(session, aesKeyGen(), attrs)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_USER_NOT_LOGGED_IN, objects.ErrorRV(err))
}

func TestTrustedNeedsSecurityOfficer(t *testing.T) {
	attrs := completedGenAttrs(t, 32)
	attrs.SetBool(objects.CKA_TRUSTED, true)
	err := ValidateGeneration(rwUserSession(), aesKeyGen(), attrs)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_ATTRIBUTE_READ_ONLY, objects.ErrorRV(err))

	so := &fakeSession{loggedIn: true, level: objects.SecurityOfficer}
	require.NoError(t, ValidateGeneration(so, aesKeyGen(), attrs))
}

func TestRestrictedTokenOnlyServesAlwaysAvailable(t *testing.T) {
	session := userSession()
	session.restricted = true
	err := ValidateGeneration(session, aesKeyGen(), completedGenAttrs(t, 32))
	require.Error(t, err)
	assert.Equal(t, objects.CKR_MECHANISM_INVALID, objects.ErrorRV(err))

	// Digests stay available.
	digest := &mechanisms.Mechanism{Type: objects.CKM_SHA256}
	require.NoError(t, ValidateUse(session, digest, mechanisms.Digest, mechanisms.StepInit, nil))
}

func TestValidateUseRequiresUsageFlag(t *testing.T) {
	parent := restrictedParent()
	parent.SetBool(objects.CKA_SIGN, false)
	mechanism := &mechanisms.Mechanism{Type: objects.CKM_AES_CMAC}
	err := ValidateUse(userSession(), mechanism, mechanisms.Sign, mechanisms.StepInit, parent)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_KEY_FUNCTION_NOT_PERMITTED, objects.ErrorRV(err))

	parent.SetBool(objects.CKA_SIGN, true)
	require.NoError(t, ValidateUse(userSession(), mechanism, mechanisms.Sign, mechanisms.StepInit, parent))
}

func TestValidateUseRejectsWrongKeyType(t *testing.T) {
	parent := restrictedParent()
	parent.SetBool(objects.CKA_SIGN, true)
	hmac := &mechanisms.Mechanism{Type: objects.CKM_SHA256_HMAC}
	err := ValidateUse(userSession(), hmac, mechanisms.Sign, mechanisms.StepInit, parent)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_KEY_TYPE_INCONSISTENT, objects.ErrorRV(err))
}

func TestOperationStateMachine(t *testing.T) {
	digest := &mechanisms.Mechanism{Type: objects.CKM_SHA256}

	// Init with an operation already active.
	session := userSession()
	session.hasActive = true
	session.active = mechanisms.Digest
	err := ValidateUse(session, digest, mechanisms.Digest, mechanisms.StepInit, nil)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_OPERATION_ACTIVE, objects.ErrorRV(err))

	// Update without an active operation.
	err = ValidateUse(userSession(), digest, mechanisms.Digest, mechanisms.StepUpdate, nil)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_OPERATION_NOT_INITIALIZED, objects.ErrorRV(err))

	// Final of a different function than the active one.
	session = userSession()
	session.hasActive = true
	session.active = mechanisms.Encrypt
	err = ValidateUse(session, digest, mechanisms.Digest, mechanisms.StepFinal, nil)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_OPERATION_NOT_INITIALIZED, objects.ErrorRV(err))

	// Matching Update and Final are fine.
	session.active = mechanisms.Digest
	require.NoError(t, ValidateUse(session, digest, mechanisms.Digest, mechanisms.StepUpdate, nil))
	require.NoError(t, ValidateUse(session, digest, mechanisms.Digest, mechanisms.StepFinal, nil))
}

func deriveMechanism() *mechanisms.Mechanism {
	return &mechanisms.Mechanism{Type: objects.CKM_SHA256_KEY_DERIVATION}
}

func deriveChild(t *testing.T, parent *objects.AttributeList, overrides ...*objects.Attribute) *objects.AttributeList {
	t.Helper()
	template := []*objects.Attribute{
		objects.NewULongAttribute(objects.CKA_CLASS, uint32(objects.CKO_SECRET_KEY)),
		objects.NewULongAttribute(objects.CKA_VALUE_LEN, 16),
	}
	template = append(template, overrides...)
	child, err := CreateAttributesFromTemplate(template, mechanisms.Derive, objects.CKO_VENDOR_DEFINED, parent)
	require.NoError(t, err)
	return child
}

func TestValidateDerivation(t *testing.T) {
	parent := restrictedParent()
	child := deriveChild(t, parent)
	require.NoError(t, ValidateDerivation(userSession(), deriveMechanism(), parent, child))
}

func TestDerivationRejectsWidening(t *testing.T) {
	parent := restrictedParent()

	child := deriveChild(t, parent, objects.NewBoolAttribute(objects.CKA_SENSITIVE, false))
	err := ValidateDerivation(userSession(), deriveMechanism(), parent, child)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_RESTRICTION_WIDENED, objects.ErrorRV(err))

	child = deriveChild(t, parent, objects.NewBoolAttribute(objects.CKA_EXTRACTABLE, true))
	err = ValidateDerivation(userSession(), deriveMechanism(), parent, child)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_RESTRICTION_WIDENED, objects.ErrorRV(err))

	child = deriveChild(t, parent, objects.NewBoolAttribute(objects.CKA_WRAP_WITH_TRUSTED, false))
	err = ValidateDerivation(userSession(), deriveMechanism(), parent, child)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_RESTRICTION_WIDENED, objects.ErrorRV(err))
}

func TestDerivationAllowsTightening(t *testing.T) {
	parent := objects.NewAttributeList()
	parent.SetULong(objects.CKA_CLASS, uint32(objects.CKO_SECRET_KEY))
	parent.SetULong(objects.CKA_KEY_TYPE, uint32(objects.CKK_AES))
	parent.SetBool(objects.CKA_SENSITIVE, false)
	parent.SetBool(objects.CKA_EXTRACTABLE, true)
	parent.SetBool(objects.CKA_DERIVE, true)
	parent.Set(objects.CKA_VALUE, make([]byte, 32))

	child := deriveChild(t, parent,
		objects.NewBoolAttribute(objects.CKA_SENSITIVE, true),
		objects.NewBoolAttribute(objects.CKA_EXTRACTABLE, false))
	require.NoError(t, ValidateDerivation(userSession(), deriveMechanism(), parent, child))
}

func TestDerivationRequiresDeriveFlag(t *testing.T) {
	parent := restrictedParent()
	parent.SetBool(objects.CKA_DERIVE, false)
	child := deriveChild(t, parent)
	err := ValidateDerivation(userSession(), deriveMechanism(), parent, child)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_KEY_FUNCTION_NOT_PERMITTED, objects.ErrorRV(err))
}

func TestDerivedKeyCannotOutgrowParentSlice(t *testing.T) {
	parent := restrictedParent()
	mechanism := &mechanisms.Mechanism{Type: objects.CKM_AES_ECB_ENCRYPT_DATA}

	template := []*objects.Attribute{
		objects.NewULongAttribute(objects.CKA_CLASS, uint32(objects.CKO_SECRET_KEY)),
		objects.NewULongAttribute(objects.CKA_VALUE_LEN, 48),
	}
	child, err := CreateAttributesFromTemplate(template, mechanisms.Derive, objects.CKO_VENDOR_DEFINED, parent)
	require.NoError(t, err)
	err = ValidateDerivation(userSession(), mechanism, parent, child)
	require.Error(t, err)
}

func TestCheckCreatedAttrsPairConsistency(t *testing.T) {
	attrs1 := completedGenAttrs(t, 32)
	attrs2 := completedGenAttrs(t, 32)
	require.NoError(t, CheckCreatedAttrs(attrs1, attrs2))

	// Both halves got the same generated id.
	id1, err := attrs1.Get(objects.CKA_ID)
	require.NoError(t, err)
	id2, err := attrs2.Get(objects.CKA_ID)
	require.NoError(t, err)
	assert.Equal(t, id1.Value, id2.Value)

	attrs2.SetULong(objects.CKA_KEY_TYPE, uint32(objects.CKK_GENERIC_SECRET))
	err = CheckCreatedAttrs(attrs1, attrs2)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_KEY_TYPE_INCONSISTENT, objects.ErrorRV(err))

	attrs2 = completedGenAttrs(t, 32)
	attrs2.SetBool(objects.CKA_SENSITIVE, true)
	err = CheckCreatedAttrs(attrs1, attrs2)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_RESTRICTION_WIDENED, objects.ErrorRV(err))
}

func TestCheckCreatedAttrsRejectsMismatchedIDs(t *testing.T) {
	attrs1 := completedGenAttrs(t, 32)
	attrs1.Set(objects.CKA_ID, []byte("id-one"))
	attrs2 := completedGenAttrs(t, 32)
	attrs2.Set(objects.CKA_ID, []byte("id-two"))

	err := CheckCreatedAttrs(attrs1, attrs2)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_TEMPLATE_INCONSISTENT, objects.ErrorRV(err))
}

func TestCheckWrapAccess(t *testing.T) {
	wrapping := objects.NewAttributeList()
	wrapping.SetBool(objects.CKA_TRUSTED, false)

	wrapped := objects.NewAttributeList()
	wrapped.SetBool(objects.CKA_EXTRACTABLE, false)
	err := CheckWrapAccess(wrapping, wrapped)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_KEY_UNEXTRACTABLE, objects.ErrorRV(err))

	wrapped.SetBool(objects.CKA_EXTRACTABLE, true)
	wrapped.SetBool(objects.CKA_WRAP_WITH_TRUSTED, true)
	err = CheckWrapAccess(wrapping, wrapped)
	require.Error(t, err)
	assert.Equal(t, objects.CKR_KEY_NOT_WRAPPABLE, objects.ErrorRV(err))

	wrapping.SetBool(objects.CKA_TRUSTED, true)
	require.NoError(t, CheckWrapAccess(wrapping, wrapped))
}

func TestMaxMinKeySize(t *testing.T) {
	max, min, err := MaxMinKeySize(objects.CKK_AES, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), max)
	assert.Equal(t, uint32(16), min)
}

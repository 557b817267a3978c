package objects

// Security level constant
type SecurityLevel int

const (
	Error SecurityLevel = iota
	SecurityOfficer
	User
	Public
)

// Token information flags.
const (
	CKF_RNG                  uint64 = 0x00000001
	CKF_WRITE_PROTECTED      uint64 = 0x00000002
	CKF_LOGIN_REQUIRED       uint64 = 0x00000004
	CKF_USER_PIN_INITIALIZED uint64 = 0x00000008
	CKF_TOKEN_INITIALIZED    uint64 = 0x00000400
)

const MaxLabelLength = 32

// A token of the secure key service. It owns the registered objects and the
// login state shared by all sessions on its slot.
type Token struct {
	Label         string
	Pin           string
	SoPin         string
	Objects       CryptoObjects
	tokenFlags    uint64
	securityLevel SecurityLevel
	loggedIn      bool
	restricted    bool
	nextHandle    ObjectHandle
}

func NewToken(label, userPin, soPin string) (*Token, error) {
	if len(label) > MaxLabelLength {
		return nil, NewError("objects.NewToken", "label with more than 32 chars", CKR_ARGUMENTS_BAD)
	}
	newToken := &Token{
		Label:   label,
		Pin:     userPin,
		SoPin:   soPin,
		Objects: make(CryptoObjects),
		tokenFlags: CKF_RNG |
			CKF_LOGIN_REQUIRED |
			CKF_USER_PIN_INITIALIZED |
			CKF_TOKEN_INITIALIZED,
		securityLevel: Public,
	}
	return newToken, nil
}

// Equals returns true if the token objects are equal.
func (token *Token) Equals(token2 *Token) bool {
	return token.Label == token2.Label &&
		token.Pin == token2.Pin &&
		token.SoPin == token2.SoPin &&
		token.Objects.Equals(token2.Objects)
}

func (token *Token) GetFlags() uint64 {
	return token.tokenFlags
}

// Sets the user pin to a new pin.
func (token *Token) SetUserPin(pin string) {
	token.Pin = pin
}

// Gets security level set for the token at Login
func (token *Token) GetSecurityLevel() SecurityLevel {
	return token.securityLevel
}

func (token *Token) IsLoggedIn() bool {
	return token.loggedIn
}

// A restricted token only offers its always-available mechanisms (e.g. after
// a self-test failure). Restriction is imposed by the operator, never by the
// engine itself.
func (token *Token) SetRestricted(restricted bool) {
	token.restricted = restricted
}

func (token *Token) IsRestricted() bool {
	return token.restricted
}

// Checks if the pin provided is the user pin
func (token *Token) CheckUserPin(pin string) (SecurityLevel, error) {
	if token.Pin == pin {
		return User, nil
	}
	return Error, NewError("Token.CheckUserPin", "incorrect pin", CKR_PIN_INCORRECT)
}

// Checks if the pin provided is the SO pin.
func (token *Token) CheckSecurityOfficerPin(pin string) (SecurityLevel, error) {
	if token.SoPin == pin {
		return SecurityOfficer, nil
	}
	return Error, NewError("Token.CheckSecurityOfficerPin", "incorrect pin", CKR_PIN_INCORRECT)
}

// Logs into the token, or returns an error if something goes wrong.
func (token *Token) Login(userType UserType, pin string) error {
	if token.loggedIn &&
		((userType == CKU_USER && token.securityLevel == SecurityOfficer) ||
			(userType == CKU_SO && token.securityLevel == User)) {
		return NewError("Token.Login", "another user already logged in", CKR_USER_ANOTHER_ALREADY_LOGGED_IN)
	}

	switch userType {
	case CKU_SO:
		securityLevel, err := token.CheckSecurityOfficerPin(pin)
		if err != nil {
			return err
		}
		token.securityLevel = securityLevel
	case CKU_USER:
		securityLevel, err := token.CheckUserPin(pin)
		if err != nil {
			return err
		}
		token.securityLevel = securityLevel
	case CKU_CONTEXT_SPECIFIC:
		switch token.securityLevel {
		case Public:
			return NewError("Token.Login", "no operation to re-authenticate", CKR_OPERATION_NOT_INITIALIZED)
		case User:
			securityLevel, err := token.CheckUserPin(pin)
			if err != nil {
				return err
			}
			token.securityLevel = securityLevel
		case SecurityOfficer:
			securityLevel, err := token.CheckSecurityOfficerPin(pin)
			if err != nil {
				return err
			}
			token.securityLevel = securityLevel
		}
	default:
		return NewError("Token.Login", "bad userType", CKR_USER_TYPE_INVALID)
	}
	token.loggedIn = true
	return nil
}

// Logs out from the token.
func (token *Token) Logout() {
	token.securityLevel = Public
	token.loggedIn = false
}

// Adds a cryptoObject to the token, assigning its handle.
func (token *Token) AddObject(object *CryptoObject) ObjectHandle {
	token.nextHandle++
	object.Handle = token.nextHandle
	token.Objects[object.Handle] = object
	return object.Handle
}

// SetNextHandle moves the handle counter past the handles already persisted.
func (token *Token) SetNextHandle(handle ObjectHandle) {
	if handle > token.nextHandle {
		token.nextHandle = handle
	}
}

// Returns the label of the token.
func (token *Token) GetLabel() string {
	return token.Label
}

// Returns an object that uses the handle provided.
func (token *Token) GetObject(handle ObjectHandle) (*CryptoObject, error) {
	object, ok := token.Objects[handle]
	if !ok {
		return nil, NewError("Token.GetObject", "object not found", CKR_OBJECT_HANDLE_INVALID)
	}
	return object, nil
}

func (token *Token) DeleteObject(handle ObjectHandle) error {
	if _, ok := token.Objects[handle]; !ok {
		return NewError("Token.DeleteObject", "object not found", CKR_OBJECT_HANDLE_INVALID)
	}
	delete(token.Objects, handle)
	return nil
}

// Copies the state of a token
func (token *Token) CopyState(token2 *Token) {
	token.Pin = token2.Pin
	token.securityLevel = token2.securityLevel
	token.loggedIn = token2.loggedIn
	token.SoPin = token2.SoPin
}

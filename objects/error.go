package objects

import "fmt"

// An error raised by a component of the engine, carrying the return value
// reported to the caller boundary.
type P11Error struct {
	Who         string
	Description string
	Code        RV
}

func NewError(who, description string, code RV) *P11Error {
	return &P11Error{
		Who:         who,
		Description: description,
		Code:        code,
	}
}

func (err P11Error) Error() string {
	return fmt.Sprintf("%s: %s", err.Who, err.Description)
}

// ErrorRV extracts the return value from an error. A nil error is CKR_OK;
// errors not raised by this engine map to CKR_GENERAL_ERROR.
func ErrorRV(err error) RV {
	if err == nil {
		return CKR_OK
	}
	switch e := err.(type) {
	case *P11Error:
		return e.Code
	case P11Error:
		return e.Code
	default:
		return CKR_GENERAL_ERROR
	}
}

// Package policy implements the object-attribute compliance engine: it
// decides whether a requested attribute set is internally consistent,
// consistent with the session and token state, with the parent object and
// with the mechanism invoked. It never performs crypto and never registers
// objects itself.
package policy

import (
	"github.com/crtlabs/sks/mechanisms"
	"github.com/crtlabs/sks/objects"
)

// Session is the read-only view of the caller's session the engine checks
// against. The session manager owns the state; the engine treats it as an
// immutable snapshot for the duration of one check.
type Session interface {
	IsReadOnly() bool
	IsLoggedIn() bool
	SecurityLevel() objects.SecurityLevel

	// TokenRestricted reports the token's degraded state, in which only
	// always-available mechanisms may be invoked.
	TokenRestricted() bool

	// ActiveFunction returns the processing function of the in-flight
	// multi-part operation on this session, if any.
	ActiveFunction() (mechanisms.ProcessingFunction, bool)
}

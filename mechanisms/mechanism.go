package mechanisms

import (
	"github.com/crtlabs/sks/objects"
)

// ProcessingFunction is the category of operation a request asks the engine
// to authorize. The set is closed, so dispatch is plain branching.
type ProcessingFunction int

const (
	Digest ProcessingFunction = iota
	Generate
	GeneratePair
	Derive
	Wrap
	Unwrap
	Encrypt
	Decrypt
	Sign
	Verify
	SignRecover
	VerifyRecover
	Import
	Copy
	Modify
	Destroy
)

var functionNames = map[ProcessingFunction]string{
	Digest:        "digest",
	Generate:      "generate",
	GeneratePair:  "generate-pair",
	Derive:        "derive",
	Wrap:          "wrap",
	Unwrap:        "unwrap",
	Encrypt:       "encrypt",
	Decrypt:       "decrypt",
	Sign:          "sign",
	Verify:        "verify",
	SignRecover:   "sign-recover",
	VerifyRecover: "verify-recover",
	Import:        "import",
	Copy:          "copy",
	Modify:        "modify",
	Destroy:       "destroy",
}

func (f ProcessingFunction) String() string {
	if name, ok := functionNames[f]; ok {
		return name
	}
	return "unknown-function"
}

// ProcessingStep is the phase of a possibly multi-part operation.
// Init starts an operation slot; OneShot and Final are terminal; Update may
// repeat between Init and Final.
type ProcessingStep int

const (
	StepInit ProcessingStep = iota
	StepOneShot
	StepUpdate
	StepFinal
)

func (s ProcessingStep) String() string {
	switch s {
	case StepInit:
		return "init"
	case StepOneShot:
		return "oneshot"
	case StepUpdate:
		return "update"
	case StepFinal:
		return "final"
	}
	return "unknown-step"
}

// Mechanism represents a cryptographic operation requested by a caller.
type Mechanism struct {
	Type      objects.MechanismType // Mechanism Type
	Parameter []byte                // Parameters for the mechanism
}

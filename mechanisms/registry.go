package mechanisms

import (
	"github.com/crtlabs/sks/objects"
)

// Descriptor declares what the token supports for one mechanism: the
// processing functions it may serve, the key types it operates on and the
// size bounds of those keys. Descriptors are immutable.
type Descriptor struct {
	Type  objects.MechanismType
	Flags uint32

	// Key types the mechanism accepts or produces. Empty for keyless
	// mechanisms (digests).
	KeyTypes []objects.KeyType

	// Bounds on the key size in the key type's native unit. Zero means the
	// key-type bounds alone apply.
	MinKeySize uint32
	MaxKeySize uint32

	// Mechanisms still offered when the token is in its restricted state.
	AlwaysAvailable bool
}

// Allows returns true if the mechanism may serve the processing function.
func (d *Descriptor) Allows(function ProcessingFunction) bool {
	flag, ok := functionFlags[function]
	if !ok {
		return false
	}
	return d.Flags&flag == flag
}

// AcceptsKeyType returns true if the mechanism operates on the key type.
func (d *Descriptor) AcceptsKeyType(keyType objects.KeyType) bool {
	if len(d.KeyTypes) == 0 {
		return false
	}
	for _, kt := range d.KeyTypes {
		if kt == keyType {
			return true
		}
	}
	return false
}

var functionFlags = map[ProcessingFunction]uint32{
	Digest:       objects.CKF_DIGEST,
	Generate:     objects.CKF_GENERATE,
	GeneratePair: objects.CKF_GENERATE_KEY_PAIR,
	Derive:       objects.CKF_DERIVE,
	Wrap:         objects.CKF_WRAP,
	Unwrap:       objects.CKF_UNWRAP,
	Encrypt:      objects.CKF_ENCRYPT,
	Decrypt:      objects.CKF_DECRYPT,
	Sign:         objects.CKF_SIGN,
	Verify:       objects.CKF_VERIFY,
}

// Lookup returns the descriptor for a mechanism. An unknown mechanism is
// fatal to the request.
func Lookup(mechanismType objects.MechanismType) (*Descriptor, error) {
	d, ok := registry[mechanismType]
	if !ok {
		return nil, objects.NewError("mechanisms.Lookup", "unknown mechanism", objects.CKR_MECHANISM_INVALID)
	}
	return d, nil
}

// CheckMechanismFlags validates a caller-asserted capability mask against
// the registry: every asserted capability must be declared.
func CheckMechanismFlags(mechanismType objects.MechanismType, flags uint32) error {
	d, err := Lookup(mechanismType)
	if err != nil {
		return err
	}
	if d.Flags&flags != flags {
		return objects.NewError("mechanisms.CheckMechanismFlags", "mechanism does not declare the asserted capabilities", objects.CKR_MECHANISM_INVALID)
	}
	return nil
}

type keySizeBounds struct {
	min, max uint32
	bits     bool // bounds kept in bits rather than bytes
}

var keySizes = map[objects.KeyType]keySizeBounds{
	objects.CKK_AES:            {min: 16, max: 32},
	objects.CKK_GENERIC_SECRET: {min: 8, max: 4096, bits: true},
}

// KeySizeBounds returns the supported size range of a key type. Some key
// types are bounded in bits, others in bytes; bitSizeOnly selects bits
// regardless of the native unit.
func KeySizeBounds(keyType objects.KeyType, bitSizeOnly bool) (min, max uint32, err error) {
	bounds, ok := keySizes[keyType]
	if !ok {
		return 0, 0, objects.NewError("mechanisms.KeySizeBounds", "key type has no registered size bounds", objects.CKR_KEY_TYPE_INCONSISTENT)
	}
	min, max = bounds.min, bounds.max
	if bitSizeOnly && !bounds.bits {
		min, max = min*8, max*8
	}
	if !bitSizeOnly && bounds.bits {
		min, max = min/8, max/8
	}
	return min, max, nil
}

// CheckKeySize validates a key length (in the key type's byte unit) against
// the key type bounds and, when the descriptor narrows them, against the
// mechanism bounds.
func CheckKeySize(d *Descriptor, keyType objects.KeyType, byteSize uint32) error {
	min, max, err := KeySizeBounds(keyType, false)
	if err != nil {
		return err
	}
	if d != nil {
		if d.MinKeySize > 0 && d.MinKeySize > min {
			min = d.MinKeySize
		}
		if d.MaxKeySize > 0 && d.MaxKeySize < max {
			max = d.MaxKeySize
		}
	}
	if byteSize < min || byteSize > max {
		return objects.NewError("mechanisms.CheckKeySize", "key size out of range", objects.CKR_KEY_SIZE_RANGE)
	}
	return nil
}

package sks

import (
	"github.com/crtlabs/sks/mechanisms"
	"github.com/crtlabs/sks/objects"
	"github.com/crtlabs/sks/policy"
)

// MechanismInfo is the boundary view of one registry entry, with the size
// bounds in the key type's native unit.
type MechanismInfo struct {
	MinKeySize uint32
	MaxKeySize uint32
	Flags      uint32
}

func GetMechanismList() []objects.MechanismType {
	return mechanisms.Types()
}

func GetMechanismInfo(mechanismType objects.MechanismType) (*MechanismInfo, error) {
	d, err := mechanisms.Lookup(mechanismType)
	if err != nil {
		return nil, err
	}
	info := &MechanismInfo{
		MinKeySize: d.MinKeySize,
		MaxKeySize: d.MaxKeySize,
		Flags:      d.Flags,
	}
	if info.MinKeySize == 0 && info.MaxKeySize == 0 && len(d.KeyTypes) > 0 {
		max, min, err := policy.MaxMinKeySize(d.KeyTypes[0], false)
		if err == nil {
			info.MinKeySize = min
			info.MaxKeySize = max
		}
	}
	return info, nil
}

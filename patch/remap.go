package patch

import (
	"maps"
	"slices"

	sxerrors "github.com/wippyai/sx-tools/errors"
)

// RemapTable maps a library function index to the offset added to it.
// A table is immutable once built.
type RemapTable struct {
	offsets map[uint16]uint16
}

// NewRemapTable validates entries and builds a table. Offsets must be
// positive and the remapped index must fit 16 bits.
func NewRemapTable(entries map[uint16]uint16) (*RemapTable, error) {
	t := &RemapTable{offsets: make(map[uint16]uint16, len(entries))}
	for idx, off := range entries {
		if off == 0 {
			return nil, sxerrors.New(sxerrors.PhasePatch, sxerrors.KindInvalidConfig).
				Value(idx).
				Detail("remap offset for index 0x%04X must be positive", idx).
				Build()
		}
		if uint32(idx)+uint32(off) > 0xFFFF {
			return nil, sxerrors.New(sxerrors.PhasePatch, sxerrors.KindRemapOverflow).
				Value(idx).
				Detail("index 0x%04X plus %d overflows 16 bits", idx, off).
				Build()
		}
		t.offsets[idx] = off
	}
	return t, nil
}

// Lookup returns the remapped index for idx.
func (t *RemapTable) Lookup(idx uint16) (uint16, bool) {
	if t == nil {
		return 0, false
	}
	off, ok := t.offsets[idx]
	if !ok {
		return 0, false
	}
	return idx + off, true
}

// Len returns the number of entries.
func (t *RemapTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.offsets)
}

// Indices returns the remapped indices in ascending order.
func (t *RemapTable) Indices() []uint16 {
	if t == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(t.offsets))
}

// Package sxtest builds synthetic script images for tests.
package sxtest

import (
	"encoding/binary"

	"github.com/wippyai/sx-tools/sx"
)

// Image assembles a header of layout v named name, followed by code and
// trailer. The image size field covers code only.
func Image(v sx.Variant, name string, code, trailer []byte) []byte {
	h := sx.Header{Variant: v, Size: v.HeaderSize()}
	copy(h.MashHeader[:], "MASH")
	copy(h.Name[:], name)
	h.ImageSize = int32(len(code))
	h.PermanentStringTableSize = 3
	h.Flags = 0x10
	if v == sx.VariantPS2 {
		h.Field5C = 0x5C5C5C5C
	}

	out := h.Encode()
	out = append(out, code...)
	return append(out, trailer...)
}

// Word returns the two leading bytes of an instruction.
func Word(tag byte, op byte) []byte {
	return []byte{tag, op}
}

// U16 returns v as little-endian bytes.
func U16(v uint16) []byte {
	return binary.LittleEndian.AppendUint16(nil, v)
}

// U32 returns v as little-endian bytes.
func U32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// Concat joins byte slices.
func Concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

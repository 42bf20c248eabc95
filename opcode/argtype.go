package opcode

import (
	"fmt"
	"strings"
)

// ArgType tags the shape of an instruction operand. It occupies the low
// seven bits of the first instruction byte.
type ArgType byte

const (
	ArgNull ArgType = 0
	ArgNum  ArgType = 1  // 32-bit float literal
	ArgNumR ArgType = 2  // numeric register
	ArgStr  ArgType = 3  // string table index
	ArgWord ArgType = 4  // 16-bit word literal
	ArgPCR  ArgType = 5  // PC-relative branch offset
	ArgSPR  ArgType = 6  // SP-relative address
	ArgPOPO ArgType = 7  // popped stack contents plus offset
	ArgSDR  ArgType = 8  // static data member reference
	ArgSFR  ArgType = 9  // script function reference
	ArgLFR  ArgType = 10 // library function reference, two 16-bit fields
	ArgCLV  ArgType = 11 // class value reference, two 16-bit fields
	ArgSIG  ArgType = 15
	ArgPSIG ArgType = 16
	ArgVAR  ArgType = 17
)

const (
	// ArgTypeMask selects the argument type tag from the first byte.
	ArgTypeMask = 0x7F
	// ExtendFlag widens the instruction header by two bytes.
	ExtendFlag = 0x80
)

type argInfo struct {
	name  string
	width int
}

var argTypes = map[ArgType]argInfo{
	ArgNull: {"NULL", 0},
	ArgNum:  {"NUM", 4},
	ArgNumR: {"NUMR", 4},
	ArgStr:  {"STR", 4},
	ArgWord: {"WORD", 2},
	ArgPCR:  {"PCR", 2},
	ArgSPR:  {"SPR", 2},
	ArgPOPO: {"POPO", 2},
	ArgSDR:  {"SDR", 4},
	ArgSFR:  {"SFR", 4},
	ArgLFR:  {"LFR", 4},
	ArgCLV:  {"CLV", 4},
	ArgSIG:  {"SIG", 4},
	ArgPSIG: {"PSIG", 4},
	ArgVAR:  {"VAR", 4},
}

var argTypesByName = func() map[string]ArgType {
	m := make(map[string]ArgType, len(argTypes))
	for t, info := range argTypes {
		m[info.name] = t
	}
	return m
}()

// Valid reports whether t is an assigned argument type.
func (t ArgType) Valid() bool {
	_, ok := argTypes[t]
	return ok
}

// Width returns the encoded operand width in bytes: 0, 2 or 4.
// Unassigned tags report 0.
func (t ArgType) Width() int {
	return argTypes[t].width
}

// TwoField reports whether the operand is split into two 16-bit halves.
func (t ArgType) TwoField() bool {
	return t == ArgLFR || t == ArgCLV
}

// String returns the short tag name, or a hex placeholder for unassigned tags.
func (t ArgType) String() string {
	if info, ok := argTypes[t]; ok {
		return info.name
	}
	return fmt.Sprintf("ARG_0x%02X", byte(t))
}

// LookupArgType resolves a tag name. The legacy "OP_ARG_" prefix and lower
// case are accepted.
func LookupArgType(name string) (ArgType, bool) {
	name = strings.TrimPrefix(strings.ToUpper(name), "OP_ARG_")
	t, ok := argTypesByName[name]
	return t, ok
}

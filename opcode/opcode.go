package opcode

import (
	"fmt"
	"strings"
)

// Opcode selects the operation of an instruction. The set is closed: codes
// without an entry in the table are invalid.
type Opcode byte

const (
	ADD         Opcode = 0
	AND         Opcode = 1
	BF          Opcode = 2 // branch if false
	BRA         Opcode = 3 // branch always
	BSL         Opcode = 4 // call library function
	BSR         Opcode = 5 // branch to subroutine
	BST         Opcode = 6 // branch to sub-thread
	BTH         Opcode = 7
	DEC         Opcode = 8
	DIV         Opcode = 9
	DUP         Opcode = 10
	EQ          Opcode = 11
	GE          Opcode = 12
	GT          Opcode = 13
	INC         Opcode = 14
	KIL         Opcode = 15
	LE          Opcode = 16
	LNT         Opcode = 18
	LT          Opcode = 20
	MOD         Opcode = 21
	MUL         Opcode = 22
	NE          Opcode = 23
	NEG         Opcode = 24
	NOP         Opcode = 25
	NOT         Opcode = 26
	OR          Opcode = 27
	POP         Opcode = 28
	PSH         Opcode = 29
	RET         Opcode = 30
	SHL         Opcode = 31
	SHR         Opcode = 32
	SPA         Opcode = 33
	SUB         Opcode = 34
	XOR         Opcode = 35
	STR_EQ      Opcode = 37
	STR_NE      Opcode = 38
	ECB         Opcode = 43
	ESB         Opcode = 44
	ECO         Opcode = 45
	SCO         Opcode = 46
	RE          Opcode = 47 // raise event
	RAE         Opcode = 48 // raise all event
	KILL_THREAD Opcode = 49
	FEQZB       Opcode = 50 // float equal zero branch
	I2S         Opcode = 51 // int to string from stack
	F2S         Opcode = 52 // float to string from stack
	PSH_STR     Opcode = 53 // push string from stack to string table
	DEL_THREADS Opcode = 54
	DEL_THREAD  Opcode = 55 // delete thread from stack
	ASF         Opcode = 56 // add two floats from stack and pop
	PSF         Opcode = 57 // pop stack var as float and set register
	CPY         Opcode = 58 // memcopy via stack vars
	COFF        Opcode = 59 // compute offset
)

var opcodeNames = map[Opcode]string{
	ADD: "ADD", AND: "AND", BF: "BF", BRA: "BRA", BSL: "BSL", BSR: "BSR",
	BST: "BST", BTH: "BTH", DEC: "DEC", DIV: "DIV", DUP: "DUP", EQ: "EQ",
	GE: "GE", GT: "GT", INC: "INC", KIL: "KIL", LE: "LE", LNT: "LNT",
	LT: "LT", MOD: "MOD", MUL: "MUL", NE: "NE", NEG: "NEG", NOP: "NOP",
	NOT: "NOT", OR: "OR", POP: "POP", PSH: "PSH", RET: "RET", SHL: "SHL",
	SHR: "SHR", SPA: "SPA", SUB: "SUB", XOR: "XOR",
	STR_EQ: "STR_EQ", STR_NE: "STR_NE",
	ECB: "ECB", ESB: "ESB", ECO: "ECO", SCO: "SCO",
	RE: "RE", RAE: "RAE", KILL_THREAD: "KILL_THREAD", FEQZB: "FEQZB",
	I2S: "I2S", F2S: "F2S", PSH_STR: "PSH_STR",
	DEL_THREADS: "DEL_THREADS", DEL_THREAD: "DEL_THREAD",
	ASF: "ASF", PSF: "PSF", CPY: "CPY", COFF: "COFF",
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

// Valid reports whether op is an assigned opcode.
func (op Opcode) Valid() bool {
	_, ok := opcodeNames[op]
	return ok
}

// String returns the mnemonic, or a hex placeholder for unassigned codes.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_0x%02X", byte(op))
}

// Lookup resolves a mnemonic. The legacy "OP_" prefix and lower case are accepted.
func Lookup(name string) (Opcode, bool) {
	name = strings.TrimPrefix(strings.ToUpper(name), "OP_")
	op, ok := opcodesByName[name]
	return op, ok
}

// Opcodes returns every assigned opcode in numeric order.
func Opcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodeNames))
	for i := 0; i < 256; i++ {
		if op := Opcode(i); op.Valid() {
			ops = append(ops, op)
		}
	}
	return ops
}

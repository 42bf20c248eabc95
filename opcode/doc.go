// Package opcode is the static SX opcode table.
//
// It maps opcode and argument-type codes to their mnemonics and gives the
// encoded width of every argument type. Both sets are closed; Valid reports
// whether a raw code is assigned so decoders can reject the gaps.
package opcode

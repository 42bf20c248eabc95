// Package asm assembles SX listings back into bytecode.
//
// Each source line holding an instruction has the form
//
//	[address] | MNEMONIC [ARGTYPE [VALUE...]]
//
// Text before the first '|' is ignored, as are lines without one and lines
// containing '#'. NUM values are decimal floats; all other values are
// hexadecimal with an optional 0x prefix and sign. LFR and CLV take either one
// 32-bit value or a low and a high 16-bit field, where the low field may be a
// symbol name.
package asm

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"

	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/opcode"
	"github.com/wippyai/sx-tools/sx"
)

// Symbols maps names back to the low field of two-field operands.
type Symbols interface {
	SymbolIndex(at opcode.ArgType, name string) (uint16, bool)
}

// Options configures the assembler.
type Options struct {
	// Permissive assembles an unknown argument type token as NULL and
	// ignores surplus operand tokens instead of failing.
	Permissive bool
	// Symbols resolves named LFR/CLV low fields.
	Symbols Symbols
}

// Parse reads all instructions from r.
func Parse(r io.Reader, opts Options) ([]Statement, error) {
	p := &parser{opts: opts}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []Statement
	line := 0
	for sc.Scan() {
		line++
		tokens, ok := tokenize(sc.Text(), line)
		if !ok {
			continue
		}
		st, err := p.parse(tokens)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := sc.Err(); err != nil {
		return nil, sxerrors.Wrap(sxerrors.PhaseIO, sxerrors.KindIOFailure, err, "read source")
	}
	return out, nil
}

// Encode emits the byte encoding of statements.
func Encode(stmts []Statement) ([]byte, error) {
	enc := sx.NewEncoder()
	for _, st := range stmts {
		if err := enc.Encode(st.Opcode, st.ArgType, st.Arg); err != nil {
			return nil, sxerrors.New(sxerrors.PhaseAssemble, sxerrors.KindInvalidInput).
				Line(st.Line).
				Cause(err).
				Detail("encode %s %s", st.Opcode, st.ArgType).
				Build()
		}
	}
	return enc.Bytes(), nil
}

// Assemble parses and encodes the listing read from r.
func Assemble(r io.Reader, opts Options) ([]byte, error) {
	stmts, err := Parse(r, opts)
	if err != nil {
		return nil, err
	}
	code, err := Encode(stmts)
	if err != nil {
		return nil, err
	}
	Logger().Debug("assembled", zap.Int("instructions", len(stmts)), zap.Int("bytes", len(code)))
	return code, nil
}

// AssembleString is Assemble over a string.
func AssembleString(src string, opts Options) ([]byte, error) {
	return Assemble(strings.NewReader(src), opts)
}

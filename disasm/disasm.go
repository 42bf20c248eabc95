// Package disasm renders SX instruction streams as text.
//
// Lines yields one canonical token set per instruction; Line.String formats it
// as a listing row. With Options.Raw set the listing is the round-trip form
// accepted by package asm: branch operands keep their literal signed offset and
// string operands keep their numeric index.
package disasm

import (
	"fmt"
	"io"
	"iter"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/opcode"
	"github.com/wippyai/sx-tools/strtab"
	"github.com/wippyai/sx-tools/sx"
)

// Separator splits the address column from the instruction body.
const Separator = '|'

const bytesColumn = 24

// Symbols resolves the low field of a two-field operand to a name.
type Symbols interface {
	SymbolName(at opcode.ArgType, index uint16) (string, bool)
}

// Options configures rendering.
type Options struct {
	// Raw shows literal branch offsets and numeric string indices.
	Raw bool
	// AnnotateBytes includes the encoded bytes of each instruction.
	AnnotateBytes bool
	// Strings resolves STR operands when Raw is false.
	Strings *strtab.Table
	// Symbols names class and library references.
	Symbols Symbols
	// Scan ignores the declared image size and walks to the end of the buffer,
	// stopping at the first all-zero opcode word.
	Scan bool
}

// Line is one rendered instruction.
type Line struct {
	Instruction sx.Instruction
	Bytes       []byte // nil unless AnnotateBytes
	Mnemonic    string
	ArgType     string
	Operand     string // empty for NULL operands
}

// Address returns the offset of the instruction within the image.
func (l Line) Address() int {
	return l.Instruction.Offset
}

// String formats the line as a listing row.
func (l Line) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "0x%08X:  ", l.Address())
	if l.Bytes != nil {
		b.WriteString(padRight(hexBytes(l.Bytes), bytesColumn))
		b.WriteByte(' ')
	}
	b.WriteByte(Separator)
	fmt.Fprintf(&b, " %-10s \t%-10s", l.Mnemonic, l.ArgType)
	if l.Operand != "" {
		b.WriteString(" \t")
		b.WriteString(l.Operand)
	}
	return strings.TrimRight(b.String(), " \t")
}

// Lines lazily renders the code region of image. Ranging the sequence again
// re-decodes from the start and yields identical lines. The first error ends
// the sequence.
func Lines(image []byte, h *sx.Header, opts Options) iter.Seq2[Line, error] {
	start, end := h.CodeStart(), h.CodeEnd()
	walk := sx.WalkOptions{}
	if opts.Scan {
		end = len(image)
		walk.StopAtZero = true
	}
	return func(yield func(Line, error) bool) {
		for in, err := range sx.Walk(image, start, end, walk) {
			if err != nil {
				yield(Line{}, err)
				return
			}
			line, err := render(image, in, opts)
			if err != nil {
				yield(Line{}, err)
				return
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}

// Disassemble writes the listing of image to w.
func Disassemble(w io.Writer, image []byte, h *sx.Header, opts Options) error {
	count := 0
	for line, err := range Lines(image, h, opts) {
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, line.String()+"\n"); err != nil {
			return sxerrors.Wrap(sxerrors.PhaseIO, sxerrors.KindIOFailure, err, "write listing")
		}
		count++
	}
	Logger().Debug("disassembled", zap.String("script", h.ScriptName()), zap.Int("instructions", count))
	return nil
}

func render(image []byte, in sx.Instruction, opts Options) (Line, error) {
	line := Line{
		Instruction: in,
		Mnemonic:    in.Opcode.String(),
		ArgType:     in.ArgType.String(),
	}
	if opts.AnnotateBytes {
		line.Bytes = append([]byte(nil), image[in.Offset:in.Next()]...)
	}
	operand, err := Operand(in, opts)
	if err != nil {
		return Line{}, err
	}
	line.Operand = operand
	return line, nil
}

// Operand renders the operand of in.
func Operand(in sx.Instruction, opts Options) (string, error) {
	if !in.HasArg() {
		return "", nil
	}
	switch in.ArgType {
	case opcode.ArgNum:
		return FormatFloat(in.Float()), nil
	case opcode.ArgLFR, opcode.ArgCLV:
		lo, hi := in.Halves()
		low := fmt.Sprintf("0x%04X", lo)
		if opts.Symbols != nil {
			if name, ok := opts.Symbols.SymbolName(in.ArgType, lo); ok {
				low = name
			}
		}
		return fmt.Sprintf("%s 0x%04X", low, hi), nil
	case opcode.ArgPCR:
		if opts.Raw {
			return signedHex(in.Signed()), nil
		}
		return fmt.Sprintf("@0x%08X", in.BranchTarget()), nil
	case opcode.ArgStr:
		if opts.Strings == nil || opts.Raw {
			break
		}
		s, ok := opts.Strings.Lookup(in.Arg)
		if !ok {
			return "", sxerrors.UnresolvedString(in.Offset, in.Arg, opts.Strings.Len())
		}
		return strconv.Quote(s), nil
	}
	if in.ArgType.Width() == 2 {
		return fmt.Sprintf("0x%X", uint16(in.Arg)), nil
	}
	return fmt.Sprintf("0x%X", in.Arg), nil
}

// FormatFloat renders a NUM operand with six decimals, falling back to the
// shortest exact form when six decimals would not read back to the same bits.
func FormatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'f', 6, 32)
	if back, err := strconv.ParseFloat(s, 32); err == nil && math.Float32bits(float32(back)) == math.Float32bits(f) {
		return s
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func signedHex(v int32) string {
	if v < 0 {
		return fmt.Sprintf("-0x%X", -int64(v))
	}
	return fmt.Sprintf("0x%X", v)
}

func hexBytes(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", c)
	}
	return sb.String()
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

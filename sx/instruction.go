package sx

import (
	"errors"
	"math"

	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/opcode"
	"github.com/wippyai/sx-tools/sx/internal/binary"
)

// ErrEndOfStream is returned by Decode when the cursor sits exactly on the
// region end. It marks a clean stop, not a failure.
var ErrEndOfStream = errors.New("sx: end of stream")

const (
	wordSize   = 2
	extendSize = 2
)

// Instruction is one decoded unit of the bytecode stream.
//
// Size always equals 2 + (2 if Extended) + ArgType.Width().
type Instruction struct {
	Offset   int
	Size     int
	Arg      uint32 // 2-byte operands are sign-extended
	Opcode   opcode.Opcode
	ArgType  opcode.ArgType
	Extended bool
}

// ArgOffset returns the position of the operand bytes.
func (in Instruction) ArgOffset() int {
	if in.Extended {
		return in.Offset + wordSize + extendSize
	}
	return in.Offset + wordSize
}

// Next returns the offset of the following instruction.
func (in Instruction) Next() int {
	return in.Offset + in.Size
}

// HasArg reports whether the instruction carries operand bytes.
func (in Instruction) HasArg() bool {
	return in.ArgType.Width() > 0
}

// Signed returns the operand as a signed value.
func (in Instruction) Signed() int32 {
	return int32(in.Arg)
}

// Float returns the operand of a NUM instruction as a float.
func (in Instruction) Float() float32 {
	return math.Float32frombits(in.Arg)
}

// Halves splits a two-field reference into its low and high 16-bit fields.
func (in Instruction) Halves() (lo, hi uint16) {
	return uint16(in.Arg), uint16(in.Arg >> 16)
}

// BranchTarget resolves a PC-relative operand to an absolute offset.
func (in Instruction) BranchTarget() int {
	return in.Next() + int(in.Signed())
}

// Decode decodes exactly one instruction at offset, never reading at or past
// end. At offset == end it returns ErrEndOfStream.
func Decode(buf []byte, offset, end int) (Instruction, error) {
	if end > len(buf) {
		end = len(buf)
	}
	if offset == end {
		return Instruction{}, ErrEndOfStream
	}
	if offset < 0 || offset+wordSize > end {
		return Instruction{}, sxerrors.TruncatedStream(sxerrors.PhaseDecode, offset, wordSize, end)
	}

	r := binary.NewReader(buf[:end])
	_ = r.Seek(offset)
	word, _ := r.ReadU16()

	op := opcode.Opcode(word >> 8)
	tag := byte(word)
	at := opcode.ArgType(tag & opcode.ArgTypeMask)

	if !op.Valid() {
		return Instruction{}, sxerrors.UnknownOpcode(sxerrors.PhaseDecode, offset, byte(op))
	}
	if !at.Valid() {
		return Instruction{}, sxerrors.UnknownArgType(sxerrors.PhaseDecode, offset, byte(at))
	}

	in := Instruction{
		Offset:   offset,
		Opcode:   op,
		ArgType:  at,
		Extended: tag&opcode.ExtendFlag != 0,
	}
	width := at.Width()
	in.Size = wordSize + width
	if in.Extended {
		in.Size += extendSize
	}
	if offset+in.Size > end {
		return Instruction{}, sxerrors.TruncatedStream(sxerrors.PhaseDecode, offset, in.Size, end)
	}

	if in.Extended {
		_ = r.Skip(extendSize)
	}
	switch width {
	case 2:
		v, _ := r.ReadU16()
		in.Arg = uint32(int32(int16(v)))
	case 4:
		v, _ := r.ReadU32()
		if at == opcode.ArgNum {
			v = binary.SwapHalves(v)
		}
		in.Arg = v
	}
	return in, nil
}

package sx

import (
	"fmt"

	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/opcode"
	"github.com/wippyai/sx-tools/sx/internal/binary"
)

// Encoder appends instructions in the SX wire format. It never sets the
// size-extension flag.
type Encoder struct {
	w *binary.Writer
}

// NewEncoder creates an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{w: binary.NewWriter()}
}

// Encode appends one instruction. 2-byte operands keep the low half of arg;
// NUM operands are stored half-word swapped.
func (e *Encoder) Encode(op opcode.Opcode, at opcode.ArgType, arg uint32) error {
	if !op.Valid() {
		return sxerrors.UnknownOpcode(sxerrors.PhaseAssemble, e.w.Len(), byte(op))
	}
	if !at.Valid() {
		return sxerrors.UnknownArgType(sxerrors.PhaseAssemble, e.w.Len(), byte(at))
	}

	e.w.Byte(byte(at))
	e.w.Byte(byte(op))

	switch at.Width() {
	case 2:
		e.w.WriteU16(uint16(arg))
	case 4:
		if at == opcode.ArgNum {
			arg = binary.SwapHalves(arg)
		}
		e.w.WriteU32(arg)
	}
	return nil
}

// Bytes returns the encoded stream.
func (e *Encoder) Bytes() []byte {
	return e.w.Bytes()
}

// Len returns the number of bytes encoded so far.
func (e *Encoder) Len() int {
	return e.w.Len()
}

// PutArg overwrites the operand bytes of a 4-byte instruction in place.
// The caller owns buf exclusively for the duration of the call.
func PutArg(buf []byte, in Instruction, arg uint32) error {
	if in.ArgType.Width() != 4 {
		return fmt.Errorf("sx: PutArg on %s operand of width %d", in.ArgType, in.ArgType.Width())
	}
	off := in.ArgOffset()
	if off+4 > len(buf) {
		return sxerrors.TruncatedStream(sxerrors.PhasePatch, in.Offset, in.Size, len(buf))
	}
	if in.ArgType == opcode.ArgNum {
		arg = binary.SwapHalves(arg)
	}
	binary.PutU32(buf, off, arg)
	return nil
}

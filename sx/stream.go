package sx

import (
	"errors"
	"iter"

	"go.uber.org/zap"
)

// WalkOptions controls how a code region is traversed.
type WalkOptions struct {
	// StopAtZero ends the walk at an all-zero opcode word. Use it when the
	// region length is not trustworthy; with a trusted length 0x0000 is a
	// valid ADD instruction.
	StopAtZero bool
}

// Walk lazily decodes the instructions in [start, end). The sequence ends
// cleanly at end; a malformed instruction is yielded as a non-nil error and
// stops the walk. Ranging twice over the same sequence decodes twice and
// yields identical results.
func Walk(buf []byte, start, end int, opts WalkOptions) iter.Seq2[Instruction, error] {
	return func(yield func(Instruction, error) bool) {
		stop := min(end, len(buf))
		pc := start
		count := 0
		for {
			if opts.StopAtZero && pc+wordSize <= stop && buf[pc] == 0 && buf[pc+1] == 0 {
				Logger().Debug("zero word sentinel", zap.Int("offset", pc))
				return
			}
			in, err := Decode(buf, pc, stop)
			if errors.Is(err, ErrEndOfStream) {
				Logger().Debug("end of stream", zap.Int("offset", pc), zap.Int("instructions", count))
				return
			}
			if err != nil {
				yield(Instruction{}, err)
				return
			}
			if !yield(in, nil) {
				return
			}
			count++
			pc = in.Next()
		}
	}
}

// Instructions walks the code region declared by h.
func Instructions(buf []byte, h *Header) iter.Seq2[Instruction, error] {
	return Walk(buf, h.CodeStart(), h.CodeEnd(), WalkOptions{})
}

// DecodeAll collects every instruction of the region, failing on the first
// malformed one.
func DecodeAll(buf []byte, start, end int, opts WalkOptions) ([]Instruction, error) {
	var out []Instruction
	for in, err := range Walk(buf, start, end, opts) {
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

package asm

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/opcode"
)

// Statement is one parsed instruction.
type Statement struct {
	Line    int
	Opcode  opcode.Opcode
	ArgType opcode.ArgType
	Arg     uint32
}

type parser struct {
	opts Options
}

func (p *parser) parse(tokens []token) (Statement, error) {
	head := tokens[0]
	st := Statement{Line: head.Line}

	op, ok := opcode.Lookup(head.Value)
	if !ok {
		return Statement{}, sxerrors.New(sxerrors.PhaseAssemble, sxerrors.KindUnknownOpcode).
			Line(head.Line).
			Value(head.Value).
			Detail("unknown mnemonic %q", head.Value).
			Build()
	}
	st.Opcode = op

	if len(tokens) == 1 {
		st.ArgType = opcode.ArgNull
		return st, nil
	}

	atTok := tokens[1]
	at, ok := opcode.LookupArgType(atTok.Value)
	if !ok {
		if !p.opts.Permissive {
			return Statement{}, sxerrors.New(sxerrors.PhaseAssemble, sxerrors.KindUnknownArgType).
				Line(atTok.Line).
				Value(atTok.Value).
				Detail("unknown argument type %q", atTok.Value).
				Build()
		}
		Logger().Warn("unknown argument type assembled as NULL",
			zap.Int("line", atTok.Line),
			zap.String("token", atTok.Value))
		st.ArgType = opcode.ArgNull
		return st, nil
	}
	st.ArgType = at

	arg, err := p.operand(at, tokens[2:], head.Line)
	if err != nil {
		return Statement{}, err
	}
	st.Arg = arg
	return st, nil
}

func (p *parser) operand(at opcode.ArgType, values []token, line int) (uint32, error) {
	if at == opcode.ArgNull {
		if len(values) > 0 && !p.opts.Permissive {
			return 0, sxerrors.Assemble(sxerrors.KindInvalidOperand, line, "NULL takes no operand, got %q", values[0].Value)
		}
		return 0, nil
	}
	if len(values) == 0 {
		return 0, sxerrors.Assemble(sxerrors.KindMissingOperand, line, "%s operand required", at)
	}

	want := 1
	if at.TwoField() && len(values) >= 2 {
		want = 2
	}
	if len(values) > want && !p.opts.Permissive {
		return 0, sxerrors.Assemble(sxerrors.KindInvalidOperand, line, "unexpected token %q after %s operand", values[want].Value, at)
	}

	switch {
	case at == opcode.ArgNum:
		return parseFloat(values[0].Value, line)
	case at.TwoField() && want == 2:
		return p.twoField(at, values[0].Value, values[1].Value, line)
	case at == opcode.ArgPCR && strings.HasPrefix(values[0].Value, "@"):
		return 0, sxerrors.Assemble(sxerrors.KindInvalidOperand, line,
			"absolute branch target %s; assemble from a raw listing", values[0].Value)
	}
	return parseInt(values[0].Value, at.Width(), line)
}

func (p *parser) twoField(at opcode.ArgType, loTok, hiTok string, line int) (uint32, error) {
	var lo uint32
	if p.opts.Symbols != nil && !isNumeric(loTok) {
		idx, ok := p.opts.Symbols.SymbolIndex(at, loTok)
		if !ok {
			return 0, sxerrors.Assemble(sxerrors.KindInvalidOperand, line, "unknown %s symbol %q", at, loTok)
		}
		lo = uint32(idx)
	} else {
		v, err := parseInt(loTok, 2, line)
		if err != nil {
			return 0, err
		}
		lo = v & 0xFFFF
	}
	hi, err := parseInt(hiTok, 2, line)
	if err != nil {
		return 0, err
	}
	return (hi&0xFFFF)<<16 | lo, nil
}

func parseFloat(tok string, line int) (uint32, error) {
	f, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, sxerrors.New(sxerrors.PhaseAssemble, sxerrors.KindInvalidOperand).
			Line(line).
			Cause(err).
			Detail("invalid float %q", tok).
			Build()
	}
	return math.Float32bits(float32(f)), nil
}

// parseInt reads a hexadecimal operand with optional sign and 0x prefix and
// checks that it fits width bytes. Negative values are stored two's
// complement.
func parseInt(tok string, width, line int) (uint32, error) {
	s := tok
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	bits := uint(width * 8)
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, sxerrors.New(sxerrors.PhaseAssemble, sxerrors.KindInvalidOperand).
			Line(line).
			Cause(err).
			Detail("invalid hex operand %q", tok).
			Build()
	}
	limit := uint64(1) << bits
	if neg {
		if v > limit/2 {
			return 0, sxerrors.Assemble(sxerrors.KindInvalidOperand, line, "operand %q out of range for %d bytes", tok, width)
		}
		return uint32(-int64(v)), nil
	}
	if v >= limit {
		return 0, sxerrors.Assemble(sxerrors.KindInvalidOperand, line, "operand %q out of range for %d bytes", tok, width)
	}
	return uint32(v), nil
}

func isNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	return c == '-' || c >= '0' && c <= '9'
}

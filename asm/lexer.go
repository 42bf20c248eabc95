package asm

import "strings"

const (
	separator = '|'
	comment   = '#'
)

type tokenType int

const (
	tokMnemonic tokenType = iota
	tokArgType
	tokValue
)

func (t tokenType) String() string {
	switch t {
	case tokMnemonic:
		return "mnemonic"
	case tokArgType:
		return "argument type"
	case tokValue:
		return "value"
	}
	return "unknown"
}

type token struct {
	Value string
	Type  tokenType
	Line  int
}

// tokenize splits the instruction body of one source line. It reports false
// for lines that carry no instruction: comments, lines without a separator
// and lines with an empty body.
func tokenize(text string, line int) ([]token, bool) {
	if strings.IndexByte(text, comment) >= 0 {
		return nil, false
	}
	i := strings.IndexByte(text, separator)
	if i < 0 {
		return nil, false
	}
	fields := strings.Fields(text[i+1:])
	if len(fields) == 0 {
		return nil, false
	}

	tokens := make([]token, len(fields))
	for n, f := range fields {
		typ := tokValue
		switch n {
		case 0:
			typ = tokMnemonic
		case 1:
			typ = tokArgType
		}
		tokens[n] = token{Value: f, Type: typ, Line: line}
	}
	return tokens, true
}

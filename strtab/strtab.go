// Package strtab reads the optional string table side-file used to show
// string literals in place of STR operand indices.
//
// The file is line oriented: a header tag line, a decimal count line, then
// exactly that many string lines taken literally.
package strtab

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	sxerrors "github.com/wippyai/sx-tools/errors"
)

// DefaultTag is the header line expected when no profile overrides it.
const DefaultTag = "SXSTRTAB"

// Table is an immutable, index-addressed list of string literals.
type Table struct {
	strings []string
}

// New builds a table from literal strings.
func New(strs ...string) *Table {
	return &Table{strings: append([]string(nil), strs...)}
}

// Len returns the number of strings.
func (t *Table) Len() int {
	return len(t.strings)
}

// Lookup returns the string at index i.
func (t *Table) Lookup(i uint32) (string, bool) {
	if uint64(i) >= uint64(len(t.strings)) {
		return "", false
	}
	return t.strings[i], true
}

// Read parses a side-file whose first line must equal tag.
func Read(r io.Reader, tag string) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0

	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return strings.TrimSuffix(sc.Text(), "\r"), true
	}

	head, ok := next()
	if !ok {
		return nil, strtabError(sc.Err(), line, "missing header line")
	}
	if strings.TrimSpace(head) != tag {
		return nil, strtabError(nil, line, "header %q, want %q", head, tag)
	}

	countLine, ok := next()
	if !ok {
		return nil, strtabError(sc.Err(), line, "missing count line")
	}
	count, err := strconv.Atoi(strings.TrimSpace(countLine))
	if err != nil || count < 0 {
		return nil, strtabError(nil, line, "invalid count %q", countLine)
	}

	t := &Table{strings: make([]string, 0, count)}
	for len(t.strings) < count {
		s, ok := next()
		if !ok {
			return nil, strtabError(sc.Err(), line, "expected %d strings, found %d", count, len(t.strings))
		}
		t.strings = append(t.strings, s)
	}
	return t, nil
}

// Load reads a side-file from disk.
func Load(path, tag string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sxerrors.IO("open", path, err)
	}
	defer f.Close()
	return Read(f, tag)
}

func strtabError(cause error, line int, format string, args ...any) error {
	kind := sxerrors.KindInvalidInput
	if cause != nil {
		kind = sxerrors.KindIOFailure
	}
	return sxerrors.New(sxerrors.PhaseStrtab, kind).
		Line(line).
		Cause(cause).
		Detail(format, args...).
		Build()
}

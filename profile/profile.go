// Package profile handles platform profile files.
//
// A profile carries everything that differs between format generations and
// platform builds: the function remap table used when converting images,
// symbolic names for class and library indices, and the string table tag.
package profile

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/opcode"
	"github.com/wippyai/sx-tools/strtab"
)

//go:embed default.toml
var defaultProfile []byte

const maxIndex = 0xFFFF

// Profile represents a platform profile file.
type Profile struct {
	Name           string       `toml:"name"`
	Description    string       `toml:"description"`
	StringTableTag string       `toml:"string-table-tag"`
	Remap          []RemapEntry `toml:"remap"`
	Symbols        Symbols      `toml:"symbols"`

	// Path is the file the profile was loaded from (empty for the default).
	Path string `toml:"-"`

	classes       map[uint16]string
	libraries     map[uint16]string
	classIndex    map[string]uint16
	libraryIndex  map[string]uint16
}

// RemapEntry adds Offset to library function index Index.
type RemapEntry struct {
	Index  int `toml:"index"`
	Offset int `toml:"offset"`
}

// Symbols names the low field of two-field operands: the class of a CLV
// reference and the library of an LFR reference. The high field of an LFR
// operand is the function index within that library, which only the remap
// table touches.
type Symbols struct {
	Classes   []Symbol `toml:"class"`
	Libraries []Symbol `toml:"library"`
}

// Symbol binds a 16-bit index to a name.
type Symbol struct {
	Index int    `toml:"index"`
	Name  string `toml:"name"`
}

// Default returns the embedded profile.
func Default() (*Profile, error) {
	return Parse(defaultProfile)
}

// Load parses and validates a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sxerrors.IO("read", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	p.Path = path
	return p, nil
}

// Parse decodes and validates profile TOML.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	md, err := toml.Decode(string(data), &p)
	if err != nil {
		return nil, sxerrors.Wrap(sxerrors.PhaseProfile, sxerrors.KindInvalidConfig, err, "parse")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, sxerrors.InvalidConfig("unknown key %q", undecoded[0].String())
	}
	if p.StringTableTag == "" {
		p.StringTableTag = strtab.DefaultTag
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks remap offsets and symbol names and builds the lookup maps.
func (p *Profile) Validate() error {
	seen := make(map[int]bool, len(p.Remap))
	for _, e := range p.Remap {
		switch {
		case e.Index < 0 || e.Index > maxIndex:
			return sxerrors.InvalidConfig("remap index %d outside 0..0x%X", e.Index, maxIndex)
		case e.Offset <= 0:
			return sxerrors.InvalidConfig("remap offset %d for index %d must be positive", e.Offset, e.Index)
		case e.Index+e.Offset > maxIndex:
			return sxerrors.InvalidConfig("remap of index %d by %d overflows 16 bits", e.Index, e.Offset)
		case seen[e.Index]:
			return sxerrors.InvalidConfig("duplicate remap index %d", e.Index)
		}
		seen[e.Index] = true
	}

	var err error
	if p.classes, p.classIndex, err = buildSymbols("class", p.Symbols.Classes); err != nil {
		return err
	}
	if p.libraries, p.libraryIndex, err = buildSymbols("library", p.Symbols.Libraries); err != nil {
		return err
	}
	return nil
}

func buildSymbols(kind string, syms []Symbol) (map[uint16]string, map[string]uint16, error) {
	byIndex := make(map[uint16]string, len(syms))
	byName := make(map[string]uint16, len(syms))
	for _, s := range syms {
		if s.Index < 0 || s.Index > maxIndex {
			return nil, nil, sxerrors.InvalidConfig("%s index %d outside 0..0x%X", kind, s.Index, maxIndex)
		}
		if !validName(s.Name) {
			return nil, nil, sxerrors.InvalidConfig("%s name %q must start with a letter or '_' and contain no spaces", kind, s.Name)
		}
		if _, dup := byIndex[uint16(s.Index)]; dup {
			return nil, nil, sxerrors.InvalidConfig("duplicate %s index %d", kind, s.Index)
		}
		if _, dup := byName[s.Name]; dup {
			return nil, nil, sxerrors.InvalidConfig("duplicate %s name %q", kind, s.Name)
		}
		byIndex[uint16(s.Index)] = s.Name
		byName[s.Name] = uint16(s.Index)
	}
	return byIndex, byName, nil
}

// Names starting with a digit would be ambiguous with hex operands.
func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '.' || r == ':'):
		default:
			return false
		}
	}
	return true
}

// RemapTable returns the remap entries keyed by old function index.
func (p *Profile) RemapTable() map[uint16]uint16 {
	m := make(map[uint16]uint16, len(p.Remap))
	for _, e := range p.Remap {
		m[uint16(e.Index)] = uint16(e.Offset)
	}
	return m
}

// SymbolName returns the symbolic name of the low field of a two-field operand:
// a class for CLV, a library for LFR.
func (p *Profile) SymbolName(at opcode.ArgType, index uint16) (string, bool) {
	var name string
	var ok bool
	switch at {
	case opcode.ArgCLV:
		name, ok = p.classes[index]
	case opcode.ArgLFR:
		name, ok = p.libraries[index]
	}
	return name, ok
}

// SymbolIndex is the inverse of SymbolName.
func (p *Profile) SymbolIndex(at opcode.ArgType, name string) (uint16, bool) {
	var idx uint16
	var ok bool
	switch at {
	case opcode.ArgCLV:
		idx, ok = p.classIndex[name]
	case opcode.ArgLFR:
		idx, ok = p.libraryIndex[name]
	}
	return idx, ok
}

// HasSymbols reports whether any names are defined.
func (p *Profile) HasSymbols() bool {
	return len(p.classes) > 0 || len(p.libraries) > 0
}

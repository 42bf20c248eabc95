package sx

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/sx/internal/binary"
)

// Variant selects one of the two on-disk header layouts.
type Variant int

const (
	// VariantPS2 is the full header record.
	VariantPS2 Variant = iota
	// VariantPC drops the trailing 4-byte field of the record.
	VariantPC
)

const (
	// HeaderSizePS2 is the size of the full header record.
	HeaderSizePS2 = 0x70
	// HeaderSizePC is the size of the PC header, one field shorter.
	HeaderSizePC = HeaderSizePS2 - 4

	// ImageSizeOffset is the position of the bytecode image size field.
	ImageSizeOffset = 0x34

	// PCExtension marks PC script images.
	PCExtension = ".PCSX"

	nameOffset = 0x10
	nameLen    = 32
)

func (v Variant) String() string {
	switch v {
	case VariantPS2:
		return "PS2"
	case VariantPC:
		return "PC"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// HeaderSize returns the number of header bytes preceding the code region.
func (v Variant) HeaderSize() int {
	if v == VariantPC {
		return HeaderSizePC
	}
	return HeaderSizePS2
}

// ParseVariant resolves a variant name, case-insensitively.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToUpper(s) {
	case "PS2":
		return VariantPS2, nil
	case "PC":
		return VariantPC, nil
	}
	return 0, fmt.Errorf("unknown variant %q (want PS2 or PC)", s)
}

// VariantFromPath applies the file extension convention: ".PCSX" (any case)
// is the PC layout, everything else the full layout.
func VariantFromPath(path string) Variant {
	if strings.EqualFold(filepath.Ext(path), PCExtension) {
		return VariantPC
	}
	return VariantPS2
}

// Header is the fixed-layout record at the start of a script image.
// Pointer fields are runtime addresses in the game engine; they are kept
// only so the record can be reproduced byte for byte.
type Header struct {
	MashHeader               [16]byte
	Name                     [nameLen]byte
	ImagePtr                 int32
	ImageSize                int32
	ScriptObjects            int32
	ScriptObjectsByName      int32
	TotalScriptObjects       int32
	GlobalScriptObject       int32
	PermanentStringTable     int32
	PermanentStringTableSize int32
	SystemStringTable        int32
	SystemStringTableSize    int32
	ScriptObjectDummyList    int32
	ScriptAllocatedStuffMap  int32
	Flags                    int32
	Info                     int32
	Field58                  int32
	// Field5C is absent from the PC layout and reads as zero there.
	Field5C int32

	// Variant is the layout the header was read with.
	Variant Variant
	// Size is the number of header bytes preceding the code region.
	Size int
}

// ScriptName returns the name field up to its first NUL.
func (h *Header) ScriptName() string {
	name := h.Name[:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

// CodeStart is the offset of the first instruction.
func (h *Header) CodeStart() int {
	return h.Size
}

// CodeEnd is the exclusive end of the code region.
func (h *Header) CodeEnd() int {
	return h.Size + int(h.ImageSize)
}

// Alternate reports whether the header uses the shorter PC layout.
func (h *Header) Alternate() bool {
	return h.Variant == VariantPC
}

// ReadHeader parses the header of buf using the given layout and checks that
// the declared code region fits in the buffer.
func ReadHeader(buf []byte, v Variant) (*Header, error) {
	return readHeader(buf, v, true)
}

// ReadHeaderUnchecked parses the header without validating the image size
// field. Use it only when the code region is found some other way, such as a
// zero-word scan; CodeEnd of the result may lie outside buf.
func ReadHeaderUnchecked(buf []byte, v Variant) (*Header, error) {
	return readHeader(buf, v, false)
}

func readHeader(buf []byte, v Variant, checkSize bool) (*Header, error) {
	size := v.HeaderSize()
	if len(buf) < size {
		return nil, sxerrors.MalformedHeader(
			fmt.Sprintf("%s header needs %d bytes, image has %d", v, size, len(buf)), nil)
	}

	h := &Header{Variant: v, Size: size}
	r := binary.NewReader(buf[:size])

	mash, _ := r.ReadBytes(len(h.MashHeader))
	copy(h.MashHeader[:], mash)
	name, _ := r.ReadBytes(nameLen)
	copy(h.Name[:], name)

	fields := []*int32{
		&h.ImagePtr, &h.ImageSize, &h.ScriptObjects, &h.ScriptObjectsByName,
		&h.TotalScriptObjects, &h.GlobalScriptObject,
		&h.PermanentStringTable, &h.PermanentStringTableSize,
		&h.SystemStringTable, &h.SystemStringTableSize,
		&h.ScriptObjectDummyList, &h.ScriptAllocatedStuffMap,
		&h.Flags, &h.Info, &h.Field58, &h.Field5C,
	}
	if v == VariantPC {
		fields = fields[:len(fields)-1]
	}
	for _, f := range fields {
		val, err := r.ReadI32()
		if err != nil {
			return nil, sxerrors.MalformedHeader("read header field", err)
		}
		*f = val
	}

	if !checkSize {
		Logger().Debug("read header without size check",
			zap.String("name", h.ScriptName()),
			zap.Stringer("variant", v),
			zap.Int32("image_size", h.ImageSize),
		)
		return h, nil
	}
	if h.ImageSize < 0 {
		return nil, sxerrors.New(sxerrors.PhaseHeader, sxerrors.KindMalformedHeader).
			Offset(ImageSizeOffset).
			Value(h.ImageSize).
			Detail("negative image size %d", h.ImageSize).
			Build()
	}
	if end := h.CodeEnd(); end > len(buf) {
		return nil, sxerrors.TruncatedImage(end, len(buf))
	}

	Logger().Debug("read header",
		zap.String("name", h.ScriptName()),
		zap.Stringer("variant", v),
		zap.Int("header_size", h.Size),
		zap.Int32("image_size", h.ImageSize),
		zap.Int("code_end", h.CodeEnd()),
	)
	return h, nil
}

// Encode writes the header back in its layout.
func (h *Header) Encode() []byte {
	w := binary.NewWriter()
	w.WriteBytes(h.MashHeader[:])
	w.WriteBytes(h.Name[:])
	fields := []int32{
		h.ImagePtr, h.ImageSize, h.ScriptObjects, h.ScriptObjectsByName,
		h.TotalScriptObjects, h.GlobalScriptObject,
		h.PermanentStringTable, h.PermanentStringTableSize,
		h.SystemStringTable, h.SystemStringTableSize,
		h.ScriptObjectDummyList, h.ScriptAllocatedStuffMap,
		h.Flags, h.Info, h.Field58, h.Field5C,
	}
	if h.Variant == VariantPC {
		fields = fields[:len(fields)-1]
	}
	for _, f := range fields {
		w.WriteU32(uint32(f))
	}
	return w.Bytes()
}

package sx_test

import (
	"bytes"
	"errors"
	"testing"

	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/opcode"
	"github.com/wippyai/sx-tools/sx"
	"github.com/wippyai/sx-tools/sx/sxtest"
)

func TestVariantFromPath(t *testing.T) {
	tests := []struct {
		path string
		want sx.Variant
	}{
		{"scripts/intro.PCSX", sx.VariantPC},
		{"scripts/intro.pcsx", sx.VariantPC},
		{"intro.PS2SX", sx.VariantPS2},
		{"intro.SX", sx.VariantPS2},
		{"PCSX", sx.VariantPS2},
		{"", sx.VariantPS2},
	}
	for _, tt := range tests {
		if got := sx.VariantFromPath(tt.path); got != tt.want {
			t.Errorf("VariantFromPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseVariant(t *testing.T) {
	for in, want := range map[string]sx.Variant{"pc": sx.VariantPC, "PS2": sx.VariantPS2} {
		got, err := sx.ParseVariant(in)
		if err != nil || got != want {
			t.Errorf("ParseVariant(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := sx.ParseVariant("xbox"); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func TestReadHeader(t *testing.T) {
	code := []byte{0x00, byte(29), 0x00, byte(30)}
	img := sxtest.Image(sx.VariantPS2, "intro", code, []byte{0xAA, 0xBB})

	h, err := sx.ReadHeader(img, sx.VariantPS2)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.ScriptName() != "intro" {
		t.Errorf("ScriptName = %q", h.ScriptName())
	}
	if h.Size != sx.HeaderSizePS2 || h.CodeStart() != 0x70 {
		t.Errorf("Size = %d, CodeStart = %d", h.Size, h.CodeStart())
	}
	if h.ImageSize != 4 || h.CodeEnd() != 0x74 {
		t.Errorf("ImageSize = %d, CodeEnd = 0x%X", h.ImageSize, h.CodeEnd())
	}
	if h.PermanentStringTableSize != 3 || h.Flags != 0x10 {
		t.Errorf("fields: strtab=%d flags=%d", h.PermanentStringTableSize, h.Flags)
	}
	if h.Field5C != 0x5C5C5C5C {
		t.Errorf("Field5C = 0x%X", h.Field5C)
	}
	if h.Alternate() {
		t.Error("PS2 header reported as alternate")
	}
}

func TestReadHeader_VariantShift(t *testing.T) {
	img := sxtest.Image(sx.VariantPS2, "shift", make([]byte, 16), nil)

	base, err := sx.ReadHeader(img, sx.VariantFromPath("shift.SX"))
	if err != nil {
		t.Fatal(err)
	}
	alt, err := sx.ReadHeader(img, sx.VariantFromPath("shift.PCSX"))
	if err != nil {
		t.Fatal(err)
	}

	if base.Size-alt.Size != 4 {
		t.Errorf("header sizes %d and %d should differ by 4", base.Size, alt.Size)
	}
	if base.CodeEnd()-alt.CodeEnd() != 4 {
		t.Errorf("code ends 0x%X and 0x%X should differ by 4", base.CodeEnd(), alt.CodeEnd())
	}
	if !alt.Alternate() {
		t.Error("PC header not reported as alternate")
	}
	if alt.Field5C != 0 {
		t.Errorf("PC header read the trailing field: 0x%X", alt.Field5C)
	}
}

func TestReadHeader_Errors(t *testing.T) {
	full := sxtest.Image(sx.VariantPS2, "x", make([]byte, 8), nil)

	oversized := bytes.Clone(full)
	oversized[sx.ImageSizeOffset] = 0xFF

	negative := bytes.Clone(full)
	copy(negative[sx.ImageSizeOffset:], []byte{0xFF, 0xFF, 0xFF, 0xFF})

	tests := []struct {
		name string
		buf  []byte
		v    sx.Variant
		want error
	}{
		{"empty", nil, sx.VariantPS2, sxerrors.ErrMalformedHeader},
		{"short ps2", full[:sx.HeaderSizePS2-1], sx.VariantPS2, sxerrors.ErrMalformedHeader},
		{"short pc", full[:sx.HeaderSizePC-1], sx.VariantPC, sxerrors.ErrMalformedHeader},
		{"negative size", negative, sx.VariantPS2, sxerrors.ErrMalformedHeader},
		{"region past buffer", oversized, sx.VariantPS2, sxerrors.ErrTruncatedImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sx.ReadHeader(tt.buf, tt.v)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadHeaderUnchecked(t *testing.T) {
	code := sxtest.Concat(
		sxtest.Word(0, byte(opcode.NOP)),
		sxtest.Word(0, byte(opcode.RET)),
		sxtest.U16(0),
	)
	img := sxtest.Image(sx.VariantPS2, "scan", code, nil)
	copy(img[sx.ImageSizeOffset:], sxtest.U32(0x1000))

	if _, err := sx.ReadHeader(img, sx.VariantPS2); !errors.Is(err, sxerrors.ErrTruncatedImage) {
		t.Fatalf("ReadHeader: got %v, want truncated image", err)
	}
	h, err := sx.ReadHeaderUnchecked(img, sx.VariantPS2)
	if err != nil {
		t.Fatalf("ReadHeaderUnchecked: %v", err)
	}
	if h.ScriptName() != "scan" || h.ImageSize != 0x1000 || h.CodeStart() != sx.HeaderSizePS2 {
		t.Errorf("header = %q size 0x%X start 0x%X", h.ScriptName(), h.ImageSize, h.CodeStart())
	}

	ins, err := sx.DecodeAll(img, h.CodeStart(), len(img), sx.WalkOptions{StopAtZero: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(ins) != 2 || ins[0].Opcode != opcode.NOP || ins[1].Opcode != opcode.RET {
		t.Errorf("scanned %+v", ins)
	}

	if _, err := sx.ReadHeaderUnchecked(img[:sx.HeaderSizePS2-1], sx.VariantPS2); !errors.Is(err, sxerrors.ErrMalformedHeader) {
		t.Errorf("short header: got %v", err)
	}
}

func TestHeaderEncodeRoundTrip(t *testing.T) {
	for _, v := range []sx.Variant{sx.VariantPS2, sx.VariantPC} {
		t.Run(v.String(), func(t *testing.T) {
			img := sxtest.Image(v, "round", nil, nil)
			h, err := sx.ReadHeader(img, v)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(h.Encode(), img) {
				t.Errorf("Encode mismatch:\n got %x\nwant %x", h.Encode(), img)
			}
		})
	}
}

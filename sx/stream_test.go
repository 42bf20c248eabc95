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

func sampleCode() []byte {
	return sxtest.Concat(
		sxtest.Word(byte(opcode.ArgNum), byte(opcode.PSH)), sxtest.U32(0x00004050),
		sxtest.Word(byte(opcode.ArgWord), byte(opcode.PSH)), sxtest.U16(3),
		sxtest.Word(byte(opcode.ArgLFR), byte(opcode.BSL)), sxtest.U32(0x00020001),
		sxtest.Word(0, byte(opcode.RET)),
	)
}

func TestInstructions(t *testing.T) {
	img := sxtest.Image(sx.VariantPS2, "walk", sampleCode(), []byte{0xFF, 0xFF, 0xFF})
	h, err := sx.ReadHeader(img, sx.VariantPS2)
	if err != nil {
		t.Fatal(err)
	}

	var offsets []int
	for in, err := range sx.Instructions(img, h) {
		if err != nil {
			t.Fatalf("walk: %v", err)
		}
		offsets = append(offsets, in.Offset)
	}
	want := []int{0x70, 0x76, 0x7A, 0x80}
	if len(offsets) != len(want) {
		t.Fatalf("offsets = %x, want %x", offsets, want)
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("offset %d = 0x%X, want 0x%X", i, offsets[i], want[i])
		}
	}
}

func TestWalk_Restartable(t *testing.T) {
	code := sampleCode()
	seq := sx.Walk(code, 0, len(code), sx.WalkOptions{})

	collect := func() []sx.Instruction {
		var out []sx.Instruction
		for in, err := range seq {
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, in)
		}
		return out
	}

	first, second := collect(), collect()
	if len(first) != 4 || len(first) != len(second) {
		t.Fatalf("runs yielded %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("run mismatch at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestWalk_EarlyBreak(t *testing.T) {
	code := sampleCode()
	n := 0
	for range sx.Walk(code, 0, len(code), sx.WalkOptions{}) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("n = %d", n)
	}
}

func TestWalk_TruncatedTail(t *testing.T) {
	code := append(sampleCode(), 0x00)
	var got []sx.Instruction
	var walkErr error
	for in, err := range sx.Walk(code, 0, len(code), sx.WalkOptions{}) {
		if err != nil {
			walkErr = err
			break
		}
		got = append(got, in)
	}
	if len(got) != 4 {
		t.Errorf("decoded %d before failure, want 4", len(got))
	}
	if !errors.Is(walkErr, sxerrors.ErrTruncatedStream) {
		t.Errorf("got %v, want truncated stream", walkErr)
	}
}

func TestWalk_StopAtZero(t *testing.T) {
	code := sxtest.Concat(sampleCode(), []byte{0, 0, 0, 0, 0xFF})

	ins, err := sx.DecodeAll(code, 0, len(code), sx.WalkOptions{StopAtZero: true})
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(ins) != 4 {
		t.Errorf("got %d instructions, want 4", len(ins))
	}

	// Without the sentinel the zero words are ADD instructions and the
	// dangling byte is an error.
	if _, err := sx.DecodeAll(code, 0, len(code), sx.WalkOptions{}); !errors.Is(err, sxerrors.ErrTruncatedStream) {
		t.Errorf("got %v, want truncated stream", err)
	}
}

func TestRebuild(t *testing.T) {
	trailer := []byte{0xDE, 0xAD}
	tmpl := sxtest.Image(sx.VariantPS2, "tmpl", sampleCode(), trailer)
	code := sxtest.Concat(sxtest.Word(0, byte(opcode.NOP)), sxtest.Word(0, byte(opcode.RET)))

	out, err := sx.Rebuild(tmpl, sx.VariantPS2, code)
	if err != nil {
		t.Fatal(err)
	}

	h, err := sx.ReadHeader(out, sx.VariantPS2)
	if err != nil {
		t.Fatal(err)
	}
	if int(h.ImageSize) != len(code) {
		t.Errorf("ImageSize = %d, want %d", h.ImageSize, len(code))
	}
	if !bytes.Equal(out[h.CodeStart():h.CodeEnd()], code) {
		t.Error("code region not replaced")
	}
	if !bytes.Equal(out[h.CodeEnd():], trailer) {
		t.Errorf("trailer = %x", out[h.CodeEnd():])
	}
	if h.ScriptName() != "tmpl" {
		t.Errorf("name lost: %q", h.ScriptName())
	}

	orig, _ := sx.ReadHeader(tmpl, sx.VariantPS2)
	if int(orig.ImageSize) != len(sampleCode()) {
		t.Error("template modified")
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/sx-tools/disasm"
	"github.com/wippyai/sx-tools/opcode"
	"github.com/wippyai/sx-tools/sx"
	"github.com/wippyai/sx-tools/sx/sxtest"
)

func testCode(t *testing.T) []byte {
	t.Helper()
	enc := sx.NewEncoder()
	steps := []struct {
		op  opcode.Opcode
		at  opcode.ArgType
		arg uint32
	}{
		{opcode.PSH, opcode.ArgNum, math.Float32bits(3.25)},
		{opcode.PSH, opcode.ArgStr, 0},
		{opcode.BSL, opcode.ArgLFR, 0x0012_0002},
		{opcode.BF, opcode.ArgPCR, 0xFFFFFFF0},
		{opcode.BSL, opcode.ArgLFR, 0x0099_0001},
		{opcode.RET, opcode.ArgNull, 0},
	}
	for _, s := range steps {
		require.NoError(t, enc.Encode(s.op, s.at, s.arg))
	}
	return enc.Bytes()
}

func writeTemp(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDisasmCmd(t *testing.T) {
	dir := t.TempDir()
	img := writeTemp(t, dir, "level.sx", sxtest.Image(sx.VariantPS2, "level", testCode(t), nil))
	strs := writeTemp(t, dir, "strings.txt", []byte("SXSTRTAB\n1\nhello world\n"))

	out, err := run(t, "disasm", img, "--strings", strs)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	require.Equal(t, "0x00000070:  | PSH        \tNUM        \t3.250000", lines[0])
	require.Contains(t, lines[1], `"hello world"`)
	require.Contains(t, lines[3], "@0x00000076")
	require.NotContains(t, out, "\x1b[", "no color when not writing to a terminal")

	_, err = run(t, "disasm", img, "--strings", writeTemp(t, dir, "empty.txt", []byte("SXSTRTAB\n0\n")))
	require.Error(t, err)
}

func TestDisasmAsmRoundTrip(t *testing.T) {
	dir := t.TempDir()
	orig := sxtest.Image(sx.VariantPS2, "level", testCode(t), []byte("tail"))
	img := writeTemp(t, dir, "level.sx", orig)
	listing := filepath.Join(dir, "level.lst")
	code := filepath.Join(dir, "level.bin")
	rebuilt := filepath.Join(dir, "rebuilt.sx")

	_, err := run(t, "disasm", "-v", img, listing)
	require.NoError(t, err)

	_, err = run(t, "asm", listing, code)
	require.NoError(t, err)
	got, err := os.ReadFile(code)
	require.NoError(t, err)
	require.Equal(t, testCode(t), got)

	_, err = run(t, "asm", listing, rebuilt, "--image", img)
	require.NoError(t, err)
	got, err = os.ReadFile(rebuilt)
	require.NoError(t, err)
	require.Equal(t, orig, got)
}

func TestAsmCmdErrors(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "bad.lst", []byte("| PSH NUMBER 1\n"))
	out := filepath.Join(dir, "out.bin")

	_, err := run(t, "asm", src, out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown argument type")
	_, statErr := os.Stat(out)
	require.True(t, os.IsNotExist(statErr), "no output on failure")

	_, err = run(t, "asm", src, out, "--permissive")
	require.NoError(t, err)

	_, err = run(t, "asm", filepath.Join(dir, "missing.lst"), out)
	require.Error(t, err)
}

func TestConvertCmd(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "level.sx", sxtest.Image(sx.VariantPS2, "level", testCode(t), nil))
	prof := writeTemp(t, dir, "pc.toml", []byte("name = \"pc\"\n[[remap]]\nindex = 0x12\noffset = 2\n"))
	dst := filepath.Join(dir, "level.PCSX")

	out, err := run(t, "convert", src, dst, "--profile", prof)
	require.NoError(t, err)
	require.Contains(t, out, "2 call sites, 1 remapped, 1 unchanged")

	listing, err := run(t, "disasm", dst)
	require.NoError(t, err)
	require.Contains(t, listing, "0x0002 0x0014")
	require.Contains(t, listing, "0x0001 0x0099")
	require.True(t, strings.HasPrefix(listing, "0x0000006C:"))

	_, err = run(t, "convert", src, src, "--profile", prof)
	require.Error(t, err)

	bad := writeTemp(t, dir, "bad.toml", []byte("[[remap]]\nindex = 1\noffset = 0\n"))
	_, err = run(t, "convert", src, dst, "--profile", bad)
	require.Error(t, err)
}

func TestConvertCmdHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "level.sx", sxtest.Image(sx.VariantPS2, "level", testCode(t), nil))
	dst := filepath.Join(dir, "level.PCSX")

	_, err := run(t, "convert", src, dst)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no remap entries")
	_, statErr := os.Stat(dst)
	require.True(t, os.IsNotExist(statErr), "no output without a remap table")

	out, err := run(t, "convert", src, dst, "--header-only")
	require.NoError(t, err)
	require.Contains(t, out, "2 call sites, 0 remapped, 2 unchanged")

	listing, err := run(t, "disasm", dst)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(listing, "0x0000006C:"))
	require.Contains(t, listing, "0x0002 0x0012")

	prof := writeTemp(t, dir, "pc.toml", []byte("[[remap]]\nindex = 0x12\noffset = 2\n"))
	out, err = run(t, "convert", src, dst, "--profile", prof, "--header-only")
	require.NoError(t, err)
	require.Contains(t, out, "0 remapped")
}

func TestProfileSymbols(t *testing.T) {
	dir := t.TempDir()
	img := writeTemp(t, dir, "level.sx", sxtest.Image(sx.VariantPS2, "level", testCode(t), nil))
	prof := writeTemp(t, dir, "names.toml", []byte("[[symbols.library]]\nindex = 2\nname = \"vm_math\"\n"))
	listing := filepath.Join(dir, "level.lst")
	code := filepath.Join(dir, "level.bin")

	_, err := run(t, "disasm", "-v", img, listing, "--profile", prof)
	require.NoError(t, err)
	text, err := os.ReadFile(listing)
	require.NoError(t, err)
	require.Contains(t, string(text), "vm_math 0x0012")

	_, err = run(t, "asm", listing, code, "--profile", prof)
	require.NoError(t, err)
	got, err := os.ReadFile(code)
	require.NoError(t, err)
	require.Equal(t, testCode(t), got)
}

func TestInfoCmd(t *testing.T) {
	dir := t.TempDir()
	img := writeTemp(t, dir, "level.PCSX", sxtest.Image(sx.VariantPC, "level", testCode(t), []byte{1, 2}))

	out, err := run(t, "info", img, "--opcodes")
	require.NoError(t, err)
	require.Contains(t, out, "level (PC)")
	require.Regexp(t, `\[instructions\]\s+6`, out)
	require.Regexp(t, `\[library calls\]\s+2`, out)
	require.Regexp(t, `\[trailing bytes\]\s+2`, out)
	require.Regexp(t, `\[BSL\]\s+2`, out)
}

func TestDumpCmd(t *testing.T) {
	dir := t.TempDir()
	img := writeTemp(t, dir, "level.sx", sxtest.Image(sx.VariantPS2, "level", testCode(t), nil))

	out, err := run(t, "dump", img)
	require.NoError(t, err)
	var recs []disasm.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 6)
	require.Equal(t, "BSL", recs[2].Opcode)
	require.Equal(t, uint32(0x00120002), recs[2].Arg)

	cborPath := filepath.Join(dir, "level.cbor")
	_, err = run(t, "dump", img, "--format", "cbor", "-o", cborPath)
	require.NoError(t, err)
	data, err := os.ReadFile(cborPath)
	require.NoError(t, err)
	back, err := disasm.DecodeCBOR(data)
	require.NoError(t, err)
	require.Equal(t, recs, back)

	_, err = run(t, "dump", img, "--format", "xml")
	require.Error(t, err)
}

func TestScanIgnoresImageSize(t *testing.T) {
	dir := t.TempDir()
	code := sxtest.Concat(
		sxtest.Word(byte(opcode.ArgNull), byte(opcode.NOP)),
		sxtest.Word(byte(opcode.ArgNull), byte(opcode.RET)),
		sxtest.U16(0),
	)
	data := sxtest.Image(sx.VariantPS2, "level", code, nil)
	copy(data[sx.ImageSizeOffset:], sxtest.U32(0x1000))
	img := writeTemp(t, dir, "level.sx", data)

	_, err := run(t, "disasm", img, "--no-color")
	require.Error(t, err)
	require.Contains(t, err.Error(), "truncated_image")

	out, err := run(t, "disasm", img, "--scan", "--no-color")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "NOP")
	require.Contains(t, lines[1], "RET")

	out, err = run(t, "dump", img, "--scan")
	require.NoError(t, err)
	var recs []disasm.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 2)
	require.Equal(t, "RET", recs[1].Opcode)
}

func TestVariantFlag(t *testing.T) {
	dir := t.TempDir()
	img := writeTemp(t, dir, "level.bin", sxtest.Image(sx.VariantPC, "level", testCode(t), nil))

	out, err := run(t, "disasm", img, "--variant", "pc")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "0x0000006C:"))

	_, err = run(t, "disasm", img, "--variant", "xbox")
	require.Error(t, err)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewModel(t *testing.T) {
	img := sxtest.Image(sx.VariantPS2, "level", testCode(t), nil)
	h, err := sx.ReadHeader(img, sx.VariantPS2)
	require.NoError(t, err)

	m := newViewModel("level.sx", func() ([]disasm.Line, error) {
		var lines []disasm.Line
		for l, err := range disasm.Lines(img, h, disasm.Options{}) {
			if err != nil {
				return lines, err
			}
			lines = append(lines, l)
		}
		return lines, nil
	})
	require.Equal(t, "Loading listing...", m.View())

	m.Update(m.Init()())
	require.Len(t, m.lines, 6)
	require.Contains(t, m.View(), "6 instructions")

	// BF at 0x82 branches back to 0x76.
	for range 3 {
		m.Update(key("j"))
	}
	require.Equal(t, 3, m.selected)
	m.Update(key("enter"))
	require.Equal(t, 1, m.selected)
	m.Update(key("b"))
	require.Equal(t, 3, m.selected)

	m.Update(key(":"))
	require.Equal(t, stateGoto, m.state)
	m.Update(key("8"))
	m.Update(key("6"))
	m.Update(key("enter"))
	require.Equal(t, stateBrowse, m.state)
	require.Equal(t, 4, m.selected)
	require.Equal(t, uint32(0x00990001), m.lines[m.selected].Instruction.Arg)

	m.Update(key("enter"))
	require.Equal(t, "not a branch", m.status)

	m.Update(key("G"))
	require.Equal(t, 5, m.selected)
	m.Update(key("g"))
	require.Equal(t, 0, m.selected)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
}

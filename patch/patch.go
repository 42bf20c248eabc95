// Package patch converts PS2 script images to the PC layout.
//
// Conversion drops the trailing header field absent from the PC layout and
// remaps library function indices: every BSL instruction with an LFR operand
// whose high field appears in the remap table gets that field rewritten in
// place. Indices missing from the table are left byte for byte unchanged.
package patch

import (
	"bytes"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/opcode"
	"github.com/wippyai/sx-tools/sx"
)

// Options configures a conversion.
type Options struct {
	// Source is the layout of the input image.
	Source sx.Variant
	// Remap may be nil, in which case only the header is normalized.
	Remap *RemapTable
}

// Result reports what a conversion changed.
type Result struct {
	Source       sx.Variant
	HeaderBytes  int // bytes removed from the header
	Instructions int
	CallSites    int // BSL instructions with an LFR operand
	Remapped     int
	Missed       int // call sites whose index has no remap entry
}

type site struct {
	in  sx.Instruction
	arg uint32
}

// Patch returns a PC layout copy of src with library call sites remapped.
// src is never modified.
func Patch(src []byte, opts Options) ([]byte, Result, error) {
	res := Result{Source: opts.Source}
	if opts.Source != sx.VariantPS2 && opts.Source != sx.VariantPC {
		return nil, res, sxerrors.New(sxerrors.PhasePatch, sxerrors.KindUnsupportedVariant).
			Value(opts.Source).
			Detail("unsupported source layout %s", opts.Source).
			Build()
	}
	if _, err := sx.ReadHeader(src, opts.Source); err != nil {
		return nil, res, err
	}

	view := normalize(src, opts.Source)
	res.HeaderBytes = len(src) - len(view)

	h, err := sx.ReadHeader(view, sx.VariantPC)
	if err != nil {
		return nil, res, err
	}

	// Scan a read-only view first; writes go to a separate copy afterwards.
	var sites []site
	for in, err := range sx.Instructions(view, h) {
		if err != nil {
			return nil, res, err
		}
		res.Instructions++
		if in.Opcode != opcode.BSL || in.ArgType != opcode.ArgLFR {
			continue
		}
		res.CallSites++
		lo, hi := in.Halves()
		idx, ok := opts.Remap.Lookup(hi)
		if !ok {
			res.Missed++
			Logger().Debug("no remap entry",
				zap.Int("offset", in.Offset),
				zap.Uint16("index", hi))
			continue
		}
		Logger().Debug("remap call site",
			zap.Int("offset", in.Offset),
			zap.Uint16("from", hi),
			zap.Uint16("to", idx))
		sites = append(sites, site{in: in, arg: uint32(idx)<<16 | uint32(lo)})
	}

	out := bytes.Clone(view)
	for _, s := range sites {
		if err := sx.PutArg(out, s.in, s.arg); err != nil {
			return nil, res, err
		}
		res.Remapped++
	}

	Logger().Debug("patched",
		zap.String("script", h.ScriptName()),
		zap.Stringer("source", opts.Source),
		zap.Int("instructions", res.Instructions),
		zap.Int("call_sites", res.CallSites),
		zap.Int("remapped", res.Remapped),
		zap.Int("missed", res.Missed))
	return out, res, nil
}

// normalize returns src in the PC header layout. The result never aliases
// src when bytes are removed.
func normalize(src []byte, v sx.Variant) []byte {
	if v == sx.VariantPC {
		return src
	}
	out := make([]byte, 0, len(src)-(sx.HeaderSizePS2-sx.HeaderSizePC))
	out = append(out, src[:sx.HeaderSizePC]...)
	return append(out, src[sx.HeaderSizePS2:]...)
}

// Convert reads srcPath, patches it and writes the result to dstPath in a
// single write. srcPath is never opened for writing.
func Convert(srcPath, dstPath string, opts Options) (Result, error) {
	if samePath(srcPath, dstPath) {
		return Result{}, sxerrors.New(sxerrors.PhaseIO, sxerrors.KindInvalidInput).
			Detail("refusing to overwrite source %s", srcPath).
			Build()
	}
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return Result{}, sxerrors.IO("read", srcPath, err)
	}
	out, res, err := Patch(src, opts)
	if err != nil {
		return res, err
	}
	if err := os.WriteFile(dstPath, out, 0o644); err != nil {
		return res, sxerrors.IO("write", dstPath, err)
	}
	Logger().Info("converted",
		zap.String("src", srcPath),
		zap.String("dst", dstPath),
		zap.Int("remapped", res.Remapped),
		zap.Int("missed", res.Missed))
	return res, nil
}

func samePath(a, b string) bool {
	aa, errA := filepath.Abs(a)
	bb, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	if aa == bb {
		return true
	}
	ia, errA := os.Stat(aa)
	ib, errB := os.Stat(bb)
	return errA == nil && errB == nil && os.SameFile(ia, ib)
}

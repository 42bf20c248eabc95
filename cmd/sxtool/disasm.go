package main

import (
	"bytes"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/sx-tools/disasm"
	sxerrors "github.com/wippyai/sx-tools/errors"
)

type disasmFlags struct {
	verbose     bool
	raw         bool
	bytes       bool
	stringsPath string
	scan        bool
	noColor     bool
}

func newDisasmCmd(a *app) *cobra.Command {
	var f disasmFlags
	cmd := &cobra.Command{
		Use:   "disasm <image> [output]",
		Short: "Disassemble a script image",
		Long: `Disassemble the code region of a script image.

The verbose listing (-v) shows raw bytes, literal branch offsets and numeric
string indices. It is the form accepted back by "sxtool asm".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDisasm(cmd, args, f)
		},
	}
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "round-trip listing: raw operands and instruction bytes")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "show literal branch offsets and string indices")
	cmd.Flags().BoolVar(&f.bytes, "bytes", false, "show instruction bytes")
	cmd.Flags().StringVar(&f.stringsPath, "strings", "", "string table side-file used to show STR literals")
	cmd.Flags().BoolVar(&f.scan, "scan", false, "ignore the declared image size and stop at the first zero word")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable colored output on terminals")
	return cmd
}

func (a *app) disasmOptions(f disasmFlags) (disasm.Options, error) {
	prof, err := a.loadProfile()
	if err != nil {
		return disasm.Options{}, err
	}
	tbl, err := loadStrings(f.stringsPath, prof)
	if err != nil {
		return disasm.Options{}, err
	}
	return disasm.Options{
		Raw:           f.raw || f.verbose,
		AnnotateBytes: f.bytes || f.verbose,
		Strings:       tbl,
		Symbols:       disasmSymbols(prof),
		Scan:          f.scan,
	}, nil
}

func (a *app) runDisasm(cmd *cobra.Command, args []string, f disasmFlags) error {
	image, h, err := a.readImage(args[0], f.scan)
	if err != nil {
		return err
	}
	opts, err := a.disasmOptions(f)
	if err != nil {
		return err
	}
	a.log.Debug("disassembling",
		zap.String("path", args[0]),
		zap.Stringer("variant", h.Variant),
		zap.Int("code_start", h.CodeStart()),
		zap.Int("code_end", h.CodeEnd()))

	if len(args) == 2 {
		var buf bytes.Buffer
		if err := disasm.Disassemble(&buf, image, h, opts); err != nil {
			return err
		}
		return writeFile(args[1], buf.Bytes())
	}

	out := cmd.OutOrStdout()
	if f.noColor || !isTerminal(out) {
		return disasm.Disassemble(out, image, h, opts)
	}
	for line, err := range disasm.Lines(image, h, opts) {
		if err != nil {
			return err
		}
		if _, err := io.WriteString(out, styleLine(line)+"\n"); err != nil {
			return sxerrors.Wrap(sxerrors.PhaseIO, sxerrors.KindIOFailure, err, "write listing")
		}
	}
	return nil
}

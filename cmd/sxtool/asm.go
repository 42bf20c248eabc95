package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/sx-tools/asm"
	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/sx"
)

func newAsmCmd(a *app) *cobra.Command {
	var (
		templatePath string
		permissive   bool
	)
	cmd := &cobra.Command{
		Use:   "asm <listing> <output>",
		Short: "Assemble a listing into bytecode",
		Long: `Assemble a verbose listing back into bytecode.

Without --image the output is the bare instruction stream. With --image the
code replaces the code region of the template image and the header image size
is updated, producing a complete script image.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prof, err := a.loadProfile()
			if err != nil {
				return err
			}
			src, err := os.Open(args[0])
			if err != nil {
				return sxerrors.IO("open", args[0], err)
			}
			defer src.Close()

			code, err := asm.Assemble(src, asm.Options{
				Permissive: permissive,
				Symbols:    asmSymbols(prof),
			})
			if err != nil {
				return err
			}

			out := code
			if templatePath != "" {
				v, err := a.variantFor(templatePath)
				if err != nil {
					return err
				}
				tmpl, err := os.ReadFile(templatePath)
				if err != nil {
					return sxerrors.IO("read", templatePath, err)
				}
				if out, err = sx.Rebuild(tmpl, v, code); err != nil {
					return err
				}
			}
			if err := writeFile(args[1], out); err != nil {
				return err
			}
			a.log.Debug("assembled",
				zap.String("src", args[0]),
				zap.String("dst", args[1]),
				zap.Int("code_bytes", len(code)),
				zap.Int("output_bytes", len(out)))
			return nil
		},
	}
	cmd.Flags().StringVar(&templatePath, "image", "", "template image whose code region is replaced")
	cmd.Flags().BoolVar(&permissive, "permissive", false, "assemble unknown argument types as NULL and ignore surplus tokens")
	return cmd
}

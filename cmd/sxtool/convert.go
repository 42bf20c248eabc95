package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/patch"
)

func newConvertCmd(a *app) *cobra.Command {
	var headerOnly bool
	cmd := &cobra.Command{
		Use:   "convert <ps2-image> <pc-image>",
		Short: "Convert a PS2 script image to the PC layout",
		Long: `Convert a PS2 script image to the PC layout.

The trailing PS2 header field is dropped and library call sites are remapped
with the profile's remap table. Call sites whose function index has no entry
are copied unchanged. The source file is never modified.

The built-in profile has no remap entries, so a profile carrying the table for
the target build is required. --header-only converts the header alone.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prof, err := a.loadProfile()
			if err != nil {
				return err
			}
			tbl, err := patch.NewRemapTable(prof.RemapTable())
			if err != nil {
				return err
			}
			switch {
			case tbl.Len() == 0 && !headerOnly:
				return sxerrors.InvalidConfig("profile %q has no remap entries; pass --profile with a remap table or --header-only", prof.Name)
			case headerOnly:
				tbl = nil
			default:
				a.log.Debug("remap table", zap.String("profile", prof.Name), zap.Uint16s("indices", tbl.Indices()))
			}
			src, err := a.variantFor(args[0])
			if err != nil {
				return err
			}

			res, err := patch.Convert(args[0], args[1], patch.Options{Source: src, Remap: tbl})
			if err != nil {
				return err
			}
			if res.Missed > 0 && !headerOnly {
				a.log.Warn("call sites without remap entry", zap.Int("missed", res.Missed))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %d instructions, %d call sites, %d remapped, %d unchanged\n",
				args[0], args[1], res.Instructions, res.CallSites, res.Remapped, res.Missed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&headerOnly, "header-only", false, "convert the header without remapping call sites")
	return cmd
}

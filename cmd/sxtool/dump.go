package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/wippyai/sx-tools/disasm"
)

func newDumpCmd(a *app) *cobra.Command {
	var (
		format  string
		outPath string
		scan    bool
	)
	cmd := &cobra.Command{
		Use:   "dump <image>",
		Short: "Export decoded instructions as JSON or CBOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := disasm.ParseFormat(format)
			if err != nil {
				return err
			}
			image, h, err := a.readImage(args[0], scan)
			if err != nil {
				return err
			}
			recs, err := disasm.Records(image, h, disasm.Options{Raw: true, Scan: scan})
			if err != nil {
				return err
			}
			if outPath == "" {
				return disasm.Export(cmd.OutOrStdout(), recs, f)
			}
			var buf bytes.Buffer
			if err := disasm.Export(&buf, recs, f); err != nil {
				return err
			}
			return writeFile(outPath, buf.Bytes())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(disasm.FormatJSON), "output format: json or cbor")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().BoolVar(&scan, "scan", false, "ignore the declared image size and stop at the first zero word")
	return cmd
}

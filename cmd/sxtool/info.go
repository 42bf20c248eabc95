package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/wippyai/sx-tools/opcode"
	"github.com/wippyai/sx-tools/sx"
)

func newInfoCmd(a *app) *cobra.Command {
	var showOps bool
	cmd := &cobra.Command{
		Use:   "info <image>",
		Short: "Show header fields and code statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, h, err := a.readImage(args[0], false)
			if err != nil {
				return err
			}
			tree, err := infoTree(image, h, showOps)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tree.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&showOps, "opcodes", false, "include an opcode histogram")
	return cmd
}

func infoTree(image []byte, h *sx.Header, showOps bool) (treeprint.Tree, error) {
	tree := treeprint.NewWithRoot(fmt.Sprintf("%s (%s)", h.ScriptName(), h.Variant))

	hdr := tree.AddBranch("header")
	hdr.AddMetaNode("size", fmt.Sprintf("0x%X", h.Size))
	hdr.AddMetaNode("mash", fmt.Sprintf("%q", trimNUL(h.MashHeader[:])))
	hdr.AddMetaNode("image size", fmt.Sprintf("0x%X", h.ImageSize))
	hdr.AddMetaNode("flags", fmt.Sprintf("0x%08X", uint32(h.Flags)))
	hdr.AddMetaNode("info", fmt.Sprintf("0x%08X", uint32(h.Info)))
	strs := hdr.AddBranch("string tables")
	strs.AddMetaNode("permanent", fmt.Sprintf("ptr 0x%08X size %d", uint32(h.PermanentStringTable), h.PermanentStringTableSize))
	strs.AddMetaNode("system", fmt.Sprintf("ptr 0x%08X size %d", uint32(h.SystemStringTable), h.SystemStringTableSize))
	objs := hdr.AddBranch("script objects")
	objs.AddMetaNode("total", fmt.Sprintf("%d", h.TotalScriptObjects))
	objs.AddMetaNode("global", fmt.Sprintf("0x%08X", uint32(h.GlobalScriptObject)))

	counts := make(map[opcode.Opcode]int)
	var total, calls int
	for in, err := range sx.Instructions(image, h) {
		if err != nil {
			return nil, err
		}
		total++
		counts[in.Opcode]++
		if in.Opcode == opcode.BSL && in.ArgType == opcode.ArgLFR {
			calls++
		}
	}

	code := tree.AddBranch("code")
	code.AddMetaNode("start", fmt.Sprintf("0x%08X", h.CodeStart()))
	code.AddMetaNode("end", fmt.Sprintf("0x%08X", h.CodeEnd()))
	code.AddMetaNode("instructions", fmt.Sprintf("%d", total))
	code.AddMetaNode("library calls", fmt.Sprintf("%d", calls))
	if tail := len(image) - h.CodeEnd(); tail > 0 {
		code.AddMetaNode("trailing bytes", fmt.Sprintf("%d", tail))
	}

	if showOps && total > 0 {
		ops := make([]opcode.Opcode, 0, len(counts))
		for op := range counts {
			ops = append(ops, op)
		}
		sort.Slice(ops, func(i, j int) bool {
			if counts[ops[i]] != counts[ops[j]] {
				return counts[ops[i]] > counts[ops[j]]
			}
			return ops[i] < ops[j]
		})
		hist := code.AddBranch("opcodes")
		for _, op := range ops {
			hist.AddMetaNode(op.String(), fmt.Sprintf("%d", counts[op]))
		}
	}
	return tree, nil
}

func trimNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

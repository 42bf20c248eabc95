package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/sx-tools/asm"
	"github.com/wippyai/sx-tools/disasm"
	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/patch"
	"github.com/wippyai/sx-tools/profile"
	"github.com/wippyai/sx-tools/strtab"
	"github.com/wippyai/sx-tools/sx"
)

// app carries the persistent flags shared by every subcommand.
type app struct {
	log         *zap.Logger
	profilePath string
	variant     string
	debug       bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "sxtool",
		Short: "SX script image toolkit",
		Long: `Disassemble, assemble and convert SX script images.

Images named *.PCSX use the PC header layout; everything else is read as PS2
unless --variant says otherwise.`,
		Version:       Version + " (" + Commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVar(&a.profilePath, "profile", "", "platform profile (TOML); the built-in profile is used when empty")
	root.PersistentFlags().StringVar(&a.variant, "variant", "", "force the input header layout (PS2 or PC)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newDisasmCmd(a),
		newAsmCmd(a),
		newConvertCmd(a),
		newInfoCmd(a),
		newDumpCmd(a),
		newViewCmd(a),
	)
	return root
}

func (a *app) setupLogger() error {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if a.debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return err
	}
	a.log = log
	sx.SetLogger(log.Named("sx"))
	disasm.SetLogger(log.Named("disasm"))
	asm.SetLogger(log.Named("asm"))
	patch.SetLogger(log.Named("patch"))
	return nil
}

func (a *app) loadProfile() (*profile.Profile, error) {
	if a.profilePath == "" {
		return profile.Default()
	}
	p, err := profile.Load(a.profilePath)
	if err != nil {
		return nil, err
	}
	a.log.Debug("profile loaded", zap.String("path", p.Path), zap.String("name", p.Name))
	return p, nil
}

// variantFor applies --variant, falling back to the file name convention.
func (a *app) variantFor(path string) (sx.Variant, error) {
	if a.variant == "" {
		return sx.VariantFromPath(path), nil
	}
	v, err := sx.ParseVariant(a.variant)
	if err != nil {
		return 0, sxerrors.Wrap(sxerrors.PhaseHeader, sxerrors.KindUnsupportedVariant, err, "--variant")
	}
	return v, nil
}

// readImage loads path and parses its header. With scan set the image size
// field is not trusted and is left unchecked.
func (a *app) readImage(path string, scan bool) ([]byte, *sx.Header, error) {
	v, err := a.variantFor(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, sxerrors.IO("read", path, err)
	}
	read := sx.ReadHeader
	if scan {
		read = sx.ReadHeaderUnchecked
	}
	h, err := read(data, v)
	if err != nil {
		return nil, nil, err
	}
	return data, h, nil
}

func loadStrings(path string, p *profile.Profile) (*strtab.Table, error) {
	if path == "" {
		return nil, nil
	}
	return strtab.Load(path, p.StringTableTag)
}

// Symbol sources stay nil unless the profile names something, so listings
// keep numeric fields.
func disasmSymbols(p *profile.Profile) disasm.Symbols {
	if p == nil || !p.HasSymbols() {
		return nil
	}
	return p
}

func asmSymbols(p *profile.Profile) asm.Symbols {
	if p == nil || !p.HasSymbols() {
		return nil
	}
	return p
}

// writeFile writes data to path in a single write.
func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return sxerrors.IO("write", path, err)
	}
	return nil
}

// Package sxtools decodes, re-encodes and converts SX script images.
//
// SX images hold a fixed header followed by a variable-length bytecode stream.
// Two header layouts exist: the PS2 layout and the PC layout, which drops the
// last header field. Images named *.PCSX use the PC layout.
//
// # Architecture Overview
//
//	sxtools/
//	├── opcode/          Opcode and argument type tables, widths, names
//	├── sx/              Header reader, instruction decoder and encoder, stream walker
//	├── disasm/          Listing renderer, JSON and CBOR export
//	├── asm/             Listing parser and assembler
//	├── patch/           PS2 to PC conversion with function index remapping
//	├── strtab/          String table side-file reader
//	├── profile/         TOML platform profiles (remap table, symbol names)
//	├── errors/          Structured error types
//	└── cmd/sxtool/      Command line interface
//
// # Quick Start
//
// Walk the instructions of an image:
//
//	h, err := sx.ReadHeader(image, sx.VariantFromPath(path))
//	if err != nil {
//		return err
//	}
//	for in, err := range sx.Instructions(image, h) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(in.Offset, in.Opcode, in.ArgType)
//	}
//
// Convert an image for the PC build:
//
//	tbl, _ := patch.NewRemapTable(map[uint16]uint16{0x12: 1})
//	out, res, err := patch.Patch(image, patch.Options{Source: sx.VariantPS2, Remap: tbl})
//
// # Round Trip
//
// A raw listing (disasm.Options.Raw, "sxtool disasm -v") keeps every operand
// in a form asm accepts, so assembling it reproduces the input code bytes
// for any stream without size-extension flags.
//
// # Logging
//
// Packages log through zap and default to a no-op logger. Use the package
// SetLogger functions to enable output.
package sxtools

package disasm

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/sx"
)

// Record is the structured form of one instruction.
type Record struct {
	Offset   int    `json:"offset" cbor:"1,keyasint"`
	Opcode   string `json:"opcode" cbor:"2,keyasint"`
	ArgType  string `json:"arg_type" cbor:"3,keyasint"`
	Arg      uint32 `json:"arg" cbor:"4,keyasint"`
	Size     int    `json:"size" cbor:"5,keyasint"`
	Extended bool   `json:"extended" cbor:"6,keyasint"`
	Operand  string `json:"operand,omitempty" cbor:"7,keyasint,omitempty"`
}

// Format selects a structured export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCBOR:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown dump format %q (want json or cbor)", s)
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("disasm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Records decodes the code region of image into records.
func Records(image []byte, h *sx.Header, opts Options) ([]Record, error) {
	var out []Record
	for line, err := range Lines(image, h, opts) {
		if err != nil {
			return nil, err
		}
		in := line.Instruction
		out = append(out, Record{
			Offset:   in.Offset,
			Opcode:   line.Mnemonic,
			ArgType:  line.ArgType,
			Arg:      in.Arg,
			Size:     in.Size,
			Extended: in.Extended,
			Operand:  line.Operand,
		})
	}
	return out, nil
}

// Export writes records to w in the given format. JSON output is indented;
// CBOR output uses canonical encoding so identical images dump identically.
func Export(w io.Writer, records []Record, f Format) error {
	var data []byte
	var err error
	switch f {
	case FormatJSON:
		data, err = json.MarshalIndent(records, "", "  ")
		data = append(data, '\n')
	case FormatCBOR:
		data, err = cborEncMode.Marshal(records)
	default:
		return fmt.Errorf("unknown dump format %q", f)
	}
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return sxerrors.Wrap(sxerrors.PhaseIO, sxerrors.KindIOFailure, err, "write dump")
	}
	return nil
}

// DecodeCBOR reads records written by Export in CBOR form.
func DecodeCBOR(data []byte) ([]Record, error) {
	var out []Record
	if err := cbor.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

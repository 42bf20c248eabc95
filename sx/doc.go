// Package sx implements the SX script executable format: the header reader,
// the variable-length instruction decoder and its inverse encoder.
//
// # Images
//
// A script image is a fixed header followed by the bytecode region and
// optional trailing data. Two header layouts exist; the PC layout is four
// bytes shorter. The layout is explicit configuration:
//
//	v := sx.VariantFromPath(path) // ".PCSX" selects VariantPC
//	h, err := sx.ReadHeader(data, v)
//
// # Instructions
//
// Every instruction starts with a 16-bit word: the low byte holds the
// argument type in bits 0-6 and the size-extension flag in bit 7, the high
// byte is the opcode. An extended instruction has two more header bytes. The
// operand follows with the width of its argument type (0, 2 or 4 bytes).
// NUM operands are stored with their 16-bit halves swapped; 2-byte operands
// are sign-extended.
//
//	for in, err := range sx.Instructions(data, h) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(in.Opcode, in.ArgType, in.Arg)
//	}
package sx

package sx

import (
	"math"

	sxerrors "github.com/wippyai/sx-tools/errors"
	"github.com/wippyai/sx-tools/sx/internal/binary"
)

// Rebuild splices code into a copy of template, replacing the template's code
// region and rewriting the image size field. Bytes after the old code region
// are kept. template is not modified.
func Rebuild(template []byte, v Variant, code []byte) ([]byte, error) {
	h, err := ReadHeader(template, v)
	if err != nil {
		return nil, err
	}
	if len(code) > math.MaxInt32 {
		return nil, sxerrors.New(sxerrors.PhaseAssemble, sxerrors.KindInvalidInput).
			Detail("code of %d bytes does not fit the image size field", len(code)).
			Build()
	}

	tail := template[h.CodeEnd():]
	out := make([]byte, 0, h.Size+len(code)+len(tail))
	out = append(out, template[:h.Size]...)
	out = append(out, code...)
	out = append(out, tail...)
	binary.PutU32(out, ImageSizeOffset, uint32(len(code)))
	return out, nil
}

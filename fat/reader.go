package fat

import (
	"encoding/binary"

	greasyerrors "github.com/r4gus/greasy/errors"
)

// byteView is a bounds-checked little-endian reader over a backing byte
// slice. All multi-byte integer fields in a FAT volume are little-endian.
type byteView struct {
	data []byte
}

func (v byteView) checkRange(off, n int) error {
	if off < 0 || n < 0 || off+n > len(v.data) {
		return greasyerrors.ErrTruncatedImage.WithMessage(
			"need bytes at offset range")
	}
	return nil
}

func (v byteView) u16(off int) (uint16, error) {
	if err := v.checkRange(off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(v.data[off:]), nil
}

func (v byteView) u32(off int) (uint32, error) {
	if err := v.checkRange(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v.data[off:]), nil
}

func (v byteView) slice(off, n int) ([]byte, error) {
	if err := v.checkRange(off, n); err != nil {
		return nil, err
	}
	return v.data[off : off+n], nil
}

// mustU16/mustU32 are used only where the caller has already bounds-checked
// the window as a whole (e.g. a fixed 32-byte directory entry slice), and a
// second range failure there would indicate a logic error in this package
// rather than a truncated image.
func mustU16(data []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(data[off:])
}

func mustU32(data []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(data[off:])
}

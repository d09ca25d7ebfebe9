package fat

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// decodeLFNFragmentCorrect decodes a 26-byte LFN name fragment (the
// concatenation of the three byte ranges an LFN shard's name characters
// occupy: 1..11, 14..26, 28..32) as UTF-16LE code units, terminating at the
// first 0x0000 unit and treating 0xFFFF as trailing padding.
//
// The surrogate-pair combining itself is delegated to the standard
// library's unicode/utf16.Decode; the part worth writing by hand is
// locating where the fragment actually ends, since unlike a plain UTF-16LE
// string a shard's 13 code units are zero-terminated and 0xFFFF-padded
// in place, the same convention soypat-fat/internal/utf16x decodes for a
// full buffer rather than for one fixed-width shard.
func decodeLFNFragmentCorrect(raw []byte) string {
	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-len(raw)%2]
	}
	units := make([]uint16, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		u := binary.LittleEndian.Uint16(raw[i:])
		if u == 0x0000 || u == 0xFFFF {
			break
		}
		units = append(units, u)
	}
	if len(units) == 0 {
		return ""
	}
	runes := utf16.Decode(units)
	return string(runes)
}

// decodeLFNFragmentLossy reproduces the original implementation's behavior:
// the fragment bytes are decoded as if they were UTF-8 and the Unicode
// replacement character is trimmed from both ends. This is deliberately
// wrong for any fragment containing non-ASCII text; it exists only so
// Options.CompatibilityMode == CompatLossyLFN can reproduce the original
// tool's output byte-for-byte.
func decodeLFNFragmentLossy(raw []byte) string {
	var b strings.Builder
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		b.WriteRune(r)
		raw = raw[size:]
	}
	return strings.Trim(b.String(), string(utf8.RuneError))
}

// Package testutil builds synthetic FAT12/16/32 images in memory for use in
// fat package tests: a *testing.T-aware constructor that asserts its own
// invariants rather than letting a malformed fixture surface as a
// confusing failure two calls away.
package testutil

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Geometry describes the fixed boot-sector fields needed to build a minimal
// valid FAT12/16/32 image. Zero values are not defaulted: a field left out
// is written to the boot sector as zero (labels as spaces).
type Geometry struct {
	FATType             string // "FAT12", "FAT16", or "FAT32"
	BytesPerSector      uint16
	SectorsPerCluster   uint8
	SectorsReservedArea uint16
	FATTableCount       uint8
	TotalRootEntries    uint16 // FAT12/16 only
	TotalSectors        uint32
	FATTableSectors     uint32
	FirstRootCluster    uint32 // FAT32 only, conventionally 2
	OEMLabel            string
	VolumeLabel         string
	VolumeID            uint32
}

// boot sector field offsets, mirroring fat/geometry.go exactly so a builder
// bug and a parser bug can't silently cancel out.
const (
	offOEMName             = 3
	offBytesPerSector      = 11
	offSectorsPerCluster   = 13
	offSectorsReservedArea = 14
	offFATTableCount       = 16
	offTotalRootEntries    = 17
	offTotalSectors16      = 19
	offFATSectors16        = 22
	offTotalSectors32      = 32
	offFATSectors32        = 36
	offFirstRootCluster    = 44

	offType1216        = 54
	offVolumeID1216    = 39
	offVolumeLabel1216 = 43
	offType32          = 82
	offVolumeID32      = 67
	offVolumeLabel32   = 71

	dirEntrySize = 32
)

// BuildImage allocates a zero-filled image of Geometry.TotalSectors sectors
// and writes a boot sector matching g. The FAT tables, root directory, and
// cluster area are left zeroed; callers use SetFAT16Entry/SetFAT32Entry and
// WriteShortEntry/WriteLFNShard to populate the regions their test needs.
func BuildImage(t *testing.T, g Geometry) []byte {
	t.Helper()
	require.Contains(t, []string{"FAT12", "FAT16", "FAT32"}, g.FATType)

	img := make([]byte, int(g.TotalSectors)*int(g.BytesPerSector))

	putLabel(img, offOEMName, g.OEMLabel, 8)
	binary.LittleEndian.PutUint16(img[offBytesPerSector:], g.BytesPerSector)
	img[offSectorsPerCluster] = g.SectorsPerCluster
	binary.LittleEndian.PutUint16(img[offSectorsReservedArea:], g.SectorsReservedArea)
	img[offFATTableCount] = g.FATTableCount
	binary.LittleEndian.PutUint16(img[offTotalRootEntries:], g.TotalRootEntries)

	if g.TotalSectors <= 0xFFFF {
		binary.LittleEndian.PutUint16(img[offTotalSectors16:], uint16(g.TotalSectors))
	} else {
		binary.LittleEndian.PutUint32(img[offTotalSectors32:], g.TotalSectors)
	}

	isFAT32 := g.FATType == "FAT32"
	if isFAT32 {
		binary.LittleEndian.PutUint16(img[offFATSectors16:], 0)
		binary.LittleEndian.PutUint32(img[offFATSectors32:], g.FATTableSectors)
		binary.LittleEndian.PutUint32(img[offFirstRootCluster:], g.FirstRootCluster)
		binary.LittleEndian.PutUint32(img[offVolumeID32:], g.VolumeID)
		putLabel(img, offVolumeLabel32, g.VolumeLabel, 11)
		putLabel(img, offType32, g.FATType, 8)
	} else {
		require.LessOrEqual(t, g.FATTableSectors, uint32(0xFFFF), "FAT12/16 sectors-per-FAT must fit in 16 bits")
		binary.LittleEndian.PutUint16(img[offFATSectors16:], uint16(g.FATTableSectors))
		binary.LittleEndian.PutUint32(img[offVolumeID1216:], g.VolumeID)
		putLabel(img, offVolumeLabel1216, g.VolumeLabel, 11)
		putLabel(img, offType1216, g.FATType, 8)
	}

	return img
}

func putLabel(img []byte, off int, s string, width int) {
	dst := img[off : off+width]
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, s)
}

// SetFAT16Entry writes one 16-bit FAT-table entry for cluster c in the FAT
// copy that begins at sector fatStartSector.
func SetFAT16Entry(img []byte, bytesPerSector uint16, fatStartSector uint32, c uint32, value uint16) {
	off := int(fatStartSector)*int(bytesPerSector) + int(c)*2
	binary.LittleEndian.PutUint16(img[off:], value)
}

// SetFAT32Entry writes one 32-bit FAT-table entry for cluster c (the top 4
// bits are reserved and left zero).
func SetFAT32Entry(img []byte, bytesPerSector uint16, fatStartSector uint32, c uint32, value uint32) {
	off := int(fatStartSector)*int(bytesPerSector) + int(c)*4
	binary.LittleEndian.PutUint32(img[off:], value&0x0FFFFFFF)
}

// PackShortName packs a display name like "README.TXT" into the 11-byte
// fixed-width field short directory entries use on disk: 8 bytes of name
// padded on the right with spaces, 3 bytes of extension padded on the right
// with spaces.
func PackShortName(name string) [11]byte {
	var out [11]byte
	for i := range out {
		out[i] = ' '
	}
	if name == "." || name == ".." {
		copy(out[0:], name)
		return out
	}
	base, ext := name, ""
	for i, r := range name {
		if r == '.' {
			base, ext = name[:i], name[i+1:]
			break
		}
	}
	copy(out[0:8], base)
	copy(out[8:11], ext)
	return out
}

// ShortDisplayName returns what fat.(*DirEntry).ShortName() would return for
// name packed with PackShortName: the raw 11-byte field with trailing spaces
// trimmed, but no dot reinserted between base and extension.
func ShortDisplayName(name string) string {
	raw := PackShortName(name)
	return strings.TrimRight(string(raw[:]), " ")
}

// WriteShortEntry writes one 32-byte short directory entry at dir[offset:].
func WriteShortEntry(dir []byte, offset int, name [11]byte, attr byte, firstCluster uint32, size uint32) {
	window := dir[offset : offset+dirEntrySize]
	copy(window[0:11], name[:])
	window[11] = attr
	binary.LittleEndian.PutUint16(window[20:], uint16(firstCluster>>16))
	binary.LittleEndian.PutUint16(window[26:], uint16(firstCluster))
	binary.LittleEndian.PutUint32(window[28:], size)
}

// WriteLFNShard writes one 32-byte LFN shard at dir[offset:]. fragment is
// UTF-16LE encoded and zero/0xFFFF padded to fill all 13 code-unit slots,
// matching what a real FAT driver emits.
func WriteLFNShard(dir []byte, offset int, sequenceNumber uint8, last bool, checksum byte, fragment []uint16) {
	window := dir[offset : offset+dirEntrySize]
	seq := sequenceNumber
	if last {
		seq |= 0x40
	}
	window[0] = seq
	window[11] = 0x0F
	window[13] = checksum

	units := make([]uint16, 13)
	copy(units, fragment)
	for i := len(fragment); i < 13; i++ {
		if i == len(fragment) {
			units[i] = 0x0000
		} else {
			units[i] = 0xFFFF
		}
	}

	ranges := [3][2]int{{1, 11}, {14, 26}, {28, 32}}
	pos := 0
	for _, r := range ranges {
		for off := r[0]; off < r[1]; off += 2 {
			binary.LittleEndian.PutUint16(window[off:], units[pos])
			pos++
		}
	}
}

// EncodeUTF16 is a small helper for building LFN fragments in tests without
// importing unicode/utf16 at every call site.
func EncodeUTF16(s string) []uint16 {
	out := make([]uint16, 0, len(s))
	for _, r := range s {
		if r <= 0xFFFF {
			out = append(out, uint16(r))
			continue
		}
		r -= 0x10000
		out = append(out, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
	}
	return out
}

package fat

import (
	bitmap "github.com/boljen/go-bitmap"

	greasyerrors "github.com/r4gus/greasy/errors"
)

const (
	fat32EntryMask    = 0x0FFFFFFF
	fat32FreeEntry    = 0x00000000
	fat32BadEntry     = 0x0FFFFFF7
	fat32EOFRangeLo   = 0x0FFFFFF8
	fat32EOFRangeHi   = 0x0FFFFFFF
	fat16FreeEntry    = 0x0000
	fat16BadEntry     = 0xFFF7
	fat16EOFEntry     = 0xFFFF
)

// readFATEntry reads the FAT-table entry for cluster c and interprets it
// per the variant-specific sentinel rules for FAT16/FAT32. isEnd reports
// whether c is the last cluster in its chain (the entry is FREE, BAD, or an
// EOF value); when isEnd is false, next is the following cluster in the
// chain, already masked to the bits that are meaningful for this variant.
func (v *Volume) readFATEntry(c Cluster) (next Cluster, isEnd bool, err error) {
	off := v.FATEntryOffset(c)

	switch v.FATType {
	case FAT32:
		raw, err := v.view.u32(int(off))
		if err != nil {
			return 0, false, err
		}
		masked := raw & fat32EntryMask
		if masked == fat32FreeEntry || masked == fat32BadEntry || masked >= fat32EOFRangeLo {
			return 0, true, nil
		}
		return Cluster(masked), false, nil

	case FAT16:
		raw, err := v.view.u16(int(off))
		if err != nil {
			return 0, false, err
		}
		if raw == fat16FreeEntry || raw == fat16BadEntry || raw == fat16EOFEntry {
			return 0, true, nil
		}
		return Cluster(raw), false, nil

	default: // FAT12
		return 0, false, greasyerrors.ErrUnsupportedVariant.WithMessage(
			"FAT12 FAT-table entries are 12 bits wide and are not decoded by this package")
	}
}

// ClusterChain follows the allocation chain beginning at start, returning
// it in physical link order. FAT12 volumes are rejected with
// ErrUnsupportedVariant; Open and the geometry report do not call this
// function, so FAT12 images can still be opened and reported on, while a
// directory walk reports this error for every FAT12 entry with a cluster.
//
// A cycle or a chain exceeding the volume's total cluster count returns the
// partial chain collected so far together with ErrMalformedChain. Cycle
// detection uses a bitmap sized to the volume's cluster address space,
// checked before each cluster is added to the chain.
func (v *Volume) ClusterChain(start Cluster) ([]Cluster, error) {
	if v.FATType == FAT12 {
		return nil, greasyerrors.ErrUnsupportedVariant.WithMessage(
			"FAT12 cluster chain traversal")
	}
	mustCluster(start)

	visited := bitmap.New(int(v.TotalClusters))
	chain := make([]Cluster, 0, 16)
	maxLen := int(v.TotalClusters) + 1
	cur := start

	for {
		idx := int(cur) - 2
		if idx < 0 || idx >= int(v.TotalClusters) {
			return chain, greasyerrors.ErrMalformedChain.WithMessage(
				"cluster index out of range")
		}
		if visited.Get(idx) {
			return chain, greasyerrors.ErrMalformedChain.WithMessage(
				"cluster revisited: cycle in chain")
		}
		visited.Set(idx, true)
		chain = append(chain, cur)
		if len(chain) > maxLen {
			return chain, greasyerrors.ErrMalformedChain.WithMessage(
				"chain length exceeds total cluster count")
		}

		next, isEnd, err := v.readFATEntry(cur)
		if err != nil {
			return chain, err
		}
		if isEnd {
			return chain, nil
		}
		if next == cur {
			return chain, greasyerrors.ErrMalformedChain.WithMessage(
				"FAT entry points to itself")
		}
		cur = next
	}
}

package fat

import (
	"strings"

	greasyerrors "github.com/r4gus/greasy/errors"
)

// Boot sector / BPB field offsets, per the Microsoft FAT specification.
// Named instead of inlined so the derivation in Open reads the same way the
// on-disk layout is documented.
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

	offType1216         = 54 // FAT12/16 filesystem type label
	offVolumeID1216     = 39
	offVolumeLabel1216  = 43
	offType32           = 82 // FAT32 filesystem type label
	offVolumeID32       = 67
	offVolumeLabel32    = 71

	dirEntrySize = 32
)

// Volume is an immutable, parsed view of a FAT12/16/32 boot sector plus the
// geometry derived from it. It borrows the byte slice passed to Open for
// its entire lifetime and performs no copies of volume data beyond the
// small fixed-size header fields below.
type Volume struct {
	view byteView
	opts Options

	OEMLabel    string
	VolumeLabel string
	VolumeID    uint32

	FATType            Type
	FATTableEntryBits  int
	BytesPerSector     uint16
	SectorsPerCluster  uint8
	FATTableCount      uint8
	SectorsReservedArea uint16
	TotalSectors        uint32
	FATTableSectors     uint32
	TotalRootEntries    uint16 // meaningful only for FAT12/16
	FirstRootCluster    uint32 // meaningful only for FAT32

	StartReservedArea Sector
	StartFATArea      Sector
	SectorsFATArea    uint32
	StartDataArea     Sector
	StartRootDir      Sector
	StartClusterArea  Sector
	TotalClusters      uint32
}

// Open parses a FAT12/16/32 boot sector from view and derives the volume's
// geometry. view must be at least as long as total_sectors*bytes_per_sector;
// a view truncated below any field this function reads is a fatal,
// returned error rather than a panic.
func Open(view []byte, opts Options) (*Volume, error) {
	bv := byteView{data: view}

	// Read the "sectors per FAT" word at offset 22 exactly once: its
	// zero-ness is the single disambiguator between FAT12/16 and FAT32
	// layout.
	fatSectors16, err := bv.u16(offFATSectors16)
	if err != nil {
		return nil, err
	}
	isFAT32Layout := fatSectors16 == 0

	var fatTableSectors uint32
	if isFAT32Layout {
		fatTableSectors, err = bv.u32(offFATSectors32)
		if err != nil {
			return nil, err
		}
	} else {
		fatTableSectors = uint32(fatSectors16)
	}

	typeOff := offType1216
	if isFAT32Layout {
		typeOff = offType32
	}
	rawType, err := bv.slice(typeOff, 8)
	if err != nil {
		return nil, err
	}
	typeLabel := strings.TrimRight(strings.TrimRight(string(rawType), "\x00"), " ")

	var fatType Type
	switch typeLabel {
	case "FAT12":
		fatType = FAT12
	case "FAT16":
		fatType = FAT16
	case "FAT32":
		fatType = FAT32
	default:
		return nil, greasyerrors.ErrUnrecognizedVariant.WithMessage(typeLabel)
	}

	oemRaw, err := bv.slice(offOEMName, 8)
	if err != nil {
		return nil, err
	}
	oem := strings.TrimRight(strings.TrimRight(string(oemRaw), "\x00"), " ")

	bytesPerSector, err := bv.u16(offBytesPerSector)
	if err != nil {
		return nil, err
	}
	sectorsPerClusterRaw, err := bv.slice(offSectorsPerCluster, 1)
	if err != nil {
		return nil, err
	}
	sectorsPerCluster := sectorsPerClusterRaw[0]

	fatTableCountRaw, err := bv.slice(offFATTableCount, 1)
	if err != nil {
		return nil, err
	}
	fatTableCount := fatTableCountRaw[0]

	sectorsReservedArea, err := bv.u16(offSectorsReservedArea)
	if err != nil {
		return nil, err
	}

	totalSectors16, err := bv.u16(offTotalSectors16)
	if err != nil {
		return nil, err
	}
	var totalSectors uint32
	if totalSectors16 != 0 {
		totalSectors = uint32(totalSectors16)
	} else {
		totalSectors, err = bv.u32(offTotalSectors32)
		if err != nil {
			return nil, err
		}
	}

	totalRootEntries, err := bv.u16(offTotalRootEntries)
	if err != nil {
		return nil, err
	}

	var firstRootCluster uint32
	if fatType == FAT32 {
		firstRootCluster, err = bv.u32(offFirstRootCluster)
		if err != nil {
			return nil, err
		}
	}

	volIDOff, volLabelOff := offVolumeID1216, offVolumeLabel1216
	if fatType == FAT32 {
		volIDOff, volLabelOff = offVolumeID32, offVolumeLabel32
	}
	volumeID, err := bv.u32(volIDOff)
	if err != nil {
		return nil, err
	}
	volLabelRaw, err := bv.slice(volLabelOff, 11)
	if err != nil {
		return nil, err
	}
	volumeLabel := strings.TrimRight(strings.TrimRight(string(volLabelRaw), "\x00"), " ")

	startReservedArea := Sector(0)
	startFATArea := Sector(sectorsReservedArea)
	sectorsFATArea := uint32(fatTableCount) * fatTableSectors
	startDataArea := Sector(uint32(startFATArea) + sectorsFATArea)

	var startRootDir, startClusterArea Sector
	if fatType == FAT32 {
		startClusterArea = startDataArea
		startRootDir = Sector(uint32(startClusterArea) + (firstRootCluster-2)*uint32(sectorsPerCluster))
	} else {
		startRootDir = startDataArea
		rootDirSectors := uint32(totalRootEntries) * dirEntrySize
		rootDirSectors = (rootDirSectors + uint32(bytesPerSector) - 1) / uint32(bytesPerSector)
		startClusterArea = Sector(uint32(startDataArea) + rootDirSectors)
	}

	totalClusters := (totalSectors-uint32(startClusterArea))/uint32(sectorsPerCluster) + 1

	return &Volume{
		view:                bv,
		opts:                opts,
		OEMLabel:            oem,
		VolumeLabel:         volumeLabel,
		VolumeID:            volumeID,
		FATType:             fatType,
		FATTableEntryBits:   fatType.EntryBits(),
		BytesPerSector:      bytesPerSector,
		SectorsPerCluster:   sectorsPerCluster,
		FATTableCount:       fatTableCount,
		SectorsReservedArea: sectorsReservedArea,
		TotalSectors:        totalSectors,
		FATTableSectors:     fatTableSectors,
		TotalRootEntries:    totalRootEntries,
		FirstRootCluster:    firstRootCluster,
		StartReservedArea:   startReservedArea,
		StartFATArea:        startFATArea,
		SectorsFATArea:      sectorsFATArea,
		StartDataArea:       startDataArea,
		StartRootDir:        startRootDir,
		StartClusterArea:    startClusterArea,
		TotalClusters:       totalClusters,
	}, nil
}

package fat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r4gus/greasy/testutil"
)

func TestInfoReportsVariantAndLabels(t *testing.T) {
	img := testutil.BuildImage(t, testutil.Geometry{
		FATType:             "FAT16",
		BytesPerSector:      512,
		SectorsPerCluster:   4,
		FATTableCount:       2,
		SectorsReservedArea: 1,
		FATTableSectors:     32,
		TotalRootEntries:    512,
		TotalSectors:        20000,
		OEMLabel:            "MSDOS5.0",
		VolumeLabel:         "MYDISK",
		VolumeID:            0xDEADBEEF,
	})
	v, err := Open(img, Options{})
	require.NoError(t, err)

	info := v.Info()
	require.Contains(t, info, "FAT16")
	require.Contains(t, info, "MYDISK")
	require.Contains(t, info, "DEADBEEF")
	require.Contains(t, info, "FAT table copy 1")
	require.Contains(t, info, "FAT table copy 2")
}

func TestTreeRendersIndentedListing(t *testing.T) {
	img, v := fat16Fixture(t, 200)
	region := rootDirRegion(img, v)
	testutil.WriteShortEntry(region, 0, testutil.PackShortName("FILE.TXT"), 0x20, 0, 10)

	root, err := v.Tree()
	require.NoError(t, err)

	rendered := Tree(root)
	require.True(t, strings.Contains(rendered, "["+testutil.ShortDisplayName("FILE.TXT")+": F]"))
}

func TestWriteTreeCSVIncludesHeaderAndRows(t *testing.T) {
	img, v := fat16Fixture(t, 200)
	region := rootDirRegion(img, v)
	testutil.WriteShortEntry(region, 0, testutil.PackShortName("FILE.TXT"), 0x20, 0, 10)

	root, err := v.Tree()
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, WriteTreeCSV(&b, root))
	require.Contains(t, b.String(), "depth")
	require.Contains(t, b.String(), testutil.ShortDisplayName("FILE.TXT"))
}

package fat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r4gus/greasy/testutil"
)

func rootDirRegion(img []byte, v *Volume) []byte {
	off := int(v.Offset(v.StartRootDir))
	length := int(v.TotalRootEntries) * dirEntrySize
	return img[off : off+length]
}

func TestTreeCoalescesLFNShards(t *testing.T) {
	img, v := fat16Fixture(t, 200)
	region := rootDirRegion(img, v)

	var shortName [11]byte
	copy(shortName[:], "LONGFI~1TXT")
	checksum := shortNameChecksum(shortName)

	testutil.WriteLFNShard(region, 0, 1, true, checksum, testutil.EncodeUTF16("LongFilename."))
	testutil.WriteLFNShard(region, 32, 2, false, checksum, testutil.EncodeUTF16("txt"))
	testutil.WriteShortEntry(region, 64, shortName, 0x20, 0, 123)

	root, err := v.Tree()
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	require.Equal(t, "LongFilename.txt", root.Children[0].Name)
	require.False(t, root.Children[0].IsDir)
}

func TestTreeHaltsAtEndOfDirectorySentinel(t *testing.T) {
	img, v := fat16Fixture(t, 200)
	region := rootDirRegion(img, v)

	testutil.WriteShortEntry(region, 0, testutil.PackShortName("A.TXT"), 0x20, 0, 1)
	testutil.WriteShortEntry(region, 32, testutil.PackShortName("B.TXT"), 0x20, 0, 2)
	// entry at offset 64 is already zeroed (end-of-directory sentinel).
	testutil.WriteShortEntry(region, 96, testutil.PackShortName("C.TXT"), 0x20, 0, 3)

	root, err := v.Tree()
	require.NoError(t, err)
	require.Len(t, root.Children, 2)
	require.Equal(t, testutil.ShortDisplayName("A.TXT"), root.Children[0].Name)
	require.Equal(t, testutil.ShortDisplayName("B.TXT"), root.Children[1].Name)
}

func TestTreeDeletedEntryYieldsAndContinues(t *testing.T) {
	img, v := fat16Fixture(t, 200)
	region := rootDirRegion(img, v)

	testutil.WriteShortEntry(region, 0, testutil.PackShortName("GONE.TXT"), 0x20, 0, 1)
	region[0] = 0xE5
	testutil.WriteShortEntry(region, 32, testutil.PackShortName("HERE.TXT"), 0x20, 0, 2)

	root, err := v.Tree()
	require.NoError(t, err)
	require.Len(t, root.Children, 2)
	require.True(t, root.Children[0].Deleted)
	require.False(t, root.Children[1].Deleted)
}

func TestTreeNeverEmitsDotEntries(t *testing.T) {
	img, v := fat16Fixture(t, 200)
	region := rootDirRegion(img, v)

	testutil.WriteShortEntry(region, 0, testutil.PackShortName("."), 0x10, 0, 0)
	testutil.WriteShortEntry(region, 32, testutil.PackShortName(".."), 0x10, 0, 0)
	testutil.WriteShortEntry(region, 64, testutil.PackShortName("REAL.TXT"), 0x20, 0, 4)

	root, err := v.Tree()
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	require.Equal(t, testutil.ShortDisplayName("REAL.TXT"), root.Children[0].Name)
}

func TestTreeRecursesIntoSubdirectories(t *testing.T) {
	img, v := fat16Fixture(t, 200)

	// FAT chain: cluster 2 holds the subdirectory's entries, terminated.
	testutil.SetFAT16Entry(img, 512, uint32(v.StartFATArea), 2, fat16EOFEntry)

	region := rootDirRegion(img, v)
	testutil.WriteShortEntry(region, 0, testutil.PackShortName("SUBDIR"), 0x10, 2, 0)

	subOff := int(v.Offset(v.ClusterToSector(2)))
	clusterBytes := int(v.SectorsPerCluster) * int(v.BytesPerSector)
	subRegion := img[subOff : subOff+clusterBytes]
	testutil.WriteShortEntry(subRegion, 0, testutil.PackShortName("."), 0x10, 2, 0)
	testutil.WriteShortEntry(subRegion, 32, testutil.PackShortName(".."), 0x10, 0, 0)
	testutil.WriteShortEntry(subRegion, 64, testutil.PackShortName("CHILD.TXT"), 0x20, 0, 5)

	root, err := v.Tree()
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	require.True(t, root.Children[0].IsDir)
	require.Len(t, root.Children[0].Children, 1)
	require.Equal(t, testutil.ShortDisplayName("CHILD.TXT"), root.Children[0].Children[0].Name)
}

func TestTreeSkipsSubtreeWithMalformedChain(t *testing.T) {
	img, v := fat16Fixture(t, 200)

	// cluster 2 points to itself: a malformed chain.
	testutil.SetFAT16Entry(img, 512, uint32(v.StartFATArea), 2, 2)

	region := rootDirRegion(img, v)
	testutil.WriteShortEntry(region, 0, testutil.PackShortName("BAD"), 0x10, 2, 0)
	testutil.WriteShortEntry(region, 32, testutil.PackShortName("GOOD.TXT"), 0x20, 0, 1)

	root, err := v.Tree()
	require.Error(t, err)
	require.Len(t, root.Children, 2)
	require.Equal(t, testutil.ShortDisplayName("BAD"), root.Children[0].Name)
	require.Nil(t, root.Children[0].Children)
	require.Equal(t, testutil.ShortDisplayName("GOOD.TXT"), root.Children[1].Name)
}

func TestTreeClassifiesVolumeLabelBeforeSubdirectory(t *testing.T) {
	img, v := fat16Fixture(t, 200)
	region := rootDirRegion(img, v)

	// attrs 0x18 carries both the volume-label (0x08) and subdirectory
	// (0x10) bits; volume-label classification takes priority over
	// subdirectory classification.
	testutil.WriteShortEntry(region, 0, testutil.PackShortName("MYDISK"), 0x18, 0, 0)

	root, err := v.Tree()
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	require.True(t, root.Children[0].IsVolumeLabel)
	require.False(t, root.Children[0].IsDir)
}

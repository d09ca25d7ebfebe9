package fat

// mustCluster asserts the precondition every address-translation function
// in this file requires: the cluster argument is a valid data cluster.
// This is a programmer-error-class precondition, not a recoverable error —
// callers are expected to have already checked the cluster came from a
// decoded directory entry or a FAT chain link, never directly from
// unvalidated external input.
func mustCluster(c Cluster) {
	if c < 2 {
		panic("fat: cluster must be >= 2")
	}
}

// ClusterToSector converts a cluster number to the sector at which its data
// begins.
func (v *Volume) ClusterToSector(c Cluster) Sector {
	mustCluster(c)
	return Sector(uint32(c-2)*uint32(v.SectorsPerCluster) + uint32(v.StartClusterArea))
}

// SectorToCluster converts a sector within the cluster area to the cluster
// number it belongs to.
func (v *Volume) SectorToCluster(s Sector) Cluster {
	return Cluster((uint32(s) - uint32(v.StartClusterArea)) / uint32(v.SectorsPerCluster))
}

// Offset converts a sector number to its byte offset in the backing view.
func (v *Volume) Offset(s Sector) ByteOffset {
	return ByteOffset(uint64(s) * uint64(v.BytesPerSector))
}

// FATEntryOffset returns the byte offset of the FAT-table entry for cluster
// c. Valid for FAT16 and FAT32; FAT12's 12-bit packed entries require
// byte-level unpacking this function does not perform.
func (v *Volume) FATEntryOffset(c Cluster) ByteOffset {
	mustCluster(c)
	entryBytes := uint64(v.FATTableEntryBits / 8)
	return ByteOffset(uint64(v.StartFATArea)*uint64(v.BytesPerSector) + uint64(c)*entryBytes)
}

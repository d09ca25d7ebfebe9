package fat

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"
)

// Info renders the volume's geometry report as a string.
func (v *Volume) Info() string {
	var b strings.Builder
	_ = v.WriteInfo(&b) // strings.Builder never errors
	return b.String()
}

// WriteInfo writes the volume's geometry report to w: FAT variant, labels,
// sector/byte sizes, and the sector range of every region a FAT volume is
// divided into (reserved area, each FAT table copy, data area, root
// directory, cluster area). Sizes are rendered with github.com/dustin/go-humanize so the report
// reads the way a human inspecting a disk image expects, not as raw byte
// counts.
func (v *Volume) WriteInfo(w io.Writer) error {
	clusterSize := uint64(v.BytesPerSector) * uint64(v.SectorsPerCluster)
	volumeSize := uint64(v.TotalSectors) * uint64(v.BytesPerSector)

	lines := []string{
		fmt.Sprintf("FAT type:          %s", v.FATType),
		fmt.Sprintf("OEM label:         %q", v.OEMLabel),
		fmt.Sprintf("Volume label:      %q", v.VolumeLabel),
		fmt.Sprintf("Volume ID:         %08X", v.VolumeID),
		fmt.Sprintf("Volume size:       %s (%s sectors)", humanize.Bytes(volumeSize), humanize.Comma(int64(v.TotalSectors))),
		fmt.Sprintf("Bytes per sector:  %d", v.BytesPerSector),
		fmt.Sprintf("Cluster size:      %s (%d sectors/cluster)", humanize.Bytes(clusterSize), v.SectorsPerCluster),
		fmt.Sprintf("Total clusters:    %s (clusters 2-%d)", humanize.Comma(int64(v.TotalClusters)), v.TotalClusters),
		fmt.Sprintf("Reserved area:     sectors %d-%d", v.StartReservedArea, uint32(v.StartFATArea)-1),
	}

	for i := uint8(0); i < v.FATTableCount; i++ {
		start := uint32(v.StartFATArea) + uint32(i)*v.FATTableSectors
		lines = append(lines, fmt.Sprintf(
			"FAT table copy %d:  sectors %d-%d", i+1, start, start+v.FATTableSectors-1))
	}

	lines = append(lines,
		fmt.Sprintf("Data area:         sectors %d-%d", v.StartDataArea, uint32(v.TotalSectors)-1))

	if v.FATType == FAT32 {
		lines = append(lines,
			fmt.Sprintf("Root directory:    cluster chain from cluster %d", v.FirstRootCluster),
			fmt.Sprintf("Cluster area:      sectors %d-%d", v.StartClusterArea, uint32(v.TotalSectors)-1),
		)
	} else {
		lines = append(lines,
			fmt.Sprintf("Root directory:    sectors %d-%d (%d entries)", v.StartRootDir, uint32(v.StartClusterArea)-1, v.TotalRootEntries),
			fmt.Sprintf("Cluster area:      sectors %d-%d", v.StartClusterArea, uint32(v.TotalSectors)-1),
		)
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// indentUnit is the text prepended once per recursion depth when rendering
// a tree node, matching the original Rust tool's output.
const indentUnit = "  "

// renderNode appends one line for node and its children to b, in depth-first
// encounter order.
func renderNode(b *strings.Builder, node *DirNode, depth int) {
	b.WriteString(strings.Repeat(indentUnit, depth))
	b.WriteByte('[')
	b.WriteString(node.Name)
	b.WriteString(": ")
	if node.Deleted {
		b.WriteString("X | ")
	}
	switch {
	case node.IsVolumeLabel:
		b.WriteByte('V')
	case node.IsDir:
		b.WriteByte('D')
	default:
		b.WriteByte('F')
	}
	b.WriteString("]\n")

	for _, child := range node.Children {
		renderNode(b, child, depth+1)
	}
}

// Tree renders root as an indented listing, one line per node, in the form
// "[name: [X | ]T]" where T is V for volume labels, D for directories and F
// for files and the
// optional "X | " marks an entry still occupying a directory slot after
// deletion. The root node itself is not rendered, only its descendants.
func Tree(root *DirNode) string {
	var b strings.Builder
	for _, child := range root.Children {
		renderNode(&b, child, 0)
	}
	return b.String()
}

// csvRow is one flattened row of a directory tree, tagged for
// github.com/gocarina/gocsv marshaling.
type csvRow struct {
	Depth    int    `csv:"depth"`
	Name     string `csv:"name"`
	Type     string `csv:"type"`
	Deleted  bool   `csv:"deleted"`
	Size     uint32 `csv:"size"`
	Checksum byte   `csv:"checksum"`
}

func flattenRows(node *DirNode, depth int, rows *[]csvRow) {
	for _, child := range node.Children {
		row := csvRow{Depth: depth, Name: child.Name, Deleted: child.Deleted}
		switch {
		case child.IsVolumeLabel:
			row.Type = "volume_label"
		case child.IsDir:
			row.Type = "dir"
		default:
			row.Type = "file"
		}
		if child.Entry != nil {
			row.Size = child.Entry.Size
			row.Checksum = child.Entry.Checksum()
		}
		*rows = append(*rows, row)
		flattenRows(child, depth+1, rows)
	}
}

// WriteTreeCSV writes root's tree flattened into one CSV row per node, for
// scripting use cases the original tool's stdout-only output didn't serve.
func WriteTreeCSV(w io.Writer, root *DirNode) error {
	rows := make([]csvRow, 0)
	flattenRows(root, 0, &rows)
	return gocsv.Marshal(rows, w)
}

package fat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// DirNode is one resolved entry in a directory tree walk: either the
// synthetic root (Entry == nil) or a fully decoded DirEntry with its long
// name coalesced and, for subdirectories, its children resolved.
type DirNode struct {
	Entry         *DirEntry
	Name          string
	IsDir         bool
	IsVolumeLabel bool
	Deleted       bool
	Depth         int
	Children      []*DirNode
}

// displayName returns the long name if LFN shards were coalesced for this
// entry, otherwise the trimmed short name.
func displayName(e *DirEntry) string {
	if e.LongName != "" {
		return e.LongName
	}
	return e.ShortName()
}

// rootDirChunks returns the byte ranges to scan for the root directory: a
// single contiguous sector range sized by TotalRootEntries for FAT12/16, or
// the root's cluster chain for FAT32.
func (v *Volume) rootDirChunks() ([][]byte, error) {
	if v.FATType == FAT32 {
		chain, err := v.ClusterChain(Cluster(v.FirstRootCluster))
		if err != nil {
			return nil, err
		}
		return v.clusterChunks(chain)
	}

	length := int(v.TotalRootEntries) * dirEntrySize
	off := int(v.Offset(v.StartRootDir))
	buf, err := v.view.slice(off, length)
	if err != nil {
		return nil, err
	}
	return [][]byte{buf}, nil
}

// clusterChunks returns one byte slice per cluster in chain, each sized to
// one full cluster, in chain order.
func (v *Volume) clusterChunks(chain []Cluster) ([][]byte, error) {
	chunks := make([][]byte, 0, len(chain))
	clusterBytes := int(v.SectorsPerCluster) * int(v.BytesPerSector)
	for _, c := range chain {
		off := int(v.Offset(v.ClusterToSector(c)))
		buf, err := v.view.slice(off, clusterBytes)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, buf)
	}
	return chunks, nil
}

// scanRegion performs the single-directory pass over chunks: it walks every
// chunk in stride-32 windows, halting entirely (across all remaining
// chunks) at the first 0x00 end-of-directory sentinel, and buckets LFN
// shards by the checksum they carry.
func scanRegion(chunks [][]byte, mode CompatibilityMode) (shorts []DirEntry, lfnByChecksum map[byte][]lfnShard) {
	lfnByChecksum = make(map[byte][]lfnShard)

scan:
	for _, chunk := range chunks {
		for off := 0; off+dirEntrySize <= len(chunk); off += dirEntrySize {
			window := chunk[off : off+dirEntrySize]
			if window[dirOffName] == 0x00 {
				break scan
			}
			if fileattr(window[dirOffAttrs]).IsLFN() {
				shard := decodeLFNShard(window, mode)
				lfnByChecksum[shard.checksum] = append(lfnByChecksum[shard.checksum], shard)
			} else {
				shorts = append(shorts, decodeShortEntry(window))
			}
		}
	}
	return shorts, lfnByChecksum
}

// walkRegion resolves one directory's worth of entries (coalescing LFNs,
// attaching cluster chains, recursing into subdirectories) and returns the
// resolved nodes in encounter order. An entry whose own cluster chain is
// malformed is still emitted, with Clusters left nil; only the recursion
// into its children is skipped. Every chain or recursion error, for files
// and directories alike, is appended to the returned *multierror.Error
// rather than aborting the whole walk.
func (v *Volume) walkRegion(chunks [][]byte, depth int) ([]*DirNode, error) {
	shorts, lfnByChecksum := scanRegion(chunks, v.opts.CompatibilityMode)

	var errs *multierror.Error
	nodes := make([]*DirNode, 0, len(shorts))

	for i := range shorts {
		e := &shorts[i]

		if bucket, ok := lfnByChecksum[e.checksum]; ok && len(bucket) > 0 {
			sort.Slice(bucket, func(a, b int) bool {
				return bucket[a].sequenceNumber < bucket[b].sequenceNumber
			})
			var sb strings.Builder
			for _, shard := range bucket {
				sb.WriteString(shard.fragment)
			}
			e.LongName = sb.String()
		}

		var chainErr error
		if e.FirstCluster >= 2 {
			chain, err := v.ClusterChain(e.FirstCluster)
			if err != nil {
				chainErr = err
				errs = multierror.Append(errs, fmt.Errorf(
					"entry %q: %w", e.ShortName(), err))
			} else {
				e.Clusters = chain
			}
		}

		if e.IsDot() || e.IsDotDot() {
			continue
		}

		node := &DirNode{
			Entry:         e,
			Name:          displayName(e),
			IsVolumeLabel: e.IsVolumeLabel(),
			IsDir:         !e.IsVolumeLabel() && e.IsSubdirectory(),
			Deleted:       e.Deleted,
			Depth:         depth,
		}

		if node.IsDir && chainErr == nil && len(e.Clusters) > 0 {
			childChunks, err := v.clusterChunks(e.Clusters)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf(
					"entry %q: %w", e.ShortName(), err))
			} else {
				children, err := v.walkRegion(childChunks, depth+1)
				if err != nil {
					if me, ok := err.(*multierror.Error); ok {
						errs = multierror.Append(errs, me.Errors...)
					} else {
						errs = multierror.Append(errs, err)
					}
				}
				node.Children = children
			}
		}

		nodes = append(nodes, node)
	}

	return nodes, errs.ErrorOrNil()
}

// Tree walks the directory tree rooted at the volume's root directory,
// resolving LFNs and descending into every subdirectory. The returned
// *DirNode is always non-nil and as complete as the image allows. If the
// root directory itself cannot be read, the root has no children and that
// error is returned as is. Otherwise a non-nil error (a
// *github.com/hashicorp/go-multierror.Error) means the cluster chain of one
// or more entries could not be followed (a malformed chain, a truncated
// image, or a FAT12 volume, whose chains this package does not decode), so
// those entries have no Clusters and no children — the rest of the tree is
// unaffected.
func (v *Volume) Tree() (*DirNode, error) {
	chunks, err := v.rootDirChunks()
	if err != nil {
		return &DirNode{Name: "/", IsDir: true}, err
	}
	children, walkErr := v.walkRegion(chunks, 0)
	root := &DirNode{Name: "/", IsDir: true, Children: children}
	return root, walkErr
}

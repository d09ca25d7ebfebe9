package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/noxer/bytewriter"
	"github.com/urfave/cli/v2"
	"github.com/xaionaro-go/bytesextra"

	"github.com/r4gus/greasy/fat"
)

// infoScratchSize bounds the pre-sized buffer WriteInfo renders into before
// it is flushed to stdout in one write.
const infoScratchSize = 64 * 1024

func main() {
	app := &cli.App{
		Name:  "greasy",
		Usage: "Inspect FAT12/16/32 disk images",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "info", Aliases: []string{"i"}, Usage: "print volume geometry"},
			&cli.BoolFlag{Name: "tree", Aliases: []string{"t"}, Usage: "print the directory tree"},
			&cli.BoolFlag{Name: "csv", Usage: "print the directory tree as CSV instead of indented text"},
			&cli.BoolFlag{Name: "lossy-lfn", Usage: "reproduce the original tool's lossy long-filename decoding"},
		},
		ArgsUsage: "INPUT",
		Action:    inspect,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("greasy: %s", err)
	}
}

func inspect(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("missing required INPUT argument", 1)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("reading %s: %s", path, err), 1)
	}

	image, err := sanityReadImage(raw)
	if err != nil {
		return cli.Exit(fmt.Sprintf("reading %s: %s", path, err), 1)
	}

	opts := fat.Options{}
	if c.Bool("lossy-lfn") {
		opts.CompatibilityMode = fat.CompatLossyLFN
	}

	volume, err := fat.Open(image, opts)
	if err != nil {
		return cli.Exit(fmt.Sprintf("parsing %s: %s", path, err), 1)
	}

	showInfo := c.Bool("info")
	showTree := c.Bool("tree")
	if !showInfo && !showTree {
		showInfo = true
	}

	if showInfo {
		if err := writeInfoBuffered(os.Stdout, volume); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	if showTree {
		root, walkErr := volume.Tree()
		if c.Bool("csv") {
			if err := fat.WriteTreeCSV(os.Stdout, root); err != nil {
				return cli.Exit(err.Error(), 1)
			}
		} else {
			fmt.Print(fat.Tree(root))
		}
		if walkErr != nil {
			log.Printf("greasy: some subtrees were skipped: %s", walkErr)
		}
	}

	return nil
}

// sanityReadImage adapts raw to an io.ReadWriteSeeker and reads it back in
// full before handing the bytes to fat.Open, so a short read from a
// corrupted file surfaces here rather than as a confusing mid-parse bounds
// error deep in the fat package.
func sanityReadImage(raw []byte) ([]byte, error) {
	rws := bytesextra.NewReadWriteSeeker(raw)

	size, err := rws.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := rws.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	verified := make([]byte, size)
	if _, err := io.ReadFull(rws, verified); err != nil {
		return nil, err
	}
	return verified, nil
}

// countingWriter tracks how many bytes have been written through it, so the
// caller can flush only the live portion of a scratch buffer bytewriter has
// been writing into.
type countingWriter struct{ n int }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += len(p)
	return len(p), nil
}

// writeInfoBuffered renders the volume report into a fixed-size scratch
// buffer via bytewriter before flushing it to w in one write.
func writeInfoBuffered(w io.Writer, volume *fat.Volume) error {
	buf := make([]byte, infoScratchSize)
	scratch := bytewriter.New(buf)
	counter := &countingWriter{}

	if err := volume.WriteInfo(io.MultiWriter(scratch, counter)); err != nil {
		return err
	}
	_, err := w.Write(buf[:counter.n])
	return err
}

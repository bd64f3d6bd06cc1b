package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tchajed/goose/machine/disk"
	"golang.org/x/sys/unix"

	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-mkfs/common"
	"github.com/mit-pdos/go-mkfs/fs"
	"github.com/mit-pdos/go-mkfs/super"
	"github.com/mit-pdos/go-mkfs/util/timed_disk"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] fs.img [files...]\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	var sizeBlocks uint64
	flag.Uint64Var(&sizeBlocks, "size", common.FSSIZE, "size of the image (in blocks)")

	var logBlocks uint64
	flag.Uint64Var(&logBlocks, "log", common.LOGSIZE, "blocks reserved for the write-ahead log")

	var ninodes uint64
	flag.Uint64Var(&ninodes, "ninodes", common.NINODE, "number of inodes")

	var dumpStats bool
	flag.BoolVar(&dumpStats, "stats", false, "dump sector I/O stats to stderr at end")

	flag.Uint64Var(&util.Debug, "debug", 0, "debug level (higher is more verbose)")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	img := flag.Arg(0)

	sb, err := super.MkFsSuper(sizeBlocks, logBlocks, ninodes)
	if err != nil {
		log.Fatalf("mkfs: %v", err)
	}

	// open every input before the image is touched, so a bad argument
	// is a usage error rather than a half-built image
	var inputs []fs.Input
	for _, p := range flag.Args()[1:] {
		f, err := os.Open(p)
		if err != nil {
			log.Fatalf("mkfs: %v", err)
		}
		defer f.Close()
		inputs = append(inputs, fs.Input{Name: fs.CleanName(p), Data: f})
	}

	// the file disk keeps whatever is in an existing image, so start
	// from a truncated file
	fd, err := unix.Open(img, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC, 0666)
	if err != nil {
		log.Fatalf("mkfs: %s: %v", img, err)
	}
	unix.Close(fd)

	var d disk.Disk
	fdisk, err := disk.NewFileDisk(img, sizeBlocks)
	if err != nil {
		log.Fatalf("mkfs: %s: %v", img, err)
	}
	d = fdisk
	var td *timed_disk.Disk
	if dumpStats {
		td = timed_disk.New(d)
		d = td
	}

	b, err := fs.Build(d, sb, inputs)
	if err != nil {
		log.Fatalf("mkfs: %v", err)
	}
	d.Barrier()
	d.Close()

	fmt.Printf("nmeta %d (boot, super, log blocks %d inode blocks %d, bitmap blocks %d) blocks %d total %d\n",
		sb.NMeta(), sb.NLog, sb.InodeBlocks(), sb.BitmapBlocks(), sb.NBlocks, sb.Size)
	fmt.Printf("inodes %d blocks %d\n", b.InodesAllocated(), b.BlocksAllocated())
	if dumpStats {
		td.WriteStats(os.Stderr)
	}
}

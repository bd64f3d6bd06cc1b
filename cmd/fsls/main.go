// fsls lists the root directory of a filesystem image.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rodaine/table"
	"github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-mkfs/common"
	"github.com/mit-pdos/go-mkfs/fs"
)

var kindNames = map[uint32]string{
	common.KindUnused: "unused",
	common.KindDir:    "dir",
	common.KindFile:   "file",
	common.KindDev:    "dev",
}

func main() {
	flag.Uint64Var(&util.Debug, "debug", 0, "debug level (higher is more verbose)")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s fs.img\n", os.Args[0])
		os.Exit(1)
	}
	path := flag.Arg(0)

	// size the disk from the file; opening with the wrong block count
	// would resize the image
	fi, err := os.Stat(path)
	if err != nil {
		log.Fatalf("fsls: %v", err)
	}
	nblocks := uint64(fi.Size()) / disk.BlockSize
	d, err := disk.NewFileDisk(path, nblocks)
	if err != nil {
		log.Fatalf("fsls: %s: %v", path, err)
	}
	defer d.Close()

	img, err := fs.MkImage(d)
	if err != nil {
		log.Fatalf("fsls: %s: %v", path, err)
	}
	ents, err := img.ReadDir(common.ROOTINUM)
	if err != nil {
		log.Fatalf("fsls: %v", err)
	}

	tbl := table.New("name", "inum", "kind", "size")
	for _, de := range ents {
		ip := img.ReadInode(de.Inum)
		tbl.AddRow(de.Name, uint64(de.Inum), kindNames[ip.Kind], ip.Size)
	}
	tbl.Print()
}

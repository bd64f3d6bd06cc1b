package fs

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-mkfs/common"
	"github.com/mit-pdos/go-mkfs/dir"
	"github.com/mit-pdos/go-mkfs/super"
)

// Input is one host file to be copied into the image's root directory.
type Input struct {
	Name string // directory entry name
	Data io.Reader
}

// CleanName turns a host path into a directory entry name: the base
// name, with one leading '_' stripped (inputs are conventionally named
// _cat, _ls, ... so the host build does not mistake them for the real
// commands).
func CleanName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimPrefix(name, "_")
	return name
}

// Build runs the whole pipeline over a zeroed image: superblock, root
// directory with `.` and `..`, then one inode plus root dirent per
// input, streaming each input's bytes through Append. Any error is
// fatal to the build; the half-written image is not cleaned up.
func Build(d disk.Disk, sb *super.FsSuper, inputs []Input) (*Builder, error) {
	b := MkBuilder(d, sb)
	b.Zero()
	b.WriteSuper()

	rootino := b.AllocInode(common.KindDir)
	if rootino != common.ROOTINUM {
		return nil, fmt.Errorf("build: root inode is %d, expected %d", rootino, common.ROOTINUM)
	}
	if err := b.appendDirEnt(rootino, ".", rootino); err != nil {
		return nil, err
	}
	if err := b.appendDirEnt(rootino, "..", rootino); err != nil {
		return nil, err
	}

	for _, in := range inputs {
		inum := b.AllocInode(common.KindFile)
		util.DPrintf(1, "Build: %s -> inode %d\n", in.Name, inum)
		if err := b.appendDirEnt(rootino, in.Name, inum); err != nil {
			return nil, err
		}
		if err := b.copyData(inum, in.Data); err != nil {
			return nil, fmt.Errorf("build: %s: %w", in.Name, err)
		}
	}

	// round the root directory's size up to a block boundary, the way
	// the kernel expects to find it
	ip := b.ReadInode(rootino)
	ip.Size = (ip.Size/disk.BlockSize + 1) * disk.BlockSize
	b.WriteInode(ip)

	if err := b.WriteBitmap(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Builder) appendDirEnt(dirino common.Inum, name string, inum common.Inum) error {
	if uint64(len(name)) > dir.MAXNAMELEN {
		util.DPrintf(1, "appendDirEnt: truncating %q to %d bytes\n", name, dir.MAXNAMELEN)
	}
	de := &dir.DirEnt{Inum: inum, Name: name}
	return b.Append(dirino, de.Encode())
}

// copyData streams r through Append one block-sized chunk at a time.
func (b *Builder) copyData(inum common.Inum, r io.Reader) error {
	buf := make([]byte, disk.BlockSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if aerr := b.Append(inum, buf[:n]); aerr != nil {
				return aerr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

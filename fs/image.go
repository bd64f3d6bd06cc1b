package fs

import (
	"fmt"

	"github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-mkfs/common"
	"github.com/mit-pdos/go-mkfs/dir"
	"github.com/mit-pdos/go-mkfs/inode"
	"github.com/mit-pdos/go-mkfs/super"
)

// Image reads a finished filesystem image back: it walks inode block
// lists and scans directories, the same way the companion kernel does.
type Image struct {
	d  disk.Disk
	Sb *super.FsSuper
}

// MkImage parses and validates the superblock of an existing image.
func MkImage(d disk.Disk) (*Image, error) {
	sb, err := super.Decode(d.Read(uint64(common.SUPERBLK)))
	if err != nil {
		return nil, err
	}
	if sz := d.Size(); sb.Size > sz {
		return nil, fmt.Errorf("image: superblock claims %d blocks, disk has %d", sb.Size, sz)
	}
	return &Image{d: d, Sb: sb}, nil
}

func (img *Image) ReadInode(inum common.Inum) *inode.Inode {
	return readInode(img.d, img.Sb, inum)
}

// Bmap maps a file block index to its disk block, following the
// indirect block when needed.
func (img *Image) Bmap(ip *inode.Inode, fbn uint64) (common.Bnum, error) {
	if fbn >= common.MAXFILE {
		return common.NULLBNUM, fmt.Errorf("image: inode %d: block %d past format limit", ip.Inum, fbn)
	}
	if fbn < common.NDIRECT {
		return ip.Addrs[fbn], nil
	}
	if ip.Indirect() == common.NULLBNUM {
		return common.NULLBNUM, nil
	}
	ind := decodeIndirect(img.d.Read(uint64(ip.Indirect())))
	return ind[fbn-common.NDIRECT], nil
}

// ReadAll returns inode inum's full content, walking its direct and
// indirect block lists. An unmapped block inside the size reads as
// zeroes: the root directory's size round-up leaves such a tail, and
// the kernel's bmap treats a zero address as a block to be allocated
// on demand.
func (img *Image) ReadAll(inum common.Inum) ([]byte, error) {
	ip := img.ReadInode(inum)
	data := make([]byte, 0, ip.Size)
	for off := uint64(0); off < ip.Size; off += disk.BlockSize {
		bn, err := img.Bmap(ip, off/disk.BlockSize)
		if err != nil {
			return nil, err
		}
		n := ip.Size - off
		if n > disk.BlockSize {
			n = disk.BlockSize
		}
		if bn == common.NULLBNUM {
			data = append(data, make([]byte, n)...)
			continue
		}
		blk := img.d.Read(uint64(bn))
		data = append(data, blk[:n]...)
	}
	return data, nil
}

// ReadDir returns the live entries of directory inum, skipping free
// slots (inum 0).
func (img *Image) ReadDir(inum common.Inum) ([]*dir.DirEnt, error) {
	ip := img.ReadInode(inum)
	if ip.Kind != common.KindDir {
		return nil, fmt.Errorf("image: inode %d is not a directory", inum)
	}
	content, err := img.ReadAll(inum)
	if err != nil {
		return nil, err
	}
	var ents []*dir.DirEnt
	for off := uint64(0); off+common.DIRENTSZ <= uint64(len(content)); off += common.DIRENTSZ {
		de := dir.Decode(content[off : off+common.DIRENTSZ])
		if de.Inum == common.NULLINUM {
			continue
		}
		ents = append(ents, de)
	}
	return ents, nil
}

// Lookup resolves name in the root directory.
func (img *Image) Lookup(name string) (*inode.Inode, error) {
	ents, err := img.ReadDir(common.ROOTINUM)
	if err != nil {
		return nil, err
	}
	for _, de := range ents {
		if de.Name == name {
			return img.ReadInode(de.Inum), nil
		}
	}
	return nil, fmt.Errorf("image: %s: no such file", name)
}

// Package fs builds a filesystem image: it owns the two allocation
// cursors, appends file content through an inode's direct and indirect
// block lists, and writes the free bitmap once the build is done. A
// build is one linear pass over one image; nothing is ever freed.
package fs

import (
	"fmt"

	"github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-mkfs/common"
	"github.com/mit-pdos/go-mkfs/inode"
	"github.com/mit-pdos/go-mkfs/super"
)

// Builder is the single owner of the output disk and the allocation
// cursors for one build. It is not safe for concurrent use.
type Builder struct {
	d  disk.Disk
	sb *super.FsSuper

	freeInode common.Inum // next unallocated inode number
	freeBlock common.Bnum // next unallocated block number
}

func MkBuilder(d disk.Disk, sb *super.FsSuper) *Builder {
	return &Builder{
		d:         d,
		sb:        sb,
		freeInode: common.ROOTINUM,
		freeBlock: sb.DataStart(),
	}
}

func (b *Builder) Super() *super.FsSuper {
	return b.sb
}

// InodesAllocated returns how many inodes this build has handed out.
func (b *Builder) InodesAllocated() uint64 {
	return uint64(b.freeInode) - uint64(common.ROOTINUM)
}

// BlocksAllocated returns the block allocation cursor: every block
// below it (metadata included) is in use.
func (b *Builder) BlocksAllocated() uint64 {
	return uint64(b.freeBlock)
}

// Zero writes zeroes over the whole image, so that lazily allocated
// blocks and the log region start out empty.
func (b *Builder) Zero() {
	zero := make(disk.Block, disk.BlockSize)
	for i := uint64(0); i < b.sb.Size; i++ {
		b.d.Write(i, zero)
	}
	util.DPrintf(1, "Zero: %d blocks\n", b.sb.Size)
}

func (b *Builder) WriteSuper() {
	b.d.Write(uint64(common.SUPERBLK), b.sb.Encode())
}

// AllocBlock returns the next data block number. The caller writes the
// block; blocks are never reused within a build.
func (b *Builder) AllocBlock() common.Bnum {
	bn := b.freeBlock
	b.freeBlock++
	return bn
}

// AllocInode hands out the next inode number and writes a fresh inode
// record for it. Exceeding the configured inode count is not checked;
// the table would silently overflow into the bitmap region.
func (b *Builder) AllocInode(kind uint32) common.Inum {
	inum := b.freeInode
	b.freeInode++
	ip := inode.MkInode(inum, kind)
	b.WriteInode(ip)
	util.DPrintf(1, "AllocInode: %v\n", ip)
	return inum
}

// ReadInode loads inode inum from the inode table.
func (b *Builder) ReadInode(inum common.Inum) *inode.Inode {
	return readInode(b.d, b.sb, inum)
}

// WriteInode stores ip back, read-modify-writing its containing block.
func (b *Builder) WriteInode(ip *inode.Inode) {
	bn := uint64(b.sb.InodeBlock(ip.Inum))
	blk := b.d.Read(bn)
	off := b.sb.InodeOffset(ip.Inum)
	copy(blk[off:off+common.INODESZ], ip.Encode())
	b.d.Write(bn, blk)
}

// WriteBitmap marks every block below the allocation cursor as in use.
// The format has a single bitmap block, so a build that allocated more
// blocks than one block's bits can describe fails here; this is only
// detectable after allocation has finished.
func (b *Builder) WriteBitmap() error {
	used := uint64(b.freeBlock)
	util.DPrintf(1, "balloc: first %d blocks have been allocated\n", used)
	if used >= common.BPB {
		return fmt.Errorf("balloc: %d blocks in use, one bitmap block holds %d", used, common.BPB)
	}
	blk := make(disk.Block, disk.BlockSize)
	for i := uint64(0); i < used; i++ {
		blk[i/8] |= 1 << (i % 8)
	}
	b.d.Write(uint64(b.sb.BmapStart), blk)
	return nil
}

func readInode(d disk.Disk, sb *super.FsSuper, inum common.Inum) *inode.Inode {
	blk := d.Read(uint64(sb.InodeBlock(inum)))
	off := sb.InodeOffset(inum)
	return inode.Decode(blk[off:off+common.INODESZ], inum)
}

// Package super plans the image geometry and encodes the superblock.
//
// Disk layout:
// [ boot block | sb block | log | inode blocks | free bit map | data blocks ]
package super

import (
	"fmt"

	"github.com/tchajed/goose/machine/disk"
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-mkfs/common"
)

type FsSuper struct {
	Size       uint64 // size of the image in blocks
	NBlocks    uint64 // number of data blocks
	NInodes    uint64
	NLog       uint64
	LogStart   common.Bnum // block number of first log block
	InodeStart common.Bnum // block number of first inode block
	BmapStart  common.Bnum // block number of the free bitmap
}

// MkFsSuper computes the image geometry: 1 fs block = 1 disk sector.
// The bitmap-capacity limit (one bitmap block's worth of allocated
// blocks) is only checkable once allocation has finished, so it is
// enforced by the bitmap writer, not here.
func MkFsSuper(tot uint64, nlog uint64, ninodes uint64) (*FsSuper, error) {
	ninodeblks := ninodes/common.IPB + 1
	nbitmap := tot/common.BPB + 1
	nmeta := 2 + nlog + ninodeblks + nbitmap
	if nmeta >= tot {
		return nil, fmt.Errorf("super: %d metadata blocks leave no room in a %d-block image", nmeta, tot)
	}
	sb := &FsSuper{
		Size:       tot,
		NBlocks:    tot - nmeta,
		NInodes:    ninodes,
		NLog:       nlog,
		LogStart:   2,
		InodeStart: 2 + nlog,
		BmapStart:  2 + nlog + ninodeblks,
	}
	util.DPrintf(1, "MkFsSuper: %v\n", sb)
	return sb, nil
}

func (sb *FsSuper) NMeta() uint64 {
	return sb.Size - sb.NBlocks
}

func (sb *FsSuper) InodeBlocks() uint64 {
	return sb.BmapStart - sb.InodeStart
}

func (sb *FsSuper) BitmapBlocks() uint64 {
	return sb.Size/common.BPB + 1
}

// DataStart returns the first block past the metadata region, where
// block allocation begins.
func (sb *FsSuper) DataStart() common.Bnum {
	return sb.NMeta()
}

func (sb *FsSuper) MaxFileSize() uint64 {
	return common.MAXFILE * disk.BlockSize
}

// InodeBlock returns the block holding inode inum.
func (sb *FsSuper) InodeBlock(inum common.Inum) common.Bnum {
	return uint64(inum)/common.IPB + sb.InodeStart
}

// InodeOffset returns the byte offset of inode inum within its block.
func (sb *FsSuper) InodeOffset(inum common.Inum) uint64 {
	return (uint64(inum) % common.IPB) * common.INODESZ
}

func (sb *FsSuper) String() string {
	return fmt.Sprintf("size %d nblocks %d ninodes %d nlog %d log %d inode %d bmap %d",
		sb.Size, sb.NBlocks, sb.NInodes, sb.NLog, sb.LogStart, sb.InodeStart, sb.BmapStart)
}

func (sb *FsSuper) Encode() disk.Block {
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInt(sb.Size)
	enc.PutInt(sb.NBlocks)
	enc.PutInt(sb.NInodes)
	enc.PutInt(sb.NLog)
	enc.PutInt(uint64(sb.LogStart))
	enc.PutInt(uint64(sb.InodeStart))
	enc.PutInt(uint64(sb.BmapStart))
	return enc.Finish()
}

// Decode parses a superblock block and checks that the regions it
// describes are ordered and inside the image.
func Decode(blk disk.Block) (*FsSuper, error) {
	dec := marshal.NewDec(blk)
	sb := &FsSuper{
		Size:       dec.GetInt(),
		NBlocks:    dec.GetInt(),
		NInodes:    dec.GetInt(),
		NLog:       dec.GetInt(),
		LogStart:   dec.GetInt(),
		InodeStart: dec.GetInt(),
		BmapStart:  dec.GetInt(),
	}
	if !(sb.LogStart < sb.InodeStart && sb.InodeStart < sb.BmapStart && sb.BmapStart < sb.Size) {
		return nil, fmt.Errorf("super: bad region layout: %v", sb)
	}
	if sb.NBlocks >= sb.Size {
		return nil, fmt.Errorf("super: %d data blocks in a %d-block image", sb.NBlocks, sb.Size)
	}
	return sb, nil
}

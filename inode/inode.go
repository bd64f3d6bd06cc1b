// Package inode is the on-disk inode record: a fixed 128-byte,
// little-endian encoding with NDIRECT direct block slots and one
// indirect slot. Inodes are packed IPB to a block and are not
// individually block-aligned, so callers read-modify-write the
// containing block.
package inode

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-mkfs/common"
)

type Inode struct {
	// in-memory only
	Inum common.Inum

	// the on-disk record
	Kind  uint32
	Major uint32 // device major (KindDev only)
	Minor uint32 // device minor (KindDev only)
	Nlink uint32
	Size  uint64        // bytes
	Addrs []common.Bnum // NDIRECT direct slots, then the indirect slot
}

// MkInode returns a fresh inode: link count 1, size 0, no blocks.
func MkInode(inum common.Inum, kind uint32) *Inode {
	return &Inode{
		Inum:  inum,
		Kind:  kind,
		Nlink: 1,
		Addrs: make([]common.Bnum, common.NDIRECT+1),
	}
}

// Indirect returns the inode's indirect block number (NULLBNUM if the
// file has never grown past its direct slots).
func (ip *Inode) Indirect() common.Bnum {
	return ip.Addrs[common.NDIRECT]
}

func (ip *Inode) String() string {
	return fmt.Sprintf("# %d k %d n %d sz %d %v", ip.Inum, ip.Kind, ip.Nlink, ip.Size, ip.Addrs)
}

func (ip *Inode) Encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	enc.PutInt32(ip.Kind)
	enc.PutInt32(ip.Major)
	enc.PutInt32(ip.Minor)
	enc.PutInt32(ip.Nlink)
	enc.PutInt(ip.Size)
	enc.PutInts(ip.Addrs)
	return enc.Finish()
}

// Decode parses one inode record (INODESZ bytes).
func Decode(d []byte, inum common.Inum) *Inode {
	dec := marshal.NewDec(d)
	ip := new(Inode)
	ip.Inum = inum
	ip.Kind = dec.GetInt32()
	ip.Major = dec.GetInt32()
	ip.Minor = dec.GetInt32()
	ip.Nlink = dec.GetInt32()
	ip.Size = dec.GetInt()
	ip.Addrs = dec.GetInts(common.NDIRECT + 1)
	return ip
}

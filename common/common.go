// Package common fixes the on-disk format of the image: block geometry,
// inode and directory-entry sizes, and the default build parameters the
// companion kernel is compiled against. Every multi-byte field in the
// format is little-endian, independent of the build host.
package common

import (
	"github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-journal/common"
)

type Inum = common.Inum
type Bnum = common.Bnum

const (
	NULLINUM = common.NULLINUM
	ROOTINUM = common.ROOTINUM
	NULLBNUM = common.NULLBNUM

	INODESZ = common.INODESZ // on-disk inode record size
)

// Fixed block numbers at the front of every image.
const (
	BOOTBLK  Bnum = 0
	SUPERBLK Bnum = 1
)

const (
	NDIRECT   uint64 = 12                       // direct slots per inode
	NINDIRECT uint64 = disk.BlockSize / 8       // block numbers per indirect block
	MAXFILE   uint64 = NDIRECT + NINDIRECT      // no double indirection
	IPB       uint64 = disk.BlockSize / INODESZ // inodes per block
	BPB       uint64 = disk.BlockSize * 8       // bitmap bits per block

	DIRSIZ   uint64 = 24 // name field width in a directory entry
	DIRENTSZ uint64 = 32
)

// File kinds stored in an inode's kind field.
const (
	KindUnused uint32 = 0
	KindDir    uint32 = 1
	KindFile   uint32 = 2
	KindDev    uint32 = 3
)

// Default build parameters; must agree with the kernel's configuration.
const (
	MAXOPBLOCKS uint64 = 64
	LOGSIZE     uint64 = MAXOPBLOCKS*8 - 1
	FSSIZE      uint64 = 262144
	NINODE      uint64 = 1024
)

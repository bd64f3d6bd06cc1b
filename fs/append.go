package fs

import (
	"fmt"

	"github.com/tchajed/goose/machine/disk"
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/go-journal/util"
	"github.com/mit-pdos/go-mkfs/common"
	"github.com/mit-pdos/go-mkfs/inode"
)

// Append extends inode inum's content with data, using the inode's
// current size as the write cursor. Direct slots are used first, then
// entries of the single indirect block; each block is allocated the
// first time the cursor touches it. The updated size is persisted once
// all bytes are copied.
func (b *Builder) Append(inum common.Inum, data []byte) error {
	ip := b.ReadInode(inum)
	var off = ip.Size
	var n = uint64(len(data))
	if util.SumOverflows(off, n) {
		return fmt.Errorf("append: inode %d: size %d + %d bytes overflows", inum, off, n)
	}
	util.DPrintf(2, "Append: # %d off %d sz %d\n", inum, off, n)
	var p = data
	for n > 0 {
		fbn := off / disk.BlockSize
		if fbn >= common.MAXFILE {
			return fmt.Errorf("append: inode %d grew past the max file size of %d bytes",
				inum, b.sb.MaxFileSize())
		}
		var bn common.Bnum
		if fbn < common.NDIRECT {
			if ip.Addrs[fbn] == common.NULLBNUM {
				ip.Addrs[fbn] = b.AllocBlock()
			}
			bn = ip.Addrs[fbn]
		} else {
			bn = b.indirectEntry(ip, fbn-common.NDIRECT)
		}
		n1 := util.Min(n, (fbn+1)*disk.BlockSize-off)
		blk := b.d.Read(uint64(bn))
		copy(blk[off-fbn*disk.BlockSize:], p[:n1])
		b.d.Write(uint64(bn), blk)
		n -= n1
		off += n1
		p = p[n1:]
	}
	ip.Size = off
	b.WriteInode(ip)
	return nil
}

// indirectEntry returns the data block backing entry i of ip's
// indirect block, allocating the indirect block and the entry on first
// touch. A newly filled entry is written back to disk immediately; the
// inode itself is persisted by the caller.
func (b *Builder) indirectEntry(ip *inode.Inode, i uint64) common.Bnum {
	if ip.Addrs[common.NDIRECT] == common.NULLBNUM {
		ip.Addrs[common.NDIRECT] = b.AllocBlock()
	}
	indblk := uint64(ip.Addrs[common.NDIRECT])
	ind := decodeIndirect(b.d.Read(indblk))
	if ind[i] == common.NULLBNUM {
		ind[i] = b.AllocBlock()
		b.d.Write(indblk, encodeIndirect(ind))
	}
	return ind[i]
}

func encodeIndirect(bns []common.Bnum) disk.Block {
	enc := marshal.NewEnc(disk.BlockSize)
	enc.PutInts(bns)
	return enc.Finish()
}

func decodeIndirect(blk disk.Block) []common.Bnum {
	dec := marshal.NewDec(blk)
	return dec.GetInts(common.NINDIRECT)
}

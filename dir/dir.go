// Package dir is the fixed-size directory entry codec. A directory's
// content is a flat sequence of DIRENTSZ-byte records; an entry whose
// inum is NULLINUM is a free slot.
package dir

import (
	"bytes"

	"github.com/tchajed/goose/machine"

	"github.com/mit-pdos/go-mkfs/common"
)

const MAXNAMELEN = common.DIRSIZ

type DirEnt struct {
	Inum common.Inum
	Name string // at most MAXNAMELEN bytes
}

// Encode packs the entry into DIRENTSZ bytes. The name is truncated to
// MAXNAMELEN and zero-padded; a name that exactly fills the field has
// no NUL terminator.
func (de *DirEnt) Encode() []byte {
	d := make([]byte, common.DIRENTSZ)
	machine.UInt64Put(d[:8], uint64(de.Inum))
	copy(d[8:8+common.DIRSIZ], de.Name)
	return d
}

func Decode(d []byte) *DirEnt {
	inum := common.Inum(machine.UInt64Get(d[:8]))
	name := d[8 : 8+common.DIRSIZ]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return &DirEnt{Inum: inum, Name: string(name)}
}

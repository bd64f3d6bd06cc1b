package fs

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/goose-lang/std"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tchajed/goose/machine/disk"

	"github.com/mit-pdos/go-mkfs/common"
	"github.com/mit-pdos/go-mkfs/super"
)

const (
	testSize   uint64 = 2048
	testLog    uint64 = 32
	testInodes uint64 = 32
)

func mkTestSuper(t *testing.T) *super.FsSuper {
	sb, err := super.MkFsSuper(testSize, testLog, testInodes)
	require.NoError(t, err)
	return sb
}

func mkData(sz uint64) []byte {
	data := make([]byte, sz)
	for i := range data {
		data[i] = byte(i % 128)
	}
	return data
}

func buildImage(t *testing.T, inputs []Input) (disk.Disk, *Builder) {
	d := disk.NewMemDisk(testSize)
	sb := mkTestSuper(t)
	b, err := Build(d, sb, inputs)
	require.NoError(t, err)
	return d, b
}

func TestBuildEmpty(t *testing.T) {
	d, b := buildImage(t, nil)

	img, err := MkImage(d)
	require.NoError(t, err)

	root := img.ReadInode(common.ROOTINUM)
	assert.Equal(t, common.KindDir, root.Kind)
	assert.Equal(t, disk.BlockSize, root.Size)

	ents, err := img.ReadDir(common.ROOTINUM)
	require.NoError(t, err)
	require.Len(t, ents, 2)
	assert.Equal(t, ".", ents[0].Name)
	assert.Equal(t, "..", ents[1].Name)
	assert.Equal(t, common.ROOTINUM, ents[0].Inum)
	assert.Equal(t, common.ROOTINUM, ents[1].Inum)

	// only the root inode and its one directory block
	assert.Equal(t, uint64(1), b.InodesAllocated())
	assert.Equal(t, uint64(b.Super().DataStart())+1, b.BlocksAllocated())
}

func TestSmallFile(t *testing.T) {
	data := mkData(10000)
	d, _ := buildImage(t, []Input{{Name: "cat", Data: bytes.NewReader(data)}})

	img, err := MkImage(d)
	require.NoError(t, err)
	ip, err := img.Lookup("cat")
	require.NoError(t, err)

	assert.Equal(t, common.KindFile, ip.Kind)
	assert.Equal(t, uint64(10000), ip.Size)
	for i := uint64(0); i < 3; i++ {
		assert.NotEqual(t, common.NULLBNUM, ip.Addrs[i], "direct slot %d", i)
	}
	for i := uint64(3); i <= common.NDIRECT; i++ {
		assert.Equal(t, common.NULLBNUM, ip.Addrs[i], "slot %d", i)
	}

	got, err := img.ReadAll(ip.Inum)
	require.NoError(t, err)
	assert.True(t, std.BytesEqual(data, got))

	// the tail block holds 1808 bytes; the rest must be zero padding
	tail := d.Read(uint64(ip.Addrs[2]))
	for i := uint64(10000 - 2*disk.BlockSize); i < disk.BlockSize; i++ {
		if tail[i] != 0 {
			t.Fatalf("tail block byte %d is %d, not zero", i, tail[i])
		}
	}
}

func TestIndirectFile(t *testing.T) {
	sz := (common.NDIRECT+3)*disk.BlockSize + 100
	data := mkData(sz)
	d, b := buildImage(t, []Input{{Name: "big", Data: bytes.NewReader(data)}})

	img, err := MkImage(d)
	require.NoError(t, err)
	ip, err := img.Lookup("big")
	require.NoError(t, err)
	assert.Equal(t, sz, ip.Size)
	require.NotEqual(t, common.NULLBNUM, ip.Indirect())

	ind := decodeIndirect(d.Read(uint64(ip.Indirect())))
	for i := uint64(0); i < 4; i++ {
		assert.NotEqual(t, common.NULLBNUM, ind[i], "indirect entry %d", i)
	}
	for i := uint64(4); i < common.NINDIRECT; i++ {
		if ind[i] != common.NULLBNUM {
			t.Fatalf("indirect entry %d unexpectedly allocated", i)
		}
	}

	got, err := img.ReadAll(ip.Inum)
	require.NoError(t, err)
	assert.True(t, std.BytesEqual(data, got))

	// every allocated block is accounted for exactly once: the root
	// directory block, 12 direct blocks, the indirect block, and its
	// 4 entries
	start := uint64(b.Super().DataStart())
	assert.Equal(t, start+1+common.NDIRECT+1+4, b.BlocksAllocated())
	seen := map[common.Bnum]bool{start: true} // root directory block
	for _, bn := range ip.Addrs[:common.NDIRECT] {
		seen[bn] = true
	}
	seen[ip.Indirect()] = true
	for i := uint64(0); i < 4; i++ {
		seen[ind[i]] = true
	}
	for bn := start; bn < b.BlocksAllocated(); bn++ {
		assert.True(t, seen[bn], "block %d handed out but not referenced", bn)
	}
}

func TestInodesSequential(t *testing.T) {
	inputs := []Input{
		{Name: "a", Data: bytes.NewReader(mkData(10))},
		{Name: "b", Data: bytes.NewReader(mkData(20))},
		{Name: "c", Data: bytes.NewReader(mkData(30))},
	}
	d, b := buildImage(t, inputs)
	assert.Equal(t, uint64(4), b.InodesAllocated())

	img, err := MkImage(d)
	require.NoError(t, err)
	ents, err := img.ReadDir(common.ROOTINUM)
	require.NoError(t, err)
	require.Len(t, ents, 5)
	// root, then one inode per input, gapless and in order
	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, name, ents[i+2].Name)
		assert.Equal(t, common.ROOTINUM+common.Inum(i+1), ents[i+2].Inum)
	}
}

// 126 inputs plus `.` and `..` make 128 dirents, exactly filling the
// root directory's first block. The size round-up then points one
// block past the last allocated one; that tail must read back as
// zeroes (all free slots), not fail the walk.
func TestRootDirExactlyFull(t *testing.T) {
	var inputs []Input
	for i := 0; i < 126; i++ {
		inputs = append(inputs, Input{
			Name: fmt.Sprintf("f%03d", i),
			Data: bytes.NewReader([]byte{byte(i)}),
		})
	}
	d := disk.NewMemDisk(testSize)
	sb, err := super.MkFsSuper(testSize, testLog, 256)
	require.NoError(t, err)
	_, err = Build(d, sb, inputs)
	require.NoError(t, err)

	img, err := MkImage(d)
	require.NoError(t, err)
	root := img.ReadInode(common.ROOTINUM)
	assert.Equal(t, 2*disk.BlockSize, root.Size)
	assert.Equal(t, common.NULLBNUM, root.Addrs[1])

	content, err := img.ReadAll(common.ROOTINUM)
	require.NoError(t, err)
	require.Equal(t, int(2*disk.BlockSize), len(content))
	for i, c := range content[disk.BlockSize:] {
		if c != 0 {
			t.Fatalf("tail byte %d is %d, not zero", i, c)
		}
	}

	ents, err := img.ReadDir(common.ROOTINUM)
	require.NoError(t, err)
	assert.Len(t, ents, 128)

	ip, err := img.Lookup("f125")
	require.NoError(t, err)
	got, err := img.ReadAll(ip.Inum)
	require.NoError(t, err)
	assert.Equal(t, []byte{125}, got)
}

func TestAppendAccumulates(t *testing.T) {
	d := disk.NewMemDisk(testSize)
	b := MkBuilder(d, mkTestSuper(t))
	b.Zero()
	b.WriteSuper()

	inum := b.AllocInode(common.KindFile)
	require.NoError(t, b.Append(inum, []byte("hello ")))
	require.NoError(t, b.Append(inum, []byte("world")))

	ip := b.ReadInode(inum)
	assert.Equal(t, uint64(11), ip.Size)

	img, err := MkImage(d)
	require.NoError(t, err)
	got, err := img.ReadAll(inum)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), got)
}

func TestAppendPastMaxFile(t *testing.T) {
	d := disk.NewMemDisk(testSize)
	b := MkBuilder(d, mkTestSuper(t))
	b.Zero()

	inum := b.AllocInode(common.KindFile)
	require.NoError(t, b.Append(inum, make([]byte, common.MAXFILE*disk.BlockSize)))
	err := b.Append(inum, []byte{0})
	assert.Error(t, err)
}

func TestBitmapPrefix(t *testing.T) {
	data := mkData(10000)
	d, b := buildImage(t, []Input{{Name: "f", Data: bytes.NewReader(data)}})

	used := b.BlocksAllocated()
	bmap := d.Read(uint64(b.Super().BmapStart))
	for i := uint64(0); i < common.BPB; i++ {
		bit := bmap[i/8]&(1<<(i%8)) != 0
		if i < used && !bit {
			t.Fatalf("block %d allocated but bit clear", i)
		}
		if i >= used && bit {
			t.Fatalf("block %d free but bit set", i)
		}
	}
}

func TestBitmapCapacity(t *testing.T) {
	d := disk.NewMemDisk(testSize)
	b := MkBuilder(d, mkTestSuper(t))
	b.freeBlock = common.BPB
	assert.Error(t, b.WriteBitmap())
}

func TestDeterminism(t *testing.T) {
	data := mkData(3 * disk.BlockSize)
	build := func() disk.Disk {
		d := disk.NewMemDisk(testSize)
		sb := mkTestSuper(t)
		_, err := Build(d, sb, []Input{
			{Name: "one", Data: bytes.NewReader(data)},
			{Name: "two", Data: bytes.NewReader(mkData(100))},
		})
		require.NoError(t, err)
		return d
	}
	d1 := build()
	d2 := build()
	for i := uint64(0); i < testSize; i++ {
		if !std.BytesEqual(d1.Read(i), d2.Read(i)) {
			t.Fatalf("block %d differs between builds", i)
		}
	}
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "cat", CleanName("bin/_cat"))
	assert.Equal(t, "ls", CleanName("ls"))
	assert.Equal(t, "init", CleanName("/x/y/init"))
}

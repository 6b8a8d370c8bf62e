package dirent_test

import (
	"testing"

	"github.com/ksuggs/gosfs/bitmap"
	"github.com/ksuggs/gosfs/blockdev"
	"github.com/ksuggs/gosfs/dirent"
	"github.com/ksuggs/gosfs/layout"
	"github.com/ksuggs/gosfs/rawinode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHarness(t *testing.T) (*dirent.Manager, *rawinode.Inode) {
	geom := layout.NewGeometry(512, 64)
	dev := blockdev.NewMemDevice(512, geom.TotalBlocks(), true)
	alloc := bitmap.New(dev, geom)
	require.NoError(t, alloc.FormatInodeBitmap())
	require.NoError(t, alloc.FormatDataBitmap())

	store := rawinode.NewStore(dev, geom, alloc, func() uint32 { return 1 })
	mgr := dirent.NewManager(dev, geom, alloc, store)

	root := &rawinode.Inode{Ino: 0, Mode: rawinode.SIFDIR, NBlocks: 1}
	require.NoError(t, store.Put(root))

	return mgr, root
}

func TestCreateAppendsAndPersistsSize(t *testing.T) {
	mgr, root := newHarness(t)

	require.NoError(t, mgr.Create(root, 10, "x"))
	require.NoError(t, mgr.Create(root, 11, "y"))

	assert.EqualValues(t, 2*layout.DentrySize, root.Size)
	assert.EqualValues(t, 1, root.NBlocks)

	entries, err := mgr.ReadAll(root)
	require.NoError(t, err)
	assert.Equal(t, []dirent.Dentry{{Ino: 10, Name: "x"}, {Ino: 11, Name: "y"}}, entries)
}

func TestCreateAllocatesNewBlockOnOverflow(t *testing.T) {
	mgr, root := newHarness(t)

	perBlock := int(512 / layout.DentrySize) // 8
	for i := 0; i < perBlock; i++ {
		require.NoError(t, mgr.Create(root, uint32(100+i), "n"))
	}
	assert.EqualValues(t, 1, root.NBlocks)

	require.NoError(t, mgr.Create(root, 999, "overflow"))
	assert.EqualValues(t, 2, root.NBlocks)
	assert.NotZero(t, root.Blocks[1])

	entries, err := mgr.ReadAll(root)
	require.NoError(t, err)
	assert.Len(t, entries, perBlock+1)
	assert.Equal(t, "overflow", entries[perBlock].Name)
}

func TestRemoveSwapAndPop(t *testing.T) {
	mgr, root := newHarness(t)

	require.NoError(t, mgr.Create(root, 10, "x"))
	require.NoError(t, mgr.Create(root, 11, "y"))
	require.NoError(t, mgr.Create(root, 12, "z"))

	require.NoError(t, mgr.Remove(root, 11))

	entries, err := mgr.ReadAll(root)
	require.NoError(t, err)
	assert.Equal(t, []dirent.Dentry{{Ino: 10, Name: "x"}, {Ino: 12, Name: "z"}}, entries)
	assert.EqualValues(t, 2*layout.DentrySize, root.Size)
}

func TestRemoveLastEntryOfTailBlockFreesIt(t *testing.T) {
	mgr, root := newHarness(t)

	perBlock := int(512 / layout.DentrySize)
	for i := 0; i < perBlock; i++ {
		require.NoError(t, mgr.Create(root, uint32(100+i), "n"))
	}
	require.NoError(t, mgr.Create(root, 999, "overflow"))
	require.EqualValues(t, 2, root.NBlocks)

	require.NoError(t, mgr.Remove(root, 999))
	assert.EqualValues(t, 1, root.NBlocks)
	assert.EqualValues(t, 0, root.Blocks[1])
}

func TestRemoveNotFound(t *testing.T) {
	mgr, root := newHarness(t)
	require.NoError(t, mgr.Create(root, 10, "x"))

	err := mgr.Remove(root, 999)
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	mgr, root := newHarness(t)
	require.NoError(t, mgr.Create(root, 10, "x"))
	require.NoError(t, mgr.Create(root, 11, "y"))

	ino, ok, err := mgr.Find(root, "y")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 11, ino)

	_, ok, err = mgr.Find(root, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

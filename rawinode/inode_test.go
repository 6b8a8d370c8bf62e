package rawinode_test

import (
	"testing"

	"github.com/ksuggs/gosfs/bitmap"
	"github.com/ksuggs/gosfs/blockdev"
	"github.com/ksuggs/gosfs/layout"
	"github.com/ksuggs/gosfs/rawinode"
	"github.com/ksuggs/gosfs/sfserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t uint32) func() uint32 {
	return func() uint32 { return t }
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := rawinode.Inode{
		Ino:     3,
		Mode:    rawinode.SIFREG | 0o644,
		Nlink:   1,
		Size:    4096,
		NBlocks: 8,
		Atime:   100,
		Mtime:   200,
		Ctime:   300,
	}
	in.Blocks[0] = 7
	in.Blocks[11] = 99

	record := in.Encode()
	require.Len(t, record, layout.InodeSize)

	got := rawinode.Decode(record)
	assert.Equal(t, in, got)
}

func TestEncodeZeroesPadding(t *testing.T) {
	in := rawinode.Inode{Ino: 1}
	record := in.Encode()
	for i := 92; i < layout.InodeSize; i++ {
		assert.Zerof(t, record[i], "byte %d should be zero padding", i)
	}
}

func TestStoreGetRefusesFreeSlot(t *testing.T) {
	geom := layout.NewGeometry(512, 16)
	dev := blockdev.NewMemDevice(512, geom.TotalBlocks(), true)
	alloc := bitmap.New(dev, geom)
	require.NoError(t, alloc.FormatInodeBitmap())
	require.NoError(t, alloc.FormatDataBitmap())

	store := rawinode.NewStore(dev, geom, alloc, fixedClock(42))

	_, err := store.Get(5)
	assert.ErrorIs(t, err, sfserrors.ErrSlotNotInUse)
}

func TestStorePutGetRoundTrip(t *testing.T) {
	geom := layout.NewGeometry(512, 16)
	dev := blockdev.NewMemDevice(512, geom.TotalBlocks(), true)
	alloc := bitmap.New(dev, geom)
	require.NoError(t, alloc.FormatInodeBitmap())
	require.NoError(t, alloc.FormatDataBitmap())

	store := rawinode.NewStore(dev, geom, alloc, fixedClock(42))

	ino, err := alloc.AllocInode()
	require.NoError(t, err)

	in := rawinode.Inode{Ino: ino, Mode: rawinode.SIFREG | 0o644, Size: 10}
	require.NoError(t, store.Put(&in))
	assert.EqualValues(t, 42, in.Mtime)

	got, err := store.Get(ino)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

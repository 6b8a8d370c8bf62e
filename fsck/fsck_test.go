package fsck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksuggs/gosfs/bitmap"
	"github.com/ksuggs/gosfs/fsck"
	"github.com/ksuggs/gosfs/layout"
	"github.com/ksuggs/gosfs/rawinode"
	"github.com/ksuggs/gosfs/sfstesting"
	sfs "github.com/ksuggs/gosfs"
)

func TestCheckCleanVolumeReportsNoErrors(t *testing.T) {
	const blockSize, numDataBlocks = sfstesting.DefaultBlockSize, 32
	dev := sfstesting.NewBlankDevice(t, blockSize, numDataBlocks)
	geom := layout.NewGeometry(blockSize, numDataBlocks)

	v := sfs.New(dev, sfs.FormatOptions{BlockSize: blockSize, NumDataBlocks: numDataBlocks}, nil)
	require.NoError(t, v.Mount())

	_, err := v.Create("/f", rawinode.DefaultFileMode)
	require.NoError(t, err)
	_, err = v.Write("/f", []byte("hi"), 2, 0)
	require.NoError(t, err)

	report := fsck.Check(dev, geom)
	assert.True(t, report.OK())
	assert.Greater(t, report.InodesChecked, uint32(0))
}

func TestCheckDetectsDoubleAllocatedBlock(t *testing.T) {
	geom := layout.NewGeometry(sfstesting.DefaultBlockSize, 32)
	dev := sfstesting.NewBlankDevice(t, sfstesting.DefaultBlockSize, 32)

	alloc := bitmap.New(dev, geom)
	require.NoError(t, alloc.FormatInodeBitmap())
	require.NoError(t, alloc.FormatDataBitmap())

	inodes := rawinode.NewStore(dev, geom, alloc, func() uint32 { return 1 })

	root := rawinode.Inode{Ino: 0, Mode: rawinode.DefaultDirMode, NBlocks: 1}
	require.NoError(t, inodes.Put(&root))

	// Manually allocate a second inode that illegally reuses root's block 0,
	// the violation Check is meant to catch.
	ino, err := alloc.AllocInode()
	require.NoError(t, err)
	rogue := rawinode.Inode{Ino: ino, Mode: rawinode.DefaultFileMode, NBlocks: 1}
	rogue.Blocks[0] = 0
	require.NoError(t, inodes.Put(&rogue))

	sbBuf := make([]byte, sfstesting.DefaultBlockSize)
	sbBuf[0] = byte(layout.SuperblockMagic)
	sbBuf[1] = byte(layout.SuperblockMagic >> 8)
	sbBuf[2] = byte(layout.SuperblockMagic >> 16)
	sbBuf[3] = byte(layout.SuperblockMagic >> 24)
	require.NoError(t, dev.WriteBlock(geom.SuperblockStart, sbBuf))

	report := fsck.Check(dev, geom)
	assert.False(t, report.OK())
	assert.Greater(t, report.Errors.Len(), 0)
}

package layout_test

import (
	"testing"

	"github.com/ksuggs/gosfs/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeometryRegionOrder(t *testing.T) {
	g := layout.NewGeometry(512, 4096)

	assert.EqualValues(t, 0, g.SuperblockStart)
	assert.EqualValues(t, 1, g.InodeBitmapStart)
	assert.EqualValues(t, 2, g.DataBitmapStart)

	// ceil(4096 / 512) = 8 bitmap blocks.
	require.EqualValues(t, 8, g.DataBitmapBlocks)
	assert.EqualValues(t, 10, g.InodeTableStart)

	// 256 inodes * 128B / 512B per block = 64 blocks.
	require.EqualValues(t, 64, g.InodeTableBlocks)
	assert.EqualValues(t, 74, g.DataRegionStart)
	assert.EqualValues(t, 74+4096, g.TotalBlocks())
}

func TestInodeBlockAndOffset(t *testing.T) {
	g := layout.NewGeometry(512, 4096)

	block, offset := g.InodeBlockAndOffset(0)
	assert.EqualValues(t, g.InodeTableStart, block)
	assert.EqualValues(t, 0, offset)

	// 512/128 = 4 inodes per block; inode 5 is the 2nd slot of the 2nd block.
	block, offset = g.InodeBlockAndOffset(5)
	assert.EqualValues(t, g.InodeTableStart+1, block)
	assert.EqualValues(t, 128, offset)
}

func TestDataBitmapBlockAndOffset(t *testing.T) {
	g := layout.NewGeometry(512, 4096)

	block, offset := g.DataBitmapBlockAndOffset(0)
	assert.EqualValues(t, g.DataBitmapStart, block)
	assert.EqualValues(t, 0, offset)

	block, offset = g.DataBitmapBlockAndOffset(513)
	assert.EqualValues(t, g.DataBitmapStart+1, block)
	assert.EqualValues(t, 1, offset)
}

// Package sfstesting provides test-only helpers for building SFS images in
// memory, grounded on the teacher's testing.LoadDiskImage and
// testing.CreateRandomImage: a fixed-size byte slice wrapped as an
// io.ReadWriteSeeker, with no on-disk footprint.
package sfstesting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ksuggs/gosfs/blockdev"
	"github.com/ksuggs/gosfs/layout"
	sfs "github.com/ksuggs/gosfs"
)

// DefaultBlockSize matches the sector-oriented defaults used throughout the
// package's own tests.
const DefaultBlockSize = 512

// NewBlankDevice wraps a freshly zeroed buffer of exactly the right size for
// blockSize/numDataBlocks as a blockdev.Device reporting Empty() == true, the
// signal the volume lifecycle uses to format rather than mount.
func NewBlankDevice(t *testing.T, blockSize, numDataBlocks uint32) blockdev.Device {
	t.Helper()
	geom := layout.NewGeometry(blockSize, numDataBlocks)
	require.Greater(t, geom.TotalBlocks(), uint32(0), "degenerate geometry")
	return blockdev.NewMemDevice(blockSize, geom.TotalBlocks(), true)
}

// NewMountedVolume builds a blank in-memory device of the given geometry,
// constructs a Volume over it, and mounts it (which formats it, since the
// device starts empty). It fails the test immediately on any error.
func NewMountedVolume(t *testing.T, blockSize, numDataBlocks uint32) *sfs.Volume {
	t.Helper()
	dev := NewBlankDevice(t, blockSize, numDataBlocks)
	v := sfs.New(dev, sfs.FormatOptions{BlockSize: blockSize, NumDataBlocks: numDataBlocks}, nil)
	require.NoError(t, v.Mount(), "failed to mount freshly formatted volume")
	return v
}

// LoadImage wraps an existing, already-formatted image's bytes as a device so
// a test can mount it without reformatting. imageBytes must be exactly
// blockSize*totalBlocks long.
func LoadImage(t *testing.T, imageBytes []byte, blockSize, totalBlocks uint32) blockdev.Device {
	t.Helper()
	dev, err := blockdev.WrapBytes(imageBytes, blockSize, totalBlocks, false)
	require.NoError(t, err, "image is the wrong size for its geometry")
	return dev
}

package blockdev_test

import (
	"testing"

	"github.com/ksuggs/gosfs/blockdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemDeviceReadWriteRoundTrip(t *testing.T) {
	dev := blockdev.NewMemDevice(64, 4, true)
	defer dev.Close()

	assert.True(t, dev.Empty())
	assert.EqualValues(t, 64, dev.BlockSize())
	assert.EqualValues(t, 4, dev.TotalBlocks())

	block := make([]byte, 64)
	for i := range block {
		block[i] = byte(i)
	}
	require.NoError(t, dev.WriteBlock(2, block))

	out := make([]byte, 64)
	require.NoError(t, dev.ReadBlock(2, out))
	assert.Equal(t, block, out)

	// Neighboring blocks are untouched.
	zero := make([]byte, 64)
	require.NoError(t, dev.ReadBlock(1, out))
	assert.Equal(t, zero, out)
}

func TestWritePaddedZeroFills(t *testing.T) {
	dev := blockdev.NewMemDevice(16, 1, true)
	defer dev.Close()

	require.NoError(t, dev.WritePadded(0, []byte{1, 2, 3}))

	out := make([]byte, 16)
	require.NoError(t, dev.ReadBlock(0, out))
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, out)
}

func TestReadWriteOutOfRange(t *testing.T) {
	dev := blockdev.NewMemDevice(16, 2, true)
	defer dev.Close()

	buf := make([]byte, 16)
	assert.Error(t, dev.ReadBlock(2, buf))
	assert.Error(t, dev.WriteBlock(99, buf))
}

func TestReadWriteWrongSizedBuffer(t *testing.T) {
	dev := blockdev.NewMemDevice(16, 2, true)
	defer dev.Close()

	assert.Error(t, dev.ReadBlock(0, make([]byte, 8)))
	assert.Error(t, dev.WriteBlock(0, make([]byte, 32)))
}

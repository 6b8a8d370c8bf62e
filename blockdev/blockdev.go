// Package blockdev implements the block I/O adaptor (spec.md §4.1): reading
// and writing single fixed-size blocks of a backing stream by index. It's
// adapted from the teacher's drivers/common/blockdevice.go, simplified to the
// spec's narrower contract: no read-ahead, no dirty tracking, no caching —
// every WriteBlock hits the stream immediately, and nothing is flushed until
// Close.
package blockdev

import (
	"io"
	"os"

	"github.com/xaionaro-go/bytesextra"

	"github.com/ksuggs/gosfs/sfserrors"
)

// Device is the block I/O adaptor contract the metadata engine is built
// against. Every method operates on exactly one block at a time.
type Device interface {
	// ReadBlock fills out (which must be exactly BlockSize() bytes long)
	// with the contents of block idx.
	ReadBlock(idx uint32, out []byte) error

	// WriteBlock writes in (exactly BlockSize() bytes) to block idx.
	WriteBlock(idx uint32, in []byte) error

	// WritePadded writes record followed by zero padding to fill exactly
	// one block.
	WritePadded(idx uint32, record []byte) error

	BlockSize() uint32
	TotalBlocks() uint32

	// Empty reports whether the backing stream held zero bytes when opened,
	// the volume lifecycle's (spec.md §4.7) signal to format rather than
	// mount.
	Empty() bool

	Close() error
}

type streamDevice struct {
	stream      io.ReadWriteSeeker
	blockSize   uint32
	totalBlocks uint32
	wasEmpty    bool
	closer      io.Closer
}

// OpenFile opens path as a file-backed block device with the given block
// size. If the file doesn't exist or is empty, it's created if needed, grown
// right away to blockSize*totalBlocks bytes, and reported as Empty so the
// volume lifecycle formats it. A non-empty file keeps its size, and the
// block count is taken from that size instead of from totalBlocks.
func OpenFile(path string, blockSize, totalBlocks uint32) (Device, error) {
	info, statErr := os.Stat(path)
	wasEmpty := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, sfserrors.ErrIOFailed.Wrap(err)
	}

	if wasEmpty {
		if err := f.Truncate(int64(blockSize) * int64(totalBlocks)); err != nil {
			f.Close()
			return nil, sfserrors.ErrIOFailed.Wrap(err)
		}
	} else {
		size := info.Size()
		totalBlocks = uint32(size / int64(blockSize))
	}

	return &streamDevice{
		stream:      f,
		blockSize:   blockSize,
		totalBlocks: totalBlocks,
		wasEmpty:    wasEmpty,
		closer:      f,
	}, nil
}

// NewMemDevice wraps a fixed-size in-memory buffer as a block device, used by
// sfstesting to build SFS images without touching the file system. wasEmpty
// mirrors OpenFile's "format on first mount" signal for a freshly allocated
// all-zero buffer.
func NewMemDevice(blockSize, totalBlocks uint32, wasEmpty bool) Device {
	data := make([]byte, int(blockSize)*int(totalBlocks))
	return &streamDevice{
		stream:      bytesextra.NewReadWriteSeeker(data),
		blockSize:   blockSize,
		totalBlocks: totalBlocks,
		wasEmpty:    wasEmpty,
	}
}

// WrapBytes wraps an existing byte slice of exactly blockSize*totalBlocks
// bytes as a block device in place, used by sfstesting to mount a
// previously-built image without a round trip through the file system.
func WrapBytes(data []byte, blockSize, totalBlocks uint32, wasEmpty bool) (Device, error) {
	if len(data) != int(blockSize)*int(totalBlocks) {
		return nil, sfserrors.ErrInvalidArgument.WithMessage("image size does not match geometry")
	}
	return &streamDevice{
		stream:      bytesextra.NewReadWriteSeeker(data),
		blockSize:   blockSize,
		totalBlocks: totalBlocks,
		wasEmpty:    wasEmpty,
	}, nil
}

func (d *streamDevice) BlockSize() uint32   { return d.blockSize }
func (d *streamDevice) TotalBlocks() uint32 { return d.totalBlocks }
func (d *streamDevice) Empty() bool         { return d.wasEmpty }

func (d *streamDevice) checkBounds(idx uint32, dataLen int) error {
	if idx >= d.totalBlocks {
		return sfserrors.ErrInvalidArgument.WithMessage("block index out of range")
	}
	if dataLen != int(d.blockSize) {
		return sfserrors.ErrInvalidArgument.WithMessage("buffer must be exactly one block")
	}
	return nil
}

func (d *streamDevice) seekToBlock(idx uint32) error {
	_, err := d.stream.Seek(int64(idx)*int64(d.blockSize), io.SeekStart)
	if err != nil {
		return sfserrors.ErrIOFailed.Wrap(err)
	}
	return nil
}

func (d *streamDevice) ReadBlock(idx uint32, out []byte) error {
	if err := d.checkBounds(idx, len(out)); err != nil {
		return err
	}
	if err := d.seekToBlock(idx); err != nil {
		return err
	}
	n, err := io.ReadFull(d.stream, out)
	if err != nil || n != int(d.blockSize) {
		return sfserrors.ErrIOFailed.Wrap(err)
	}
	return nil
}

func (d *streamDevice) WriteBlock(idx uint32, in []byte) error {
	if err := d.checkBounds(idx, len(in)); err != nil {
		return err
	}
	if err := d.seekToBlock(idx); err != nil {
		return err
	}
	n, err := d.stream.Write(in)
	if err != nil || n != int(d.blockSize) {
		return sfserrors.ErrIOFailed.Wrap(err)
	}
	return nil
}

func (d *streamDevice) WritePadded(idx uint32, record []byte) error {
	if uint32(len(record)) > d.blockSize {
		return sfserrors.ErrInvalidArgument.WithMessage("record larger than one block")
	}
	buf := make([]byte, d.blockSize)
	copy(buf, record)
	return d.WriteBlock(idx, buf)
}

func (d *streamDevice) Close() error {
	if d.closer == nil {
		return nil
	}
	if err := d.closer.Close(); err != nil {
		return sfserrors.ErrIOFailed.Wrap(err)
	}
	return nil
}

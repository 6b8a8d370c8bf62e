// Package bitmap implements the persistent bitmap allocators and their
// mirrored in-memory free lists for inodes and data blocks (spec.md §4.2,
// design note §9).
//
// The on-disk encoding is byte-per-slot ASCII: '1' means free, '0' means
// allocated (spec.md §3). The in-memory mirror is a real bit-per-slot
// github.com/boljen/go-bitmap, the way unixv1.UnixV1Driver.blockFreeMap
// mirrors its free block bitmap, used here purely as a fast membership check
// that backs up the free list's FIFO ordering — the free list is what
// allocation actually pops from, same division of labor as the teacher's
// bitmap-plus-slot-descriptor design that spec.md §9 asks to keep.
package bitmap

import (
	bm "github.com/boljen/go-bitmap"

	"github.com/ksuggs/gosfs/blockdev"
	"github.com/ksuggs/gosfs/layout"
	"github.com/ksuggs/gosfs/sfserrors"
)

const (
	freeByte     = '1'
	occupiedByte = '0'
)

// Allocator owns the inode and data-block bitmap regions of one volume and
// the in-memory free lists that mirror them.
type Allocator struct {
	dev  blockdev.Device
	geom layout.Geometry

	inodeMirror bm.Bitmap
	dataMirror  bm.Bitmap

	inodeFree []uint32
	dataFree  []uint32
}

// New creates an Allocator with empty free lists; call ScanInodes/ScanData to
// populate them from an existing image, or FormatXxx to initialize a fresh
// one.
func New(dev blockdev.Device, geom layout.Geometry) *Allocator {
	return &Allocator{
		dev:         dev,
		geom:        geom,
		inodeMirror: bm.New(layout.NumInodes),
		dataMirror:  bm.New(int(geom.NumDataBlocks)),
	}
}

// FormatInodeBitmap marks every inode slot free except slot 0 (reserved for
// the root directory, spec.md §4.7 step 5) and writes the whole bitmap
// region to disk.
func (a *Allocator) FormatInodeBitmap() error {
	block := make([]byte, a.geom.BlockSize)
	for i := range block {
		block[i] = freeByte
	}
	block[0] = occupiedByte
	if err := a.dev.WriteBlock(a.geom.InodeBitmapStart, block); err != nil {
		return err
	}
	return a.ScanInodes()
}

// FormatDataBitmap marks every data block free except block 0 (reserved for
// the root directory's first data block) and writes the whole bitmap region
// to disk.
func (a *Allocator) FormatDataBitmap() error {
	block := make([]byte, a.geom.BlockSize)
	for i := range block {
		block[i] = freeByte
	}
	for i := uint32(0); i < a.geom.DataBitmapBlocks; i++ {
		out := block
		if i == 0 {
			out = append([]byte(nil), block...)
			out[0] = occupiedByte
		}
		if err := a.dev.WriteBlock(a.geom.DataBitmapStart+i, out); err != nil {
			return err
		}
	}
	return a.ScanData()
}

// ScanInodes walks the on-disk inode bitmap in slot order, rebuilding the
// free list and mirror. Free lists are ordered by bitmap scan on mount
// (spec.md §4.7).
func (a *Allocator) ScanInodes() error {
	block := make([]byte, a.geom.BlockSize)
	if err := a.dev.ReadBlock(a.geom.InodeBitmapStart, block); err != nil {
		return err
	}

	a.inodeFree = a.inodeFree[:0]
	for ino := uint32(0); ino < layout.NumInodes; ino++ {
		free := block[ino] == freeByte
		a.inodeMirror.Set(int(ino), free)
		if free {
			a.inodeFree = append(a.inodeFree, ino)
		}
	}
	return nil
}

// ScanData is ScanInodes' data-block counterpart, walking every block of the
// (possibly multi-block) data bitmap region.
func (a *Allocator) ScanData() error {
	a.dataFree = a.dataFree[:0]
	block := make([]byte, a.geom.BlockSize)

	for b := uint32(0); b < a.geom.DataBitmapBlocks; b++ {
		if err := a.dev.ReadBlock(a.geom.DataBitmapStart+b, block); err != nil {
			return err
		}
		base := b * a.geom.BlockSize
		limit := a.geom.BlockSize
		if base+limit > a.geom.NumDataBlocks {
			limit = a.geom.NumDataBlocks - base
		}
		for i := uint32(0); i < limit; i++ {
			bno := base + i
			free := block[i] == freeByte
			a.dataMirror.Set(int(bno), free)
			if free {
				a.dataFree = append(a.dataFree, bno)
			}
		}
	}
	return nil
}

// AllocInode pops the head of the inode free list, flips its bitmap byte to
// occupied, and returns its slot number.
func (a *Allocator) AllocInode() (uint32, error) {
	if len(a.inodeFree) == 0 {
		return 0, sfserrors.ErrNoSpaceOnDevice.WithMessage("no free inodes")
	}
	ino := a.inodeFree[0]
	a.inodeFree = a.inodeFree[1:]
	a.inodeMirror.Set(int(ino), false)
	if err := a.writeInodeByte(ino, occupiedByte); err != nil {
		return 0, err
	}
	return ino, nil
}

// FreeInode returns an inode slot to the tail of the free list and flips its
// bitmap byte back to free.
func (a *Allocator) FreeInode(ino uint32) error {
	a.inodeFree = append(a.inodeFree, ino)
	a.inodeMirror.Set(int(ino), true)
	return a.writeInodeByte(ino, freeByte)
}

// AllocDataBlock is AllocInode's data-block counterpart.
func (a *Allocator) AllocDataBlock() (uint32, error) {
	if len(a.dataFree) == 0 {
		return 0, sfserrors.ErrNoSpaceOnDevice.WithMessage("no free data blocks")
	}
	bno := a.dataFree[0]
	a.dataFree = a.dataFree[1:]
	a.dataMirror.Set(int(bno), false)
	if err := a.writeDataByte(bno, occupiedByte); err != nil {
		return 0, err
	}
	return bno, nil
}

// FreeDataBlock is FreeInode's data-block counterpart.
func (a *Allocator) FreeDataBlock(bno uint32) error {
	a.dataFree = append(a.dataFree, bno)
	a.dataMirror.Set(int(bno), true)
	return a.writeDataByte(bno, freeByte)
}

// IsInodeFree reports the in-memory mirror's opinion of ino, the cheap
// consistency check the inode store uses before trusting a load (spec.md
// §4.3).
func (a *Allocator) IsInodeFree(ino uint32) bool {
	return a.inodeMirror.Get(int(ino))
}

// IsDataBlockFree is IsInodeFree's data-block counterpart, used by the fsck
// sweep to cross-check inode block pointers against the bitmap.
func (a *Allocator) IsDataBlockFree(bno uint32) bool {
	return a.dataMirror.Get(int(bno))
}

// NumFreeInodes and NumFreeDataBlocks report free-list lengths, used for
// FSStat-style reporting and the fsck sweep.
func (a *Allocator) NumFreeInodes() int     { return len(a.inodeFree) }
func (a *Allocator) NumFreeDataBlocks() int { return len(a.dataFree) }

func (a *Allocator) writeInodeByte(ino uint32, flag byte) error {
	block, offset := a.geom.InodeBitmapBlockAndOffset(ino)
	return a.rewriteByte(block, offset, flag)
}

func (a *Allocator) writeDataByte(bno uint32, flag byte) error {
	block, offset := a.geom.DataBitmapBlockAndOffset(bno)
	return a.rewriteByte(block, offset, flag)
}

func (a *Allocator) rewriteByte(block, offset uint32, flag byte) error {
	buf := make([]byte, a.geom.BlockSize)
	if err := a.dev.ReadBlock(block, buf); err != nil {
		return err
	}
	buf[offset] = flag
	return a.dev.WriteBlock(block, buf)
}

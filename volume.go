// Package sfs is the entry-point surface and volume lifecycle for the SFS
// metadata engine (spec.md §2 components 6-9), built on top of blockdev,
// layout, bitmap, rawinode, and dirent.
//
// It plays the role the teacher's file_systems/unixv1.UnixV1Driver plays for
// its format: one struct holding all volume-global state, with methods for
// mount/unmount/format and the filesystem operations a mount adaptor calls.
package sfs

import (
	"io"
	"log"
	"time"

	"github.com/ksuggs/gosfs/bitmap"
	"github.com/ksuggs/gosfs/blockdev"
	"github.com/ksuggs/gosfs/dirent"
	"github.com/ksuggs/gosfs/layout"
	"github.com/ksuggs/gosfs/rawinode"
	"github.com/ksuggs/gosfs/sfserrors"
)

// FormatOptions gives a fresh volume's fixed geometry (spec.md §3 "Global
// parameters"). NumDataBlocks is the only thing a caller reasonably varies;
// BlockSize defaults to 512 like the teacher's sector-oriented drivers.
type FormatOptions struct {
	BlockSize     uint32
	NumDataBlocks uint32
}

func (o FormatOptions) withDefaults() FormatOptions {
	if o.BlockSize == 0 {
		o.BlockSize = 512
	}
	return o
}

// Volume is the mounted instance of one disk image plus its in-memory state
// (spec.md §3 "In-memory state"). It is not safe for concurrent use (spec.md
// §5): the caller provides its own serialization, a single coarse lock being
// sufficient per the spec's concurrency note.
type Volume struct {
	dev     blockdev.Device
	geom    layout.Geometry
	alloc   *bitmap.Allocator
	inodes  *rawinode.Store
	dirents *dirent.Manager

	inoRoot uint32
	mounted bool
	logger  *log.Logger
	now     func() uint32
}

// New constructs a Volume bound to dev. Callers must still call Mount before
// using it. logger may be nil, in which case diagnostics are discarded.
func New(dev blockdev.Device, opts FormatOptions, logger *log.Logger) *Volume {
	opts = opts.withDefaults()
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	geom := layout.NewGeometry(opts.BlockSize, opts.NumDataBlocks)
	alloc := bitmap.New(dev, geom)
	now := func() uint32 { return uint32(time.Now().Unix()) }
	inodes := rawinode.NewStore(dev, geom, alloc, now)
	dirents := dirent.NewManager(dev, geom, alloc, inodes)

	return &Volume{
		dev:     dev,
		geom:    geom,
		alloc:   alloc,
		inodes:  inodes,
		dirents: dirents,
		logger:  logger,
		now:     now,
	}
}

// Mount brings the volume online: formats a fresh (empty) image per spec.md
// §4.7, or rehydrates free lists from an existing one's bitmaps.
func (v *Volume) Mount() error {
	if v.mounted {
		return sfserrors.ErrAlreadyMounted
	}

	if v.dev.Empty() {
		if err := v.format(); err != nil {
			return err
		}
	}

	if err := v.alloc.ScanInodes(); err != nil {
		return err
	}
	if err := v.alloc.ScanData(); err != nil {
		return err
	}

	sbBuf := make([]byte, v.geom.BlockSize)
	if err := v.dev.ReadBlock(v.geom.SuperblockStart, sbBuf); err != nil {
		return err
	}
	sb := decodeSuperblock(sbBuf)
	if sb.Magic != layout.SuperblockMagic {
		return sfserrors.ErrFileSystemCorrupted.WithMessage("superblock magic mismatch")
	}
	v.inoRoot = sb.InodeRoot

	v.mounted = true
	return nil
}

// format lays out a brand-new volume: superblock, bitmaps, inode table, data
// region, and the root directory inode (spec.md §4.7).
func (v *Volume) format() error {
	now := v.now()

	sb := superblock{
		Magic:             layout.SuperblockMagic,
		NumDataBlocks:     v.geom.NumDataBlocks,
		NumFreeBlocks:     v.geom.NumDataBlocks - 1,
		NumInodes:         layout.NumInodes,
		BitmapInodeBlocks: v.geom.InodeBitmapStart,
		BitmapDataBlocks:  v.geom.DataBitmapStart,
		InodeRoot:         0,
	}
	if err := v.dev.WriteBlock(v.geom.SuperblockStart, sb.encode(v.geom.BlockSize)); err != nil {
		return err
	}

	if err := v.alloc.FormatInodeBitmap(); err != nil {
		return err
	}
	if err := v.alloc.FormatDataBitmap(); err != nil {
		return err
	}

	zeroInodeBlock := make([]byte, v.geom.BlockSize)
	for b := uint32(0); b < v.geom.InodeTableBlocks; b++ {
		if err := v.dev.WriteBlock(v.geom.InodeTableStart+b, zeroInodeBlock); err != nil {
			return err
		}
	}

	zeroDataBlock := make([]byte, v.geom.BlockSize)
	for b := uint32(0); b < v.geom.NumDataBlocks; b++ {
		if err := v.dev.WriteBlock(v.geom.DataRegionStart+b, zeroDataBlock); err != nil {
			return err
		}
	}

	root := rawinode.Inode{
		Ino:     0,
		Mode:    rawinode.DefaultDirMode,
		Nlink:   0,
		Size:    0,
		NBlocks: 1,
		Atime:   now,
		Mtime:   now,
		Ctime:   now,
	}
	root.Blocks[0] = 0
	return v.inodes.Put(&root)
}

// Unmount closes the backing block device and marks the volume unmounted.
// The allocator's free lists are left as they are; Mount rebuilds them from
// the bitmaps.
func (v *Volume) Unmount() error {
	if !v.mounted {
		return sfserrors.ErrNotMounted
	}
	v.mounted = false
	return v.dev.Close()
}

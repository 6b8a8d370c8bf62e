// Package rawinode implements the fixed-size packed inode record and the
// inode store that reads and writes it by inode number (spec.md §4.3),
// grounded on unixv6's RawInode and unixv1's inode (de)serialization in
// format.go.
package rawinode

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"

	"github.com/ksuggs/gosfs/bitmap"
	"github.com/ksuggs/gosfs/blockdev"
	"github.com/ksuggs/gosfs/layout"
	"github.com/ksuggs/gosfs/sfserrors"
)

// POSIX-style mode bits (spec.md §3: "mode uses POSIX mode bits"), carried
// over from the teacher's flags.go.
const (
	SIFDIR       = 0o040000
	SIFREG       = 0o100000
	ModePermMask = 0o7777

	SIRUSR = 0o400
	SIWUSR = 0o200
	SIXUSR = 0o100
	SIRGRP = 0o040
	SIWGRP = 0o020
	SIXGRP = 0o010
	SIROTH = 0o004
	SIWOTH = 0o002
	SIXOTH = 0o001

	DefaultFileMode = SIFREG | SIRUSR | SIWUSR | SIRGRP | SIROTH
	DefaultDirMode  = SIFDIR | SIRUSR | SIWUSR | SIXUSR | SIRGRP | SIXGRP | SIROTH | SIXOTH
)

// Inode is the in-memory form of one 128-byte on-disk inode record.
type Inode struct {
	Ino     uint32
	Mode    uint32
	Nlink   uint32
	Size    uint32
	NBlocks uint32
	Atime   uint32
	Mtime   uint32
	Ctime   uint32
	Blocks  [layout.NumBlockPointers]uint32
}

func (in *Inode) IsDir() bool  { return in.Mode&SIFDIR != 0 }
func (in *Inode) IsFile() bool { return in.Mode&SIFREG != 0 }

// Encode packs an Inode into a layout.InodeSize-byte record. The field sum is
// 32 + 15*4 = 92 bytes; the remaining 36 bytes are zeroed padding (spec.md
// §3: "unused bytes zeroed").
func (in *Inode) Encode() []byte {
	buf := make([]byte, layout.InodeSize)
	w := bytewriter.New(buf)
	binary.Write(w, binary.LittleEndian, in.Ino)
	binary.Write(w, binary.LittleEndian, in.Mode)
	binary.Write(w, binary.LittleEndian, in.Nlink)
	binary.Write(w, binary.LittleEndian, in.Size)
	binary.Write(w, binary.LittleEndian, in.NBlocks)
	binary.Write(w, binary.LittleEndian, in.Atime)
	binary.Write(w, binary.LittleEndian, in.Mtime)
	binary.Write(w, binary.LittleEndian, in.Ctime)
	for _, b := range in.Blocks {
		binary.Write(w, binary.LittleEndian, b)
	}
	return buf
}

// Decode unpacks a layout.InodeSize-byte record into an Inode.
func Decode(record []byte) Inode {
	var in Inode
	r := record
	in.Ino = binary.LittleEndian.Uint32(r[0:4])
	in.Mode = binary.LittleEndian.Uint32(r[4:8])
	in.Nlink = binary.LittleEndian.Uint32(r[8:12])
	in.Size = binary.LittleEndian.Uint32(r[12:16])
	in.NBlocks = binary.LittleEndian.Uint32(r[16:20])
	in.Atime = binary.LittleEndian.Uint32(r[20:24])
	in.Mtime = binary.LittleEndian.Uint32(r[24:28])
	in.Ctime = binary.LittleEndian.Uint32(r[28:32])
	for i := 0; i < layout.NumBlockPointers; i++ {
		off := 32 + i*4
		in.Blocks[i] = binary.LittleEndian.Uint32(r[off : off+4])
	}
	return in
}

// Store reads and writes inode records in the inode table region.
type Store struct {
	dev   blockdev.Device
	geom  layout.Geometry
	alloc *bitmap.Allocator
	// now returns the current time as a Unix timestamp; overridable in tests.
	now func() uint32
}

func NewStore(dev blockdev.Device, geom layout.Geometry, alloc *bitmap.Allocator, now func() uint32) *Store {
	return &Store{dev: dev, geom: geom, alloc: alloc, now: now}
}

// Get reads the inode record for ino. Per spec.md §4.3, it refuses with
// ErrSlotNotInUse if the allocator's free-list mirror considers ino
// unallocated — a cheap consistency check on every load.
func (s *Store) Get(ino uint32) (Inode, error) {
	if s.alloc.IsInodeFree(ino) {
		return Inode{}, sfserrors.ErrSlotNotInUse.WithMessage("inode not in use")
	}

	block, offset := s.geom.InodeBlockAndOffset(ino)
	buf := make([]byte, s.geom.BlockSize)
	if err := s.dev.ReadBlock(block, buf); err != nil {
		return Inode{}, err
	}
	return Decode(buf[offset : offset+layout.InodeSize]), nil
}

// Put read-modify-writes the inode table block holding in.Ino, stamping
// Mtime to now.
func (s *Store) Put(in *Inode) error {
	in.Mtime = s.now()

	block, offset := s.geom.InodeBlockAndOffset(in.Ino)
	buf := make([]byte, s.geom.BlockSize)
	if err := s.dev.ReadBlock(block, buf); err != nil {
		return err
	}
	copy(buf[offset:offset+layout.InodeSize], in.Encode())
	return s.dev.WriteBlock(block, buf)
}

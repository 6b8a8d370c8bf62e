// Package dirent manages the densely packed directory entries stored inside
// a directory inode's data blocks: append, swap-and-pop removal, and
// iteration (spec.md §4.4).
package dirent

import (
	"bytes"

	"github.com/ksuggs/gosfs/bitmap"
	"github.com/ksuggs/gosfs/blockdev"
	"github.com/ksuggs/gosfs/layout"
	"github.com/ksuggs/gosfs/rawinode"
	"github.com/ksuggs/gosfs/sfserrors"
)

// Dentry is the in-memory form of one 64-byte directory entry record.
type Dentry struct {
	Ino  uint32
	Name string
}

// Encode packs a Dentry into a layout.DentrySize-byte record: a 4-byte
// little-endian inode number followed by the name, NUL-terminated within the
// fixed 32-byte field (spec.md §3). Padding bytes are left zero; they're
// undefined on write but ignored on read beyond the NUL per spec.md §3.
func (d Dentry) Encode() []byte {
	buf := make([]byte, layout.DentrySize)
	buf[0] = byte(d.Ino)
	buf[1] = byte(d.Ino >> 8)
	buf[2] = byte(d.Ino >> 16)
	buf[3] = byte(d.Ino >> 24)

	name := d.Name
	if len(name) > layout.MaxFileNameLength-1 {
		name = name[:layout.MaxFileNameLength-1]
	}
	copy(buf[4:4+layout.MaxFileNameLength], name)
	return buf
}

// Decode unpacks a layout.DentrySize-byte record into a Dentry.
func Decode(record []byte) Dentry {
	ino := uint32(record[0]) | uint32(record[1])<<8 | uint32(record[2])<<16 | uint32(record[3])<<24
	nameField := record[4 : 4+layout.MaxFileNameLength]
	if nul := bytes.IndexByte(nameField, 0); nul >= 0 {
		nameField = nameField[:nul]
	}
	return Dentry{Ino: ino, Name: string(nameField)}
}

// Manager appends, removes, and enumerates directory entries within a
// directory inode's data blocks.
type Manager struct {
	dev    blockdev.Device
	geom   layout.Geometry
	alloc  *bitmap.Allocator
	inodes *rawinode.Store
}

func NewManager(dev blockdev.Device, geom layout.Geometry, alloc *bitmap.Allocator, inodes *rawinode.Store) *Manager {
	return &Manager{dev: dev, geom: geom, alloc: alloc, inodes: inodes}
}

func (m *Manager) dataBlock(relative uint32) uint32 {
	return m.geom.DataRegionStart + relative
}

func (m *Manager) readBlock(relative uint32) ([]byte, error) {
	buf := make([]byte, m.geom.BlockSize)
	if err := m.dev.ReadBlock(m.dataBlock(relative), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (m *Manager) writeBlock(relative uint32, buf []byte) error {
	return m.dev.WriteBlock(m.dataBlock(relative), buf)
}

// Create appends {name, childIno} to parent's entry array (spec.md §4.4).
func (m *Manager) Create(parent *rawinode.Inode, childIno uint32, name string) error {
	if len(name) >= layout.MaxFileNameLength {
		return sfserrors.ErrNameTooLong.WithMessage(name)
	}

	perBlock := m.geom.DentriesPerBlock()
	k := parent.Size / layout.DentrySize
	blockIdx := k / perBlock
	slot := k % perBlock

	if slot == 0 {
		if blockIdx >= layout.NumDirectBlocks {
			return sfserrors.ErrFileTooLarge.WithMessage("directory exceeds direct block capacity")
		}
		if blockIdx >= parent.NBlocks {
			bno, err := m.alloc.AllocDataBlock()
			if err != nil {
				return err
			}
			parent.Blocks[blockIdx] = bno
			parent.NBlocks++
		}
	}

	buf, err := m.readBlock(parent.Blocks[blockIdx])
	if err != nil {
		return err
	}
	copy(buf[slot*layout.DentrySize:(slot+1)*layout.DentrySize], Dentry{Ino: childIno, Name: name}.Encode())
	if err := m.writeBlock(parent.Blocks[blockIdx], buf); err != nil {
		return err
	}

	parent.Size += layout.DentrySize
	return m.inodes.Put(parent)
}

// Remove deletes the entry referencing childIno from parent via
// swap-and-pop (spec.md §4.4): it's overwritten with the directory's last
// entry, and the array shrinks by one slot. Iteration order is therefore not
// stable across mutations.
func (m *Manager) Remove(parent *rawinode.Inode, childIno uint32) error {
	perBlock := m.geom.DentriesPerBlock()
	total := parent.Size / layout.DentrySize
	if total == 0 {
		return sfserrors.ErrNotFound.WithMessage("directory has no entries")
	}

	foundIdx := uint32(0)
	found := false
	var foundBlock, foundSlot uint32

	for k := uint32(0); k < total; k++ {
		blockIdx := k / perBlock
		slot := k % perBlock
		buf, err := m.readBlock(parent.Blocks[blockIdx])
		if err != nil {
			return err
		}
		entry := Decode(buf[slot*layout.DentrySize : (slot+1)*layout.DentrySize])
		if entry.Ino == childIno {
			foundIdx, found, foundBlock, foundSlot = k, true, blockIdx, slot
			break
		}
	}
	if !found {
		return sfserrors.ErrNotFound.WithMessage("no such directory entry")
	}

	lastIdx := total - 1
	lastBlockIdx := lastIdx / perBlock
	lastSlot := lastIdx % perBlock

	if foundIdx != lastIdx {
		lastBuf, err := m.readBlock(parent.Blocks[lastBlockIdx])
		if err != nil {
			return err
		}
		lastRecord := append([]byte(nil), lastBuf[lastSlot*layout.DentrySize:(lastSlot+1)*layout.DentrySize]...)

		targetBuf, err := m.readBlock(parent.Blocks[foundBlock])
		if err != nil {
			return err
		}
		copy(targetBuf[foundSlot*layout.DentrySize:(foundSlot+1)*layout.DentrySize], lastRecord)
		if err := m.writeBlock(parent.Blocks[foundBlock], targetBuf); err != nil {
			return err
		}
	}

	parent.Size -= layout.DentrySize

	// If the last entry was the sole entry of a tail block (and not the
	// first block), that block is now unreferenced; free it.
	if lastSlot == 0 && lastBlockIdx != 0 {
		if err := m.alloc.FreeDataBlock(parent.Blocks[lastBlockIdx]); err != nil {
			return err
		}
		parent.Blocks[lastBlockIdx] = 0
		parent.NBlocks--
	}

	return m.inodes.Put(parent)
}

// ReadAll enumerates parent's entries in physical layout order, block by
// block (spec.md §4.4).
func (m *Manager) ReadAll(parent *rawinode.Inode) ([]Dentry, error) {
	perBlock := m.geom.DentriesPerBlock()
	total := parent.Size / layout.DentrySize
	entries := make([]Dentry, 0, total)

	for k := uint32(0); k < total; k++ {
		blockIdx := k / perBlock
		slot := k % perBlock
		buf, err := m.readBlock(parent.Blocks[blockIdx])
		if err != nil {
			return nil, err
		}
		entries = append(entries, Decode(buf[slot*layout.DentrySize:(slot+1)*layout.DentrySize]))
	}
	return entries, nil
}

// Find looks up a single entry by name, used by the path resolver (spec.md
// §4.5).
func (m *Manager) Find(parent *rawinode.Inode, name string) (uint32, bool, error) {
	entries, err := m.ReadAll(parent)
	if err != nil {
		return 0, false, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e.Ino, true, nil
		}
	}
	return 0, false, nil
}

package sfs

import (
	"os"

	"github.com/ksuggs/gosfs/layout"
	"github.com/ksuggs/gosfs/rawinode"
)

// FileStat is the subset of POSIX struct stat the entry-point surface
// populates for Getattr (spec.md §4.8), grounded on disko.FileStat trimmed to
// the fields this filesystem actually tracks.
type FileStat struct {
	Ino       uint64
	Mode      uint32
	Nlink     uint32
	Size      uint32
	BlockSize uint32
	Blocks    uint32
	Uid       uint32
	Gid       uint32
	Atime     uint32
	Mtime     uint32
	Ctime     uint32
}

// statFromInode fills out a FileStat. SFS tracks no per-inode ownership
// (multi-user permissions are a non-goal), so Uid/Gid report the calling
// process's own identity, per spec.md §4.8's "st_uid/gid=process" rule.
func statFromInode(in *rawinode.Inode, blockSize uint32) FileStat {
	return FileStat{
		Ino:       uint64(in.Ino),
		Mode:      in.Mode,
		Nlink:     in.Nlink,
		Size:      in.Size,
		BlockSize: blockSize,
		Blocks:    in.NBlocks,
		Uid:       uint32(os.Getuid()),
		Gid:       uint32(os.Getgid()),
		Atime:     in.Atime,
		Mtime:     in.Mtime,
		Ctime:     in.Ctime,
	}
}

// FSStat summarizes the volume as a whole, the way disko.FSStat does for a
// generic driver.
type FSStat struct {
	BlockSize     uint32
	TotalBlocks   uint32
	BlocksFree    uint32
	Files         uint32
	FilesFree     uint32
	MaxNameLength uint32
}

// FSStat reports volume-wide usage counters.
func (v *Volume) FSStat() FSStat {
	return FSStat{
		BlockSize:     v.geom.BlockSize,
		TotalBlocks:   v.geom.TotalBlocks(),
		BlocksFree:    uint32(v.alloc.NumFreeDataBlocks()),
		Files:         layout.NumInodes - uint32(v.alloc.NumFreeInodes()),
		FilesFree:     uint32(v.alloc.NumFreeInodes()),
		MaxNameLength: layout.MaxFileNameLength - 1,
	}
}

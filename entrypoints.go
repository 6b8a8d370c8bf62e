package sfs

import (
	"github.com/ksuggs/gosfs/rawinode"
	"github.com/ksuggs/gosfs/sfserrors"
)

// Getattr resolves path and returns its attributes (spec.md §4.8).
func (v *Volume) Getattr(path string) (FileStat, error) {
	ino, err := v.resolvePath(path)
	if err != nil {
		return FileStat{}, err
	}
	in, err := v.inodes.Get(ino)
	if err != nil {
		return FileStat{}, err
	}
	return statFromInode(&in, v.geom.BlockSize), nil
}

// createObject is shared by Create and Mkdir: both allocate an inode plus
// its first data block, write it out, and link it into root under name
// (spec.md §4.8). Already-exists is not an error surface: it's logged and
// the existing inode number is returned (spec.md §7).
func (v *Volume) createObject(path string, mode uint32) (uint32, error) {
	if existing, err := v.resolvePath(path); err == nil {
		v.logger.Printf("sfs: create %q: already exists as inode %d", path, existing)
		return existing, nil
	}

	ino, err := v.alloc.AllocInode()
	if err != nil {
		return 0, err
	}
	bno, err := v.alloc.AllocDataBlock()
	if err != nil {
		return 0, err
	}

	now := v.now()
	in := rawinode.Inode{
		Ino:     ino,
		Mode:    mode,
		Nlink:   0,
		Size:    0,
		NBlocks: 1,
		Atime:   now,
		Mtime:   now,
		Ctime:   now,
	}
	in.Blocks[0] = bno
	if err := v.inodes.Put(&in); err != nil {
		return 0, err
	}

	root, err := v.inodes.Get(v.inoRoot)
	if err != nil {
		return 0, err
	}
	if err := v.dirents.Create(&root, ino, basename(path)); err != nil {
		return 0, err
	}
	return ino, nil
}

// Create allocates a new regular file at path (spec.md §4.8).
func (v *Volume) Create(path string, mode uint32) (uint32, error) {
	return v.createObject(path, mode|rawinode.SIFREG)
}

// Mkdir allocates a new directory. The core resolves only single-level
// paths under root (spec.md §4.5), so the directory is always created as a
// child of root regardless of how many path components path has.
func (v *Volume) Mkdir(path string, mode uint32) (uint32, error) {
	return v.createObject(path, mode|rawinode.SIFDIR)
}

// Unlink frees path's inode and its data blocks, and removes its directory
// entry from root (spec.md §4.8).
func (v *Volume) Unlink(path string) error {
	ino, err := v.resolvePath(path)
	if err != nil {
		return err
	}
	if ino == v.inoRoot {
		return sfserrors.ErrInvalidArgument.WithMessage("cannot unlink root")
	}

	in, err := v.inodes.Get(ino)
	if err != nil {
		return err
	}

	for i := uint32(0); i < in.NBlocks; i++ {
		if err := v.alloc.FreeDataBlock(in.Blocks[i]); err != nil {
			return err
		}
	}
	if err := v.alloc.FreeInode(ino); err != nil {
		return err
	}

	root, err := v.inodes.Get(v.inoRoot)
	if err != nil {
		return err
	}
	return v.dirents.Remove(&root, ino)
}

// Open succeeds iff path resolves to a regular file (spec.md §4.8).
func (v *Volume) Open(path string) error {
	in, err := v.inodeAt(path)
	if err != nil {
		return err
	}
	if !in.IsFile() {
		return sfserrors.ErrIsADirectory.WithMessage(path)
	}
	return nil
}

// Release is a no-op: the core keeps no open-file state (spec.md §4.8).
func (v *Volume) Release(path string) error { return nil }

// Read delegates to the file I/O engine (spec.md §4.6).
func (v *Volume) Read(path string, buf []byte, size, offset uint32) (uint32, error) {
	ino, err := v.resolvePath(path)
	if err != nil {
		return 0, err
	}
	in, err := v.inodes.Get(ino)
	if err != nil {
		return 0, err
	}
	return v.readInodeData(&in, buf, size, offset)
}

// Write delegates to the file I/O engine (spec.md §4.6).
func (v *Volume) Write(path string, buf []byte, size, offset uint32) (uint32, error) {
	ino, err := v.resolvePath(path)
	if err != nil {
		return 0, err
	}
	in, err := v.inodes.Get(ino)
	if err != nil {
		return 0, err
	}
	return v.writeInodeData(&in, buf, size, offset)
}

// Rmdir is declared but left unimplemented in the source (spec.md §9 open
// question). This implementation takes the richer of the two documented
// options: refuse if the directory still has entries other than the
// standard "." and ".." (spec.md never actually writes "." and ".." as
// dentries — see Readdir — so non-empty here means any real dentry at
// all), otherwise remove it like Unlink.
func (v *Volume) Rmdir(path string) error {
	ino, err := v.resolvePath(path)
	if err != nil {
		return err
	}
	in, err := v.inodes.Get(ino)
	if err != nil {
		return err
	}
	if !in.IsDir() {
		return sfserrors.ErrNotADirectory.WithMessage(path)
	}
	entries, err := v.dirents.ReadAll(&in)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return sfserrors.ErrInvalidArgument.WithMessage("directory not empty")
	}
	return v.Unlink(path)
}

// Opendir succeeds iff path resolves to a directory (spec.md §4.8).
func (v *Volume) Opendir(path string) error {
	in, err := v.inodeAt(path)
	if err != nil {
		return err
	}
	if !in.IsDir() {
		return sfserrors.ErrNotADirectory.WithMessage(path)
	}
	return nil
}

// Readdir emits "." and ".." followed by path's directory entries in
// physical layout order (spec.md §4.4, §4.8). That order is not stable
// across insert/delete because dirent.Manager.Remove uses swap-and-pop.
func (v *Volume) Readdir(path string) ([]string, error) {
	ino, err := v.resolvePath(path)
	if err != nil {
		return nil, err
	}
	in, err := v.inodes.Get(ino)
	if err != nil {
		return nil, err
	}
	if !in.IsDir() {
		return nil, sfserrors.ErrNotADirectory.WithMessage(path)
	}

	entries, err := v.dirents.ReadAll(&in)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries)+2)
	names = append(names, ".", "..")
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

// Releasedir is a no-op (spec.md §4.8).
func (v *Volume) Releasedir(path string) error { return nil }

func (v *Volume) inodeAt(path string) (rawinode.Inode, error) {
	ino, err := v.resolvePath(path)
	if err != nil {
		return rawinode.Inode{}, err
	}
	return v.inodes.Get(ino)
}

package sfs

import (
	"strings"

	"github.com/ksuggs/gosfs/layout"
	"github.com/ksuggs/gosfs/sfserrors"
)

// resolvePath maps a textual path to an inode number (spec.md §4.5). The
// core resolves only single-level paths under root: "/" is the root
// directory itself, and "/NAME" (with no further slashes) is looked up among
// root's entries. Paths not beginning with "/" are rejected and logged.
func (v *Volume) resolvePath(path string) (uint32, error) {
	if !strings.HasPrefix(path, "/") {
		v.logger.Printf("sfs: invalid path %q: missing leading slash", path)
		return layout.InvalidIno, sfserrors.ErrInvalidPath.WithMessage(path)
	}

	if path == "/" {
		return v.inoRoot, nil
	}

	name := basename(path)

	root, err := v.inodes.Get(v.inoRoot)
	if err != nil {
		return layout.InvalidIno, err
	}

	ino, ok, err := v.dirents.Find(&root, name)
	if err != nil {
		return layout.InvalidIno, err
	}
	if !ok {
		return layout.InvalidIno, sfserrors.ErrNotFound.WithMessage(path)
	}
	return ino, nil
}

// basename strips a leading "/" from path, per spec.md §4.8's "basename"
// description for the single-level path model: "/a/b" resolves under root
// using "a/b" verbatim rather than recursing into a subdirectory (spec.md
// §4.5, §9 open question — the core doesn't implement multi-level lookup).
func basename(path string) string {
	return strings.TrimPrefix(path, "/")
}

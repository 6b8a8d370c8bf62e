package sfserrors_test

import (
	"errors"
	"testing"

	"github.com/ksuggs/gosfs/sfserrors"
	"github.com/stretchr/testify/assert"
)

func TestSFSErrorWithMessage(t *testing.T) {
	err := sfserrors.ErrNotFound.WithMessage("/a")
	assert.Equal(t, "no such file or directory: /a", err.Error())
	assert.ErrorIs(t, err, sfserrors.ErrNotFound)
}

func TestSFSErrorWrap(t *testing.T) {
	cause := errors.New("short read")
	err := sfserrors.ErrIOFailed.Wrap(cause)
	assert.Equal(t, "input/output error: short read", err.Error())
	assert.ErrorIs(t, err, sfserrors.ErrIOFailed)
	assert.ErrorIs(t, err, cause)
}

func TestToErrno(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{sfserrors.ErrNotFound, -sfserrors.ENOENT},
		{sfserrors.ErrNotFound.WithMessage("/x"), -sfserrors.ENOENT},
		{sfserrors.ErrExists, -sfserrors.EEXIST},
		{sfserrors.ErrNoSpaceOnDevice, -sfserrors.ENOSPC},
		{sfserrors.ErrIsADirectory, -sfserrors.EISDIR},
		{sfserrors.ErrNotADirectory, -sfserrors.ENOTDIR},
		{errors.New("unmapped"), -sfserrors.EIO},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, sfserrors.ToErrno(tc.err))
	}
}

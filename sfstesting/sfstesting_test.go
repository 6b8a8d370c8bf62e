package sfstesting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksuggs/gosfs/rawinode"
	"github.com/ksuggs/gosfs/sfstesting"
)

func TestNewMountedVolumeIsUsable(t *testing.T) {
	v := sfstesting.NewMountedVolume(t, sfstesting.DefaultBlockSize, 32)

	names, err := v.Readdir("/")
	require.NoError(t, err)
	assert.Equal(t, []string{".", ".."}, names)

	_, err = v.Create("/f", rawinode.DefaultFileMode)
	require.NoError(t, err)
}

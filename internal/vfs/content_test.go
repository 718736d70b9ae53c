package vfs_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	provErrors "github.com/javi11/smbvfs/internal/errors"
	"github.com/javi11/smbvfs/internal/vfs"
	"github.com/javi11/smbvfs/internal/vfs/aferofs"
)

func TestCopyContent(t *testing.T) {
	ctx := context.Background()
	fsys := aferofs.NewMem("content")

	big := bytes.Repeat([]byte("0123456789"), 10_000)
	require.NoError(t, afero.WriteFile(fsys.Fs(), "/src.bin", big, 0o644))
	require.NoError(t, afero.WriteFile(fsys.Fs(), "/dst.bin", []byte("old content that is longer"), 0o644))

	src, err := fsys.Resolve(ctx, "/src.bin")
	require.NoError(t, err)
	dst, err := fsys.Resolve(ctx, "/dst.bin")
	require.NoError(t, err)

	require.NoError(t, vfs.CopyContent(ctx, src, dst))

	got, err := afero.ReadFile(fsys.Fs(), "/dst.bin")
	require.NoError(t, err)
	assert.Equal(t, big, got)
}

func TestCopyContent_CancelledContext(t *testing.T) {
	fsys := aferofs.NewMem("content")
	require.NoError(t, afero.WriteFile(fsys.Fs(), "/src.bin", []byte("data"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	src, err := fsys.Resolve(ctx, "/src.bin")
	require.NoError(t, err)
	dst, err := fsys.Resolve(ctx, "/dst.bin")
	require.NoError(t, err)

	cancel()
	assert.ErrorIs(t, vfs.CopyContent(ctx, src, dst), context.Canceled)
}

func TestCopyTree(t *testing.T) {
	ctx := context.Background()
	srcFs := newTree(t)
	dstFs := aferofs.NewMem("dest")

	// A file where the source has a folder is replaced.
	require.NoError(t, dstFs.Fs().MkdirAll("/copy", 0o755))
	require.NoError(t, afero.WriteFile(dstFs.Fs(), "/copy/sub", []byte("in the way"), 0o644))

	src, err := srcFs.Resolve(ctx, "/root")
	require.NoError(t, err)
	dst, err := dstFs.Resolve(ctx, "/copy")
	require.NoError(t, err)

	require.NoError(t, dst.CopyFrom(ctx, src, vfs.SelectAll))

	got, err := afero.ReadFile(dstFs.Fs(), "/copy/sub/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "bb", string(got))

	got, err = afero.ReadFile(dstFs.Fs(), "/copy/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
}

func TestCopyTree_MissingSource(t *testing.T) {
	ctx := context.Background()
	fsys := aferofs.NewMem("missing")

	src, err := fsys.Resolve(ctx, "/nope")
	require.NoError(t, err)
	dst, err := fsys.Resolve(ctx, "/dst")
	require.NoError(t, err)

	err = dst.CopyFrom(ctx, src, vfs.SelectAll)
	var missing *provErrors.MissingSourceFileError
	assert.ErrorAs(t, err, &missing)
}

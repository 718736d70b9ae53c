package vfs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javi11/smbvfs/internal/vfs"
	"github.com/javi11/smbvfs/internal/vfs/aferofs"
)

func newTree(t *testing.T) *aferofs.FileSystem {
	t.Helper()

	fsys := aferofs.NewMem("tree")
	require.NoError(t, fsys.Fs().MkdirAll("/root/sub", 0o755))
	require.NoError(t, afero.WriteFile(fsys.Fs(), "/root/a.txt", []byte("a"), 0o644))
	require.NoError(t, afero.WriteFile(fsys.Fs(), "/root/sub/b.txt", []byte("bb"), 0o644))
	return fsys
}

func paths(files []vfs.FileObject) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name().Path()
	}
	return out
}

func TestFindFiles(t *testing.T) {
	ctx := context.Background()
	fsys := newTree(t)
	base, err := fsys.Resolve(ctx, "/root")
	require.NoError(t, err)

	tests := []struct {
		name      string
		selector  vfs.FileSelector
		depthwise bool
		want      []string
	}{
		{
			name:     "all parents first",
			selector: vfs.SelectAll,
			want:     []string{"/root", "/root/a.txt", "/root/sub", "/root/sub/b.txt"},
		},
		{
			name:      "all depthwise",
			selector:  vfs.SelectAll,
			depthwise: true,
			want:      []string{"/root/a.txt", "/root/sub/b.txt", "/root/sub", "/root"},
		},
		{
			name:     "self",
			selector: vfs.SelectSelf,
			want:     []string{"/root"},
		},
		{
			name:     "children",
			selector: vfs.SelectChildren,
			want:     []string{"/root/a.txt", "/root/sub"},
		},
		{
			name:     "files",
			selector: vfs.SelectFiles,
			want:     []string{"/root/a.txt", "/root/sub/b.txt"},
		},
		{
			name:     "folders",
			selector: vfs.SelectFolders,
			want:     []string{"/root", "/root/sub"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := vfs.FindFiles(ctx, base, tt.selector, tt.depthwise)
			require.NoError(t, err)
			assert.Equal(t, tt.want, paths(files))
		})
	}
}

func TestVisit(t *testing.T) {
	ctx := context.Background()
	fsys := newTree(t)
	base, err := fsys.Resolve(ctx, "/root")
	require.NoError(t, err)

	files, err := vfs.FindFiles(ctx, base, vfs.SelectAll, false)
	require.NoError(t, err)

	errBoom := errors.New("boom")
	failSecond := func(visited *[]string) func(vfs.FileObject) error {
		return func(f vfs.FileObject) error {
			*visited = append(*visited, f.Name().Path())
			if len(*visited) == 2 {
				return errBoom
			}
			return nil
		}
	}

	t.Run("abort on first error", func(t *testing.T) {
		var visited []string
		err := vfs.Visit(ctx, files, vfs.SelectAll, failSecond(&visited))
		assert.ErrorIs(t, err, errBoom)
		assert.Len(t, visited, 2)
	})

	t.Run("continue on error", func(t *testing.T) {
		var visited []string
		err := vfs.Visit(ctx, files, vfs.ContinueOnError(vfs.SelectAll), failSecond(&visited))
		assert.ErrorIs(t, err, errBoom)
		assert.Len(t, visited, len(files))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := vfs.Visit(cctx, files, vfs.SelectAll, func(vfs.FileObject) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

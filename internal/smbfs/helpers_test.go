package smbfs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/javi11/smbvfs/internal/smb"
	"github.com/javi11/smbvfs/internal/smb/smbtest"
)

var modTime = time.Date(2023, time.June, 15, 9, 30, 0, 0, time.UTC)

func newTestFileSystem(t *testing.T, uri string) (*smbtest.Backend, *FileSystem) {
	t.Helper()

	backend := smbtest.NewBackend("share")
	return backend, newFileSystemOn(t, backend, uri)
}

func newFileSystemOn(t *testing.T, backend *smbtest.Backend, uri string) *FileSystem {
	t.Helper()

	root, err := ParseURI(uri)
	require.NoError(t, err)

	auth := smb.AuthenticationContext{Username: root.Username(), Password: root.Password(), Domain: root.Domain()}
	fs := NewFileSystem(root, backend.Client(), auth, Options{})
	t.Cleanup(func() { _ = fs.Close() })
	return fs
}

func resolve(t *testing.T, fs *FileSystem, path string) *FileObject {
	t.Helper()

	f, err := fs.Resolve(context.Background(), path)
	require.NoError(t, err)
	return f.(*FileObject)
}

// Package smbfs exposes an SMB share as a vfs.FileSystem. Connections are made lazily
// and repaired on the next call after a disconnect; node metadata is cached per node
// until refreshed.
package smbfs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/javi11/smbvfs/internal/smb"
	"github.com/javi11/smbvfs/internal/vfs"
)

var capabilities = map[vfs.Capability]bool{
	vfs.CapCreate:          true,
	vfs.CapDelete:          true,
	vfs.CapRename:          true,
	vfs.CapGetType:         true,
	vfs.CapListChildren:    true,
	vfs.CapReadContent:     true,
	vfs.CapGetLastModified: true,
	vfs.CapURI:             true,
	vfs.CapWriteContent:    true,
	vfs.CapAppendContent:   true,
}

// ensure FileSystem implements vfs.FileSystem
var _ vfs.FileSystem = (*FileSystem)(nil)

// Options tune a FileSystem.
type Options struct {
	// CacheSize bounds the number of nodes kept by the node cache.
	CacheSize int
}

// FileSystem is one share of one server seen with one set of credentials.
type FileSystem struct {
	id       string
	root     *FileName
	manager  *ShareManager
	template *Template
	cache    *vfs.FilesCache
	log      *slog.Logger
}

// NewFileSystem creates the filesystem rooted at root. Nothing is dialled until a node
// needs the server.
func NewFileSystem(root *FileName, client smb.Client, auth smb.AuthenticationContext, opts Options) *FileSystem {
	id := uuid.NewString()
	manager := NewShareManager(NewSessionFactory(client), root.Address(), root.Share(), auth)

	return &FileSystem{
		id:       id,
		root:     root.Root(),
		manager:  manager,
		template: NewTemplate(manager),
		cache:    vfs.NewFilesCache(opts.CacheSize),
		log:      slog.Default().With("component", "smb-filesystem", "fs_id", id, "root", root.Root().FriendlyURI()),
	}
}

// ID identifies the instance in logs.
func (f *FileSystem) ID() string { return f.id }

func (f *FileSystem) RootName() vfs.FileName      { return f.root }
func (f *FileSystem) FilesCache() *vfs.FilesCache { return f.cache }

func (f *FileSystem) HasCapability(c vfs.Capability) bool {
	return capabilities[c]
}

// ShareState reports the state of the share connection.
func (f *FileSystem) ShareState() ShareState {
	return f.manager.State()
}

// Resolve returns the node at an absolute path of the share.
func (f *FileSystem) Resolve(ctx context.Context, path string) (vfs.FileObject, error) {
	p, err := vfs.NormalizePath(path)
	if err != nil {
		return nil, err
	}
	return f.ResolveFile(ctx, f.root.CreateName(p, vfs.Imaginary))
}

func (f *FileSystem) ResolveFile(_ context.Context, name vfs.FileName) (vfs.FileObject, error) {
	return f.resolveNode(name)
}

func (f *FileSystem) resolveNode(name vfs.FileName) (*FileObject, error) {
	if name.RootURI() != f.root.RootURI() {
		return nil, fmt.Errorf("%w: %s is not on %s", vfs.ErrBadPath, name.FriendlyURI(), f.root.FriendlyURI())
	}

	if cached, ok := f.cache.Get(name); ok {
		if node, ok := cached.(*FileObject); ok {
			return node, nil
		}
	}

	node := newFileObject(name, f, f.template, f.root)
	return f.cache.PutIfAbsent(node).(*FileObject), nil
}

// Close disconnects from the server and forgets every node.
func (f *FileSystem) Close() error {
	f.cache.Clear()
	if err := f.manager.Close(); err != nil {
		f.log.Debug("Failed to close share connection", "err", err)
		return err
	}
	return nil
}

// Package vfs is the virtual filesystem framework the SMB provider plugs into.
// It owns naming, node caching, selector based traversal and generic content copy;
// providers implement FileSystem and FileObject.
package vfs

import (
	"context"
	"io"
	"time"
)

// FileType is the kind of a node.
type FileType int

const (
	// Imaginary is the type of a node that does not exist.
	Imaginary FileType = iota
	File
	Folder
)

func (t FileType) String() string {
	switch t {
	case File:
		return "file"
	case Folder:
		return "folder"
	default:
		return "imaginary"
	}
}

// HasContent reports whether nodes of this type can be read and written.
func (t FileType) HasContent() bool { return t == File }

// HasChildren reports whether nodes of this type can be listed.
func (t FileType) HasChildren() bool { return t == Folder }

// Capability is an optional feature a filesystem supports.
type Capability string

const (
	CapCreate          Capability = "CREATE"
	CapDelete          Capability = "DELETE"
	CapRename          Capability = "RENAME"
	CapGetType         Capability = "GET_TYPE"
	CapListChildren    Capability = "LIST_CHILDREN"
	CapReadContent     Capability = "READ_CONTENT"
	CapGetLastModified Capability = "GET_LAST_MODIFIED"
	CapURI             Capability = "URI"
	CapWriteContent    Capability = "WRITE_CONTENT"
	CapAppendContent   Capability = "APPEND_CONTENT"
)

// NameScope restricts where a relative name may resolve to.
type NameScope int

const (
	ScopeFileSystem NameScope = iota
	ScopeChild
	ScopeDescendant
	ScopeDescendantOrSelf
)

// FileSystem is a tree of nodes sharing one root and one node cache.
type FileSystem interface {
	RootName() FileName
	// ResolveFile returns the node for name, reusing a cached node when possible.
	ResolveFile(ctx context.Context, name FileName) (FileObject, error)
	FilesCache() *FilesCache
	HasCapability(c Capability) bool
}

// FileObject is a node of a FileSystem.
type FileObject interface {
	Name() FileName
	FileSystem() FileSystem

	Exists(ctx context.Context) (bool, error)
	Type(ctx context.Context) (FileType, error)
	Size(ctx context.Context) (int64, error)
	LastModified(ctx context.Context) (time.Time, error)

	Children(ctx context.Context) ([]FileObject, error)
	Parent(ctx context.Context) (FileObject, error)
	ResolveFile(ctx context.Context, path string, scope NameScope) (FileObject, error)

	InputStream(ctx context.Context) (io.ReadCloser, error)
	OutputStream(ctx context.Context, append bool) (io.WriteCloser, error)

	CreateFolder(ctx context.Context) error
	// Delete removes the node, and the content of folders.
	Delete(ctx context.Context) error
	MoveTo(ctx context.Context, dest FileObject) error
	CopyFrom(ctx context.Context, src FileObject, selector FileSelector) error

	// Refresh drops any cached state about the node.
	Refresh()
}

// Package smb defines the protocol client surface the SMB filesystem is built on.
// It mirrors the primitives an SMB2/3 client library exposes (connect, authenticate,
// tree connect, create/open with explicit flags, query info, query directory, close)
// so the filesystem layer can orchestrate them without knowing the wire protocol.
package smb

import (
	"context"
	"io"
	"time"
)

// DefaultPort is the TCP port SMB2/3 servers listen on.
const DefaultPort = 445

// Client opens transport connections to SMB servers.
type Client interface {
	// Connect dials host (optionally host:port) and negotiates the protocol dialect.
	Connect(ctx context.Context, host string) (Connection, error)
}

// Connection is a negotiated transport connection that has not been authenticated yet.
type Connection interface {
	Authenticate(ctx context.Context, auth AuthenticationContext) (Session, error)
	Close() error
}

// Session is an authenticated session able to connect to shares.
type Session interface {
	ConnectShare(ctx context.Context, name string) (Share, error)
	Logoff() error
}

// Share is a connected disk share (tree connect).
// All paths are relative to the share root and use backslash separators.
type Share interface {
	// IsConnected reports whether the underlying transport is still usable.
	IsConnected() bool

	Mkdir(ctx context.Context, path string) error
	FileInformation(ctx context.Context, path string) (*FileAllInformation, error)
	OpenFile(ctx context.Context, path string, params OpenParams) (File, error)
	OpenDirectory(ctx context.Context, path string, params OpenParams) (Directory, error)
	List(ctx context.Context, path string) ([]DirectoryEntry, error)
	Rm(ctx context.Context, path string) error
	Rmdir(ctx context.Context, path string, recursive bool) error
	FileExists(ctx context.Context, path string) (bool, error)
	FolderExists(ctx context.Context, path string) (bool, error)

	// Close disconnects the tree.
	Close() error
}

// DiskEntry is an open handle to a file or a directory.
type DiskEntry interface {
	Path() string
	// Rename moves the entry to newPath, relative to the same share root.
	Rename(ctx context.Context, newPath string) error
	Close() error
}

// Directory is an open directory handle.
type Directory interface {
	DiskEntry
}

// File is an open file handle.
type File interface {
	DiskEntry

	// InputStream returns a reader positioned at the start of the file.
	InputStream() io.ReadCloser
	// OutputStream returns a writer positioned at the end of the file when
	// appending, or at the start of a truncated file otherwise.
	OutputStream(append bool) (io.WriteCloser, error)
	// RemoteCopyTo asks the server to copy this file's content into dst.
	RemoteCopyTo(ctx context.Context, dst File) error
}

// AuthenticationContext carries the credentials used for session setup.
// An empty Username means anonymous authentication.
type AuthenticationContext struct {
	Username string
	Password string
	Domain   string
}

// Anonymous returns the credentials for a null session.
func Anonymous() AuthenticationContext {
	return AuthenticationContext{}
}

// IsAnonymous reports whether the context requests a null session.
func (a AuthenticationContext) IsAnonymous() bool {
	return a.Username == ""
}

// OpenParams is the full set of flags sent with an SMB2 CREATE request.
type OpenParams struct {
	AccessMask    AccessMask
	Attributes    FileAttributes
	ShareAccess   ShareAccess
	Disposition   CreateDisposition
	CreateOptions CreateOptions
}

// FileAllInformation is the subset of FILE_ALL_INFORMATION the filesystem uses.
type FileAllInformation struct {
	LastWriteTime time.Time
	EndOfFile     int64
	Attributes    FileAttributes
	Directory     bool
}

// DirectoryEntry is one row of a directory query (FILE_ID_BOTH_DIR_INFORMATION).
type DirectoryEntry struct {
	FileName      string
	Attributes    FileAttributes
	EndOfFile     int64
	LastWriteTime time.Time
}

// IsDirectory reports whether the entry carries the directory attribute.
func (e DirectoryEntry) IsDirectory() bool {
	return e.Attributes.Has(FileAttributeDirectory)
}

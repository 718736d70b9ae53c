package smbfs

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	provErrors "github.com/javi11/smbvfs/internal/errors"
	"github.com/javi11/smbvfs/internal/slogutil"
	"github.com/javi11/smbvfs/internal/smb"
	"github.com/javi11/smbvfs/internal/vfs"
)

type infoState int

const (
	infoNotFetched infoState = iota
	infoAbsent
	infoPresent
)

type fileInfo struct {
	lastModified time.Time
	directory    bool
	size         int64
}

// ensure FileObject implements vfs.FileObject
var _ vfs.FileObject = (*FileObject)(nil)

// FileObject is a node of an SMB share. Its metadata is fetched on first use and
// kept until Refresh.
type FileObject struct {
	name     vfs.FileName
	fs       *FileSystem
	template *Template
	// relPath is the share-relative, backslash separated path. It never changes.
	relPath string

	mu    sync.Mutex
	state infoState
	info  fileInfo
}

func newFileObject(name vfs.FileName, fs *FileSystem, template *Template, root vfs.FileName) *FileObject {
	return &FileObject{
		name:     name,
		fs:       fs,
		template: template,
		relPath:  relativePath(root, name),
	}
}

// relativePath strips the root URI from the node URI, switches to backslashes and
// percent-decodes, keeping the raw text when it does not decode.
func relativePath(root, name vfs.FileName) string {
	rel := strings.TrimPrefix(name.URI(), strings.TrimSuffix(root.URI(), "/"))
	rel = strings.TrimPrefix(rel, "/")
	rel = strings.ReplaceAll(rel, "/", `\`)
	return unescape(rel)
}

func (o *FileObject) Name() vfs.FileName         { return o.name }
func (o *FileObject) FileSystem() vfs.FileSystem { return o.fs }
func (o *FileObject) String() string             { return o.name.FriendlyURI() }

// RelativePath returns the share-relative path sent to the server.
func (o *FileObject) RelativePath() string { return o.relPath }

// Refresh drops the cached metadata; the next query goes to the server.
func (o *FileObject) Refresh() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state = infoNotFetched
	o.info = fileInfo{}
}

// fileInfo returns the cached metadata, fetching it first when needed. Absence is
// cached, errors are not.
func (o *FileObject) fileInfo(ctx context.Context) (fileInfo, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == infoNotFetched {
		info, found, err := o.template.FileInfo(ctx, o.relPath)
		if err != nil {
			return fileInfo{}, false, err
		}
		if !found {
			o.state = infoAbsent
		} else {
			o.state = infoPresent
			o.info = fileInfo{
				lastModified: info.LastWriteTime,
				directory:    info.Directory,
				size:         info.EndOfFile,
			}
		}
	}

	return o.info, o.state == infoPresent, nil
}

// seed fills the metadata from a listing entry of the parent folder.
func (o *FileObject) seed(entry smb.DirectoryEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state = infoPresent
	o.info = fileInfo{
		lastModified: entry.LastWriteTime,
		directory:    entry.IsDirectory(),
		size:         entry.EndOfFile,
	}
}

func (o *FileObject) Exists(ctx context.Context) (bool, error) {
	return o.template.Exists(ctx, o.relPath)
}

func (o *FileObject) Type(ctx context.Context) (vfs.FileType, error) {
	info, found, err := o.fileInfo(ctx)
	switch {
	case err != nil || !found:
		return vfs.Imaginary, err
	case info.directory:
		return vfs.Folder, nil
	default:
		return vfs.File, nil
	}
}

func (o *FileObject) Size(ctx context.Context) (int64, error) {
	info, _, err := o.fileInfo(ctx)
	return info.size, err
}

func (o *FileObject) LastModified(ctx context.Context) (time.Time, error) {
	info, _, err := o.fileInfo(ctx)
	return info.lastModified, err
}

// Children lists the folder. Each child comes back with its metadata taken from the
// listing, so querying it costs no further round trip.
func (o *FileObject) Children(ctx context.Context) ([]vfs.FileObject, error) {
	entries, err := o.template.ChildrenInfo(ctx, o.relPath)
	if err != nil {
		return nil, err
	}

	children := make([]vfs.FileObject, 0, len(entries))
	for _, entry := range entries {
		t := vfs.File
		if entry.IsDirectory() {
			t = vfs.Folder
		}

		childPath, err := vfs.ResolvePath(o.name.Path(), entry.FileName)
		if err != nil {
			return nil, err
		}
		child, err := o.fs.resolveNode(o.name.CreateName(childPath, t))
		if err != nil {
			return nil, err
		}
		child.seed(entry)
		children = append(children, child)
	}
	return children, nil
}

// Parent returns the cached parent node when there is one, and a new node otherwise.
func (o *FileObject) Parent(context.Context) (vfs.FileObject, error) {
	parentName := o.name.Parent()
	if parentName == nil {
		return nil, nil
	}
	if cached, ok := o.fs.FilesCache().Get(parentName); ok {
		return cached, nil
	}
	return newFileObject(parentName, o.fs, o.template, o.fs.RootName()), nil
}

func (o *FileObject) ResolveFile(ctx context.Context, path string, scope vfs.NameScope) (vfs.FileObject, error) {
	p, err := vfs.ResolvePath(o.name.Path(), path)
	if err != nil {
		return nil, err
	}
	name := o.name.CreateName(p, vfs.Imaginary)
	if err := vfs.CheckScope(o.name, name, scope); err != nil {
		return nil, err
	}
	return o.fs.ResolveFile(ctx, name)
}

func (o *FileObject) InputStream(ctx context.Context) (io.ReadCloser, error) {
	t, err := o.Type(ctx)
	if err != nil {
		return nil, err
	}
	if !t.HasContent() {
		return nil, provErrors.ErrReadNotFile
	}

	f, err := o.template.OpenForRead(ctx, o.relPath)
	if err != nil {
		return nil, err
	}
	return newInputStream(f), nil
}

// OutputStream opens the file for writing, creating it when missing. Without append
// the content is replaced.
func (o *FileObject) OutputStream(ctx context.Context, append bool) (io.WriteCloser, error) {
	f, err := o.template.OpenForWrite(ctx, o.relPath)
	if err != nil {
		return nil, err
	}
	o.Refresh()

	w, err := f.OutputStream(append)
	if err != nil {
		if cerr := f.Close(); cerr != nil {
			o.fs.log.DebugContext(slogutil.With(ctx, "path", o.relPath), "Failed to close handle", "err", cerr)
		}
		return nil, err
	}

	return &outputStream{stream: w, file: f, done: o.Refresh}, nil
}

// CreateFolder creates the folder and any missing ancestor. It is a no-op when the
// folder already exists.
func (o *FileObject) CreateFolder(ctx context.Context) error {
	t, err := o.Type(ctx)
	if err != nil {
		return err
	}
	switch t {
	case vfs.Folder:
		return nil
	case vfs.File:
		return fmt.Errorf("cannot create folder %s: a file with that name exists", o.name.FriendlyURI())
	}

	parent, err := o.Parent(ctx)
	if err != nil {
		return err
	}
	if parent != nil {
		if err := parent.CreateFolder(ctx); err != nil {
			return err
		}
	}

	defer o.Refresh()
	return o.template.CreateFolder(ctx, o.relPath)
}

// Delete removes the node and, for folders, everything below it. Deleting a node that
// does not exist is a no-op.
func (o *FileObject) Delete(ctx context.Context) error {
	t, err := o.Type(ctx)
	if err != nil || t == vfs.Imaginary {
		return err
	}

	defer o.fs.FilesCache().RefreshTree(o.name)
	defer o.Refresh()

	return o.template.Delete(ctx, o.relPath)
}

// MoveTo renames the node to dest. Across filesystems the tree is copied, then deleted.
func (o *FileObject) MoveTo(ctx context.Context, dest vfs.FileObject) error {
	target, ok := dest.(*FileObject)
	if !ok || target.fs != o.fs {
		if err := dest.CopyFrom(ctx, o, vfs.SelectAll); err != nil {
			return err
		}
		return o.Delete(ctx)
	}

	t, err := o.Type(ctx)
	if err != nil {
		return err
	}
	if t == vfs.Imaginary {
		return fmt.Errorf("cannot rename %s: it does not exist", o.name.FriendlyURI())
	}

	defer o.fs.FilesCache().RefreshTree(target.name)
	defer o.fs.FilesCache().RefreshTree(o.name)

	if err := o.rename(ctx, t, target.relPath); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", o.name.FriendlyURI(), target.name.FriendlyURI(), err)
	}
	return nil
}

func (o *FileObject) rename(ctx context.Context, t vfs.FileType, newPath string) (err error) {
	var entry smb.DiskEntry
	if t == vfs.Folder {
		entry, err = o.template.OpenFolderForWrite(ctx, o.relPath)
	} else {
		entry, err = o.template.OpenForWrite(ctx, o.relPath)
	}
	if err != nil {
		return err
	}
	defer closeJoin(&err, entry)

	return entry.Rename(ctx, newPath)
}

// CopyFrom copies the nodes of src picked by selector below this node. Files on the
// same filesystem are copied on the server.
func (o *FileObject) CopyFrom(ctx context.Context, src vfs.FileObject, selector vfs.FileSelector) error {
	return vfs.CopyTreeWith(ctx, o, src, selector, o.copyContent)
}

func (o *FileObject) copyContent(ctx context.Context, src, dst vfs.FileObject) error {
	s, srcOK := src.(*FileObject)
	d, dstOK := dst.(*FileObject)
	if !srcOK || !dstOK || s.fs != o.fs || d.fs != o.fs {
		return vfs.CopyContent(ctx, src, dst)
	}
	return d.serverSideCopyFrom(ctx, s)
}

func (o *FileObject) serverSideCopyFrom(ctx context.Context, src *FileObject) error {
	// Copying a file onto itself would truncate it before any chunk is read.
	if src.relPath == o.relPath {
		return nil
	}

	defer o.Refresh()

	exists, err := o.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		if err := o.template.CreateEmptyFile(ctx, o.relPath); err != nil {
			return err
		}
	}

	return o.template.ServerSideCopy(ctx, src.relPath, o.relPath)
}

// Package aferofs exposes an afero.Fs as a vfs.FileSystem. The CLI uses it for the
// local side of transfers and tests use it, over a MemMapFs, as a second filesystem.
package aferofs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/spf13/afero"

	provErrors "github.com/javi11/smbvfs/internal/errors"
	"github.com/javi11/smbvfs/internal/vfs"
)

// Scheme is the URI scheme of local filesystems.
const Scheme = "file"

// ensure FileSystem implements vfs.FileSystem
var _ vfs.FileSystem = (*FileSystem)(nil)

// FileSystem is a vfs.FileSystem over an afero.Fs rooted at "/".
type FileSystem struct {
	fs    afero.Fs
	root  vfs.FileName
	cache *vfs.FilesCache
}

// New wraps fs. name distinguishes several in-memory filesystems in URIs.
func New(fs afero.Fs, name string) *FileSystem {
	return &FileSystem{
		fs:    fs,
		root:  vfs.NewGenericName(Scheme, name, "/", vfs.Folder),
		cache: vfs.NewFilesCache(0),
	}
}

// NewOs wraps the local disk.
func NewOs() *FileSystem {
	return New(afero.NewOsFs(), "")
}

// NewMem creates an empty in-memory filesystem.
func NewMem(name string) *FileSystem {
	return New(afero.NewMemMapFs(), name)
}

// Fs returns the wrapped afero.Fs.
func (f *FileSystem) Fs() afero.Fs { return f.fs }

func (f *FileSystem) RootName() vfs.FileName      { return f.root }
func (f *FileSystem) FilesCache() *vfs.FilesCache { return f.cache }

// HasCapability reports true for every capability: afero covers them all.
func (f *FileSystem) HasCapability(vfs.Capability) bool {
	return true
}

// Resolve returns the node at an absolute path.
func (f *FileSystem) Resolve(ctx context.Context, path string) (vfs.FileObject, error) {
	p, err := vfs.NormalizePath(path)
	if err != nil {
		return nil, err
	}
	return f.ResolveFile(ctx, f.root.CreateName(p, vfs.Imaginary))
}

func (f *FileSystem) ResolveFile(_ context.Context, name vfs.FileName) (vfs.FileObject, error) {
	if cached, ok := f.cache.Get(name); ok {
		return cached, nil
	}
	return f.cache.PutIfAbsent(&FileObject{fs: f, name: name}), nil
}

// FileObject is a node of an afero filesystem. It does not cache metadata.
type FileObject struct {
	fs   *FileSystem
	name vfs.FileName
}

func (o *FileObject) Name() vfs.FileName         { return o.name }
func (o *FileObject) FileSystem() vfs.FileSystem { return o.fs }
func (o *FileObject) String() string             { return o.name.URI() }

// Refresh is a no-op: nothing is cached per node.
func (o *FileObject) Refresh() {}

func (o *FileObject) afs() afero.Fs { return o.fs.fs }
func (o *FileObject) path() string  { return o.name.Path() }

func (o *FileObject) stat(ctx context.Context) (os.FileInfo, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	info, err := o.afs().Stat(o.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return info, true, nil
}

func (o *FileObject) Exists(ctx context.Context) (bool, error) {
	t, err := o.Type(ctx)
	return t != vfs.Imaginary, err
}

func (o *FileObject) Type(ctx context.Context) (vfs.FileType, error) {
	info, found, err := o.stat(ctx)
	switch {
	case err != nil || !found:
		return vfs.Imaginary, err
	case info.IsDir():
		return vfs.Folder, nil
	default:
		return vfs.File, nil
	}
}

func (o *FileObject) Size(ctx context.Context) (int64, error) {
	info, found, err := o.stat(ctx)
	if err != nil || !found {
		return 0, err
	}
	return info.Size(), nil
}

func (o *FileObject) LastModified(ctx context.Context) (time.Time, error) {
	info, found, err := o.stat(ctx)
	if err != nil || !found {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (o *FileObject) Children(ctx context.Context) ([]vfs.FileObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(o.afs(), o.path())
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	children := make([]vfs.FileObject, 0, len(infos))
	for _, info := range infos {
		child, err := o.ResolveFile(ctx, info.Name(), vfs.ScopeChild)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func (o *FileObject) Parent(ctx context.Context) (vfs.FileObject, error) {
	parent := o.name.Parent()
	if parent == nil {
		return nil, nil
	}
	return o.fs.ResolveFile(ctx, parent)
}

func (o *FileObject) ResolveFile(ctx context.Context, path string, scope vfs.NameScope) (vfs.FileObject, error) {
	p, err := vfs.ResolvePath(o.path(), path)
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
	return o.afs().Open(o.path())
}

func (o *FileObject) OutputStream(ctx context.Context, append bool) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.afs().MkdirAll(vfs.ParentPath(o.path()), 0o755); err != nil {
		return nil, err
	}
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if append {
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	return o.afs().OpenFile(o.path(), flag, 0o644)
}

func (o *FileObject) CreateFolder(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.afs().MkdirAll(o.path(), 0o755)
}

func (o *FileObject) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.afs().RemoveAll(o.path())
}

func (o *FileObject) MoveTo(ctx context.Context, dest vfs.FileObject) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, ok := dest.(*FileObject)
	if !ok || target.fs != o.fs {
		if err := vfs.CopyTree(ctx, dest, o, vfs.SelectAll); err != nil {
			return err
		}
		return o.Delete(ctx)
	}
	return o.afs().Rename(o.path(), target.path())
}

func (o *FileObject) CopyFrom(ctx context.Context, src vfs.FileObject, selector vfs.FileSelector) error {
	return vfs.CopyTree(ctx, o, src, selector)
}

package smbfs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"

	provErrors "github.com/javi11/smbvfs/internal/errors"
	"github.com/javi11/smbvfs/internal/slogutil"
	"github.com/javi11/smbvfs/internal/smb"
)

// Template builds the composite operations of the filesystem out of share primitives.
// One Template is shared by every node of a FileSystem.
type Template struct {
	ops *shareOps
	log *slog.Logger
}

// NewTemplate creates a template whose calls go through manager.
func NewTemplate(manager *ShareManager) *Template {
	return &Template{
		ops: &shareOps{manager: manager},
		log: slog.Default().With("component", "smb-template"),
	}
}

// Exists reports whether path is a file or a folder.
func (t *Template) Exists(ctx context.Context, path string) (bool, error) {
	ok, err := t.ops.FileExists(ctx, path)
	if err != nil || ok {
		return ok, err
	}
	return t.ops.FolderExists(ctx, path)
}

// FileInfo stats path. A path that does not exist yields (nil, false, nil).
func (t *Template) FileInfo(ctx context.Context, path string) (*smb.FileAllInformation, bool, error) {
	info, err := t.ops.FileInformation(ctx, path)
	switch {
	case err == nil:
		return info, true, nil
	case smb.IsNotFound(err):
		return nil, false, nil
	case provErrors.IsProviderError(err):
		return nil, false, err
	default:
		t.log.DebugContext(slogutil.With(ctx, "path", path), "Stat failed", "err", err)
		return nil, false, provErrors.NewFileInformationError(path, err)
	}
}

// CreateFolder creates the folder path. Its parent must exist.
func (t *Template) CreateFolder(ctx context.Context, path string) error {
	return t.ops.Mkdir(ctx, path)
}

// Delete removes a file, or a folder together with its content.
func (t *Template) Delete(ctx context.Context, path string) error {
	err := t.delete(ctx, path)
	if err == nil || provErrors.IsProviderError(err) {
		return err
	}

	t.log.DebugContext(slogutil.With(ctx, "path", path), "Delete failed", "err", err)
	return provErrors.NewDeleteError(path, err)
}

func (t *Template) delete(ctx context.Context, path string) error {
	info, found, err := t.FileInfo(ctx, path)
	if err != nil {
		return err
	}
	if !found {
		return smb.NewStatusError("delete", path, smb.StatusObjectNameNotFound)
	}

	if info.Directory {
		return t.ops.Rmdir(ctx, path, true)
	}
	return t.ops.Rm(ctx, path)
}

// ServerSideCopy copies the content of source into destination without the data
// leaving the server. destination must exist.
func (t *Template) ServerSideCopy(ctx context.Context, source, destination string) (err error) {
	defer func() {
		if err != nil {
			t.log.DebugContext(slogutil.With(ctx, "source", source, "destination", destination), "Server-side copy failed", "err", err)
			err = provErrors.NewRemoteCopyError(source, destination, err)
		}
	}()

	src, err := t.ops.OpenFile(ctx, source, copySourceProfile())
	if err != nil {
		return err
	}
	defer closeJoin(&err, src)

	dst, err := t.ops.OpenFile(ctx, destination, copyDestinationProfile())
	if err != nil {
		return err
	}
	defer closeJoin(&err, dst)

	return src.RemoteCopyTo(ctx, dst)
}

// ChildrenInfo lists path, leaving out the self and parent entries.
func (t *Template) ChildrenInfo(ctx context.Context, path string) ([]smb.DirectoryEntry, error) {
	entries, err := t.ops.List(ctx, path)
	if err != nil {
		return nil, err
	}

	children := make([]smb.DirectoryEntry, 0, len(entries))
	for _, e := range entries {
		if isSyntheticEntry(e.FileName) {
			continue
		}
		children = append(children, e)
	}
	return slices.Clip(children), nil
}

// OpenForRead opens an existing file for reading.
func (t *Template) OpenForRead(ctx context.Context, path string) (smb.File, error) {
	return t.ops.OpenFile(ctx, path, readProfile())
}

// OpenForWrite opens a file for writing, creating it when missing.
func (t *Template) OpenForWrite(ctx context.Context, path string) (smb.File, error) {
	return t.ops.OpenFile(ctx, path, writeProfile())
}

// OpenFolderForWrite opens a folder with full access, creating it when missing.
func (t *Template) OpenFolderForWrite(ctx context.Context, path string) (smb.Directory, error) {
	return t.ops.OpenDirectory(ctx, path, folderForWriteProfile())
}

// CreateEmptyFile creates path as an empty file when it does not exist.
func (t *Template) CreateEmptyFile(ctx context.Context, path string) error {
	f, err := t.OpenForWrite(ctx, path)
	if err != nil {
		return err
	}
	return f.Close()
}

func isSyntheticEntry(name string) bool {
	switch name {
	case ".", "..", "./", "../":
		return true
	}
	return false
}

// closeJoin closes c and adds its failure to *err.
func closeJoin(err *error, c io.Closer) {
	if cerr := c.Close(); cerr != nil {
		*err = errors.Join(*err, cerr)
	}
}

func readProfile() smb.OpenParams {
	return smb.OpenParams{
		AccessMask:    smb.GenericRead,
		Attributes:    smb.FileAttributeNormal,
		ShareAccess:   smb.FileShareWrite,
		Disposition:   smb.FileOpen,
		CreateOptions: smb.FileNonDirectoryFile | smb.FileNoCompression,
	}
}

func writeProfile() smb.OpenParams {
	return smb.OpenParams{
		AccessMask:    smb.GenericWrite,
		Attributes:    smb.FileAttributeNormal,
		ShareAccess:   smb.FileShareWrite,
		Disposition:   smb.FileOpenIf,
		CreateOptions: smb.FileNonDirectoryFile | smb.FileNoCompression,
	}
}

func folderForWriteProfile() smb.OpenParams {
	return smb.OpenParams{
		AccessMask:    smb.GenericAll,
		Attributes:    smb.FileAttributeNormal,
		ShareAccess:   smb.FileShareRead,
		Disposition:   smb.FileOpenIf,
		CreateOptions: smb.FileDirectoryFile,
	}
}

// The copy profiles follow the server's naming of the two copy handles rather than
// the direction the data moves in.
func copySourceProfile() smb.OpenParams {
	return smb.OpenParams{
		AccessMask:    smb.GenericWrite,
		Attributes:    smb.FileAttributeNormal,
		ShareAccess:   smb.FileShareWrite,
		Disposition:   smb.FileOpenIf,
		CreateOptions: smb.FileNonDirectoryFile,
	}
}

func copyDestinationProfile() smb.OpenParams {
	return smb.OpenParams{
		AccessMask:    smb.GenericRead,
		Attributes:    smb.FileAttributeNormal,
		ShareAccess:   smb.FileShareRead,
		Disposition:   smb.FileOpen,
		CreateOptions: smb.FileNonDirectoryFile,
	}
}

package vfs

import (
	"context"
	"errors"
	"io"

	provErrors "github.com/javi11/smbvfs/internal/errors"
)

const copyBufferSize = 32 * 1024

// CopyContent streams the content of src into dst, replacing dst's content.
func CopyContent(ctx context.Context, src, dst FileObject) (err error) {
	in, err := src.InputStream(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, in.Close())
	}()

	out, err := dst.OutputStream(ctx, false)
	if err != nil {
		return err
	}

	_, copyErr := copyWithContext(ctx, out, in)
	return errors.Join(copyErr, out.Close())
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyBufferSize)

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			written, werr := dst.Write(buf[:n])
			total += int64(written)
			if werr != nil {
				return total, werr
			}
			if written != n {
				return total, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

// CopyFunc copies the content of one file node into another.
type CopyFunc func(ctx context.Context, src, dst FileObject) error

// CopyTree copies the nodes of src selected by selector below dst, streaming content
// through the caller. Providers without a native copy use it for CopyFrom.
func CopyTree(ctx context.Context, dst, src FileObject, selector FileSelector) error {
	return CopyTreeWith(ctx, dst, src, selector, CopyContent)
}

// CopyTreeWith is CopyTree with content copied by copyFile. The walk is driven by
// FindFiles and Visit: a failing entry is reported as a CopyFileError naming both
// nodes, and the selector decides whether the remaining entries are attempted.
func CopyTreeWith(ctx context.Context, dst, src FileObject, selector FileSelector, copyFile CopyFunc) error {
	exists, err := src.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return provErrors.NewMissingSourceFileError(src.Name().FriendlyURI())
	}

	files, err := FindFiles(ctx, src, selector, false)
	if err != nil {
		return err
	}

	return Visit(ctx, files, selector, func(srcFile FileObject) error {
		rel, err := RelativeName(src.Name(), srcFile.Name())
		if err != nil {
			return err
		}
		destFile, err := dst.ResolveFile(ctx, rel, ScopeDescendantOrSelf)
		if err != nil {
			return err
		}

		if err := copyEntry(ctx, srcFile, destFile, copyFile); err != nil {
			return provErrors.NewCopyFileError(srcFile.Name().FriendlyURI(), destFile.Name().FriendlyURI(), err)
		}
		return nil
	})
}

func copyEntry(ctx context.Context, srcFile, destFile FileObject, copyFile CopyFunc) error {
	srcType, err := srcFile.Type(ctx)
	if err != nil {
		return err
	}

	if err := DeleteIfTypeDiffers(ctx, destFile, srcType); err != nil {
		return err
	}

	switch {
	case srcType.HasContent():
		return copyFile(ctx, srcFile, destFile)
	case srcType.HasChildren():
		return destFile.CreateFolder(ctx)
	}
	return nil
}

// DeleteIfTypeDiffers removes dest when it exists with a type other than want.
func DeleteIfTypeDiffers(ctx context.Context, dest FileObject, want FileType) error {
	exists, err := dest.Exists(ctx)
	if err != nil || !exists {
		return err
	}
	t, err := dest.Type(ctx)
	if err != nil {
		return err
	}
	if t != want {
		return dest.Delete(ctx)
	}
	return nil
}

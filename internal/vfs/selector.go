package vfs

import (
	"context"
	"errors"
)

// FileSelectInfo describes the node a selector is asked about.
type FileSelectInfo struct {
	Base  FileObject
	File  FileObject
	Depth int
}

// FileSelector decides which nodes of a tree walk are selected.
type FileSelector interface {
	IncludeFile(ctx context.Context, info FileSelectInfo) (bool, error)
	TraverseDescendants(ctx context.Context, info FileSelectInfo) (bool, error)
}

// DepthSelector selects nodes whose depth lies in [MinDepth, MaxDepth].
// A negative MaxDepth means unbounded.
type DepthSelector struct {
	MinDepth int
	MaxDepth int
}

func (s DepthSelector) IncludeFile(_ context.Context, info FileSelectInfo) (bool, error) {
	return info.Depth >= s.MinDepth && (s.MaxDepth < 0 || info.Depth <= s.MaxDepth), nil
}

func (s DepthSelector) TraverseDescendants(_ context.Context, info FileSelectInfo) (bool, error) {
	return s.MaxDepth < 0 || info.Depth < s.MaxDepth, nil
}

// TypeSelector selects every node of one type, at any depth.
type TypeSelector struct {
	Type FileType
}

func (s TypeSelector) IncludeFile(ctx context.Context, info FileSelectInfo) (bool, error) {
	t, err := info.File.Type(ctx)
	if err != nil {
		return false, err
	}
	return t == s.Type, nil
}

func (TypeSelector) TraverseDescendants(context.Context, FileSelectInfo) (bool, error) {
	return true, nil
}

var (
	SelectAll             FileSelector = DepthSelector{MinDepth: 0, MaxDepth: -1}
	SelectSelf            FileSelector = DepthSelector{MinDepth: 0, MaxDepth: 0}
	SelectChildren        FileSelector = DepthSelector{MinDepth: 1, MaxDepth: 1}
	SelectSelfAndChildren FileSelector = DepthSelector{MinDepth: 0, MaxDepth: 1}
	SelectFiles           FileSelector = TypeSelector{Type: File}
	SelectFolders         FileSelector = TypeSelector{Type: Folder}
)

type continueOnError struct {
	FileSelector
}

func (continueOnError) ContinueOnError() bool { return true }

// ContinueOnError wraps s so that tree operations driven by it keep processing the
// remaining nodes after one of them fails.
func ContinueOnError(s FileSelector) FileSelector {
	return continueOnError{FileSelector: s}
}

func continuesOnError(s FileSelector) bool {
	c, ok := s.(interface{ ContinueOnError() bool })
	return ok && c.ContinueOnError()
}

// FindFiles walks the tree rooted at base and returns the selected nodes. Parents come
// before their children unless depthwise is set, in which case children come first.
func FindFiles(ctx context.Context, base FileObject, selector FileSelector, depthwise bool) ([]FileObject, error) {
	var selected []FileObject
	info := FileSelectInfo{Base: base, File: base}
	if err := traverse(ctx, info, selector, depthwise, &selected); err != nil {
		return nil, err
	}
	return selected, nil
}

func traverse(ctx context.Context, info FileSelectInfo, selector FileSelector, depthwise bool, selected *[]FileObject) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	index := len(*selected)

	t, err := info.File.Type(ctx)
	if err != nil {
		return err
	}

	if t.HasChildren() {
		descend, err := selector.TraverseDescendants(ctx, info)
		if err != nil {
			return err
		}
		if descend {
			children, err := info.File.Children(ctx)
			if err != nil {
				return err
			}
			for _, child := range children {
				next := FileSelectInfo{Base: info.Base, File: child, Depth: info.Depth + 1}
				if err := traverse(ctx, next, selector, depthwise, selected); err != nil {
					return err
				}
			}
		}
	}

	include, err := selector.IncludeFile(ctx, info)
	if err != nil {
		return err
	}
	if include {
		if depthwise {
			*selected = append(*selected, info.File)
		} else {
			*selected = append(*selected, nil)
			copy((*selected)[index+1:], (*selected)[index:])
			(*selected)[index] = info.File
		}
	}

	return nil
}

// Visit calls fn for each node. It stops at the first failure unless selector was
// wrapped with ContinueOnError, in which case every failure is collected.
func Visit(ctx context.Context, files []FileObject, selector FileSelector, fn func(FileObject) error) error {
	keepGoing := continuesOnError(selector)

	var errs []error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := fn(f); err != nil {
			if !keepGoing {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

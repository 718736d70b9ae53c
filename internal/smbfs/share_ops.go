package smbfs

import (
	"context"

	"github.com/javi11/smbvfs/internal/smb"
)

// shareOps routes every primitive through the ShareManager so that a disconnect
// anywhere is repaired by the next call. Errors are returned unchanged.
type shareOps struct {
	manager *ShareManager
}

func (s *shareOps) Mkdir(ctx context.Context, path string) error {
	share, err := s.manager.Share(ctx)
	if err != nil {
		return err
	}
	return share.Mkdir(ctx, path)
}

func (s *shareOps) FileInformation(ctx context.Context, path string) (*smb.FileAllInformation, error) {
	share, err := s.manager.Share(ctx)
	if err != nil {
		return nil, err
	}
	return share.FileInformation(ctx, path)
}

func (s *shareOps) OpenFile(ctx context.Context, path string, params smb.OpenParams) (smb.File, error) {
	share, err := s.manager.Share(ctx)
	if err != nil {
		return nil, err
	}
	return share.OpenFile(ctx, path, params)
}

func (s *shareOps) OpenDirectory(ctx context.Context, path string, params smb.OpenParams) (smb.Directory, error) {
	share, err := s.manager.Share(ctx)
	if err != nil {
		return nil, err
	}
	return share.OpenDirectory(ctx, path, params)
}

func (s *shareOps) List(ctx context.Context, path string) ([]smb.DirectoryEntry, error) {
	share, err := s.manager.Share(ctx)
	if err != nil {
		return nil, err
	}
	return share.List(ctx, path)
}

func (s *shareOps) Rm(ctx context.Context, path string) error {
	share, err := s.manager.Share(ctx)
	if err != nil {
		return err
	}
	return share.Rm(ctx, path)
}

func (s *shareOps) Rmdir(ctx context.Context, path string, recursive bool) error {
	share, err := s.manager.Share(ctx)
	if err != nil {
		return err
	}
	return share.Rmdir(ctx, path, recursive)
}

func (s *shareOps) FileExists(ctx context.Context, path string) (bool, error) {
	share, err := s.manager.Share(ctx)
	if err != nil {
		return false, err
	}
	return share.FileExists(ctx, path)
}

func (s *shareOps) FolderExists(ctx context.Context, path string) (bool, error) {
	share, err := s.manager.Share(ctx)
	if err != nil {
		return false, err
	}
	return share.FolderExists(ctx, path)
}

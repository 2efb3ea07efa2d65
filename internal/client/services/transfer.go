package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/vaultshare/internal/client/client"
	"github.com/dmitrijs2005/vaultshare/internal/filex"
	"github.com/dmitrijs2005/vaultshare/internal/rpc"
)

// TransferService moves files between the local disk and the vault.
type TransferService interface {
	// Upload sends the file at path. An empty password leaves it unprotected.
	Upload(ctx context.Context, path, password string) (*rpc.FileInfo, error)
	// Download fetches a file and writes it under the download directory
	// without overwriting anything. It returns the written path.
	Download(ctx context.Context, req *rpc.DownloadFileRequest) (string, error)
}

type transferService struct {
	client      client.Client
	downloadDir string
}

func NewTransferService(c client.Client, downloadDir string) TransferService {
	return &transferService{client: c, downloadDir: downloadDir}
}

func (s *transferService) Upload(ctx context.Context, path, password string) (*rpc.FileInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	info, err := s.client.UploadFile(ctx, &rpc.UploadFileRequest{
		Name:     filepath.Base(path),
		Password: password,
		Data:     data,
	})
	if err != nil {
		return nil, fmt.Errorf("upload error: %w", err)
	}
	return info, nil
}

func (s *transferService) Download(ctx context.Context, req *rpc.DownloadFileRequest) (string, error) {
	resp, err := s.client.DownloadFile(ctx, req)
	if err != nil {
		return "", fmt.Errorf("download error: %w", err)
	}

	dir, err := filex.EnsureDir(s.downloadDir)
	if err != nil {
		return "", err
	}
	path, err := filex.UniquePath(dir, resp.Name)
	if err != nil {
		return "", err
	}
	if err := filex.WriteNew(path, resp.Data); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

package client

import (
	"context"

	"github.com/dmitrijs2005/vaultshare/internal/rpc"
)

// Client is the CLI's view of the vault API.
type Client interface {
	Close() error
	SetAccessToken(token string)

	UploadFile(ctx context.Context, req *rpc.UploadFileRequest) (*rpc.FileInfo, error)
	DownloadFile(ctx context.Context, req *rpc.DownloadFileRequest) (*rpc.DownloadFileResponse, error)
	ListFiles(ctx context.Context) ([]rpc.FileInfo, error)
	DeleteFile(ctx context.Context, fileID string) error

	CreateShareGroup(ctx context.Context, req *rpc.CreateShareGroupRequest) (*rpc.CreateShareGroupResponse, error)
	ListShareGroups(ctx context.Context) ([]rpc.ShareGroupInfo, error)
	DeleteShareGroup(ctx context.Context, id string) error
	ListSharedFiles(ctx context.Context, linkToken, password string) (*rpc.ListSharedFilesResponse, error)
	VerifySharePassword(ctx context.Context, linkToken, password string) (bool, error)

	SetPassword(ctx context.Context, target rpc.PasswordTarget, password string) error
	ChangePassword(ctx context.Context, target rpc.PasswordTarget, oldPassword, newPassword string) error
	DeletePassword(ctx context.Context, target rpc.PasswordTarget) error
	BeginPasswordReset(ctx context.Context, target rpc.PasswordTarget, newPassword string) (string, error)
	CompletePasswordReset(ctx context.Context, operationToken, code string) (rpc.PasswordTarget, error)

	EnrollStepUp(ctx context.Context) (*rpc.EnrollStepUpResponse, error)
	ConfirmStepUp(ctx context.Context, code string) error
	RotateKey(ctx context.Context, code string) (string, error)
	RevokeKey(ctx context.Context, keyID, code string) error
	ListKeys(ctx context.Context) ([]rpc.KeyInfo, error)
}

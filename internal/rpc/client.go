package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// VaultClient is a typed client for vaultshare.Vault. Every call uses the
// JSON codec.
type VaultClient struct {
	cc grpc.ClientConnInterface
}

func NewVaultClient(cc grpc.ClientConnInterface) *VaultClient {
	return &VaultClient{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *VaultClient) UploadFile(ctx context.Context, in *UploadFileRequest, opts ...grpc.CallOption) (*UploadFileResponse, error) {
	return invoke[UploadFileRequest, UploadFileResponse](ctx, c.cc, MethodUploadFile, in, opts)
}

func (c *VaultClient) DownloadFile(ctx context.Context, in *DownloadFileRequest, opts ...grpc.CallOption) (*DownloadFileResponse, error) {
	return invoke[DownloadFileRequest, DownloadFileResponse](ctx, c.cc, MethodDownloadFile, in, opts)
}

func (c *VaultClient) ListFiles(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListFilesResponse, error) {
	return invoke[Empty, ListFilesResponse](ctx, c.cc, MethodListFiles, in, opts)
}

func (c *VaultClient) DeleteFile(ctx context.Context, in *DeleteFileRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[DeleteFileRequest, Empty](ctx, c.cc, MethodDeleteFile, in, opts)
}

func (c *VaultClient) CreateShareGroup(ctx context.Context, in *CreateShareGroupRequest, opts ...grpc.CallOption) (*CreateShareGroupResponse, error) {
	return invoke[CreateShareGroupRequest, CreateShareGroupResponse](ctx, c.cc, MethodCreateShareGroup, in, opts)
}

func (c *VaultClient) ListShareGroups(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListShareGroupsResponse, error) {
	return invoke[Empty, ListShareGroupsResponse](ctx, c.cc, MethodListShareGroups, in, opts)
}

func (c *VaultClient) DeleteShareGroup(ctx context.Context, in *DeleteShareGroupRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[DeleteShareGroupRequest, Empty](ctx, c.cc, MethodDeleteShareGroup, in, opts)
}

func (c *VaultClient) ListSharedFiles(ctx context.Context, in *ListSharedFilesRequest, opts ...grpc.CallOption) (*ListSharedFilesResponse, error) {
	return invoke[ListSharedFilesRequest, ListSharedFilesResponse](ctx, c.cc, MethodListSharedFiles, in, opts)
}

func (c *VaultClient) VerifySharePassword(ctx context.Context, in *VerifySharePasswordRequest, opts ...grpc.CallOption) (*VerifySharePasswordResponse, error) {
	return invoke[VerifySharePasswordRequest, VerifySharePasswordResponse](ctx, c.cc, MethodVerifySharePassword, in, opts)
}

func (c *VaultClient) SetPassword(ctx context.Context, in *SetPasswordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[SetPasswordRequest, Empty](ctx, c.cc, MethodSetPassword, in, opts)
}

func (c *VaultClient) ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[ChangePasswordRequest, Empty](ctx, c.cc, MethodChangePassword, in, opts)
}

func (c *VaultClient) DeletePassword(ctx context.Context, in *DeletePasswordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[DeletePasswordRequest, Empty](ctx, c.cc, MethodDeletePassword, in, opts)
}

func (c *VaultClient) BeginPasswordReset(ctx context.Context, in *BeginPasswordResetRequest, opts ...grpc.CallOption) (*BeginPasswordResetResponse, error) {
	return invoke[BeginPasswordResetRequest, BeginPasswordResetResponse](ctx, c.cc, MethodBeginPasswordReset, in, opts)
}

func (c *VaultClient) CompletePasswordReset(ctx context.Context, in *CompletePasswordResetRequest, opts ...grpc.CallOption) (*CompletePasswordResetResponse, error) {
	return invoke[CompletePasswordResetRequest, CompletePasswordResetResponse](ctx, c.cc, MethodCompletePasswordReset, in, opts)
}

func (c *VaultClient) EnrollStepUp(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*EnrollStepUpResponse, error) {
	return invoke[Empty, EnrollStepUpResponse](ctx, c.cc, MethodEnrollStepUp, in, opts)
}

func (c *VaultClient) ConfirmStepUp(ctx context.Context, in *ConfirmStepUpRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[ConfirmStepUpRequest, Empty](ctx, c.cc, MethodConfirmStepUp, in, opts)
}

func (c *VaultClient) RotateKey(ctx context.Context, in *RotateKeyRequest, opts ...grpc.CallOption) (*RotateKeyResponse, error) {
	return invoke[RotateKeyRequest, RotateKeyResponse](ctx, c.cc, MethodRotateKey, in, opts)
}

func (c *VaultClient) RevokeKey(ctx context.Context, in *RevokeKeyRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[RevokeKeyRequest, Empty](ctx, c.cc, MethodRevokeKey, in, opts)
}

func (c *VaultClient) ListKeys(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListKeysResponse, error) {
	return invoke[Empty, ListKeysResponse](ctx, c.cc, MethodListKeys, in, opts)
}

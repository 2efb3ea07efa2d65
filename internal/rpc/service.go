package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "vaultshare.Vault"

// Full method names, as seen by interceptors.
const (
	MethodUploadFile            = "/" + ServiceName + "/UploadFile"
	MethodDownloadFile          = "/" + ServiceName + "/DownloadFile"
	MethodListFiles             = "/" + ServiceName + "/ListFiles"
	MethodDeleteFile            = "/" + ServiceName + "/DeleteFile"
	MethodCreateShareGroup      = "/" + ServiceName + "/CreateShareGroup"
	MethodListShareGroups       = "/" + ServiceName + "/ListShareGroups"
	MethodDeleteShareGroup      = "/" + ServiceName + "/DeleteShareGroup"
	MethodListSharedFiles       = "/" + ServiceName + "/ListSharedFiles"
	MethodVerifySharePassword   = "/" + ServiceName + "/VerifySharePassword"
	MethodSetPassword           = "/" + ServiceName + "/SetPassword"
	MethodChangePassword        = "/" + ServiceName + "/ChangePassword"
	MethodDeletePassword        = "/" + ServiceName + "/DeletePassword"
	MethodBeginPasswordReset    = "/" + ServiceName + "/BeginPasswordReset"
	MethodCompletePasswordReset = "/" + ServiceName + "/CompletePasswordReset"
	MethodEnrollStepUp          = "/" + ServiceName + "/EnrollStepUp"
	MethodConfirmStepUp         = "/" + ServiceName + "/ConfirmStepUp"
	MethodRotateKey             = "/" + ServiceName + "/RotateKey"
	MethodRevokeKey             = "/" + ServiceName + "/RevokeKey"
	MethodListKeys              = "/" + ServiceName + "/ListKeys"
)

// VaultServer is the server API of the vaultshare service.
type VaultServer interface {
	UploadFile(context.Context, *UploadFileRequest) (*UploadFileResponse, error)
	DownloadFile(context.Context, *DownloadFileRequest) (*DownloadFileResponse, error)
	ListFiles(context.Context, *Empty) (*ListFilesResponse, error)
	DeleteFile(context.Context, *DeleteFileRequest) (*Empty, error)

	CreateShareGroup(context.Context, *CreateShareGroupRequest) (*CreateShareGroupResponse, error)
	ListShareGroups(context.Context, *Empty) (*ListShareGroupsResponse, error)
	DeleteShareGroup(context.Context, *DeleteShareGroupRequest) (*Empty, error)
	ListSharedFiles(context.Context, *ListSharedFilesRequest) (*ListSharedFilesResponse, error)
	VerifySharePassword(context.Context, *VerifySharePasswordRequest) (*VerifySharePasswordResponse, error)

	SetPassword(context.Context, *SetPasswordRequest) (*Empty, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*Empty, error)
	DeletePassword(context.Context, *DeletePasswordRequest) (*Empty, error)
	BeginPasswordReset(context.Context, *BeginPasswordResetRequest) (*BeginPasswordResetResponse, error)
	CompletePasswordReset(context.Context, *CompletePasswordResetRequest) (*CompletePasswordResetResponse, error)

	EnrollStepUp(context.Context, *Empty) (*EnrollStepUpResponse, error)
	ConfirmStepUp(context.Context, *ConfirmStepUpRequest) (*Empty, error)

	RotateKey(context.Context, *RotateKeyRequest) (*RotateKeyResponse, error)
	RevokeKey(context.Context, *RevokeKeyRequest) (*Empty, error)
	ListKeys(context.Context, *Empty) (*ListKeysResponse, error)
}

// unary adapts a typed VaultServer method to grpc.MethodHandler, the way
// generated stubs do.
func unary[Req, Resp any](fullMethod string, call func(VaultServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(VaultServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(VaultServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the vaultshare.Vault service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VaultServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "UploadFile", Handler: unary(MethodUploadFile, VaultServer.UploadFile)},
		{MethodName: "DownloadFile", Handler: unary(MethodDownloadFile, VaultServer.DownloadFile)},
		{MethodName: "ListFiles", Handler: unary(MethodListFiles, VaultServer.ListFiles)},
		{MethodName: "DeleteFile", Handler: unary(MethodDeleteFile, VaultServer.DeleteFile)},
		{MethodName: "CreateShareGroup", Handler: unary(MethodCreateShareGroup, VaultServer.CreateShareGroup)},
		{MethodName: "ListShareGroups", Handler: unary(MethodListShareGroups, VaultServer.ListShareGroups)},
		{MethodName: "DeleteShareGroup", Handler: unary(MethodDeleteShareGroup, VaultServer.DeleteShareGroup)},
		{MethodName: "ListSharedFiles", Handler: unary(MethodListSharedFiles, VaultServer.ListSharedFiles)},
		{MethodName: "VerifySharePassword", Handler: unary(MethodVerifySharePassword, VaultServer.VerifySharePassword)},
		{MethodName: "SetPassword", Handler: unary(MethodSetPassword, VaultServer.SetPassword)},
		{MethodName: "ChangePassword", Handler: unary(MethodChangePassword, VaultServer.ChangePassword)},
		{MethodName: "DeletePassword", Handler: unary(MethodDeletePassword, VaultServer.DeletePassword)},
		{MethodName: "BeginPasswordReset", Handler: unary(MethodBeginPasswordReset, VaultServer.BeginPasswordReset)},
		{MethodName: "CompletePasswordReset", Handler: unary(MethodCompletePasswordReset, VaultServer.CompletePasswordReset)},
		{MethodName: "EnrollStepUp", Handler: unary(MethodEnrollStepUp, VaultServer.EnrollStepUp)},
		{MethodName: "ConfirmStepUp", Handler: unary(MethodConfirmStepUp, VaultServer.ConfirmStepUp)},
		{MethodName: "RotateKey", Handler: unary(MethodRotateKey, VaultServer.RotateKey)},
		{MethodName: "RevokeKey", Handler: unary(MethodRevokeKey, VaultServer.RevokeKey)},
		{MethodName: "ListKeys", Handler: unary(MethodListKeys, VaultServer.ListKeys)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vaultshare.json",
}

func RegisterVaultServer(s grpc.ServiceRegistrar, srv VaultServer) {
	s.RegisterService(&ServiceDesc, srv)
}

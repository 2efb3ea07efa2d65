package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/rpc"
)

type GRPCClient struct {
	endpointURL string
	dialOptions []grpc.DialOption
	conn        *grpc.ClientConn
	client      *rpc.VaultClient

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the current access token, if any. Calls
// made without a token reach only the public methods.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewVaultClientService dials endpointURL. Extra options are appended to
// the defaults (insecure transport, token interceptor).
func NewVaultClientService(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, dialOptions: opts}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, s.dialOptions...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewVaultClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) UploadFile(ctx context.Context, req *rpc.UploadFileRequest) (*rpc.FileInfo, error) {
	resp, err := s.client.UploadFile(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.File, nil
}

func (s *GRPCClient) DownloadFile(ctx context.Context, req *rpc.DownloadFileRequest) (*rpc.DownloadFileResponse, error) {
	resp, err := s.client.DownloadFile(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ListFiles(ctx context.Context) ([]rpc.FileInfo, error) {
	resp, err := s.client.ListFiles(ctx, &rpc.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Files, nil
}

func (s *GRPCClient) DeleteFile(ctx context.Context, fileID string) error {
	_, err := s.client.DeleteFile(ctx, &rpc.DeleteFileRequest{FileID: fileID})
	return s.mapError(err)
}

func (s *GRPCClient) CreateShareGroup(ctx context.Context, req *rpc.CreateShareGroupRequest) (*rpc.CreateShareGroupResponse, error) {
	resp, err := s.client.CreateShareGroup(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ListShareGroups(ctx context.Context) ([]rpc.ShareGroupInfo, error) {
	resp, err := s.client.ListShareGroups(ctx, &rpc.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Groups, nil
}

func (s *GRPCClient) DeleteShareGroup(ctx context.Context, id string) error {
	_, err := s.client.DeleteShareGroup(ctx, &rpc.DeleteShareGroupRequest{ID: id})
	return s.mapError(err)
}

func (s *GRPCClient) ListSharedFiles(ctx context.Context, linkToken, password string) (*rpc.ListSharedFilesResponse, error) {
	resp, err := s.client.ListSharedFiles(ctx, &rpc.ListSharedFilesRequest{LinkToken: linkToken, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) VerifySharePassword(ctx context.Context, linkToken, password string) (bool, error) {
	resp, err := s.client.VerifySharePassword(ctx, &rpc.VerifySharePasswordRequest{LinkToken: linkToken, Password: password})
	if err != nil {
		return false, s.mapError(err)
	}
	return resp.Valid, nil
}

func (s *GRPCClient) SetPassword(ctx context.Context, target rpc.PasswordTarget, password string) error {
	_, err := s.client.SetPassword(ctx, &rpc.SetPasswordRequest{Target: target, Password: password})
	return s.mapError(err)
}

func (s *GRPCClient) ChangePassword(ctx context.Context, target rpc.PasswordTarget, oldPassword, newPassword string) error {
	_, err := s.client.ChangePassword(ctx, &rpc.ChangePasswordRequest{Target: target, OldPassword: oldPassword, NewPassword: newPassword})
	return s.mapError(err)
}

func (s *GRPCClient) DeletePassword(ctx context.Context, target rpc.PasswordTarget) error {
	_, err := s.client.DeletePassword(ctx, &rpc.DeletePasswordRequest{Target: target})
	return s.mapError(err)
}

func (s *GRPCClient) BeginPasswordReset(ctx context.Context, target rpc.PasswordTarget, newPassword string) (string, error) {
	resp, err := s.client.BeginPasswordReset(ctx, &rpc.BeginPasswordResetRequest{Target: target, NewPassword: newPassword})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.OperationToken, nil
}

func (s *GRPCClient) CompletePasswordReset(ctx context.Context, operationToken, code string) (rpc.PasswordTarget, error) {
	resp, err := s.client.CompletePasswordReset(ctx, &rpc.CompletePasswordResetRequest{OperationToken: operationToken, Code: code})
	if err != nil {
		return rpc.PasswordTarget{}, s.mapError(err)
	}
	return resp.Target, nil
}

func (s *GRPCClient) EnrollStepUp(ctx context.Context) (*rpc.EnrollStepUpResponse, error) {
	resp, err := s.client.EnrollStepUp(ctx, &rpc.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ConfirmStepUp(ctx context.Context, code string) error {
	_, err := s.client.ConfirmStepUp(ctx, &rpc.ConfirmStepUpRequest{Code: code})
	return s.mapError(err)
}

func (s *GRPCClient) RotateKey(ctx context.Context, code string) (string, error) {
	resp, err := s.client.RotateKey(ctx, &rpc.RotateKeyRequest{Code: code})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.KeyID, nil
}

func (s *GRPCClient) RevokeKey(ctx context.Context, keyID, code string) error {
	_, err := s.client.RevokeKey(ctx, &rpc.RevokeKeyRequest{KeyID: keyID, Code: code})
	return s.mapError(err)
}

func (s *GRPCClient) ListKeys(ctx context.Context) ([]rpc.KeyInfo, error) {
	resp, err := s.client.ListKeys(ctx, &rpc.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Keys, nil
}

// mapError turns a gRPC status back into the sentinel the server started
// from, keeping the status message as context.
func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}

	msg := st.Message()
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return wrapRemote(ErrUnavailable, msg)
	case codes.Unauthenticated:
		switch msg {
		case common.ErrPasswordRequired.Error():
			return common.ErrPasswordRequired
		case common.ErrTokenExpired.Error():
			return fmt.Errorf("%w: %w", ErrUnauthorized, common.ErrTokenExpired)
		}
		return wrapRemote(ErrUnauthorized, msg)
	case codes.PermissionDenied:
		switch msg {
		case common.ErrIncorrectPassword.Error():
			return common.ErrIncorrectPassword
		case common.ErrStepUpNotEnrolled.Error():
			return fmt.Errorf("%w: %w", common.ErrStepUpDenied, common.ErrStepUpNotEnrolled)
		case common.ErrStepUpReplayed.Error():
			return fmt.Errorf("%w: %w", common.ErrStepUpDenied, common.ErrStepUpReplayed)
		case common.ErrStepUpInvalidCode.Error():
			return fmt.Errorf("%w: %w", common.ErrStepUpDenied, common.ErrStepUpInvalidCode)
		}
		return wrapRemote(ErrUnauthorized, msg)
	case codes.NotFound:
		return common.ErrNotFound
	case codes.FailedPrecondition:
		switch msg {
		case common.ErrExpired.Error():
			return common.ErrExpired
		case common.ErrInvalidKey.Error():
			return common.ErrInvalidKey
		}
		return wrapRemote(common.ErrValidation, msg)
	case codes.InvalidArgument:
		return wrapRemote(common.ErrValidation, msg)
	case codes.AlreadyExists:
		return common.ErrorAlreadyExists
	case codes.Aborted:
		return wrapRemote(common.ErrVersionConflict, msg)
	case codes.DataLoss:
		return common.ErrCorruptedData
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

// wrapRemote wraps sentinel with msg, dropping a leading copy of the
// sentinel's own text that the server already put there.
func wrapRemote(sentinel error, msg string) error {
	prefix := sentinel.Error()
	switch {
	case msg == "" || msg == prefix:
		return sentinel
	case strings.HasPrefix(msg, prefix+": "):
		return fmt.Errorf("%w: %s", sentinel, strings.TrimPrefix(msg, prefix+": "))
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

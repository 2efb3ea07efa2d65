// Package grpc exposes the vaultshare services over gRPC with the JSON codec
// from internal/rpc.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/vaultshare/internal/logging"
	"github.com/dmitrijs2005/vaultshare/internal/rpc"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
	"github.com/dmitrijs2005/vaultshare/internal/server/services"
)

type FileService interface {
	Upload(ctx context.Context, req services.UploadRequest) (*models.EncryptedFile, error)
	Download(ctx context.Context, req services.DownloadRequest) (*services.DownloadResult, error)
	ListFiles(ctx context.Context, ownerID string) ([]*models.EncryptedFile, error)
	DeleteFile(ctx context.Context, ownerID, fileID string) error
}

type ShareService interface {
	CreateShareGroup(ctx context.Context, req services.CreateShareRequest) (*models.ShareGroup, error)
	ListShareGroups(ctx context.Context, ownerID string) ([]*models.ShareGroup, error)
	DeleteShareGroup(ctx context.Context, ownerID, id string) error
	ListSharedFiles(ctx context.Context, req services.AccessRequest) (*models.ShareGroup, []*models.EncryptedFile, error)
	VerifySharePassword(ctx context.Context, req services.AccessRequest) (bool, error)
}

type PasswordService interface {
	SetPassword(ctx context.Context, ownerID string, t services.PasswordTarget, password string) error
	ChangePassword(ctx context.Context, ownerID string, t services.PasswordTarget, oldPassword, newPassword string) error
	DeletePassword(ctx context.Context, ownerID string, t services.PasswordTarget) error
	BeginPasswordReset(ctx context.Context, ownerID string, t services.PasswordTarget, newPassword string) (string, error)
	CompletePasswordReset(ctx context.Context, ownerID, token, code string) (services.PasswordTarget, error)
}

type StepUpService interface {
	Enroll(ctx context.Context, userID string) (*services.Enrollment, error)
	ConfirmEnrollment(ctx context.Context, userID, code string) error
}

type KeyService interface {
	RotateKey(ctx context.Context, userID, code string) (string, error)
	RevokeKey(ctx context.Context, userID, keyID, code string) error
	ListKeys(ctx context.Context, ownerID string) ([]services.KeyInfo, error)
}

// Services bundles what the handlers delegate to.
type Services struct {
	Files     FileService
	Shares    ShareService
	Passwords PasswordService
	StepUp    StepUpService
	Keys      KeyService
}

type GRPCServer struct {
	address    string
	svc        Services
	logger     logging.Logger
	jwtSecret  []byte
	maxMsgSize int
}

// NewGRPCServer builds the server. maxMsgSize bounds incoming and outgoing
// messages; zero keeps the gRPC default.
func NewGRPCServer(a string, l logging.Logger, svc Services, secretKey string, maxMsgSize int) *GRPCServer {
	return &GRPCServer{
		address:    a,
		svc:        svc,
		logger:     l.With("module", "grpc_server"),
		jwtSecret:  []byte(secretKey),
		maxMsgSize: maxMsgSize,
	}
}

// NewServer creates a grpc.Server with the interceptors installed and the
// vault service registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(s.accessTokenInterceptor)}
	if s.maxMsgSize > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(s.maxMsgSize), grpc.MaxSendMsgSize(s.maxMsgSize))
	}

	srv := grpc.NewServer(opts...)
	rpc.RegisterVaultServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

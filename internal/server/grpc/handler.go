package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/vaultshare/internal/rpc"
	"github.com/dmitrijs2005/vaultshare/internal/server/models"
	"github.com/dmitrijs2005/vaultshare/internal/server/services"
)

// requireUser returns the authenticated user. The interceptor guarantees one
// on every non-public method, so a miss is a server bug.
func (s *GRPCServer) requireUser(ctx context.Context) (string, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		s.logger.Error(ctx, "user id missing from context")
		return "", status.Error(codes.Internal, "internal error")
	}
	return userID, nil
}

func toFileInfo(f *models.EncryptedFile) rpc.FileInfo {
	return rpc.FileInfo{
		ID:          f.ID,
		Name:        f.Name,
		MimeType:    f.MimeType,
		FolderID:    f.FolderID,
		Size:        f.PlaintextSize,
		HasPassword: f.HasPassword(),
		CreatedAt:   f.CreatedAt,
	}
}

func toFileInfos(fs []*models.EncryptedFile) []rpc.FileInfo {
	result := make([]rpc.FileInfo, 0, len(fs))
	for _, f := range fs {
		result = append(result, toFileInfo(f))
	}
	return result
}

func toTarget(t rpc.PasswordTarget) services.PasswordTarget {
	return services.PasswordTarget{Kind: services.TargetKind(t.Kind), ID: t.ID}
}

func (s *GRPCServer) UploadFile(ctx context.Context, req *rpc.UploadFileRequest) (*rpc.UploadFileResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	f, err := s.svc.Files.Upload(ctx, services.UploadRequest{
		OwnerID:  userID,
		Name:     req.Name,
		MimeType: req.MimeType,
		FolderID: req.FolderID,
		Password: req.Password,
		Data:     req.Data,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.UploadFileResponse{File: toFileInfo(f)}, nil
}

func (s *GRPCServer) DownloadFile(ctx context.Context, req *rpc.DownloadFileRequest) (*rpc.DownloadFileResponse, error) {
	userID, _ := userIDFromContext(ctx)

	res, err := s.svc.Files.Download(ctx, services.DownloadRequest{
		RequesterID:   userID,
		FileID:        req.FileID,
		LinkToken:     req.LinkToken,
		SharePassword: req.SharePassword,
		FilePassword:  req.FilePassword,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.DownloadFileResponse{
		Name:     res.Name,
		MimeType: res.MimeType,
		Size:     res.Size,
		Data:     res.Plaintext,
	}, nil
}

func (s *GRPCServer) ListFiles(ctx context.Context, _ *rpc.Empty) (*rpc.ListFilesResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	fs, err := s.svc.Files.ListFiles(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.ListFilesResponse{Files: toFileInfos(fs)}, nil
}

func (s *GRPCServer) DeleteFile(ctx context.Context, req *rpc.DeleteFileRequest) (*rpc.Empty, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.svc.Files.DeleteFile(ctx, userID, req.FileID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) CreateShareGroup(ctx context.Context, req *rpc.CreateShareGroupRequest) (*rpc.CreateShareGroupResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	g, err := s.svc.Shares.CreateShareGroup(ctx, services.CreateShareRequest{
		OwnerID:    userID,
		FileIDs:    req.FileIDs,
		Password:   req.Password,
		ExpiresAt:  req.ExpiresAt,
		Recipients: req.Recipients,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.CreateShareGroupResponse{ID: g.ID, LinkToken: g.LinkToken}, nil
}

func (s *GRPCServer) ListShareGroups(ctx context.Context, _ *rpc.Empty) (*rpc.ListShareGroupsResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.svc.Shares.ListShareGroups(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &rpc.ListShareGroupsResponse{Groups: make([]rpc.ShareGroupInfo, 0, len(groups))}
	for _, g := range groups {
		resp.Groups = append(resp.Groups, rpc.ShareGroupInfo{
			ID:            g.ID,
			LinkToken:     g.LinkToken,
			HasPassword:   g.HasPassword(),
			ExpiresAt:     g.ExpiresAt,
			CreatedAt:     g.CreatedAt,
			DownloadCount: g.DownloadCount,
		})
	}
	return resp, nil
}

func (s *GRPCServer) DeleteShareGroup(ctx context.Context, req *rpc.DeleteShareGroupRequest) (*rpc.Empty, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.svc.Shares.DeleteShareGroup(ctx, userID, req.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) ListSharedFiles(ctx context.Context, req *rpc.ListSharedFilesRequest) (*rpc.ListSharedFilesResponse, error) {
	userID, _ := userIDFromContext(ctx)

	g, fs, err := s.svc.Shares.ListSharedFiles(ctx, services.AccessRequest{
		LinkToken:   req.LinkToken,
		RequesterID: userID,
		Password:    req.Password,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.ListSharedFilesResponse{GroupID: g.ID, ExpiresAt: g.ExpiresAt, Files: toFileInfos(fs)}, nil
}

func (s *GRPCServer) VerifySharePassword(ctx context.Context, req *rpc.VerifySharePasswordRequest) (*rpc.VerifySharePasswordResponse, error) {
	userID, _ := userIDFromContext(ctx)

	ok, err := s.svc.Shares.VerifySharePassword(ctx, services.AccessRequest{
		LinkToken:   req.LinkToken,
		RequesterID: userID,
		Password:    req.Password,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.VerifySharePasswordResponse{Valid: ok}, nil
}

func (s *GRPCServer) SetPassword(ctx context.Context, req *rpc.SetPasswordRequest) (*rpc.Empty, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.svc.Passwords.SetPassword(ctx, userID, toTarget(req.Target), req.Password); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *rpc.ChangePasswordRequest) (*rpc.Empty, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	err = s.svc.Passwords.ChangePassword(ctx, userID, toTarget(req.Target), req.OldPassword, req.NewPassword)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) DeletePassword(ctx context.Context, req *rpc.DeletePasswordRequest) (*rpc.Empty, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.svc.Passwords.DeletePassword(ctx, userID, toTarget(req.Target)); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) BeginPasswordReset(ctx context.Context, req *rpc.BeginPasswordResetRequest) (*rpc.BeginPasswordResetResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	token, err := s.svc.Passwords.BeginPasswordReset(ctx, userID, toTarget(req.Target), req.NewPassword)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.BeginPasswordResetResponse{OperationToken: token}, nil
}

func (s *GRPCServer) CompletePasswordReset(ctx context.Context, req *rpc.CompletePasswordResetRequest) (*rpc.CompletePasswordResetResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	t, err := s.svc.Passwords.CompletePasswordReset(ctx, userID, req.OperationToken, req.Code)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.CompletePasswordResetResponse{Target: rpc.PasswordTarget{Kind: string(t.Kind), ID: t.ID}}, nil
}

func (s *GRPCServer) EnrollStepUp(ctx context.Context, _ *rpc.Empty) (*rpc.EnrollStepUpResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	e, err := s.svc.StepUp.Enroll(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.EnrollStepUpResponse{Secret: e.Secret, URL: e.URL}, nil
}

func (s *GRPCServer) ConfirmStepUp(ctx context.Context, req *rpc.ConfirmStepUpRequest) (*rpc.Empty, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.svc.StepUp.ConfirmEnrollment(ctx, userID, req.Code); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) RotateKey(ctx context.Context, req *rpc.RotateKeyRequest) (*rpc.RotateKeyResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	id, err := s.svc.Keys.RotateKey(ctx, userID, req.Code)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.RotateKeyResponse{KeyID: id}, nil
}

func (s *GRPCServer) RevokeKey(ctx context.Context, req *rpc.RevokeKeyRequest) (*rpc.Empty, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.svc.Keys.RevokeKey(ctx, userID, req.KeyID, req.Code); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) ListKeys(ctx context.Context, _ *rpc.Empty) (*rpc.ListKeysResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	keys, err := s.svc.Keys.ListKeys(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &rpc.ListKeysResponse{Keys: make([]rpc.KeyInfo, 0, len(keys))}
	for _, k := range keys {
		resp.Keys = append(resp.Keys, rpc.KeyInfo{
			ID:        k.ID,
			Algorithm: k.Algorithm,
			CreatedAt: k.CreatedAt,
			RevokedAt: k.RevokedAt,
			Active:    k.Active,
		})
	}
	return resp, nil
}

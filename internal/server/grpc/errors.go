package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/vaultshare/internal/common"
)

// toStatus maps service errors to gRPC statuses. Unknown links, refused
// requesters and undecryptable files share one NotFound response.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrForbidden),
		errors.Is(err, common.ErrAccessDenied):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrExpired):
		return status.Error(codes.FailedPrecondition, "expired")
	case errors.Is(err, common.ErrPasswordRequired):
		return status.Error(codes.Unauthenticated, "password required")
	case errors.Is(err, common.ErrIncorrectPassword):
		return status.Error(codes.PermissionDenied, "incorrect password")
	case errors.Is(err, common.ErrStepUpDenied):
		return status.Error(codes.PermissionDenied, stepUpMessage(err))
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrVersionConflict):
		return status.Error(codes.Aborted, "concurrent modification, retry")
	case errors.Is(err, common.ErrCorruptedData):
		s.logger.Error(ctx, "corrupted data", "error", err)
		return status.Error(codes.DataLoss, "corrupted data")
	case errors.Is(err, common.ErrUpstreamStorage):
		s.logger.Error(ctx, "storage unavailable", "error", err)
		return status.Error(codes.Unavailable, "storage unavailable")
	case errors.Is(err, common.ErrInvalidKey):
		return status.Error(codes.FailedPrecondition, "invalid key")
	}

	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}

func stepUpMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrStepUpNotEnrolled):
		return common.ErrStepUpNotEnrolled.Error()
	case errors.Is(err, common.ErrStepUpReplayed):
		return common.ErrStepUpReplayed.Error()
	}
	return common.ErrStepUpInvalidCode.Error()
}

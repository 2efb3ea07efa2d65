package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/rpc"
	"github.com/dmitrijs2005/vaultshare/internal/server/auth"
)

type ctxKey string

const UserIDKey ctxKey = "userID"

// isPublic reports whether a call may proceed without an access token:
// link-based share access.
func isPublic(method string, req any) bool {
	switch method {
	case rpc.MethodListSharedFiles, rpc.MethodVerifySharePassword:
		return true
	case rpc.MethodDownloadFile:
		r, ok := req.(*rpc.DownloadFileRequest)
		return ok && r.LinkToken != ""
	}
	return false
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}

	if len(accessToken) == 0 {
		if isPublic(info.FullMethod, req) {
			return handler(ctx, req)
		}
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	// a supplied token must be valid even on public calls
	userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, "token expired")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	ctx = context.WithValue(ctx, UserIDKey, userID)
	return handler(ctx, req)
}

func userIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(UserIDKey).(string)
	return v, ok && v != ""
}

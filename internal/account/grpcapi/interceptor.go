package grpcapi

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/logging"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDHeader = "x-request-id"

// internalSecretInterceptor admits only callers presenting the shared secret
// and marks them as the internal principal.
func (s *GRPCServer) internalSecretInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	var secret string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.InternalSecretHeaderName); len(values) > 0 {
			secret = values[0]
		}
	}
	if len(secret) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing internal secret")
	}
	if len(s.secret) == 0 || subtle.ConstantTimeCompare([]byte(secret), s.secret) != 1 {
		return nil, status.Error(codes.Unauthenticated, "invalid internal secret")
	}

	return handler(auth.WithPrincipal(ctx, auth.InternalPrincipal()), req)
}

// loggingInterceptor tags the call with the caller's x-request-id, or a new
// one, and logs it once it is done.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	id := uuid.NewString()
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(requestIDHeader); len(values) > 0 && values[0] != "" {
			id = values[0]
		}
	}
	ctx = logging.WithAttrs(ctx, "request_id", id)

	resp, err := handler(ctx, req)
	s.logger.Info(ctx, "grpc request",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start).String(),
	)
	return resp, err
}

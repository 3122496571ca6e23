package grpcapi

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/reviewhub/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC codes. Unknown errors are logged and
// reported as Internal without details. Unauthenticated carries a fixed
// message so callers cannot tell the rejection reasons apart.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	code := statusCode(err)
	switch code {
	case codes.Internal:
		s.logger.Error(ctx, "internal api call failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	case codes.Unauthenticated:
		s.logger.Info(ctx, "access denied", "reason", err)
		return status.Error(codes.Unauthenticated, "access denied")
	}
	return status.Error(code, err.Error())
}

func statusCode(err error) codes.Code {
	switch {
	case errors.Is(err, common.ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrAuthentication):
		return codes.Unauthenticated
	case errors.Is(err, common.ErrForbidden):
		return codes.PermissionDenied
	case errors.Is(err, common.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, common.ErrConflict):
		return codes.AlreadyExists
	default:
		return codes.Internal
	}
}

// fromStatus turns a status error back into the matching sentinel so callers
// can keep using errors.Is.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var sentinel error
	switch st.Code() {
	case codes.InvalidArgument:
		sentinel = common.ErrValidation
	case codes.Unauthenticated:
		sentinel = common.ErrUnauthorized
	case codes.PermissionDenied:
		sentinel = common.ErrForbidden
	case codes.NotFound:
		sentinel = common.ErrNotFound
	case codes.AlreadyExists:
		sentinel = common.ErrConflict
	default:
		return err
	}
	return errors.Join(sentinel, err)
}

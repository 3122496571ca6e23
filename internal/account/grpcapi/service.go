package grpcapi

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

const serviceName = "reviewhub.account.Sessions"

const (
	introspectMethod   = "/" + serviceName + "/Introspect"
	revokeMethod       = "/" + serviceName + "/Revoke"
	refreshTokenMethod = "/" + serviceName + "/RefreshToken"
)

type IntrospectRequest struct {
	AccessToken string `json:"access_token"`
}

type IntrospectResponse struct {
	UserID        string    `json:"user_id"`
	UserName      string    `json:"username"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	TokenVersion  int64     `json:"token_version"`
	Roles         []string  `json:"roles"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type RevokeRequest struct {
	UserID string `json:"user_id"`
}

type RevokeResponse struct{}

type RefreshTokenRequest struct {
	UserID string `json:"user_id"`
}

type RefreshTokenResponse struct {
	RefreshToken string `json:"refresh_token"`
}

// SessionsServer is implemented by GRPCServer.
type SessionsServer interface {
	Introspect(context.Context, *IntrospectRequest) (*IntrospectResponse, error)
	Revoke(context.Context, *RevokeRequest) (*RevokeResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
}

var sessionsServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SessionsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Introspect", Handler: introspectHandler},
		{MethodName: "Revoke", Handler: revokeHandler},
		{MethodName: "RefreshToken", Handler: refreshTokenHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "reviewhub/account/sessions",
}

func introspectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(IntrospectRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionsServer).Introspect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: introspectMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(SessionsServer).Introspect(ctx, req.(*IntrospectRequest))
	})
}

func revokeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RevokeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionsServer).Revoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: revokeMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(SessionsServer).Revoke(ctx, req.(*RevokeRequest))
	})
}

func refreshTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RefreshTokenRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionsServer).RefreshToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: refreshTokenMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(SessionsServer).RefreshToken(ctx, req.(*RefreshTokenRequest))
	})
}

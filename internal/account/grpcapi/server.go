package grpcapi

import (
	"context"
	"net"

	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/logging"
	"google.golang.org/grpc"
)

// Sessions is the part of the session service exposed internally.
type Sessions interface {
	Introspect(ctx context.Context, accessToken string) (*auth.Claims, error)
	Revoke(ctx context.Context, actor *auth.Principal, userID string) error
	InternalRefreshToken(ctx context.Context, userID string) (string, error)
}

type GRPCServer struct {
	address  string
	sessions Sessions
	logger   logging.Logger
	secret   []byte
}

func NewGRPCServer(address string, l logging.Logger, sessions Sessions, internalSecret string) *GRPCServer {
	return &GRPCServer{
		address:  address,
		sessions: sessions,
		logger:   l.With("module", "grpc_server"),
		secret:   []byte(internalSecret),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.internalSecretInterceptor))
	srv.RegisterService(&sessionsServiceDesc, s)
	return srv
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, lis)
}

func (s *GRPCServer) serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())
	return srv.Serve(lis)
}

func (s *GRPCServer) Introspect(ctx context.Context, req *IntrospectRequest) (*IntrospectResponse, error) {
	claims, err := s.sessions.Introspect(ctx, req.AccessToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &IntrospectResponse{
		UserID:        claims.UserID,
		UserName:      claims.UserName,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		TokenVersion:  claims.TokenVersion,
		Roles:         claims.Roles,
		ExpiresAt:     claims.ExpiresAt,
	}, nil
}

func (s *GRPCServer) Revoke(ctx context.Context, req *RevokeRequest) (*RevokeResponse, error) {
	if err := s.sessions.Revoke(ctx, auth.PrincipalFrom(ctx), req.UserID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &RevokeResponse{}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	token, err := s.sessions.InternalRefreshToken(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &RefreshTokenResponse{RefreshToken: token}, nil
}

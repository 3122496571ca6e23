package grpcapi

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Client calls the internal session API of the account service.
type Client struct {
	conn   *grpc.ClientConn
	secret string
}

func NewClient(address, internalSecret string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client: %w", err)
	}
	return &Client{conn: conn, secret: internalSecret}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) withSecret(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.InternalSecretHeaderName, c.secret)
}

// Introspect returns the claims of accessToken if the account service still
// considers the session valid.
func (c *Client) Introspect(ctx context.Context, accessToken string) (*auth.Claims, error) {
	resp := new(IntrospectResponse)
	err := c.conn.Invoke(c.withSecret(ctx), introspectMethod, &IntrospectRequest{AccessToken: accessToken}, resp)
	if err != nil {
		return nil, fromStatus(err)
	}
	return &auth.Claims{
		UserID:        resp.UserID,
		UserName:      resp.UserName,
		Email:         resp.Email,
		EmailVerified: resp.EmailVerified,
		TokenVersion:  resp.TokenVersion,
		Roles:         resp.Roles,
		ExpiresAt:     resp.ExpiresAt,
	}, nil
}

func (c *Client) Revoke(ctx context.Context, userID string) error {
	err := c.conn.Invoke(c.withSecret(ctx), revokeMethod, &RevokeRequest{UserID: userID}, new(RevokeResponse))
	if err != nil {
		return fromStatus(err)
	}
	return nil
}

func (c *Client) RefreshToken(ctx context.Context, userID string) (string, error) {
	resp := new(RefreshTokenResponse)
	err := c.conn.Invoke(c.withSecret(ctx), refreshTokenMethod, &RefreshTokenRequest{UserID: userID}, resp)
	if err != nil {
		return "", fromStatus(err)
	}
	return resp.RefreshToken, nil
}

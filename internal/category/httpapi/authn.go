package httpapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/httpx"
	"github.com/dmitrijs2005/reviewhub/internal/logging"
)

// Introspector asks the account service whether a session is still valid.
type Introspector interface {
	Introspect(ctx context.Context, accessToken string) (*auth.Claims, error)
}

// IntrospectingAuthenticator verifies the token locally first and then asks
// the account service, so a revoked session is refused at once. When the
// account service cannot answer, the request is refused.
type IntrospectingAuthenticator struct {
	local  httpx.Authenticator
	remote Introspector
	logger logging.Logger
}

func NewIntrospectingAuthenticator(local httpx.Authenticator, remote Introspector, logger logging.Logger) *IntrospectingAuthenticator {
	return &IntrospectingAuthenticator{local: local, remote: remote, logger: logger}
}

func (a *IntrospectingAuthenticator) Authenticate(ctx context.Context, accessToken string) (*auth.Principal, error) {
	if _, err := a.local.Authenticate(ctx, accessToken); err != nil {
		return nil, err
	}
	claims, err := a.remote.Introspect(ctx, accessToken)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return nil, err
		}
		a.logger.Warn(ctx, "session introspection failed", "error", err)
		return nil, fmt.Errorf("%w: introspection failed", common.ErrUnauthorized)
	}
	return auth.PrincipalFromClaims(claims), nil
}

package httpx

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/labstack/echo/v4"
)

// Authenticator turns a bearer access token into the acting principal.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Principal, error)
}

// TokenAuthenticator trusts any access token it can verify locally.
type TokenAuthenticator struct {
	tokens *auth.TokenService
}

func NewTokenAuthenticator(tokens *auth.TokenService) *TokenAuthenticator {
	return &TokenAuthenticator{tokens: tokens}
}

func (a *TokenAuthenticator) Authenticate(ctx context.Context, accessToken string) (*auth.Principal, error) {
	claims, err := a.tokens.Decode(accessToken, true)
	if err != nil {
		return nil, err
	}
	return auth.PrincipalFromClaims(claims), nil
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(common.AuthorizationHeaderName)
	if !strings.HasPrefix(h, common.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, common.BearerPrefix))
	return token, token != ""
}

// RequireAuth rejects requests without a valid bearer token and stores the
// principal in the request context.
func RequireAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := BearerToken(c)
			if !ok {
				return common.ErrUnauthorized
			}

			p, err := a.Authenticate(c.Request().Context(), token)
			if err != nil {
				return err
			}

			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithPrincipal(req.Context(), p)))
			return next(c)
		}
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := auth.RequireAnyRole(Principal(c), roles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// Principal returns the authenticated principal of c, or nil.
func Principal(c echo.Context) *auth.Principal {
	return auth.PrincipalFrom(c.Request().Context())
}

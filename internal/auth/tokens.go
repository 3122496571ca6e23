// Package auth issues and validates access tokens and holds the explicit
// policy checks every service operation starts with.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/timex"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL is short on purpose: clients refresh automatically.
const DefaultAccessTokenTTL = 2 * time.Minute

// refreshTokenBytes is the amount of randomness behind a refresh token.
const refreshTokenBytes = 64

// TokenConfig is the signing configuration of a TokenService.
type TokenConfig struct {
	SigningKey     []byte
	AccessTokenTTL time.Duration
	Issuer         string
}

// Claims is the identity carried by an access token.
type Claims struct {
	UserID        string
	UserName      string
	Email         string
	EmailVerified bool
	TokenVersion  int64
	Roles         []string

	// Set by Decode.
	ExpiresAt time.Time
}

// jwtClaims is the wire form. Flags and counters travel as strings.
type jwtClaims struct {
	jwt.RegisteredClaims
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	EmailVerified string   `json:"email_verified"`
	TokenVersion  string   `json:"token_version"`
	Roles         []string `json:"role,omitempty"`
}

// TokenService signs and verifies HS256 access tokens and mints opaque
// refresh tokens. It keeps no state besides its configuration.
type TokenService struct {
	cfg   TokenConfig
	clock timex.Clock
}

func NewTokenService(cfg TokenConfig, clock timex.Clock) *TokenService {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if clock == nil {
		clock = timex.SystemClock{}
	}
	return &TokenService{cfg: cfg, clock: clock}
}

// AccessTokenTTL reports the lifetime given to new access tokens.
func (s *TokenService) AccessTokenTTL() time.Duration { return s.cfg.AccessTokenTTL }

// IssueAccessToken signs c into a compact JWT.
func (s *TokenService) IssueAccessToken(c Claims) (string, error) {
	if len(s.cfg.SigningKey) == 0 {
		return "", fmt.Errorf("%w: signing key is not configured", common.ErrSigning)
	}

	now := s.clock.Now()
	wire := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   c.UserID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
		Name:          c.UserName,
		Email:         c.Email,
		EmailVerified: strconv.FormatBool(c.EmailVerified),
		TokenVersion:  strconv.FormatInt(c.TokenVersion, 10),
		Roles:         c.Roles,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wire).SignedString(s.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrSigning, err)
	}
	return token, nil
}

// IssueRefreshToken returns a random opaque token. Its validity lives only in
// the user record.
func (s *TokenService) IssueRefreshToken() (string, error) {
	token, err := common.MakeRandBase64String(refreshTokenBytes)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	return token, nil
}

// Decode verifies the signature of token and returns its claims. Only HS256
// is accepted. With validateLifetime unset the expiry is not checked, which is
// what the refresh flow needs.
func (s *TokenService) Decode(token string, validateLifetime bool) (*Claims, error) {
	if len(s.cfg.SigningKey) == 0 {
		return nil, fmt.Errorf("%w: signing key is not configured", common.ErrSigning)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	}
	if validateLifetime {
		opts = append(opts, jwt.WithExpirationRequired())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	wire := &jwtClaims{}
	_, err := jwt.ParseWithClaims(token, wire, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.cfg.SigningKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if s.cfg.Issuer != "" && wire.Issuer != s.cfg.Issuer {
		return nil, fmt.Errorf("%w: unexpected issuer", common.ErrInvalidToken)
	}
	return wire.toClaims()
}

func (w *jwtClaims) toClaims() (*Claims, error) {
	if w.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
	}
	version, err := strconv.ParseInt(w.TokenVersion, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad token version", common.ErrInvalidToken)
	}
	verified, err := strconv.ParseBool(w.EmailVerified)
	if err != nil {
		return nil, fmt.Errorf("%w: bad email_verified", common.ErrInvalidToken)
	}

	c := &Claims{
		UserID:        w.Subject,
		UserName:      w.Name,
		Email:         w.Email,
		EmailVerified: verified,
		TokenVersion:  version,
		Roles:         w.Roles,
	}
	if w.ExpiresAt != nil {
		c.ExpiresAt = w.ExpiresAt.Time
	}
	return c, nil
}

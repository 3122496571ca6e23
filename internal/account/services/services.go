// Package services holds the account business logic: sessions, role
// assignment, email confirmation and avatars. Every operation that acts on
// behalf of someone takes an *auth.Principal and checks it first; multi-step
// mutations run inside a single dbx.WithTx transaction.
package services

import (
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/cryptox"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Options struct {
	RefreshTokenTTL      time.Duration
	EmailTokenTTL        time.Duration
	MaxOutstandingTokens int
	Password             cryptox.Params
}

// zeroTime is stored as the refresh expiry of a revoked session.
var zeroTime time.Time

func DefaultOptions() Options {
	return Options{
		RefreshTokenTTL:      30 * 24 * time.Hour,
		EmailTokenTTL:        10 * time.Minute,
		MaxOutstandingTokens: 3,
		Password:             cryptox.DefaultParams,
	}
}

// Package emailtokens stores single-purpose tokens sent to users by email.
package emailtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/account/models"
)

// A token counts as expired once now reaches its expiry.
type Repository interface {
	Create(ctx context.Context, token *models.EmailToken) error
	// Find locks the matching row until the surrounding transaction ends.
	Find(ctx context.Context, userID, token string, purpose models.TokenPurpose) (*models.EmailToken, error)
	CountActive(ctx context.Context, userID string, purpose models.TokenPurpose, now time.Time) (int, error)
	DeleteExpiredForUser(ctx context.Context, userID string, purpose models.TokenPurpose, now time.Time) (int64, error)
	DeleteAllForUser(ctx context.Context, userID string, purpose models.TokenPurpose) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

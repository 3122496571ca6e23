package emailtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/account/models"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.EmailToken) error {
	query :=
		`INSERT INTO email_tokens (id, user_id, token, purpose, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := r.db.ExecContext(ctx, query, t.ID, t.UserID, t.Token, int16(t.Purpose), t.ExpiresAt, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, userID, token string, purpose models.TokenPurpose) (*models.EmailToken, error) {
	query :=
		`SELECT id, user_id, token, purpose, expires_at, created_at FROM email_tokens
		 WHERE user_id = $1 AND token = $2 AND purpose = $3
		 FOR UPDATE`

	t := &models.EmailToken{}
	var p int16
	err := r.db.QueryRowContext(ctx, query, userID, token, int16(purpose)).
		Scan(&t.ID, &t.UserID, &t.Token, &p, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.Purpose = models.TokenPurpose(p)
	return t, nil
}

func (r *PostgresRepository) CountActive(ctx context.Context, userID string, purpose models.TokenPurpose, now time.Time) (int, error) {
	query :=
		`SELECT COUNT(*) FROM email_tokens
		 WHERE user_id = $1 AND purpose = $2 AND expires_at > $3
		 `

	var n int
	if err := r.db.QueryRowContext(ctx, query, userID, int16(purpose), now).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteExpiredForUser(ctx context.Context, userID string, purpose models.TokenPurpose, now time.Time) (int64, error) {
	query := `DELETE FROM email_tokens WHERE user_id = $1 AND purpose = $2 AND expires_at <= $3`
	return r.exec(ctx, query, userID, int16(purpose), now)
}

func (r *PostgresRepository) DeleteAllForUser(ctx context.Context, userID string, purpose models.TokenPurpose) (int64, error) {
	query := `DELETE FROM email_tokens WHERE user_id = $1 AND purpose = $2`
	return r.exec(ctx, query, userID, int16(purpose))
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM email_tokens WHERE expires_at <= $1`
	return r.exec(ctx, query, now)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

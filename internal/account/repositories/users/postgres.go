package users

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

const selectUser = `SELECT id, username, email, password_hash, password_salt, email_verified,
		avatar_key, registered_at, refresh_token, refresh_token_expires_at, token_version
		FROM users`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (id, username, email, password_hash, password_salt, email_verified,
		 avatar_key, registered_at, refresh_token, refresh_token_expires_at, token_version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.UserName, user.Email, user.PasswordHash, user.PasswordSalt, user.EmailVerified,
		user.AvatarKey, user.RegisteredAt, nullString(user.RefreshToken), user.RefreshTokenExpiresAt, user.TokenVersion)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrDuplicateUser
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

// GetByUserName matches case-insensitively.
func (r *PostgresRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE lower(username) = lower($1)`, userName)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *PostgresRepository) ExistsByUserNameOrEmail(ctx context.Context, userName, email string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(username) = lower($1) OR email = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userName, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Update writes every mutable column of user.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET username = $2, email = $3, password_hash = $4, password_salt = $5,
		 email_verified = $6, avatar_key = $7, refresh_token = $8, refresh_token_expires_at = $9,
		 token_version = $10
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.UserName, user.Email, user.PasswordHash, user.PasswordSalt,
		user.EmailVerified, user.AvatarKey, nullString(user.RefreshToken), user.RefreshTokenExpiresAt,
		user.TokenVersion)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrDuplicateUser
		}
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Revoke drops the stored refresh token and bumps the token version in one
// statement. It returns the new version.
func (r *PostgresRepository) Revoke(ctx context.Context, id string, expiresAt time.Time) (int64, error) {
	query :=
		`UPDATE users SET refresh_token = NULL, refresh_token_expires_at = $2,
		 token_version = token_version + 1
		 WHERE id = $1
		 RETURNING token_version
		 `

	var version int64
	err := r.db.QueryRowContext(ctx, query, id, expiresAt).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return version, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var refresh sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.UserName, &user.Email, &user.PasswordHash, &user.PasswordSalt,
		&user.EmailVerified, &user.AvatarKey, &user.RegisteredAt, &refresh,
		&user.RefreshTokenExpiresAt, &user.TokenVersion)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.RefreshToken = refresh.String
	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

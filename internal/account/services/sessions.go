package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/reviewhub/internal/account/models"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/repomanager"
	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/cryptox"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
	"github.com/dmitrijs2005/reviewhub/internal/timex"
	"github.com/google/uuid"
)

type RegisterInput struct {
	UserName string
	Email    string
	Password string
}

// SessionService issues, refreshes and revokes sessions. A session is valid
// while the stored refresh token matches, has not expired, and the token
// version embedded in the access token equals the stored one.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	hasher      *cryptox.Hasher
	clock       timex.Clock
	opts        Options
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService,
	clock timex.Clock, opts Options) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		hasher:      cryptox.NewHasher(opts.Password),
		clock:       clock,
		opts:        opts,
	}
}

// Register creates a user holding the User role.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = strings.TrimSpace(in.Email)
	switch {
	case in.UserName == "":
		return nil, &common.ValidationError{Field: "username", Reason: "is required"}
	case in.Email == "":
		return nil, &common.ValidationError{Field: "email", Reason: "is required"}
	case in.Password == "":
		return nil, &common.ValidationError{Field: "password", Reason: "is required"}
	}

	hash, salt, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     in.UserName,
		Email:        in.Email,
		PasswordHash: hash,
		PasswordSalt: salt,
		RegisteredAt: s.clock.Now(),
		TokenVersion: 1,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		exists, err := users.ExistsByUserNameOrEmail(ctx, user.UserName, user.Email)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrDuplicateUser
		}

		if err := users.Create(ctx, user); err != nil {
			return err
		}
		return s.repomanager.UserRoles(tx).Add(ctx, user.ID, []string{models.RoleUserID})
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user.Roles = []models.Role{{ID: models.RoleUserID, Name: auth.RoleUser}}
	return user, nil
}

// Login accepts an email or a username. Every lookup miss or password
// mismatch is reported as common.ErrAuthentication.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrAuthentication
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify([]byte(password), user.PasswordHash, user.PasswordSalt) {
		return nil, common.ErrAuthentication
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		pair, err = s.startSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return pair, nil
}

func (s *SessionService) findByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	users := s.repomanager.Users(s.db)

	user, err := users.GetByEmail(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	return users.GetByUserName(ctx, identifier)
}

// Refresh rotates the refresh token of the session that accessToken belongs
// to. The access token may be expired but must carry a valid signature.
func (s *SessionService) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Decode(accessToken, false)
	if err != nil {
		return nil, err
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).GetByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrUnauthorized
			}
			return err
		}

		if user.RefreshToken == "" ||
			subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
			return fmt.Errorf("%w: refresh token mismatch", common.ErrUnauthorized)
		}
		if !s.clock.Now().Before(user.RefreshTokenExpiresAt) {
			return fmt.Errorf("%w: refresh token expired", common.ErrUnauthorized)
		}
		if user.TokenVersion != claims.TokenVersion {
			return fmt.Errorf("%w: session revoked", common.ErrUnauthorized)
		}

		pair, err = s.startSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return pair, nil
}

// Revoke ends every session of userID by clearing the refresh token and
// bumping the token version. Repeating it is harmless.
func (s *SessionService) Revoke(ctx context.Context, actor *auth.Principal, userID string) error {
	if err := auth.RequireSelfOrRole(actor, userID, auth.RoleAdmin); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.repomanager.Users(tx).Revoke(ctx, userID, zeroTime)
		return err
	})
	if err != nil {
		return fmt.Errorf("revoke: %w", err)
	}
	return nil
}

// ChangePassword replaces the password and invalidates the other sessions
// of the user. The caller gets a fresh pair.
func (s *SessionService) ChangePassword(ctx context.Context, actor *auth.Principal, userID, oldPassword, newPassword string) (*TokenPair, error) {
	if err := auth.RequireSelf(actor, userID); err != nil {
		return nil, err
	}
	if newPassword == "" {
		return nil, &common.ValidationError{Field: "new_password", Reason: "is required"}
	}

	var pair *TokenPair
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if !s.hasher.Verify([]byte(oldPassword), user.PasswordHash, user.PasswordSalt) {
			return &common.ValidationError{Field: "old_password", Reason: "does not match"}
		}

		user.PasswordHash, user.PasswordSalt, err = s.hasher.Hash([]byte(newPassword))
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.TokenVersion++

		pair, err = s.startSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("change password: %w", err)
	}
	return pair, nil
}

// ChangeUserName renames the user and returns a pair carrying the new name.
func (s *SessionService) ChangeUserName(ctx context.Context, actor *auth.Principal, userID, newName string) (*TokenPair, error) {
	if err := auth.RequireSelf(actor, userID); err != nil {
		return nil, err
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, &common.ValidationError{Field: "username", Reason: "is required"}
	}

	var pair *TokenPair
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		owner, err := users.GetByUserName(ctx, newName)
		switch {
		case err == nil && owner.ID != user.ID:
			return common.ErrDuplicateUser
		case err != nil && !errors.Is(err, common.ErrNotFound):
			return err
		}

		user.UserName = newName
		pair, err = s.startSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("change username: %w", err)
	}
	return pair, nil
}

// Profile returns the user with roles loaded.
func (s *SessionService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	user.Roles, err = s.repomanager.UserRoles(s.db).ListRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return user, nil
}

// Introspect validates accessToken, including expiry, and checks that it was
// not revoked since it was issued.
func (s *SessionService) Introspect(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.tokens.Decode(accessToken, true)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("introspect: %w", err)
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, fmt.Errorf("%w: session revoked", common.ErrUnauthorized)
	}
	return claims, nil
}

// InternalRefreshToken returns the stored refresh token of userID. Only the
// internal API exposes it.
func (s *SessionService) InternalRefreshToken(ctx context.Context, userID string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	if user.RefreshToken == "" || !s.clock.Now().Before(user.RefreshTokenExpiresAt) {
		return "", fmt.Errorf("%w: no active session", common.ErrUnauthorized)
	}
	return user.RefreshToken, nil
}

// startSession loads the current roles, mints a pair with a new refresh
// token and persists the user, all through tx.
func (s *SessionService) startSession(ctx context.Context, tx dbx.DBTX, user *models.User) (*TokenPair, error) {
	roles, err := s.repomanager.UserRoles(tx).ListRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	access, err := s.tokens.IssueAccessToken(auth.Claims{
		UserID:        user.ID,
		UserName:      user.UserName,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		TokenVersion:  user.TokenVersion,
		Roles:         user.RoleNames(),
	})
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.IssueRefreshToken()
	if err != nil {
		return nil, err
	}

	user.RefreshToken = refresh
	user.RefreshTokenExpiresAt = s.clock.Now().Add(s.opts.RefreshTokenTTL)

	if err := s.repomanager.Users(tx).Update(ctx, user); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

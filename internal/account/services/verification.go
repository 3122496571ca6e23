package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/reviewhub/internal/account/models"
	"github.com/dmitrijs2005/reviewhub/internal/account/notify"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/repomanager"
	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
	"github.com/dmitrijs2005/reviewhub/internal/timex"
	"github.com/google/uuid"
)

const (
	emailTokenBytes  = 48
	tokenPlaceholder = "{token}"
)

// VerificationService runs the email confirmation workflow.
type VerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	dispatcher  notify.Dispatcher
	clock       timex.Clock
	opts        Options
}

func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager, d notify.Dispatcher,
	clock timex.Clock, opts Options) *VerificationService {
	return &VerificationService{db: db, repomanager: m, dispatcher: d, clock: clock, opts: opts}
}

// RequestConfirmation mails a confirmation link built from linkTemplate. At
// most MaxOutstandingTokens unexpired tokens may exist per user. The token is
// only kept when the message was handed to the dispatcher.
func (s *VerificationService) RequestConfirmation(ctx context.Context, actor *auth.Principal, userID, linkTemplate string) error {
	if err := auth.RequireSelf(actor, userID); err != nil {
		return err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("request confirmation: %w", err)
	}
	if user.EmailVerified {
		return common.ErrAlreadyVerified
	}

	value, err := common.MakeRandURLSafeString(emailTokenBytes)
	if err != nil {
		return fmt.Errorf("request confirmation: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repomanager.EmailTokens(tx)
		now := s.clock.Now()

		if _, err := tokens.DeleteExpiredForUser(ctx, userID, models.PurposeEmailConfirmation, now); err != nil {
			return err
		}

		n, err := tokens.CountActive(ctx, userID, models.PurposeEmailConfirmation, now)
		if err != nil {
			return err
		}
		if n >= s.opts.MaxOutstandingTokens {
			return common.ErrRateLimited
		}

		token := &models.EmailToken{
			ID:        uuid.NewString(),
			UserID:    userID,
			Token:     value,
			Purpose:   models.PurposeEmailConfirmation,
			ExpiresAt: now.Add(s.opts.EmailTokenTTL),
			CreatedAt: now,
		}
		if err := tokens.Create(ctx, token); err != nil {
			return err
		}

		msg, err := notify.Confirmation(user.Email, user.UserName, confirmationLink(linkTemplate, value), s.opts.EmailTokenTTL.String())
		if err != nil {
			return err
		}
		if err := s.dispatcher.Send(ctx, msg); err != nil {
			return fmt.Errorf("%w: %v", common.ErrDelivery, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("request confirmation: %w", err)
	}
	return nil
}

// Confirm redeems token: the user becomes verified, gains the Verified role
// and loses every outstanding confirmation token.
func (s *VerificationService) Confirm(ctx context.Context, actor *auth.Principal, userID, token string) error {
	if err := auth.RequireSelf(actor, userID); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		found, err := s.repomanager.EmailTokens(tx).Find(ctx, userID, token, models.PurposeEmailConfirmation)
		if err != nil {
			return err
		}
		if found.Expired(s.clock.Now()) {
			return fmt.Errorf("token %w", common.ErrExpired)
		}

		users := s.repomanager.Users(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		user.EmailVerified = true
		if err := users.Update(ctx, user); err != nil {
			return err
		}

		if err := s.repomanager.UserRoles(tx).Add(ctx, userID, []string{models.RoleVerifiedID}); err != nil {
			return err
		}

		_, err = s.repomanager.EmailTokens(tx).DeleteAllForUser(ctx, userID, models.PurposeEmailConfirmation)
		return err
	})
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	return nil
}

// SweepExpired deletes expired tokens of every user and purpose.
func (s *VerificationService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.EmailTokens(s.db).DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("sweep email tokens: %w", err)
	}
	return n, nil
}

// confirmationLink substitutes the escaped token for {token}, or appends it
// when the template has no placeholder.
func confirmationLink(template, token string) string {
	escaped := url.QueryEscape(token)
	if strings.Contains(template, tokenPlaceholder) {
		return strings.ReplaceAll(template, tokenPlaceholder, escaped)
	}
	return template + escaped
}

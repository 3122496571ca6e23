package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/account/models"
	"github.com/dmitrijs2005/reviewhub/internal/account/notify"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	sent []notify.Message
	err  error
}

func (f *fakeDispatcher) Send(ctx context.Context, msg notify.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type verificationFixture struct {
	svc        *VerificationService
	store      *memStore
	clock      *timex.ManualClock
	dispatcher *fakeDispatcher
}

func newVerificationFixture(t *testing.T) (*verificationFixture, func(n int), func()) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	f := &verificationFixture{
		store:      newMemStore(),
		clock:      timex.NewManualClock(t0),
		dispatcher: &fakeDispatcher{},
	}
	f.svc = NewVerificationService(db, &fakeRepoManager{m: f.store}, f.dispatcher, f.clock, testOptions())
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return f, func(n int) { expectTxs(mock, n) }, func() { expectRollback(mock) }
}

const linkTemplate = "https://reviewhub.test/confirm?token={token}"

func TestRequestConfirmation_SendsLink(t *testing.T) {
	f, commits, _ := newVerificationFixture(t)
	seedUser(t, f.store, "u1", "alice", "pw", models.RoleUserID)
	commits(1)

	require.NoError(t, f.svc.RequestConfirmation(context.Background(), member("u1"), "u1", linkTemplate))

	require.Len(t, f.store.tokens, 1)
	tok := f.store.tokens[0]
	assert.Equal(t, models.PurposeEmailConfirmation, tok.Purpose)
	assert.Equal(t, t0.Add(10*time.Minute), tok.ExpiresAt)
	assert.Equal(t, t0, tok.CreatedAt)
	assert.Len(t, tok.Token, 64) // 48 bytes, unpadded base64url

	require.Len(t, f.dispatcher.sent, 1)
	msg := f.dispatcher.sent[0]
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Contains(t, msg.HTMLBody, "https://reviewhub.test/confirm?token="+tok.Token)
}

func TestRequestConfirmation_RateLimitedUntilTokensExpire(t *testing.T) {
	f, commits, rollback := newVerificationFixture(t)
	seedUser(t, f.store, "u1", "alice", "pw")
	commits(3)
	rollback()
	commits(1)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.RequestConfirmation(context.Background(), member("u1"), "u1", linkTemplate))
		f.clock.Advance(time.Minute)
	}

	err := f.svc.RequestConfirmation(context.Background(), member("u1"), "u1", linkTemplate)
	assert.ErrorIs(t, err, common.ErrRateLimited)
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Len(t, f.store.tokens, 3)

	// the first token expires at t0+10m
	f.clock.Set(t0.Add(10 * time.Minute))
	require.NoError(t, f.svc.RequestConfirmation(context.Background(), member("u1"), "u1", linkTemplate))
	assert.Len(t, f.store.tokens, 3)
	assert.Len(t, f.dispatcher.sent, 4)
}

func TestRequestConfirmation_Rejections(t *testing.T) {
	f, _, _ := newVerificationFixture(t)
	u := seedUser(t, f.store, "u1", "alice", "pw")
	u.EmailVerified = true
	f.store.put(u)

	err := f.svc.RequestConfirmation(context.Background(), member("u1"), "u1", linkTemplate)
	assert.ErrorIs(t, err, common.ErrAlreadyVerified)
	assert.ErrorIs(t, err, common.ErrConflict)

	err = f.svc.RequestConfirmation(context.Background(), member("u2"), "u1", linkTemplate)
	assert.ErrorIs(t, err, common.ErrForbidden)

	err = f.svc.RequestConfirmation(context.Background(), member("ghost"), "ghost", linkTemplate)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, f.dispatcher.sent)
}

func TestRequestConfirmation_DeliveryFailureAborts(t *testing.T) {
	f, _, rollback := newVerificationFixture(t)
	seedUser(t, f.store, "u1", "alice", "pw")
	f.dispatcher.err = errors.New("smtp unavailable")
	rollback()

	err := f.svc.RequestConfirmation(context.Background(), member("u1"), "u1", linkTemplate)
	assert.ErrorIs(t, err, common.ErrDelivery)
	assert.Contains(t, err.Error(), "smtp unavailable")
}

func TestConfirm_VerifiesGrantsAndPurges(t *testing.T) {
	f, commits, rollback := newVerificationFixture(t)
	seedUser(t, f.store, "u1", "alice", "pw", models.RoleUserID)
	commits(3)

	require.NoError(t, f.svc.RequestConfirmation(context.Background(), member("u1"), "u1", linkTemplate))
	require.NoError(t, f.svc.RequestConfirmation(context.Background(), member("u1"), "u1", linkTemplate))
	token := f.store.tokens[0].Token

	require.NoError(t, f.svc.Confirm(context.Background(), member("u1"), "u1", token))

	assert.True(t, f.store.get("u1").EmailVerified)
	assert.ElementsMatch(t, []string{models.RoleUserID, models.RoleVerifiedID}, f.store.userRoles["u1"])
	assert.Empty(t, f.store.tokens)

	rollback()
	err := f.svc.Confirm(context.Background(), member("u1"), "u1", token)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestConfirm_KeepsGrantIdempotent(t *testing.T) {
	f, commits, _ := newVerificationFixture(t)
	seedUser(t, f.store, "u1", "alice", "pw", models.RoleUserID, models.RoleVerifiedID)
	commits(1)
	f.store.tokens = append(f.store.tokens, &models.EmailToken{
		ID: "t1", UserID: "u1", Token: "tok", Purpose: models.PurposeEmailConfirmation, ExpiresAt: t0.Add(time.Minute),
	})

	require.NoError(t, f.svc.Confirm(context.Background(), member("u1"), "u1", "tok"))
	assert.Equal(t, []string{models.RoleUserID, models.RoleVerifiedID}, f.store.userRoles["u1"])
}

func TestConfirm_ExpiredTokenIsKept(t *testing.T) {
	f, _, rollback := newVerificationFixture(t)
	seedUser(t, f.store, "u1", "alice", "pw")
	f.store.tokens = append(f.store.tokens, &models.EmailToken{
		ID: "t1", UserID: "u1", Token: "tok", Purpose: models.PurposeEmailConfirmation, ExpiresAt: t0,
	})
	rollback()

	err := f.svc.Confirm(context.Background(), member("u1"), "u1", "tok")
	assert.ErrorIs(t, err, common.ErrExpired)
	assert.True(t, f.store.tokensOnTx, "token lookup must run inside the redeem transaction")
	assert.Len(t, f.store.tokens, 1)
	assert.False(t, f.store.get("u1").EmailVerified)

	err = f.svc.Confirm(context.Background(), member("u2"), "u1", "tok")
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestConfirm_FailureRollsBack(t *testing.T) {
	f, _, rollback := newVerificationFixture(t)
	seedUser(t, f.store, "u1", "alice", "pw")
	f.store.tokens = append(f.store.tokens, &models.EmailToken{
		ID: "t1", UserID: "u1", Token: "tok", Purpose: models.PurposeEmailConfirmation, ExpiresAt: t0.Add(time.Minute),
	})
	f.store.errs["userroles.Add"] = errBoom
	rollback()

	err := f.svc.Confirm(context.Background(), member("u1"), "u1", "tok")
	assert.ErrorIs(t, err, errBoom)
}

func TestSweepExpired(t *testing.T) {
	f, _, _ := newVerificationFixture(t)
	f.store.tokens = []*models.EmailToken{
		{ID: "a", UserID: "u1", ExpiresAt: t0.Add(-time.Minute)},
		{ID: "b", UserID: "u2", ExpiresAt: t0},
		{ID: "c", UserID: "u3", ExpiresAt: t0.Add(time.Minute)},
	}

	n, err := f.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.Len(t, f.store.tokens, 1)
	assert.Equal(t, "c", f.store.tokens[0].ID)

	f.store.errs["tokens.DeleteExpired"] = errBoom
	_, err = f.svc.SweepExpired(context.Background())
	assert.ErrorIs(t, err, errBoom)
}

func TestConfirmationLink(t *testing.T) {
	tests := []struct {
		name, template, token, want string
	}{
		{"placeholder", "https://x/c?t={token}&u=1", "abc", "https://x/c?t=abc&u=1"},
		{"appended", "https://x/c?t=", "abc", "https://x/c?t=abc"},
		{"escaped", "https://x/c?t={token}", "a+b/c=", "https://x/c?t=a%2Bb%2Fc%3D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := confirmationLink(tt.template, tt.token)
			assert.Equal(t, tt.want, got)
			assert.False(t, strings.Contains(got, "{token}"))
		})
	}
}

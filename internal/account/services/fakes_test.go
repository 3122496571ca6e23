package services

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/reviewhub/internal/account/models"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/emailtokens"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/roles"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/userroles"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/users"
	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/dmitrijs2005/reviewhub/internal/cryptox"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
	"github.com/dmitrijs2005/reviewhub/internal/timex"
)

var errBoom = errors.New("boom")

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// cheapParams keep argon2 fast in tests.
var cheapParams = cryptox.Params{Time: 1, Memory: 64, Threads: 1, KeyLen: 16, SaltLen: 8}

// memStore is an in-memory account database shared by the fake repositories.
// errs injects a failure into the named call, e.g. "users.Update".
type memStore struct {
	users     map[string]*models.User
	userRoles map[string][]string
	tokens    []*models.EmailToken
	errs      map[string]error
	calls     []string
	// tokensOnTx records whether the last token repository was bound to a transaction.
	tokensOnTx bool
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]*models.User),
		userRoles: make(map[string][]string),
		errs:      make(map[string]error),
	}
}

func (m *memStore) call(name string) error {
	m.calls = append(m.calls, name)
	return m.errs[name]
}

func (m *memStore) count(name string) int {
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *memStore) put(u *models.User) {
	c := *u
	m.users[u.ID] = &c
}

func (m *memStore) get(id string) *models.User {
	return m.users[id]
}

type fakeUsers struct{ m *memStore }

func (f fakeUsers) Create(ctx context.Context, u *models.User) error {
	if err := f.m.call("users.Create"); err != nil {
		return err
	}
	f.m.put(u)
	return nil
}

func (f fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := f.m.call("users.GetByID"); err != nil {
		return nil, err
	}
	u, ok := f.m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f fakeUsers) GetByUserName(ctx context.Context, name string) (*models.User, error) {
	if err := f.m.call("users.GetByUserName"); err != nil {
		return nil, err
	}
	for _, u := range f.m.users {
		if strings.EqualFold(u.UserName, name) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := f.m.call("users.GetByEmail"); err != nil {
		return nil, err
	}
	for _, u := range f.m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f fakeUsers) ExistsByUserNameOrEmail(ctx context.Context, name, email string) (bool, error) {
	if err := f.m.call("users.Exists"); err != nil {
		return false, err
	}
	for _, u := range f.m.users {
		if strings.EqualFold(u.UserName, name) || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeUsers) Update(ctx context.Context, u *models.User) error {
	if err := f.m.call("users.Update"); err != nil {
		return err
	}
	if _, ok := f.m.users[u.ID]; !ok {
		return common.ErrNotFound
	}
	f.m.put(u)
	return nil
}

func (f fakeUsers) Revoke(ctx context.Context, id string, expiresAt time.Time) (int64, error) {
	if err := f.m.call("users.Revoke"); err != nil {
		return 0, err
	}
	u, ok := f.m.users[id]
	if !ok {
		return 0, common.ErrNotFound
	}
	u.RefreshToken = ""
	u.RefreshTokenExpiresAt = expiresAt
	u.TokenVersion++
	return u.TokenVersion, nil
}

type fakeRoles struct{ m *memStore }

func (f fakeRoles) GetAll(ctx context.Context) ([]models.Role, error) {
	if err := f.m.call("roles.GetAll"); err != nil {
		return nil, err
	}
	return slices.Clone(models.SeededRoles), nil
}

func (f fakeRoles) GetByName(ctx context.Context, name string) (*models.Role, error) {
	for _, r := range models.SeededRoles {
		if r.Name == name {
			return &r, nil
		}
	}
	return nil, common.ErrNotFound
}

type fakeUserRoles struct{ m *memStore }

func (f fakeUserRoles) ListRoleIDs(ctx context.Context, userID string) ([]string, error) {
	if err := f.m.call("userroles.ListRoleIDs"); err != nil {
		return nil, err
	}
	return slices.Clone(f.m.userRoles[userID]), nil
}

func (f fakeUserRoles) ListRoles(ctx context.Context, userID string) ([]models.Role, error) {
	if err := f.m.call("userroles.ListRoles"); err != nil {
		return nil, err
	}
	var out []models.Role
	for _, r := range models.SeededRoles {
		if slices.Contains(f.m.userRoles[userID], r.ID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f fakeUserRoles) Add(ctx context.Context, userID string, roleIDs []string) error {
	if err := f.m.call("userroles.Add"); err != nil {
		return err
	}
	for _, id := range roleIDs {
		if !slices.Contains(f.m.userRoles[userID], id) {
			f.m.userRoles[userID] = append(f.m.userRoles[userID], id)
		}
	}
	return nil
}

func (f fakeUserRoles) Remove(ctx context.Context, userID string, roleIDs []string) error {
	if err := f.m.call("userroles.Remove"); err != nil {
		return err
	}
	f.m.userRoles[userID] = slices.DeleteFunc(f.m.userRoles[userID], func(id string) bool {
		return slices.Contains(roleIDs, id)
	})
	return nil
}

type fakeTokens struct{ m *memStore }

func (f fakeTokens) Create(ctx context.Context, t *models.EmailToken) error {
	if err := f.m.call("tokens.Create"); err != nil {
		return err
	}
	c := *t
	f.m.tokens = append(f.m.tokens, &c)
	return nil
}

func (f fakeTokens) Find(ctx context.Context, userID, token string, purpose models.TokenPurpose) (*models.EmailToken, error) {
	if err := f.m.call("tokens.Find"); err != nil {
		return nil, err
	}
	for _, t := range f.m.tokens {
		if t.UserID == userID && t.Token == token && t.Purpose == purpose {
			c := *t
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f fakeTokens) CountActive(ctx context.Context, userID string, purpose models.TokenPurpose, now time.Time) (int, error) {
	if err := f.m.call("tokens.CountActive"); err != nil {
		return 0, err
	}
	n := 0
	for _, t := range f.m.tokens {
		if t.UserID == userID && t.Purpose == purpose && !t.Expired(now) {
			n++
		}
	}
	return n, nil
}

func (f fakeTokens) deleteWhere(pred func(*models.EmailToken) bool) int64 {
	before := len(f.m.tokens)
	f.m.tokens = slices.DeleteFunc(f.m.tokens, pred)
	return int64(before - len(f.m.tokens))
}

func (f fakeTokens) DeleteExpiredForUser(ctx context.Context, userID string, purpose models.TokenPurpose, now time.Time) (int64, error) {
	if err := f.m.call("tokens.DeleteExpiredForUser"); err != nil {
		return 0, err
	}
	return f.deleteWhere(func(t *models.EmailToken) bool {
		return t.UserID == userID && t.Purpose == purpose && t.Expired(now)
	}), nil
}

func (f fakeTokens) DeleteAllForUser(ctx context.Context, userID string, purpose models.TokenPurpose) (int64, error) {
	if err := f.m.call("tokens.DeleteAllForUser"); err != nil {
		return 0, err
	}
	return f.deleteWhere(func(t *models.EmailToken) bool {
		return t.UserID == userID && t.Purpose == purpose
	}), nil
}

func (f fakeTokens) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := f.m.call("tokens.DeleteExpired"); err != nil {
		return 0, err
	}
	return f.deleteWhere(func(t *models.EmailToken) bool { return t.Expired(now) }), nil
}

type fakeRepoManager struct{ m *memStore }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return fakeUsers{f.m} }
func (f *fakeRepoManager) Roles(dbx.DBTX) roles.Repository              { return fakeRoles{f.m} }
func (f *fakeRepoManager) UserRoles(dbx.DBTX) userroles.Repository      { return fakeUserRoles{f.m} }
func (f *fakeRepoManager) EmailTokens(db dbx.DBTX) emailtokens.Repository {
	_, f.m.tokensOnTx = db.(*sql.Tx)
	return fakeTokens{f.m}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// expectTxs queues n committed transactions.
func expectTxs(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

func newTokenService(clock timex.Clock) *auth.TokenService {
	return auth.NewTokenService(auth.TokenConfig{
		SigningKey:     []byte("test-signing-key"),
		AccessTokenTTL: 2 * time.Minute,
		Issuer:         "reviewhub",
	}, clock)
}

func testOptions() Options {
	o := DefaultOptions()
	o.Password = cheapParams
	return o
}

// seedUser stores a user with the given password and role ids.
func seedUser(t *testing.T, m *memStore, id, name, password string, roleIDs ...string) *models.User {
	t.Helper()
	hash, salt, err := cryptox.NewHasher(cheapParams).Hash([]byte(password))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{
		ID:           id,
		UserName:     name,
		Email:        name + "@example.com",
		PasswordHash: hash,
		PasswordSalt: salt,
		RegisteredAt: t0,
		TokenVersion: 1,
	}
	m.put(u)
	m.userRoles[id] = slices.Clone(roleIDs)
	return u
}

func admin(id string) *auth.Principal {
	return &auth.Principal{UserID: id, Roles: []string{auth.RoleUser, auth.RoleAdmin}}
}

func member(id string) *auth.Principal {
	return &auth.Principal{UserID: id, Roles: []string{auth.RoleUser}}
}

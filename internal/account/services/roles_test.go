package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/reviewhub/internal/account/models"
	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoleFixture(t *testing.T) (*RoleService, *memStore, func(n int), func()) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	store := newMemStore()
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return NewRoleService(db, &fakeRepoManager{m: store}), store,
		func(n int) { expectTxs(mock, n) }, func() { expectRollback(mock) }
}

func TestSetRoles_Converges(t *testing.T) {
	svc, store, commits, _ := newRoleFixture(t)
	seedUser(t, store, "u1", "alice", "pw", models.RoleUserID, models.RoleModeratorID)
	commits(2)

	desired := []string{models.RoleUserID, models.RoleAdminID, models.RoleAdminID}
	require.NoError(t, svc.SetRoles(context.Background(), admin("a1"), "u1", desired))

	assert.ElementsMatch(t, []string{models.RoleUserID, models.RoleAdminID}, store.userRoles["u1"])
	assert.Equal(t, 1, store.count("userroles.Add"))
	assert.Equal(t, 1, store.count("userroles.Remove"))

	// repeating the same request touches no membership
	require.NoError(t, svc.SetRoles(context.Background(), admin("a1"), "u1", desired))
	assert.Equal(t, 1, store.count("userroles.Add"))
	assert.Equal(t, 1, store.count("userroles.Remove"))
	assert.Zero(t, store.count("users.Update"))
}

func TestSetRoles_NoRemoveWhenUserHasNoRoles(t *testing.T) {
	svc, store, commits, _ := newRoleFixture(t)
	seedUser(t, store, "u1", "alice", "pw")
	commits(1)

	require.NoError(t, svc.SetRoles(context.Background(), admin("a1"), "u1", []string{models.RoleUserID}))
	assert.Zero(t, store.count("userroles.Remove"))
	assert.Equal(t, []string{models.RoleUserID}, store.userRoles["u1"])
}

func TestSetRoles_VerifiedFlagFollowsRole(t *testing.T) {
	svc, store, commits, _ := newRoleFixture(t)
	seedUser(t, store, "u1", "alice", "pw", models.RoleUserID)
	commits(2)

	require.NoError(t, svc.SetRoles(context.Background(), admin("a1"), "u1",
		[]string{models.RoleUserID, models.RoleVerifiedID}))
	assert.True(t, store.get("u1").EmailVerified)

	require.NoError(t, svc.SetRoles(context.Background(), admin("a1"), "u1", []string{models.RoleUserID}))
	assert.False(t, store.get("u1").EmailVerified)
	assert.Equal(t, 2, store.count("users.Update"))
}

func TestSetRoles_SelfTargetForbiddenWithoutStoreCalls(t *testing.T) {
	svc, store, _, _ := newRoleFixture(t)
	seedUser(t, store, "a1", "root", "pw", models.RoleAdminID)

	err := svc.SetRoles(context.Background(), admin("a1"), "a1", []string{models.RoleUserID})
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.Empty(t, store.calls)
}

func TestSetRoles_RequiresAdmin(t *testing.T) {
	svc, store, _, _ := newRoleFixture(t)

	moderator := &auth.Principal{UserID: "m1", Roles: []string{auth.RoleModerator}}
	err := svc.SetRoles(context.Background(), moderator, "u1", nil)
	assert.ErrorIs(t, err, common.ErrForbidden)

	err = svc.SetRoles(context.Background(), nil, "u1", nil)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Empty(t, store.calls)
}

func TestSetRoles_UnknownRoleIDs(t *testing.T) {
	svc, store, _, _ := newRoleFixture(t)
	seedUser(t, store, "u1", "alice", "pw")

	err := svc.SetRoles(context.Background(), admin("a1"), "u1", []string{models.RoleUserID, "nope", "nope", "zzz"})

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, "role_ids", ve.Field)
	assert.Equal(t, []string{"nope", "zzz"}, ve.Values)
	assert.Zero(t, store.count("userroles.Add"))
}

func TestSetRoles_UnknownUserAndStoreFailure(t *testing.T) {
	svc, store, _, rollback := newRoleFixture(t)
	seedUser(t, store, "u1", "alice", "pw", models.RoleUserID)
	rollback()
	rollback()

	err := svc.SetRoles(context.Background(), admin("a1"), "ghost", []string{models.RoleUserID})
	assert.ErrorIs(t, err, common.ErrNotFound)

	store.errs["userroles.Add"] = errBoom
	err = svc.SetRoles(context.Background(), admin("a1"), "u1", []string{models.RoleAdminID})
	assert.ErrorIs(t, err, errBoom)
}

func TestAllRoles(t *testing.T) {
	svc, _, _, _ := newRoleFixture(t)

	roles, err := svc.AllRoles(context.Background(), &auth.Principal{UserID: "m", Roles: []string{auth.RoleModerator}})
	require.NoError(t, err)
	assert.Len(t, roles, 4)

	_, err = svc.AllRoles(context.Background(), member("u1"))
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestUserRoles(t *testing.T) {
	svc, store, _, _ := newRoleFixture(t)
	seedUser(t, store, "u1", "alice", "pw", models.RoleVerifiedID)

	roles, err := svc.UserRoles(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []models.Role{{ID: models.RoleVerifiedID, Name: auth.RoleVerified}}, roles)

	_, err = svc.UserRoles(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

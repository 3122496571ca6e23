package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/client/api"
	"github.com/dmitrijs2005/reviewhub/internal/client/store"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	registered []string
	login      []string
	loggedOut  bool
	passwords  []string
	renamedTo  string
	confirmed  string
	verified   bool
	setRoles   []string
	uploaded   []byte
	uploadType string
	reset      bool
	added      string
	removed    string
	query      string

	me         *api.User
	categories []api.Category
	err        error
}

func (f *fakeAPI) Register(_ context.Context, userName, email, password string) (*api.User, error) {
	f.registered = []string{userName, email, password}
	return &api.User{ID: "u1", UserName: userName}, f.err
}
func (f *fakeAPI) Login(_ context.Context, identifier, password string) (*store.Session, error) {
	f.login = []string{identifier, password}
	if f.err != nil {
		return nil, f.err
	}
	return &store.Session{UserID: "u1", UserName: identifier}, nil
}
func (f *fakeAPI) Logout(context.Context) error { f.loggedOut = true; return f.err }
func (f *fakeAPI) Me(context.Context) (*api.User, error) {
	return f.me, f.err
}
func (f *fakeAPI) ChangePassword(_ context.Context, oldPassword, newPassword string) error {
	f.passwords = []string{oldPassword, newPassword}
	return f.err
}
func (f *fakeAPI) ChangeUserName(_ context.Context, userName string) error {
	f.renamedTo = userName
	return f.err
}
func (f *fakeAPI) RequestEmailConfirmation(context.Context) error { f.verified = true; return f.err }
func (f *fakeAPI) ConfirmEmail(_ context.Context, token string) error {
	f.confirmed = token
	return f.err
}
func (f *fakeAPI) Roles(context.Context) ([]api.Role, error) {
	return []api.Role{{ID: "r2", Name: "User"}}, f.err
}
func (f *fakeAPI) AllRoles(context.Context) ([]api.Role, error) {
	return []api.Role{{ID: "r1", Name: "Admin"}, {ID: "r2", Name: "User"}}, f.err
}
func (f *fakeAPI) SetRoles(_ context.Context, userID string, roleIDs []string) error {
	f.setRoles = append([]string{userID}, roleIDs...)
	return f.err
}
func (f *fakeAPI) RequestAvatarUpload(context.Context) (*api.AvatarUpload, error) {
	return &api.AvatarUpload{Key: "avatars/u1/ab", UploadURL: "http://s3/put"}, f.err
}
func (f *fakeAPI) UploadAvatar(_ context.Context, _ string, image []byte, contentType string) error {
	f.uploaded, f.uploadType = image, contentType
	return f.err
}
func (f *fakeAPI) ResetAvatar(context.Context) error { f.reset = true; return f.err }
func (f *fakeAPI) Categories(context.Context) ([]api.Category, error) {
	return f.categories, f.err
}
func (f *fakeAPI) SearchCategories(_ context.Context, q string) ([]api.Category, error) {
	f.query = q
	return nil, f.err
}
func (f *fakeAPI) AddCategory(_ context.Context, name string) (*api.Category, error) {
	f.added = name
	return &api.Category{ID: "c9", Name: name}, f.err
}
func (f *fakeAPI) RemoveCategory(_ context.Context, id string) error {
	f.removed = id
	return f.err
}

type fakeSessions struct{ sess *store.Session }

func (f fakeSessions) Session(context.Context) (*store.Session, error) {
	if f.sess == nil {
		return nil, common.ErrNotFound
	}
	return f.sess, nil
}

func newTestApp(input string, f *fakeAPI) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		api:      f,
		sessions: fakeSessions{},
		reader:   rdr(input),
		out:      &out,
	}, &out
}

// stubPasswords makes successive password prompts return pws in order.
func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := getPassword
	t.Cleanup(func() { getPassword = orig })
	getPassword = func(string, io.Writer) ([]byte, error) {
		if len(pws) == 0 {
			return nil, io.EOF
		}
		pw := []byte(pws[0])
		pws = pws[1:]
		return pw, nil
	}
}

func TestRegister(t *testing.T) {
	stubPasswords(t, "secret")
	f := &fakeAPI{}
	a, out := newTestApp("ann\nann@example.com\n", f)

	require.NoError(t, a.Register(context.Background()))
	assert.Equal(t, []string{"ann", "ann@example.com", "secret"}, f.registered)
	assert.Contains(t, out.String(), "Registered ann (u1)")
}

func TestRegister_EmptyInput(t *testing.T) {
	f := &fakeAPI{}
	a, _ := newTestApp("\n", f)

	assert.ErrorIs(t, a.Register(context.Background()), errEmptyInput)
	assert.Nil(t, f.registered)
}

func TestLogin(t *testing.T) {
	stubPasswords(t, "secret")
	f := &fakeAPI{}
	a, out := newTestApp("ann\n", f)

	require.NoError(t, a.Login(context.Background()))
	assert.Equal(t, []string{"ann", "secret"}, f.login)
	assert.Contains(t, out.String(), "Logged in as ann")
}

func TestLogin_Error(t *testing.T) {
	stubPasswords(t, "bad")
	f := &fakeAPI{err: errors.New("401 invalid_credentials")}
	a, out := newTestApp("ann\n", f)

	assert.EqualError(t, a.Login(context.Background()), "401 invalid_credentials")
	assert.NotContains(t, out.String(), "Logged in")
}

func TestChangePassword(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		stubPasswords(t, "old", "new", "new")
		f := &fakeAPI{}
		a, _ := newTestApp("", f)
		require.NoError(t, a.ChangePassword(context.Background()))
		assert.Equal(t, []string{"old", "new"}, f.passwords)
	})
	t.Run("mismatch", func(t *testing.T) {
		stubPasswords(t, "old", "new", "typo")
		f := &fakeAPI{}
		a, _ := newTestApp("", f)
		assert.EqualError(t, a.ChangePassword(context.Background()), "passwords do not match")
		assert.Nil(t, f.passwords)
	})
}

func TestWhoAmI(t *testing.T) {
	f := &fakeAPI{me: &api.User{
		ID:            "u1",
		UserName:      "ann",
		Email:         "ann@example.com",
		EmailVerified: true,
		RegisteredAt:  time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
		Roles:         []string{"Admin", "User"},
		AvatarURL:     "http://s3/avatar",
	}}
	a, out := newTestApp("", f)

	require.NoError(t, a.WhoAmI(context.Background()))
	s := out.String()
	assert.Contains(t, s, "ann@example.com (verified)")
	assert.Contains(t, s, "2026-01-02 03:04")
	assert.Contains(t, s, "Admin, User")
	assert.Contains(t, s, "http://s3/avatar")
}

func TestRenameVerifyConfirm(t *testing.T) {
	f := &fakeAPI{}
	a, out := newTestApp("anna\n", f)
	ctx := context.Background()

	require.NoError(t, a.Rename(ctx))
	require.NoError(t, a.Verify(ctx))
	require.NoError(t, a.Confirm(ctx, "tok"))

	assert.Equal(t, "anna", f.renamedTo)
	assert.True(t, f.verified)
	assert.Equal(t, "tok", f.confirmed)
	assert.Contains(t, out.String(), "Email confirmed")
}

func TestRoles(t *testing.T) {
	f := &fakeAPI{}
	a, out := newTestApp("", f)

	require.NoError(t, a.Roles(context.Background()))
	assert.Contains(t, out.String(), "Your roles: User")
	assert.Contains(t, out.String(), "r1  Admin")

	require.NoError(t, a.SetRoles(context.Background(), "u2", []string{"r1"}))
	assert.Equal(t, []string{"u2", "r1"}, f.setRoles)
}

func TestAvatar(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	orig := readFile
	t.Cleanup(func() { readFile = orig })
	readFile = func(name string) ([]byte, error) {
		switch name {
		case "me.png":
			return png, nil
		case "notes.txt":
			return []byte("just text"), nil
		}
		return nil, errors.New("no such file")
	}

	t.Run("upload from argument", func(t *testing.T) {
		f := &fakeAPI{}
		a, out := newTestApp("", f)
		require.NoError(t, a.Avatar(context.Background(), []string{"me.png"}))
		assert.Equal(t, png, f.uploaded)
		assert.Equal(t, "image/png", f.uploadType)
		assert.Contains(t, out.String(), "avatars/u1/ab")
	})
	t.Run("upload from prompt", func(t *testing.T) {
		f := &fakeAPI{}
		a, _ := newTestApp("me.png\n", f)
		require.NoError(t, a.Avatar(context.Background(), nil))
		assert.Equal(t, png, f.uploaded)
	})
	t.Run("not an image", func(t *testing.T) {
		f := &fakeAPI{}
		a, _ := newTestApp("", f)
		err := a.Avatar(context.Background(), []string{"notes.txt"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is not an image")
		assert.Nil(t, f.uploaded)
	})
	t.Run("missing file", func(t *testing.T) {
		a, _ := newTestApp("", &fakeAPI{})
		assert.ErrorContains(t, a.Avatar(context.Background(), []string{"gone.png"}), "read avatar")
	})
	t.Run("reset", func(t *testing.T) {
		f := &fakeAPI{}
		a, _ := newTestApp("", f)
		require.NoError(t, a.Avatar(context.Background(), []string{"reset"}))
		assert.True(t, f.reset)
	})
}

func TestCategories(t *testing.T) {
	f := &fakeAPI{categories: []api.Category{{
		ID:           "c1",
		Name:         "Books",
		ReviewsCount: 3,
		Subcategories: []api.Subcategory{
			{ID: "s1", Name: "Poetry", ReviewsCount: 1},
		},
	}}}
	a, out := newTestApp("", f)

	require.NoError(t, a.Categories(context.Background(), ""))
	assert.Contains(t, out.String(), "c1  Books (3 reviews)")
	assert.Contains(t, out.String(), "    s1  Poetry (1 reviews)")

	out.Reset()
	require.NoError(t, a.Categories(context.Background(), "sci"))
	assert.Equal(t, "sci", f.query)
	assert.Equal(t, "No categories\n", out.String())
}

func TestAddAndRemoveCategory(t *testing.T) {
	f := &fakeAPI{}
	a, out := newTestApp("Films\n", f)

	require.NoError(t, a.AddCategory(context.Background(), "Board Games"))
	assert.Equal(t, "Board Games", f.added)

	require.NoError(t, a.AddCategory(context.Background(), ""))
	assert.Equal(t, "Films", f.added)

	require.NoError(t, a.RemoveCategory(context.Background(), "c9"))
	assert.Equal(t, "c9", f.removed)
	assert.True(t, strings.HasSuffix(out.String(), "Category c9 removed\n"))
}

func TestStatus(t *testing.T) {
	a, _ := newTestApp("", &fakeAPI{})
	assert.Equal(t, "", a.status(context.Background()))
	assert.False(t, a.isLoggedIn(context.Background()))

	a.sessions = fakeSessions{sess: &store.Session{UserID: "u1", UserName: "ann"}}
	assert.Equal(t, " (ann)", a.status(context.Background()))
	assert.True(t, a.isLoggedIn(context.Background()))

	a.sessions = fakeSessions{sess: &store.Session{UserID: "u1"}}
	assert.Equal(t, " (u1)", a.status(context.Background()))
}

func TestLogout(t *testing.T) {
	f := &fakeAPI{}
	a, out := newTestApp("", f)

	require.NoError(t, a.Logout(context.Background()))
	assert.True(t, f.loggedOut)
	assert.Contains(t, out.String(), "Logged out")
}

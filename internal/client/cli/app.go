package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/reviewhub/internal/client/api"
	"github.com/dmitrijs2005/reviewhub/internal/client/config"
	"github.com/dmitrijs2005/reviewhub/internal/client/store"
)

// API is the part of api.Client the commands use.
type API interface {
	Register(ctx context.Context, userName, email, password string) (*api.User, error)
	Login(ctx context.Context, identifier, password string) (*store.Session, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*api.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	ChangeUserName(ctx context.Context, userName string) error
	RequestEmailConfirmation(ctx context.Context) error
	ConfirmEmail(ctx context.Context, token string) error
	Roles(ctx context.Context) ([]api.Role, error)
	AllRoles(ctx context.Context) ([]api.Role, error)
	SetRoles(ctx context.Context, userID string, roleIDs []string) error
	RequestAvatarUpload(ctx context.Context) (*api.AvatarUpload, error)
	UploadAvatar(ctx context.Context, uploadURL string, image []byte, contentType string) error
	ResetAvatar(ctx context.Context) error
	Categories(ctx context.Context) ([]api.Category, error)
	SearchCategories(ctx context.Context, q string) ([]api.Category, error)
	AddCategory(ctx context.Context, name string) (*api.Category, error)
	RemoveCategory(ctx context.Context, id string) error
}

// Sessions reads the stored session.
type Sessions interface {
	Session(ctx context.Context) (*store.Session, error)
}

type App struct {
	api      API
	sessions Sessions
	reader   *bufio.Reader
	out      io.Writer
	close    func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	st, err := store.Open(ctx, c.StorePath)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(c.AccountURL, c.CategoryURL, c.RequestTimeout, st)

	return &App{
		api:      client,
		sessions: st,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		close:    st.Close,
	}, nil
}

// Run blocks in the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to reviewctl (type 'help' for commands)")
	runREPL(ctx, a, func() string { return a.status(ctx) }, bufio.NewScanner(a.reader), a.out)
}

func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

func (a *App) session(ctx context.Context) *store.Session {
	sess, err := a.sessions.Session(ctx)
	if err != nil {
		return nil
	}
	return sess
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.session(ctx) != nil
}

// status is shown in the prompt: " (name)" when logged in.
func (a *App) status(ctx context.Context) string {
	sess := a.session(ctx)
	if sess == nil {
		return ""
	}
	name := sess.UserName
	if name == "" {
		name = sess.UserID
	}
	return fmt.Sprintf(" (%s)", name)
}

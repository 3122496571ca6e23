package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/reviewhub/internal/client/api"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/gabriel-vasile/mimetype"
)

// getSimpleText and getPassword point to the interactive helpers and are
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	readFile      = os.ReadFile
)

var errEmptyInput = errors.New("input is required")

func (a *App) ask(prompt string) (string, error) {
	s, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", errEmptyInput
	}
	return s, nil
}

// askPassword returns the password as a string and wipes the read buffer.
func (a *App) askPassword(prompt string) (string, error) {
	pw, err := getPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	if len(pw) == 0 {
		return "", errEmptyInput
	}
	return string(pw), nil
}

func (a *App) Register(ctx context.Context) error {
	userName, err := a.ask("Enter user name")
	if err != nil {
		return err
	}
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	password, err := a.askPassword("Enter password")
	if err != nil {
		return err
	}

	u, err := a.api.Register(ctx, userName, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (%s). Use 'login' to sign in.\n", u.UserName, u.ID)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	identifier, err := a.ask("Enter user name or email")
	if err != nil {
		return err
	}
	password, err := a.askPassword("Enter password")
	if err != nil {
		return err
	}

	sess, err := a.api.Login(ctx, identifier, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", sess.UserName)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	verified := "not verified"
	if u.EmailVerified {
		verified = "verified"
	}
	fmt.Fprintf(a.out, "id:         %s\n", u.ID)
	fmt.Fprintf(a.out, "username:   %s\n", u.UserName)
	fmt.Fprintf(a.out, "email:      %s (%s)\n", u.Email, verified)
	fmt.Fprintf(a.out, "registered: %s\n", u.RegisteredAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(a.out, "roles:      %s\n", strings.Join(u.Roles, ", "))
	if u.AvatarURL != "" {
		fmt.Fprintf(a.out, "avatar:     %s\n", u.AvatarURL)
	}
	return nil
}

func (a *App) ChangePassword(ctx context.Context) error {
	oldPassword, err := a.askPassword("Current password")
	if err != nil {
		return err
	}
	newPassword, err := a.askPassword("New password")
	if err != nil {
		return err
	}
	repeat, err := a.askPassword("Repeat new password")
	if err != nil {
		return err
	}
	if newPassword != repeat {
		return errors.New("passwords do not match")
	}

	if err := a.api.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed")
	return nil
}

func (a *App) Rename(ctx context.Context) error {
	name, err := a.ask("Enter new user name")
	if err != nil {
		return err
	}
	if err := a.api.ChangeUserName(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "User name changed to %s\n", name)
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	if err := a.api.RequestEmailConfirmation(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Confirmation email sent. Run 'confirm <token>' with the token from the email.")
	return nil
}

func (a *App) Confirm(ctx context.Context, token string) error {
	if err := a.api.ConfirmEmail(ctx, token); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Email confirmed")
	return nil
}

// Roles prints the user's roles followed by every known role with its id,
// which setroles takes.
func (a *App) Roles(ctx context.Context) error {
	mine, err := a.api.Roles(ctx)
	if err != nil {
		return err
	}
	all, err := a.api.AllRoles(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(mine))
	for _, r := range mine {
		names = append(names, r.Name)
	}
	fmt.Fprintf(a.out, "Your roles: %s\n", strings.Join(names, ", "))
	fmt.Fprintln(a.out, "All roles:")
	for _, r := range all {
		fmt.Fprintf(a.out, "  %s  %s\n", r.ID, r.Name)
	}
	return nil
}

func (a *App) SetRoles(ctx context.Context, userID string, roleIDs []string) error {
	if err := a.api.SetRoles(ctx, userID, roleIDs); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Roles of %s updated\n", userID)
	return nil
}

// Avatar uploads an image file, or resets to the default avatar when called
// with "reset". Without arguments it asks for the file path.
func (a *App) Avatar(ctx context.Context, args []string) error {
	var path string
	switch {
	case len(args) > 0 && args[0] == "reset":
		if err := a.api.ResetAvatar(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Avatar reset")
		return nil
	case len(args) > 0:
		path = strings.Join(args, " ")
	default:
		p, err := a.ask("Enter image file path")
		if err != nil {
			return err
		}
		path = p
	}

	image, err := readFile(path)
	if err != nil {
		return fmt.Errorf("read avatar: %w", err)
	}
	mt := mimetype.Detect(image)
	if !strings.HasPrefix(mt.String(), "image/") {
		return fmt.Errorf("%s is not an image (%s)", path, mt.String())
	}

	up, err := a.api.RequestAvatarUpload(ctx)
	if err != nil {
		return err
	}
	if err := a.api.UploadAvatar(ctx, up.UploadURL, image, mt.String()); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Avatar uploaded (%s)\n", up.Key)
	return nil
}

// Categories prints the catalog, or the categories matching query.
func (a *App) Categories(ctx context.Context, query string) error {
	var (
		cs  []api.Category
		err error
	)
	if query == "" {
		cs, err = a.api.Categories(ctx)
	} else {
		cs, err = a.api.SearchCategories(ctx, query)
	}
	if err != nil {
		return err
	}
	if len(cs) == 0 {
		fmt.Fprintln(a.out, "No categories")
		return nil
	}
	for _, c := range cs {
		fmt.Fprintf(a.out, "%s  %s (%d reviews)\n", c.ID, c.Name, c.ReviewsCount)
		for _, s := range c.Subcategories {
			fmt.Fprintf(a.out, "    %s  %s (%d reviews)\n", s.ID, s.Name, s.ReviewsCount)
		}
	}
	return nil
}

func (a *App) AddCategory(ctx context.Context, name string) error {
	if name == "" {
		n, err := a.ask("Enter category name")
		if err != nil {
			return err
		}
		name = n
	}
	c, err := a.api.AddCategory(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Category %s created (%s)\n", c.Name, c.ID)
	return nil
}

func (a *App) RemoveCategory(ctx context.Context, id string) error {
	if err := a.api.RemoveCategory(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Category %s removed\n", id)
	return nil
}

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/reviewhub/internal/client/store"
)

func (c *Client) Register(ctx context.Context, userName, email, password string) (*User, error) {
	var u User
	err := c.do(ctx, call{
		base:   c.accountURL,
		method: http.MethodPost,
		path:   "/v1/auth/register",
		in: map[string]string{
			"username": userName,
			"email":    email,
			"password": password,
		},
		out: &u,
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Login authenticates by user name or email and stores the session.
func (c *Client) Login(ctx context.Context, identifier, password string) (*store.Session, error) {
	var pair TokenPair
	err := c.do(ctx, call{
		base:   c.accountURL,
		method: http.MethodPost,
		path:   "/v1/auth/login",
		in:     map[string]string{"identifier": identifier, "password": password},
		out:    &pair,
	})
	if err != nil {
		return nil, err
	}
	return c.save(ctx, pair)
}

// Logout revokes the user's tokens on the server and forgets the local
// session. The session is forgotten even if the revoke fails.
func (c *Client) Logout(ctx context.Context) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}
	revokeErr := c.do(ctx, call{
		base:   c.accountURL,
		method: http.MethodPost,
		path:   "/v1/auth/revoke/" + url.PathEscape(sess.UserID),
		authed: true,
	})
	if errors.Is(revokeErr, ErrNotLoggedIn) {
		revokeErr = nil
	}
	return errors.Join(revokeErr, c.sessions.ClearSession(ctx))
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	path, err := c.userPath(ctx, "")
	if err != nil {
		return nil, err
	}
	var u User
	if err := c.do(ctx, call{base: c.accountURL, method: http.MethodGet, path: path, out: &u, authed: true}); err != nil {
		return nil, err
	}
	return &u, nil
}

// ChangePassword stores the fresh pair the server answers with.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.updateAndSave(ctx, "/password", map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	})
}

func (c *Client) ChangeUserName(ctx context.Context, userName string) error {
	return c.updateAndSave(ctx, "/username", map[string]string{"username": userName})
}

func (c *Client) updateAndSave(ctx context.Context, suffix string, in any) error {
	path, err := c.userPath(ctx, suffix)
	if err != nil {
		return err
	}
	var pair TokenPair
	if err := c.do(ctx, call{base: c.accountURL, method: http.MethodPut, path: path, in: in, out: &pair, authed: true}); err != nil {
		return err
	}
	_, err = c.save(ctx, pair)
	return err
}

// Roles returns the roles of the logged in user.
func (c *Client) Roles(ctx context.Context) ([]Role, error) {
	path, err := c.userPath(ctx, "/roles")
	if err != nil {
		return nil, err
	}
	var rs []Role
	if err := c.do(ctx, call{base: c.accountURL, method: http.MethodGet, path: path, out: &rs, authed: true}); err != nil {
		return nil, err
	}
	return rs, nil
}

func (c *Client) AllRoles(ctx context.Context) ([]Role, error) {
	var rs []Role
	if err := c.do(ctx, call{base: c.accountURL, method: http.MethodGet, path: "/v1/roles", out: &rs, authed: true}); err != nil {
		return nil, err
	}
	return rs, nil
}

// SetRoles replaces the roles of another user. Admin only.
func (c *Client) SetRoles(ctx context.Context, userID string, roleIDs []string) error {
	if roleIDs == nil {
		roleIDs = []string{}
	}
	return c.do(ctx, call{
		base:   c.accountURL,
		method: http.MethodPut,
		path:   "/v1/users/" + url.PathEscape(userID) + "/roles",
		in:     map[string][]string{"role_ids": roleIDs},
		authed: true,
	})
}

func (c *Client) RequestEmailConfirmation(ctx context.Context) error {
	path, err := c.userPath(ctx, "/email/confirmation")
	if err != nil {
		return err
	}
	return c.do(ctx, call{base: c.accountURL, method: http.MethodPost, path: path, authed: true})
}

func (c *Client) ConfirmEmail(ctx context.Context, token string) error {
	path, err := c.userPath(ctx, "/email/confirm")
	if err != nil {
		return err
	}
	return c.do(ctx, call{
		base:   c.accountURL,
		method: http.MethodPost,
		path:   path,
		in:     map[string]string{"token": token},
		authed: true,
	})
}

func (c *Client) RequestAvatarUpload(ctx context.Context) (*AvatarUpload, error) {
	path, err := c.userPath(ctx, "/avatar")
	if err != nil {
		return nil, err
	}
	var up AvatarUpload
	if err := c.do(ctx, call{base: c.accountURL, method: http.MethodPost, path: path, out: &up, authed: true}); err != nil {
		return nil, err
	}
	return &up, nil
}

// UploadAvatar puts the image bytes to a presigned URL.
func (c *Client) UploadAvatar(ctx context.Context, uploadURL string, image []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(image))
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload avatar: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload avatar: %s", resp.Status)
	}
	return nil
}

func (c *Client) ResetAvatar(ctx context.Context) error {
	path, err := c.userPath(ctx, "/avatar")
	if err != nil {
		return err
	}
	return c.do(ctx, call{base: c.accountURL, method: http.MethodDelete, path: path, authed: true})
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/client/store"
	"github.com/dmitrijs2005/reviewhub/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Sessions is where the client keeps its tokens.
type Sessions interface {
	Session(ctx context.Context) (*store.Session, error)
	SaveSession(ctx context.Context, s store.Session) error
	ClearSession(ctx context.Context) error
}

type Client struct {
	http        *http.Client
	accountURL  string
	categoryURL string
	sessions    Sessions
}

// NewClient builds a client of the two services. Base URLs without a scheme
// are taken as http.
func NewClient(accountURL, categoryURL string, timeout time.Duration, sessions Sessions) *Client {
	return &Client{
		http:        &http.Client{Timeout: timeout},
		accountURL:  baseURL(accountURL),
		categoryURL: baseURL(categoryURL),
		sessions:    sessions,
	}
}

func baseURL(s string) string {
	s = strings.TrimRight(s, "/")
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	return s
}

type call struct {
	base   string
	method string
	path   string
	in     any
	out    any
	authed bool
}

func (c *Client) send(ctx context.Context, cl call, accessToken string) (*http.Response, error) {
	var body io.Reader
	if cl.in != nil {
		b, err := json.Marshal(cl.in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, cl.base+cl.path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	return resp, nil
}

// do performs the call. An authenticated call answered with 401 is repeated
// once after refreshing the session.
func (c *Client) do(ctx context.Context, cl call) error {
	var token string
	if cl.authed {
		sess, err := c.session(ctx)
		if err != nil {
			return err
		}
		token = sess.AccessToken

		resp, err := c.send(ctx, cl, token)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusUnauthorized {
			return finish(resp, cl.out)
		}
		drain(resp)

		if sess, err = c.refresh(ctx, sess); err != nil {
			return err
		}
		token = sess.AccessToken
	}

	resp, err := c.send(ctx, cl, token)
	if err != nil {
		return err
	}
	return finish(resp, cl.out)
}

func finish(resp *http.Response, out any) error {
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func (c *Client) session(ctx context.Context) (*store.Session, error) {
	sess, err := c.sessions.Session(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// refresh exchanges the stored pair for a new one and saves it. A rejected
// refresh token ends the session.
func (c *Client) refresh(ctx context.Context, sess *store.Session) (*store.Session, error) {
	var pair TokenPair
	err := c.do(ctx, call{
		base:   c.accountURL,
		method: http.MethodPost,
		path:   "/v1/auth/refresh",
		in:     TokenPair{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken},
		out:    &pair,
	})
	if err != nil {
		if StatusOf(err) == http.StatusUnauthorized {
			_ = c.sessions.ClearSession(ctx)
			return nil, fmt.Errorf("refresh session: %w", ErrNotLoggedIn)
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return c.save(ctx, pair)
}

// save stores pair, taking the user id and name from the access token.
func (c *Client) save(ctx context.Context, pair TokenPair) (*store.Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(pair.AccessToken, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("parse access token: no subject")
	}
	name, _ := claims["name"].(string)

	sess := store.Session{
		UserID:       sub,
		UserName:     name,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
	if err := c.sessions.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// userPath builds /v1/users/<id><suffix> for the logged in user.
func (c *Client) userPath(ctx context.Context, suffix string) (string, error) {
	sess, err := c.session(ctx)
	if err != nil {
		return "", err
	}
	return "/v1/users/" + url.PathEscape(sess.UserID) + suffix, nil
}

// Package httpapi exposes the account services over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/account/models"
	"github.com/dmitrijs2005/reviewhub/internal/account/services"
	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/httpx"
	"github.com/labstack/echo/v4"
)

type Sessions interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, identifier, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*services.TokenPair, error)
	Revoke(ctx context.Context, actor *auth.Principal, userID string) error
	ChangePassword(ctx context.Context, actor *auth.Principal, userID, oldPassword, newPassword string) (*services.TokenPair, error)
	ChangeUserName(ctx context.Context, actor *auth.Principal, userID, newName string) (*services.TokenPair, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
}

type Roles interface {
	SetRoles(ctx context.Context, actor *auth.Principal, userID string, roleIDs []string) error
	AllRoles(ctx context.Context, actor *auth.Principal) ([]models.Role, error)
	UserRoles(ctx context.Context, userID string) ([]models.Role, error)
}

type Verification interface {
	RequestConfirmation(ctx context.Context, actor *auth.Principal, userID, linkTemplate string) error
	Confirm(ctx context.Context, actor *auth.Principal, userID, token string) error
}

type Avatars interface {
	PresignUpload(ctx context.Context, actor *auth.Principal, userID string) (*services.AvatarUpload, error)
	URL(ctx context.Context, userID string) (string, error)
	Reset(ctx context.Context, actor *auth.Principal, userID string) error
}

// Handler serves the /v1 account routes.
type Handler struct {
	sessions         Sessions
	roles            Roles
	verification     Verification
	avatars          Avatars
	confirmationLink string
}

func NewHandler(sessions Sessions, roles Roles, verification Verification, avatars Avatars, confirmationLink string) *Handler {
	return &Handler{
		sessions:         sessions,
		roles:            roles,
		verification:     verification,
		avatars:          avatars,
		confirmationLink: confirmationLink,
	}
}

type registerRequest struct {
	UserName string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type refreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type changePasswordRequest struct {
	ID          string `param:"id" validate:"uuid"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type changeUserNameRequest struct {
	ID       string `param:"id" validate:"uuid"`
	UserName string `json:"username" validate:"required"`
}

type setRolesRequest struct {
	ID      string   `param:"id" validate:"uuid"`
	RoleIDs []string `json:"role_ids" validate:"dive,uuid"`
}

type confirmRequest struct {
	ID    string `param:"id" validate:"uuid"`
	Token string `json:"token" validate:"required"`
}

type roleResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userResponse struct {
	ID            string    `json:"id"`
	UserName      string    `json:"username"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	RegisteredAt  time.Time `json:"registered_at"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Roles         []string  `json:"roles"`
}

type avatarResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
}

func toRoles(rs []models.Role) []roleResponse {
	out := make([]roleResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, roleResponse{ID: r.ID, Name: r.Name})
	}
	return out
}

func toUser(u *models.User, avatarURL string) userResponse {
	return userResponse{
		ID:            u.ID,
		UserName:      u.UserName,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		RegisteredAt:  u.RegisteredAt,
		AvatarURL:     avatarURL,
		Roles:         u.RoleNames(),
	}
}

func (h *Handler) register(c echo.Context) error {
	var req registerRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	u, err := h.sessions.Register(c.Request().Context(), services.RegisterInput{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUser(u, ""))
}

func (h *Handler) login(c echo.Context) error {
	var req loginRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	pair, err := h.sessions.Login(c.Request().Context(), req.Identifier, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *Handler) refresh(c echo.Context) error {
	var req refreshRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	pair, err := h.sessions.Refresh(c.Request().Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *Handler) revoke(c echo.Context) error {
	id, err := httpx.PathID(c)
	if err != nil {
		return err
	}
	if err := h.sessions.Revoke(c.Request().Context(), httpx.Principal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) profile(c echo.Context) error {
	id, err := httpx.PathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	u, err := h.sessions.Profile(ctx, id)
	if err != nil {
		return err
	}
	avatarURL, err := h.avatars.URL(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUser(u, avatarURL))
}

func (h *Handler) changePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	pair, err := h.sessions.ChangePassword(c.Request().Context(), httpx.Principal(c), req.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *Handler) changeUserName(c echo.Context) error {
	var req changeUserNameRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	pair, err := h.sessions.ChangeUserName(c.Request().Context(), httpx.Principal(c), req.ID, req.UserName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *Handler) setRoles(c echo.Context) error {
	var req setRolesRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.roles.SetRoles(c.Request().Context(), httpx.Principal(c), req.ID, req.RoleIDs); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) userRoles(c echo.Context) error {
	id, err := httpx.PathID(c)
	if err != nil {
		return err
	}
	rs, err := h.roles.UserRoles(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoles(rs))
}

func (h *Handler) allRoles(c echo.Context) error {
	rs, err := h.roles.AllRoles(c.Request().Context(), httpx.Principal(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoles(rs))
}

func (h *Handler) requestConfirmation(c echo.Context) error {
	id, err := httpx.PathID(c)
	if err != nil {
		return err
	}
	err = h.verification.RequestConfirmation(c.Request().Context(), httpx.Principal(c), id, h.confirmationLink)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) confirm(c echo.Context) error {
	var req confirmRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.verification.Confirm(c.Request().Context(), httpx.Principal(c), req.ID, req.Token); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) uploadAvatar(c echo.Context) error {
	id, err := httpx.PathID(c)
	if err != nil {
		return err
	}
	up, err := h.avatars.PresignUpload(c.Request().Context(), httpx.Principal(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, avatarResponse{Key: up.Key, UploadURL: up.URL})
}

func (h *Handler) resetAvatar(c echo.Context) error {
	id, err := httpx.PathID(c)
	if err != nil {
		return err
	}
	if err := h.avatars.Reset(c.Request().Context(), httpx.Principal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

package httpapi

import (
	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/httpx"
	"github.com/labstack/echo/v4"
)

// Register mounts the account routes on e. throttle guards the credential
// and email endpoints; it may be nil.
func Register(e *echo.Echo, h *Handler, authn httpx.Authenticator, throttle echo.MiddlewareFunc) {
	var limited []echo.MiddlewareFunc
	if throttle != nil {
		limited = append(limited, throttle)
	}
	requireAuth := httpx.RequireAuth(authn)

	a := e.Group("/v1/auth")
	a.POST("/register", h.register, limited...)
	a.POST("/login", h.login, limited...)
	a.POST("/refresh", h.refresh, limited...)
	a.POST("/revoke/:id", h.revoke, requireAuth)

	u := e.Group("/v1/users/:id", requireAuth)
	u.GET("", h.profile)
	u.PUT("/password", h.changePassword)
	u.PUT("/username", h.changeUserName)
	u.PUT("/roles", h.setRoles, httpx.RequireRole(auth.RoleAdmin))
	u.GET("/roles", h.userRoles)
	u.POST("/email/confirmation", h.requestConfirmation, limited...)
	u.POST("/email/confirm", h.confirm, limited...)
	u.POST("/avatar", h.uploadAvatar)
	u.DELETE("/avatar", h.resetAvatar)

	e.GET("/v1/roles", h.allRoles, requireAuth)
}

// Package httpapi exposes the catalog over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/category/models"
	"github.com/dmitrijs2005/reviewhub/internal/httpx"
	"github.com/labstack/echo/v4"
)

type Catalog interface {
	All(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id string) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	Search(ctx context.Context, fragment string) ([]models.Category, error)
	Add(ctx context.Context, actor *auth.Principal, name string) (*models.Category, error)
	Rename(ctx context.Context, actor *auth.Principal, id, name string) error
	Remove(ctx context.Context, actor *auth.Principal, id string) error
	AddSubcategory(ctx context.Context, actor *auth.Principal, categoryID, name string) (*models.Subcategory, error)
	RemoveSubcategory(ctx context.Context, actor *auth.Principal, id string) error
}

type Handler struct {
	catalog Catalog
}

func NewHandler(catalog Catalog) *Handler {
	return &Handler{catalog: catalog}
}

type nameRequest struct {
	ID   string `param:"id" validate:"omitempty,uuid"`
	Name string `json:"name" validate:"required,category_name"`
}

type subcategoryResponse struct {
	ID           string `json:"id"`
	CategoryID   string `json:"category_id"`
	Name         string `json:"name"`
	ReviewsCount int    `json:"reviews_count"`
}

type categoryResponse struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	ReviewsCount  int                   `json:"reviews_count"`
	Subcategories []subcategoryResponse `json:"subcategories"`
}

func toSubcategory(s models.Subcategory) subcategoryResponse {
	return subcategoryResponse{ID: s.ID, CategoryID: s.CategoryID, Name: s.Name, ReviewsCount: s.ReviewsCount}
}

func toCategory(c *models.Category) categoryResponse {
	subs := make([]subcategoryResponse, 0, len(c.Subcategories))
	for _, s := range c.Subcategories {
		subs = append(subs, toSubcategory(s))
	}
	return categoryResponse{ID: c.ID, Name: c.Name, ReviewsCount: c.ReviewsCount, Subcategories: subs}
}

func toCategories(cs []models.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(cs))
	for i := range cs {
		out = append(out, toCategory(&cs[i]))
	}
	return out
}

func (h *Handler) all(c echo.Context) error {
	cs, err := h.catalog.All(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategories(cs))
}

func (h *Handler) search(c echo.Context) error {
	cs, err := h.catalog.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategories(cs))
}

func (h *Handler) byName(c echo.Context) error {
	cat, err := h.catalog.FindByName(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategory(cat))
}

func (h *Handler) get(c echo.Context) error {
	id, err := httpx.PathID(c)
	if err != nil {
		return err
	}
	cat, err := h.catalog.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategory(cat))
}

func (h *Handler) add(c echo.Context) error {
	var req nameRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	cat, err := h.catalog.Add(c.Request().Context(), httpx.Principal(c), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCategory(cat))
}

func (h *Handler) rename(c echo.Context) error {
	var req nameRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.catalog.Rename(c.Request().Context(), httpx.Principal(c), req.ID, req.Name); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) remove(c echo.Context) error {
	id, err := httpx.PathID(c)
	if err != nil {
		return err
	}
	if err := h.catalog.Remove(c.Request().Context(), httpx.Principal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) addSubcategory(c echo.Context) error {
	var req nameRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	sub, err := h.catalog.AddSubcategory(c.Request().Context(), httpx.Principal(c), req.ID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSubcategory(*sub))
}

func (h *Handler) removeSubcategory(c echo.Context) error {
	id, err := httpx.PathID(c)
	if err != nil {
		return err
	}
	if err := h.catalog.RemoveSubcategory(c.Request().Context(), httpx.Principal(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Register mounts the catalog routes. Reads are public; changes need an
// admin token.
func Register(e *echo.Echo, h *Handler, authn httpx.Authenticator) {
	g := e.Group("/v1/categories")
	g.GET("", h.all)
	g.GET("/search", h.search)
	g.GET("/by-name/:name", h.byName)
	g.GET("/:id", h.get)

	admin := []echo.MiddlewareFunc{httpx.RequireAuth(authn), httpx.RequireRole(auth.RoleAdmin)}
	g.POST("", h.add, admin...)
	g.PUT("/:id", h.rename, admin...)
	g.DELETE("/:id", h.remove, admin...)
	g.POST("/:id/subcategories", h.addSubcategory, admin...)
	e.DELETE("/v1/subcategories/:id", h.removeSubcategory, admin...)
}

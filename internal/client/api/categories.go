package api

import (
	"context"
	"net/http"
	"net/url"
)

// Categories lists the catalog. It needs no session.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var cs []Category
	if err := c.do(ctx, call{base: c.categoryURL, method: http.MethodGet, path: "/v1/categories", out: &cs}); err != nil {
		return nil, err
	}
	return cs, nil
}

func (c *Client) SearchCategories(ctx context.Context, q string) ([]Category, error) {
	var cs []Category
	path := "/v1/categories/search?q=" + url.QueryEscape(q)
	if err := c.do(ctx, call{base: c.categoryURL, method: http.MethodGet, path: path, out: &cs}); err != nil {
		return nil, err
	}
	return cs, nil
}

func (c *Client) AddCategory(ctx context.Context, name string) (*Category, error) {
	var cat Category
	err := c.do(ctx, call{
		base:   c.categoryURL,
		method: http.MethodPost,
		path:   "/v1/categories",
		in:     map[string]string{"name": name},
		out:    &cat,
		authed: true,
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Client) RemoveCategory(ctx context.Context, id string) error {
	return c.do(ctx, call{
		base:   c.categoryURL,
		method: http.MethodDelete,
		path:   "/v1/categories/" + url.PathEscape(id),
		authed: true,
	})
}

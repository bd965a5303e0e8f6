package backend

import (
	"context"
	"net/http"

	"github.com/Chqrety/reservation/internal/models"
)

const categoriesPath = "/locations-categories"

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	const cacheKey = "categories"
	var cached []models.Category
	if c.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	body, err := c.do(ctx, request{endpoint: "categories.list", method: http.MethodGet, path: categoriesPath})
	if err != nil {
		return nil, err
	}
	items, err := decodeList[models.Category](body)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, items)
	return items, nil
}

type categoryPayload struct {
	Name string `json:"name"`
}

func (c *Client) CreateCategory(ctx context.Context, name string) error {
	req, err := jsonRequest("categories.create", http.MethodPost, categoriesPath, categoryPayload{Name: name})
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, req); err != nil {
		return err
	}
	c.backend.invalidate(ctx, "categories", "locations")
	return nil
}

func (c *Client) UpdateCategory(ctx context.Context, id int64, name string) error {
	req, err := jsonRequest("categories.update", http.MethodPut, idPath(categoriesPath, id), categoryPayload{Name: name})
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, req); err != nil {
		return err
	}
	c.backend.invalidate(ctx, "categories", "locations")
	return nil
}

// DeleteCategory does not check for locations still referencing the
// category; the backend decides.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	_, err := c.do(ctx, request{endpoint: "categories.delete", method: http.MethodDelete, path: idPath(categoriesPath, id)})
	if err != nil {
		return err
	}
	c.backend.invalidate(ctx, "categories", "locations")
	return nil
}

package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/Chqrety/reservation/internal/models"
)

const (
	locationsPath      = "/locations"
	publicLocationPath = "/location"
)

// ListLocations is the admin list filtered by search text and category.
func (c *Client) ListLocations(ctx context.Context, f models.LocationFilter) ([]models.Location, error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.CategoryID != 0 {
		q.Set("category_id", strconv.FormatInt(f.CategoryID, 10))
	}
	body, err := c.do(ctx, request{endpoint: "locations.list", method: http.MethodGet, path: locationsPath, query: q})
	if err != nil {
		return nil, err
	}
	return decodeList[models.Location](body)
}

// PublicLocations is the catalog list, optionally narrowed to a category.
func (c *Client) PublicLocations(ctx context.Context, categoryID int64) ([]models.Location, error) {
	cacheKey := fmt.Sprintf("locations:public:%d", categoryID)
	var cached []models.Location
	if c.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	q := url.Values{}
	if categoryID != 0 {
		q.Set("category_id", strconv.FormatInt(categoryID, 10))
	}
	body, err := c.do(ctx, request{
		endpoint: "locations.public",
		method:   http.MethodGet,
		path:     publicLocationPath + "/filter/check",
		query:    q,
	})
	if err != nil {
		return nil, err
	}
	items, err := decodeList[models.Location](body)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, items)
	return items, nil
}

// GetLocation fetches one location. A response without success=true is
// ErrNotFound, same as a 404.
func (c *Client) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	cacheKey := fmt.Sprintf("locations:detail:%d", id)
	var cached models.Location
	if c.readCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	body, err := c.do(ctx, request{endpoint: "locations.get", method: http.MethodGet, path: idPath(publicLocationPath, id)})
	if err != nil {
		return nil, err
	}
	loc, err := decodeItem[models.Location](body)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, loc)
	return loc, nil
}

type locationPayload struct {
	Title       string `json:"title"`
	CategoryID  int64  `json:"category_id"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

// SaveLocation creates (id == 0) or updates a location. With an image the
// form goes out as multipart and an update is a POST carrying _method=PUT;
// without one it is plain JSON POST or PUT.
func (c *Client) SaveLocation(ctx context.Context, id int64, form models.LocationForm) error {
	path := locationsPath
	if id != 0 {
		path = idPath(locationsPath, id)
	}

	var (
		req request
		err error
	)
	if form.Image != nil {
		req, err = multipartLocation(path, id != 0, form)
	} else {
		method := http.MethodPost
		endpoint := "locations.create"
		if id != 0 {
			method = http.MethodPut
			endpoint = "locations.update"
		}
		req, err = jsonRequest(endpoint, method, path, locationPayload{
			Title:       form.Title,
			CategoryID:  form.CategoryID,
			Description: form.Description,
			Address:     form.Address,
		})
	}
	if err != nil {
		return err
	}

	if _, err := c.do(ctx, req); err != nil {
		return err
	}
	c.backend.invalidate(ctx, "locations")
	return nil
}

func multipartLocation(path string, update bool, form models.LocationForm) (request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"title", form.Title},
		{"category_id", strconv.FormatInt(form.CategoryID, 10)},
		{"description", form.Description},
		{"address", form.Address},
	}
	if update {
		fields = append(fields, [2]string{"_method", http.MethodPut})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return request{}, fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, form.Image.Filename))
	contentType := form.Image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return request{}, fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(form.Image.Data); err != nil {
		return request{}, fmt.Errorf("write image part: %w", err)
	}
	if err := w.Close(); err != nil {
		return request{}, err
	}

	endpoint := "locations.create"
	if update {
		endpoint = "locations.update"
	}
	return request{
		endpoint:    endpoint,
		method:      http.MethodPost,
		path:        path,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, nil
}

func (c *Client) DeleteLocation(ctx context.Context, id int64) error {
	_, err := c.do(ctx, request{endpoint: "locations.delete", method: http.MethodDelete, path: idPath(locationsPath, id)})
	if err != nil {
		return err
	}
	c.backend.invalidate(ctx, "locations")
	return nil
}

package backend

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/Chqrety/reservation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func recordingBackend(t *testing.T, status int, response any) (*Backend, *[]captured) {
	t.Helper()
	var calls []captured
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		c := captured{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		if r.Header.Get("Content-Type") == "application/json" {
			c.body = readBody(t, r)
		}
		calls = append(calls, c)
		writeJSON(w, status, response)
	})
	return b, &calls
}

func TestLogin(t *testing.T) {
	b, calls := recordingBackend(t, http.StatusOK, map[string]any{
		"data": map[string]any{"token": "t1", "user": map[string]any{"name": "A"}},
	})

	s, err := b.Public().Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "t1", s.Token)
	assert.Equal(t, "A", s.User.Name)

	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, http.MethodPost, c.method)
	assert.Equal(t, "/api/auth/login", c.path)
	assert.Equal(t, "a@b.c", c.body["email"])
	assert.Equal(t, "secret", c.body["password"])
}

func TestLoginWithoutToken(t *testing.T) {
	b, _ := recordingBackend(t, http.StatusOK, map[string]any{"data": map[string]any{}})
	_, err := b.Public().Login(context.Background(), models.Credentials{})
	assert.ErrorIs(t, err, ErrRejected)
}

func TestLoginUnauthorizedKeepsMessage(t *testing.T) {
	b, _ := recordingBackend(t, http.StatusUnauthorized, map[string]any{"message": "Email atau password salah"})
	_, err := b.Public().Login(context.Background(), models.Credentials{Email: "x", Password: "y"})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Email atau password salah", Message(err))
}

func TestLogout(t *testing.T) {
	b, calls := recordingBackend(t, http.StatusOK, map[string]any{})
	require.NoError(t, b.Public().Logout(context.Background()))
	assert.Equal(t, "/api/auth/logout", (*calls)[0].path)
	assert.Equal(t, http.MethodPost, (*calls)[0].method)
}

func TestCategoryEndpoints(t *testing.T) {
	b, calls := recordingBackend(t, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	c := b.Public()
	ctx := context.Background()

	_, err := c.ListCategories(ctx)
	require.NoError(t, err)
	require.NoError(t, c.CreateCategory(ctx, "Gedung"))
	require.NoError(t, c.UpdateCategory(ctx, 4, "Hall"))
	require.NoError(t, c.DeleteCategory(ctx, 4))

	got := *calls
	require.Len(t, got, 4)
	assert.Equal(t, captured{method: http.MethodGet, path: "/api/locations-categories"}, got[0])
	assert.Equal(t, http.MethodPost, got[1].method)
	assert.Equal(t, "Gedung", got[1].body["name"])
	assert.Equal(t, http.MethodPut, got[2].method)
	assert.Equal(t, "/api/locations-categories/4", got[2].path)
	assert.Equal(t, "Hall", got[2].body["name"])
	assert.Equal(t, http.MethodDelete, got[3].method)
	assert.Equal(t, "/api/locations-categories/4", got[3].path)
}

func TestListLocationsQuery(t *testing.T) {
	b, calls := recordingBackend(t, http.StatusOK, map[string]any{"success": true, "data": []any{
		map[string]any{"id": 1, "title": "Hall", "category": map[string]any{"id": 2, "name": "Sport"}},
	}})

	items, err := b.Public().ListLocations(context.Background(), models.LocationFilter{Search: "hall a", CategoryID: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Sport", items[0].CategoryName())

	assert.Equal(t, "/api/locations", (*calls)[0].path)
	assert.Equal(t, "category_id=2&search=hall+a", (*calls)[0].query)
}

func TestPublicLocationsAndDetail(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/location/filter/check":
			assert.Equal(t, "3", r.URL.Query().Get("category_id"))
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []any{map[string]any{"id": 1, "name": "Hall"}}})
		case "/api/location/1":
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": 1, "name": "Hall", "address": "Main St"}})
		case "/api/location/2":
			writeJSON(w, http.StatusOK, map[string]any{"success": false})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "no route"})
		}
	})
	c := b.Public()
	ctx := context.Background()

	items, err := c.PublicLocations(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	loc, err := c.GetLocation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Main St", loc.Address)

	_, err = c.GetLocation(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound, "absent success flag is not-found")

	_, err = c.GetLocation(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveLocationJSON(t *testing.T) {
	b, calls := recordingBackend(t, http.StatusOK, map[string]any{"success": true})
	c := b.Public()
	ctx := context.Background()
	form := models.LocationForm{Title: "Hall", CategoryID: 2, Description: "Big", Address: "Main St"}

	require.NoError(t, c.SaveLocation(ctx, 0, form))
	require.NoError(t, c.SaveLocation(ctx, 5, form))

	got := *calls
	assert.Equal(t, http.MethodPost, got[0].method)
	assert.Equal(t, "/api/locations", got[0].path)
	assert.Equal(t, "Hall", got[0].body["title"])
	assert.Equal(t, float64(2), got[0].body["category_id"])
	assert.Equal(t, http.MethodPut, got[1].method)
	assert.Equal(t, "/api/locations/5", got[1].path)
}

func TestSaveLocationMultipartOverridesMethod(t *testing.T) {
	var (
		method, path, override, title, filename string
		image                                   []byte
	)
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		override = r.FormValue("_method")
		title = r.FormValue("title")
		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		filename = hdr.Filename
		image, _ = io.ReadAll(f)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	form := models.LocationForm{
		Title:      "Hall",
		CategoryID: 1,
		Image:      &models.Upload{Filename: "hall.png", ContentType: "image/png", Data: []byte("PNGDATA")},
	}
	require.NoError(t, b.Public().SaveLocation(context.Background(), 9, form))

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/api/locations/9", path)
	assert.Equal(t, "PUT", override)
	assert.Equal(t, "Hall", title)
	assert.Equal(t, "hall.png", filename)
	assert.Equal(t, []byte("PNGDATA"), image)
}

func TestSaveLocationValidation(t *testing.T) {
	b, _ := recordingBackend(t, http.StatusUnprocessableEntity, map[string]any{
		"errors": map[string][]string{"title": {"The title field is required."}},
	})
	err := b.Public().SaveLocation(context.Background(), 0, models.LocationForm{})
	fields, ok := FieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "The title field is required.", fields.First("title"))
}

func TestListReservationsQuery(t *testing.T) {
	b, calls := recordingBackend(t, http.StatusOK, map[string]any{"data": []any{
		map[string]any{"id": 1, "order_number": "ORD-1", "location": map[string]any{"title": "Hall"}},
	}})
	c := b.Public()
	ctx := context.Background()

	items, err := c.ListReservations(ctx, models.ReservationFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Hall", items[0].LocationName())
	assert.Equal(t, "", (*calls)[0].query, "empty filters are not sent")

	_, err = c.ListReservations(ctx, models.ReservationFilter{Search: "ORD", Date: "2026-01-02", LocationID: 3})
	require.NoError(t, err)
	assert.Equal(t, "/api/reservations/filter/check", (*calls)[1].path)
	assert.Equal(t, "date=2026-01-02&location_id=3&search=ORD", (*calls)[1].query)
}

func TestCreateReservation(t *testing.T) {
	b, calls := recordingBackend(t, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"id": 10, "order_number": "ORD-10"},
	})

	res, err := b.Public().CreateReservation(context.Background(), models.ReservationRequest{
		LocationID: 2, CustomerName: "Budi", PhoneNumber: "0812", Address: "Main St", Date: "2026-02-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-10", res.OrderNumber)

	c := (*calls)[0]
	assert.Equal(t, "/api/reservations/store", c.path)
	assert.Equal(t, float64(2), c.body["location_id"])
	assert.Equal(t, "2026-02-01", c.body["date"])
}

func TestCreateReservationMissingDate(t *testing.T) {
	b, _ := recordingBackend(t, http.StatusUnprocessableEntity, map[string]any{
		"errors": map[string][]string{"date": {"The date field is required."}},
	})
	res, err := b.Public().CreateReservation(context.Background(), models.ReservationRequest{LocationID: 2})
	assert.Nil(t, res)
	fields, ok := FieldErrors(err)
	require.True(t, ok)
	assert.True(t, fields.Has("date"))
}

func TestCheckReservationTrimsInput(t *testing.T) {
	b, calls := recordingBackend(t, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"order_number": "ORD-1", "customer_name": "Budi"},
	})

	res, err := b.Public().CheckReservation(context.Background(), models.OrderLookup{OrderNumber: "ORD-1", PhoneNumber: " 0812 "})
	require.NoError(t, err)
	assert.Equal(t, "Budi", res.CustomerName)

	c := (*calls)[0]
	assert.Equal(t, "/api/reservations/check", c.path)
	assert.Equal(t, map[string]any{"order_number": "ORD-1", "phone_number": "0812"}, c.body)
}

func TestCheckReservationNotFound(t *testing.T) {
	t.Run("AbsentPayload", func(t *testing.T) {
		b, _ := recordingBackend(t, http.StatusOK, map[string]any{"success": false, "message": "not found"})
		_, err := b.Public().CheckReservation(context.Background(), models.OrderLookup{OrderNumber: "X"})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.False(t, IsConnection(err))
	})
	t.Run("Status404", func(t *testing.T) {
		b, _ := recordingBackend(t, http.StatusNotFound, map[string]any{"message": "not found"})
		_, err := b.Public().CheckReservation(context.Background(), models.OrderLookup{OrderNumber: "X"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteEndpoints(t *testing.T) {
	b, calls := recordingBackend(t, http.StatusOK, map[string]any{"success": true})
	c := b.Public()
	ctx := context.Background()

	require.NoError(t, c.DeleteLocation(ctx, 3))
	require.NoError(t, c.DeleteReservation(ctx, 4))

	assert.Equal(t, captured{method: http.MethodDelete, path: "/api/locations/3"}, (*calls)[0])
	assert.Equal(t, captured{method: http.MethodDelete, path: "/api/reservations/4"}, (*calls)[1])
}

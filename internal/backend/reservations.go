package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Chqrety/reservation/internal/models"
)

const reservationsPath = "/reservations"

// ListReservations is the admin list. How search, date and location combine
// is decided by the backend.
func (c *Client) ListReservations(ctx context.Context, f models.ReservationFilter) ([]models.Reservation, error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Date != "" {
		q.Set("date", f.Date)
	}
	if f.LocationID != 0 {
		q.Set("location_id", strconv.FormatInt(f.LocationID, 10))
	}
	body, err := c.do(ctx, request{
		endpoint: "reservations.list",
		method:   http.MethodGet,
		path:     reservationsPath + "/filter/check",
		query:    q,
	})
	if err != nil {
		return nil, err
	}
	return decodeList[models.Reservation](body)
}

// CreateReservation books a location and returns the stored reservation
// carrying its order number.
func (c *Client) CreateReservation(ctx context.Context, r models.ReservationRequest) (*models.Reservation, error) {
	req, err := jsonRequest("reservations.create", http.MethodPost, reservationsPath+"/store", r)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := decodeItem[models.Reservation](body)
	if err != nil {
		return nil, ErrRejected
	}
	return res, nil
}

// CheckReservation looks a reservation up by order number and phone number.
// Both are trimmed before sending.
func (c *Client) CheckReservation(ctx context.Context, lookup models.OrderLookup) (*models.Reservation, error) {
	lookup.OrderNumber = strings.TrimSpace(lookup.OrderNumber)
	lookup.PhoneNumber = strings.TrimSpace(lookup.PhoneNumber)

	req, err := jsonRequest("reservations.check", http.MethodPost, reservationsPath+"/check", lookup)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeItem[models.Reservation](body)
}

func (c *Client) DeleteReservation(ctx context.Context, id int64) error {
	_, err := c.do(ctx, request{endpoint: "reservations.delete", method: http.MethodDelete, path: idPath(reservationsPath, id)})
	return err
}

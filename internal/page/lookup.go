package page

import (
	"context"
	"errors"
	"strings"

	"github.com/Chqrety/reservation/internal/backend"
	"github.com/Chqrety/reservation/internal/models"
)

// LookupStatus is the terminal state of a detail lookup.
type LookupStatus int

const (
	LookupFound LookupStatus = iota
	LookupNotFound
	LookupFailed
)

// Lookup is the result of fetching one record.
type Lookup[T any] struct {
	Status LookupStatus
	Item   *T
	Err    error
	Notice *models.Notice
}

func (l Lookup[T]) Found() bool { return l.Status == LookupFound }

const (
	locationNotFoundText = "Gedung tidak ditemukan."
	locationFailedText   = "Gagal memuat data gedung."
	orderNotFoundText    = "Data pemesanan tidak ditemukan. Pastikan nomor order dan HP benar."
	orderFailedText      = "Terjadi kesalahan saat mencari data. Silakan coba lagi."
)

// LocationGetter fetches a location by id.
type LocationGetter interface {
	GetLocation(ctx context.Context, id int64) (*models.Location, error)
}

// ReservationChecker fetches a reservation by order number and phone.
type ReservationChecker interface {
	CheckReservation(ctx context.Context, q models.OrderLookup) (*models.Reservation, error)
}

// FindLocation resolves a location detail. A missing location is its own
// state, never an endless loading one.
func FindLocation(ctx context.Context, c LocationGetter, id int64) Lookup[models.Location] {
	if id <= 0 {
		return Lookup[models.Location]{Status: LookupNotFound, Err: backend.ErrNotFound, Notice: models.ErrorNotice(locationNotFoundText)}
	}
	item, err := c.GetLocation(ctx, id)
	return resolve(item, err, locationNotFoundText, locationFailedText)
}

// FindOrder resolves a reservation by its order number and phone number,
// both trimmed before the call.
func FindOrder(ctx context.Context, c ReservationChecker, q models.OrderLookup) Lookup[models.Reservation] {
	q.OrderNumber = strings.TrimSpace(q.OrderNumber)
	q.PhoneNumber = strings.TrimSpace(q.PhoneNumber)
	item, err := c.CheckReservation(ctx, q)
	return resolve(item, err, orderNotFoundText, orderFailedText)
}

func resolve[T any](item *T, err error, notFound, failed string) Lookup[T] {
	switch {
	case err == nil && item != nil:
		return Lookup[T]{Status: LookupFound, Item: item}
	case err == nil || errors.Is(err, backend.ErrNotFound):
		return Lookup[T]{Status: LookupNotFound, Err: backend.ErrNotFound, Notice: models.ErrorNotice(notFound)}
	default:
		return Lookup[T]{Status: LookupFailed, Err: err, Notice: models.ErrorNotice(failed)}
	}
}

package web

import (
	"context"
	"errors"

	"github.com/Chqrety/reservation/internal/backend"
	"github.com/Chqrety/reservation/internal/models"
	"github.com/Chqrety/reservation/internal/page"
)

type noFilter struct{}

func (s *Server) categoryList(v *visit) *page.ListView[models.Category, noFilter] {
	return page.View(s.registry, v.sid, "categories", func() *page.ListView[models.Category, noFilter] {
		return page.NewListView("categories", func(ctx context.Context, _ noFilter) ([]models.Category, error) {
			return v.client.ListCategories(ctx)
		}, page.ListOptions{
			FailureText: func(error) string { return "Gagal mengambil data kategori." },
		})
	})
}

func (s *Server) locationList(v *visit) *page.ListView[models.Location, models.LocationFilter] {
	return page.View(s.registry, v.sid, "locations", func() *page.ListView[models.Location, models.LocationFilter] {
		return page.NewListView("locations", v.client.ListLocations, page.ListOptions{
			FailureText: func(error) string { return "Gagal memuat data gedung." },
		})
	})
}

func (s *Server) reservationList(v *visit) *page.ListView[models.Reservation, models.ReservationFilter] {
	return page.View(s.registry, v.sid, "reservations", func() *page.ListView[models.Reservation, models.ReservationFilter] {
		return page.NewListView("reservations", v.client.ListReservations, page.ListOptions{
			Debounce: s.cfg.Filters.ReservationDebounce,
			FailureText: func(err error) string {
				if errors.Is(err, backend.ErrNotFound) {
					return "Daftar reservasi tidak ditemukan (404)."
				}
				return "Gagal mengambil data reservasi."
			},
		})
	})
}

// loadList fetches list with filter. After a mutation redirect (a flash notice
// is pending) the list was already refreshed by the mutation and is reused.
func loadList[T any, F comparable](ctx context.Context, list *page.ListView[T, F], filter F, afterMutation bool) (page.State[T, F], error) {
	if afterMutation {
		if snap := list.Snapshot(); snap.Loaded && snap.Filter == filter {
			return snap, nil
		}
	}
	return list.ApplyNow(ctx, filter)
}

func refresher[T, F any](list *page.ListView[T, F]) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := list.Refresh(ctx)
		return err
	}
}

// pickNotice prefers a notice produced by this request over a flash notice.
func pickNotice(notices ...*models.Notice) *models.Notice {
	for _, n := range notices {
		if n != nil {
			return n
		}
	}
	return nil
}

type confirmData struct {
	Prompt string
	Action string
	Cancel string
}

package web

import (
	"net/http"

	"github.com/Chqrety/reservation/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type dashboardData struct {
	Categories   int
	Locations    int
	Reservations int
}

// handleDashboard counts the three collections in parallel. A failed count
// is logged and shown as zero.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, v *visit) {
	var data dashboardData

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		items, err := v.client.ListCategories(ctx)
		data.Categories = len(items)
		return err
	})
	g.Go(func() error {
		items, err := v.client.PublicLocations(ctx, 0)
		data.Locations = len(items)
		return err
	})
	g.Go(func() error {
		items, err := v.client.ListReservations(ctx, models.ReservationFilter{})
		data.Reservations = len(items)
		return err
	})
	if err := g.Wait(); err != nil {
		if s.unauthorized(w, r, v, err) {
			return
		}
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("load dashboard stats")
	}

	s.render(w, r, http.StatusOK, "dashboard", view{Title: "Dashboard", User: v.user(), Notice: v.notice, Data: data})
}

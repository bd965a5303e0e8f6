package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Chqrety/reservation/internal/events"
	"github.com/Chqrety/reservation/internal/export"
	"github.com/Chqrety/reservation/internal/models"
	"github.com/Chqrety/reservation/internal/page"

	"github.com/rs/zerolog"
)

type reservationsData struct {
	Items     []models.Reservation
	Locations []models.Location
	Filter    models.ReservationFilter
	Notice    *models.Notice
	// Query is the encoded filter, reused by the export link.
	Query string
}

func reservationFilter(r *http.Request) models.ReservationFilter {
	return models.ReservationFilter{
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		Date:       strings.TrimSpace(r.URL.Query().Get("date")),
		LocationID: queryInt(r, "location_id"),
	}
}

func encodeFilter(f models.ReservationFilter) string {
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
	return q.Encode()
}

func (s *Server) handleReservations(w http.ResponseWriter, r *http.Request, v *visit) {
	ctx := r.Context()
	filter := reservationFilter(r)
	state, err := loadList(ctx, s.reservationList(v), filter, v.notice != nil)
	if s.unauthorized(w, r, v, err) {
		return
	}

	locations, err := v.client.ListLocations(ctx, models.LocationFilter{})
	if s.unauthorized(w, r, v, err) {
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("load locations for reservation filter")
	}

	s.render(w, r, http.StatusOK, "reservations", view{
		Title:  "Reservasi",
		User:   v.user(),
		Notice: v.notice,
		Data: reservationsData{
			Items:     state.Items,
			Locations: locations,
			Filter:    state.Filter,
			Notice:    state.Notice,
			Query:     encodeFilter(state.Filter),
		},
	})
}

// handleReservationRows serves the live-search fragment. Rapid filter
// changes are debounced; a request overtaken by a newer one gets 204.
func (s *Server) handleReservationRows(w http.ResponseWriter, r *http.Request, v *visit) {
	state, err := s.reservationList(v).Apply(r.Context(), reservationFilter(r))
	if errors.Is(err, page.ErrSuperseded) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if s.unauthorized(w, r, v, err) {
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("filter reservations")
	}
	s.execute(w, r, http.StatusOK, "reservations", "reservation_rows", reservationsData{
		Items:  state.Items,
		Filter: state.Filter,
		Notice: state.Notice,
		Query:  encodeFilter(state.Filter),
	})
}

func (s *Server) handleReservationExport(w http.ResponseWriter, r *http.Request, v *visit) {
	ctx := r.Context()
	filter := reservationFilter(r)
	items, err := v.client.ListReservations(ctx, filter)
	if s.unauthorized(w, r, v, err) {
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("export reservations")
		s.flash(w, r, v, models.ErrorNotice("Gagal mengekspor data reservasi."), "/admin/reservations?"+encodeFilter(filter))
		return
	}

	var buf bytes.Buffer
	if err := export.Reservations(&buf, s.cfg.Exports.SheetName, filter, items); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("build reservation workbook")
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(s.now())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
	zerolog.Ctx(ctx).Info().Int("rows", len(items)).Msg("reservations exported")
}

func (s *Server) handleReservationConfirm(w http.ResponseWriter, r *http.Request, v *visit) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, http.StatusOK, "confirm", view{Title: "Hapus Reservasi", User: v.user(), Data: confirmData{
		Prompt: "Hapus data ini?",
		Action: fmt.Sprintf("/admin/reservations/%d/delete", id),
		Cancel: "/admin/reservations",
	}})
}

func (s *Server) handleReservationDelete(w http.ResponseWriter, r *http.Request, v *visit) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	list := s.reservationList(v)
	d := page.Deleter{
		Remove:  v.client.DeleteReservation,
		Refresh: refresher(list),
	}
	notice, err := d.Delete(r.Context(), id, confirmed(r))
	if errors.Is(err, page.ErrNotConfirmed) {
		http.Redirect(w, r, "/admin/reservations", http.StatusSeeOther)
		return
	}
	if s.unauthorized(w, r, v, err) {
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int64("reservation_id", id).Msg("delete reservation")
	}
	if notice.Type == models.NoticeSuccess {
		by := ""
		if u := v.user(); u != nil {
			by = u.Email
		}
		payload := events.ReservationPayload{ReservationID: id, ChangedBy: by}
		if err := s.bus.PublishJSON(events.EventReservationDeleted, payload); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("publish reservation_deleted")
		}
	}
	s.flash(w, r, v, notice, "/admin/reservations?"+encodeFilter(list.Snapshot().Filter))
}

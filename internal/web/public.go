package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Chqrety/reservation/internal/backend"
	"github.com/Chqrety/reservation/internal/events"
	"github.com/Chqrety/reservation/internal/models"
	"github.com/Chqrety/reservation/internal/page"

	"github.com/rs/zerolog"
)

type landingData struct {
	Categories []models.Category
	Locations  []models.Location
	CategoryID int64
	Query      string
	Loaded     bool
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request, v *visit) {
	ctx := r.Context()
	categoryID := queryInt(r, "category_id")
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	api := s.backend.Public()
	build := func() *page.ListView[models.Location, int64] {
		return page.NewListView("landing", api.PublicLocations, page.ListOptions{
			FailureText: func(error) string { return "Gagal memuat data gedung." },
		})
	}
	// Only logged-in sessions keep a controller in the registry; anonymous
	// visitors, cookieless or not, get one per request.
	var list *page.ListView[models.Location, int64]
	if v.session != nil {
		list = page.View(s.registry, v.sid, "landing", build)
	} else {
		list = build()
	}
	state, err := list.ApplyNow(ctx, categoryID)
	if s.unauthorized(w, r, v, err) {
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("load public locations")
	}

	categories, err := api.ListCategories(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("load categories")
	}

	notice := v.notice
	if state.Notice != nil {
		notice = state.Notice
	}
	s.render(w, r, http.StatusOK, "landing", view{
		Title:  "Sewa Gedung",
		User:   v.user(),
		Notice: notice,
		Data: landingData{
			Categories: categories,
			Locations:  page.MatchLocations(state.Items, query),
			CategoryID: categoryID,
			Query:      query,
			Loaded:     state.Loaded,
		},
	})
}

type bookData struct {
	Location *models.Location
	Form     page.FormState[models.ReservationRequest]
}

func (s *Server) handleBookForm(w http.ResponseWriter, r *http.Request, v *visit) {
	loc, ok := s.findLocation(w, r, v)
	if !ok {
		return
	}
	form := page.NewForm[models.ReservationRequest](nil, page.FormOptions{})
	form.Open(page.ModeCreate, 0, models.ReservationRequest{LocationID: loc.ID, Address: loc.Address})
	s.render(w, r, http.StatusOK, "book", view{
		Title:  "Pesan " + loc.DisplayName(),
		User:   v.user(),
		Notice: v.notice,
		Data:   bookData{Location: loc, Form: form.State()},
	})
}

func (s *Server) handleBookSubmit(w http.ResponseWriter, r *http.Request, v *visit) {
	loc, ok := s.findLocation(w, r, v)
	if !ok {
		return
	}
	ctx := r.Context()

	req := models.ReservationRequest{
		LocationID:   loc.ID,
		CustomerName: strings.TrimSpace(r.FormValue("customer_name")),
		PhoneNumber:  strings.TrimSpace(r.FormValue("phone_number")),
		Address:      strings.TrimSpace(r.FormValue("address")),
		Date:         strings.TrimSpace(r.FormValue("date")),
		Note:         strings.TrimSpace(r.FormValue("note")),
	}

	var created *models.Reservation
	form := page.NewForm(func(ctx context.Context, _ page.Mode, _ int64, values models.ReservationRequest) error {
		res, err := s.backend.Public().CreateReservation(ctx, values)
		created = res
		return err
	}, page.FormOptions{
		SuccessText: func(page.Mode) string {
			if created == nil {
				return "Berhasil!"
			}
			return "Berhasil! Order ID Anda: " + created.OrderNumber
		},
		FailureText: "Terjadi kesalahan sistem (500).",
	})
	form.Open(page.ModeCreate, 0, req)

	outcome, err := form.Submit(ctx, req)
	if s.unauthorized(w, r, v, err) {
		return
	}
	state := form.State()

	switch outcome {
	case page.OutcomeSuccess:
		s.publishCreated(ctx, created, req, loc)
		s.flash(w, r, v, state.Notice, fmt.Sprintf("/locations/%d/book", loc.ID))
		return
	case page.OutcomeValidationFailed:
		s.render(w, r, http.StatusUnprocessableEntity, "book", view{
			Title: "Pesan " + loc.DisplayName(),
			User:  v.user(),
			Data:  bookData{Location: loc, Form: state},
		})
	default:
		zerolog.Ctx(ctx).Error().Err(err).Int64("location_id", loc.ID).Msg("create reservation")
		s.render(w, r, http.StatusBadGateway, "book", view{
			Title:  "Pesan " + loc.DisplayName(),
			User:   v.user(),
			Notice: state.Notice,
			Data:   bookData{Location: loc, Form: state},
		})
	}
}

// findLocation resolves the {id} location or renders the failure page.
func (s *Server) findLocation(w http.ResponseWriter, r *http.Request, v *visit) (*models.Location, bool) {
	id, _ := pathID(r)
	lookup := page.FindLocation(r.Context(), s.backend.Public(), id)
	if lookup.Found() {
		return lookup.Item, true
	}
	if s.unauthorized(w, r, v, lookup.Err) {
		return nil, false
	}

	status := http.StatusNotFound
	if lookup.Status == page.LookupFailed {
		status = http.StatusBadGateway
		zerolog.Ctx(r.Context()).Error().Err(lookup.Err).Int64("location_id", id).Msg("load location")
	}
	s.render(w, r, status, "error", view{Title: "Gedung", User: v.user(), Notice: lookup.Notice})
	return nil, false
}

func (s *Server) publishCreated(ctx context.Context, created *models.Reservation, req models.ReservationRequest, loc *models.Location) {
	if created == nil {
		return
	}
	res := models.Reservation{
		ID:              created.ID,
		OrderNumber:     created.OrderNumber,
		CustomerName:    req.CustomerName,
		PhoneNumber:     req.PhoneNumber,
		Address:         req.Address,
		ReservationDate: req.Date,
		Note:            req.Note,
		LocationID:      req.LocationID,
		Location:        loc,
	}
	if err := s.bus.PublishJSON(events.EventReservationCreated, events.NewReservationPayload(&res, "")); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("order_number", res.OrderNumber).Msg("publish reservation_created")
	}
}

type checkData struct {
	OrderNumber string
	PhoneNumber string
	Result      *models.Reservation
}

func (s *Server) handleCheckForm(w http.ResponseWriter, r *http.Request, v *visit) {
	s.render(w, r, http.StatusOK, "check", view{Title: "Cek Pesanan", User: v.user(), Notice: v.notice, Data: checkData{}})
}

func (s *Server) handleCheckSubmit(w http.ResponseWriter, r *http.Request, v *visit) {
	q := models.OrderLookup{OrderNumber: r.FormValue("order_number"), PhoneNumber: r.FormValue("phone_number")}
	data := checkData{OrderNumber: strings.TrimSpace(q.OrderNumber), PhoneNumber: strings.TrimSpace(q.PhoneNumber)}

	if !s.limiter.Allow(r) {
		s.render(w, r, http.StatusTooManyRequests, "check", view{
			Title:  "Cek Pesanan",
			User:   v.user(),
			Notice: models.ErrorNotice("Terlalu banyak permintaan. Silakan coba lagi nanti."),
			Data:   data,
		})
		return
	}

	lookup := page.FindOrder(r.Context(), s.backend.Public(), q)
	if s.unauthorized(w, r, v, lookup.Err) {
		return
	}

	status := http.StatusOK
	switch lookup.Status {
	case page.LookupFound:
		data.Result = lookup.Item
	case page.LookupNotFound:
		status = http.StatusNotFound
	default:
		status = http.StatusBadGateway
		if backend.IsConnection(lookup.Err) {
			zerolog.Ctx(r.Context()).Warn().Err(lookup.Err).Msg("check order: backend unreachable")
		}
	}
	s.render(w, r, status, "check", view{Title: "Cek Pesanan", User: v.user(), Notice: lookup.Notice, Data: data})
}

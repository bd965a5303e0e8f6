package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Chqrety/reservation/internal/events"
	"github.com/Chqrety/reservation/internal/models"
	"github.com/Chqrety/reservation/internal/page"

	"github.com/rs/zerolog"
)

const (
	maxUploadMemory = 10 << 20
	maxImageSize    = 5 << 20
)

type locationsData struct {
	Items      []models.Location
	Categories []models.Category
	Filter     models.LocationFilter
	Form       page.FormState[models.LocationForm]
	// Image is the current image of the location being edited.
	Image string
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request, v *visit) {
	ctx := r.Context()
	filter := models.LocationFilter{
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		CategoryID: queryInt(r, "category_id"),
	}
	list := s.locationList(v)
	state, err := loadList(ctx, list, filter, v.notice != nil)
	if s.unauthorized(w, r, v, err) {
		return
	}

	form := s.locationForm(v, list)
	image := ""
	if r.URL.Query().Get("modal") == "create" {
		form.Open(page.ModeCreate, 0, models.LocationForm{})
	} else if id := queryInt(r, "edit"); id > 0 {
		for _, l := range state.Items {
			if l.ID == id {
				form.Open(page.ModeEdit, id, models.LocationForm{
					Title:       l.DisplayName(),
					CategoryID:  l.CategoryID,
					Description: l.Description,
					Address:     l.Address,
				})
				image = l.Image
				break
			}
		}
	}

	s.renderLocations(w, r, v, http.StatusOK, state, form.State(), image, pickNotice(state.Notice, v.notice))
}

func (s *Server) handleLocationSave(w http.ResponseWriter, r *http.Request, v *visit) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	values := models.LocationForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		CategoryID:  formInt(r, "category_id"),
		Description: strings.TrimSpace(r.FormValue("description")),
		Address:     strings.TrimSpace(r.FormValue("address")),
	}
	upload, err := readUpload(r, "image")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	values.Image = upload

	list := s.locationList(v)
	form := s.locationForm(v, list)
	mode := page.ModeCreate
	id, isEdit := pathID(r)
	if isEdit {
		mode = page.ModeEdit
	}
	form.Open(mode, id, values)

	outcome, err := form.Submit(ctx, values)
	if s.unauthorized(w, r, v, err) {
		return
	}
	fs := form.State()
	// The uploaded bytes are never echoed back into the page.
	fs.Values.Image = nil
	switch outcome {
	case page.OutcomeSuccess:
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("refresh locations after save")
		}
		s.flash(w, r, v, fs.Notice, "/admin/locations")
	case page.OutcomeValidationFailed:
		s.renderLocations(w, r, v, http.StatusUnprocessableEntity, list.Snapshot(), fs, "", nil)
	default:
		zerolog.Ctx(ctx).Error().Err(err).Str("mode", mode.String()).Msg("save location")
		s.renderLocations(w, r, v, http.StatusBadGateway, list.Snapshot(), fs, "", fs.Notice)
	}
}

func (s *Server) handleLocationConfirm(w http.ResponseWriter, r *http.Request, v *visit) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, http.StatusOK, "confirm", view{Title: "Hapus Gedung", User: v.user(), Data: confirmData{
		Prompt: "Hapus lokasi ini?",
		Action: fmt.Sprintf("/admin/locations/%d/delete", id),
		Cancel: "/admin/locations",
	}})
}

func (s *Server) handleLocationDelete(w http.ResponseWriter, r *http.Request, v *visit) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	list := s.locationList(v)
	d := page.Deleter{
		Remove:  v.client.DeleteLocation,
		Refresh: refresher(list),
	}
	notice, err := d.Delete(r.Context(), id, confirmed(r))
	if errors.Is(err, page.ErrNotConfirmed) {
		http.Redirect(w, r, "/admin/locations", http.StatusSeeOther)
		return
	}
	if s.unauthorized(w, r, v, err) {
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int64("location_id", id).Msg("delete location")
	}
	if notice.Type == models.NoticeSuccess {
		s.publishDeleted(r.Context(), v, events.EventLocationDeleted, id)
	}
	s.flash(w, r, v, notice, "/admin/locations")
}

func (s *Server) locationForm(v *visit, list *page.ListView[models.Location, models.LocationFilter]) *page.Form[models.LocationForm] {
	return page.NewForm(func(ctx context.Context, mode page.Mode, id int64, values models.LocationForm) error {
		if mode == page.ModeCreate {
			id = 0
		}
		return v.client.SaveLocation(ctx, id, values)
	}, page.FormOptions{Refresh: refresher(list)})
}

func (s *Server) renderLocations(w http.ResponseWriter, r *http.Request, v *visit, status int, state page.State[models.Location, models.LocationFilter], form page.FormState[models.LocationForm], image string, notice *models.Notice) {
	// Shared with the categories page; category saves refresh it.
	cats, err := s.categoryList(v).Ensure(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("load categories for location form")
	}
	categories := cats.Items
	s.render(w, r, status, "locations", view{
		Title:  "Gedung",
		User:   v.user(),
		Notice: notice,
		Data: locationsData{
			Items:      state.Items,
			Categories: categories,
			Filter:     state.Filter,
			Form:       form,
			Image:      image,
		},
	})
}

// readUpload returns the optional file of field, nil when none was sent.
func readUpload(r *http.Request, field string) (*models.Upload, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", field, maxImageSize)
	}
	if len(data) == 0 {
		return nil, nil
	}
	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &models.Upload{Filename: hdr.Filename, ContentType: contentType, Data: data}, nil
}

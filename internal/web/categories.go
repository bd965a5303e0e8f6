package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Chqrety/reservation/internal/events"
	"github.com/Chqrety/reservation/internal/models"
	"github.com/Chqrety/reservation/internal/page"

	"github.com/rs/zerolog"
)

type categoryValues struct {
	Name string
}

type categoriesData struct {
	Items   []models.Category
	Loading bool
	Form    page.FormState[categoryValues]
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request, v *visit) {
	list := s.categoryList(v)
	state, err := loadList(r.Context(), list, noFilter{}, v.notice != nil)
	if s.unauthorized(w, r, v, err) {
		return
	}

	form := s.categoryForm(v, list)
	if r.URL.Query().Get("modal") == "create" {
		form.Open(page.ModeCreate, 0, categoryValues{})
	} else if id := queryInt(r, "edit"); id > 0 {
		for _, c := range state.Items {
			if c.ID == id {
				form.Open(page.ModeEdit, id, categoryValues{Name: c.Name})
				break
			}
		}
	}

	s.renderCategories(w, r, v, http.StatusOK, state, form.State(), pickNotice(state.Notice, v.notice))
}

func (s *Server) handleCategorySave(w http.ResponseWriter, r *http.Request, v *visit) {
	list := s.categoryList(v)
	form := s.categoryForm(v, list)
	mode := page.ModeCreate
	id, isEdit := pathID(r)
	if isEdit {
		mode = page.ModeEdit
	}
	values := categoryValues{Name: strings.TrimSpace(r.FormValue("name"))}
	form.Open(mode, id, values)

	outcome, err := form.Submit(r.Context(), values)
	if s.unauthorized(w, r, v, err) {
		return
	}
	fs := form.State()
	switch outcome {
	case page.OutcomeSuccess:
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("refresh categories after save")
		}
		s.flash(w, r, v, fs.Notice, "/admin/categories")
	case page.OutcomeValidationFailed:
		s.renderCategories(w, r, v, http.StatusUnprocessableEntity, list.Snapshot(), fs, nil)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("mode", mode.String()).Msg("save category")
		s.renderCategories(w, r, v, http.StatusBadGateway, list.Snapshot(), fs, fs.Notice)
	}
}

func (s *Server) handleCategoryConfirm(w http.ResponseWriter, r *http.Request, v *visit) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, http.StatusOK, "confirm", view{Title: "Hapus Kategori", User: v.user(), Data: confirmData{
		Prompt: "Apakah Anda yakin ingin menghapus kategori ini?",
		Action: fmt.Sprintf("/admin/categories/%d/delete", id),
		Cancel: "/admin/categories",
	}})
}

func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request, v *visit) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	list := s.categoryList(v)
	d := page.Deleter{
		Remove:      v.client.DeleteCategory,
		Refresh:     refresher(list),
		SuccessText: "Kategori berhasil dihapus!",
		FailureText: "Gagal menghapus kategori.",
	}
	notice, err := d.Delete(r.Context(), id, confirmed(r))
	if errors.Is(err, page.ErrNotConfirmed) {
		http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
		return
	}
	if s.unauthorized(w, r, v, err) {
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int64("category_id", id).Msg("delete category")
	}
	if notice.Type == models.NoticeSuccess {
		s.publishDeleted(r.Context(), v, events.EventCategoryDeleted, id)
	}
	s.flash(w, r, v, notice, "/admin/categories")
}

func (s *Server) categoryForm(v *visit, list *page.ListView[models.Category, noFilter]) *page.Form[categoryValues] {
	return page.NewForm(func(ctx context.Context, mode page.Mode, id int64, values categoryValues) error {
		if mode == page.ModeEdit {
			return v.client.UpdateCategory(ctx, id, values.Name)
		}
		return v.client.CreateCategory(ctx, values.Name)
	}, page.FormOptions{
		SuccessText: func(m page.Mode) string {
			if m == page.ModeEdit {
				return "Kategori berhasil diperbarui!"
			}
			return "Kategori berhasil ditambahkan!"
		},
		Refresh: refresher(list),
	})
}

func (s *Server) renderCategories(w http.ResponseWriter, r *http.Request, v *visit, status int, state page.State[models.Category, noFilter], form page.FormState[categoryValues], notice *models.Notice) {
	s.render(w, r, status, "categories", view{
		Title:  "Kategori",
		User:   v.user(),
		Notice: notice,
		Data:   categoriesData{Items: state.Items, Loading: state.Loading, Form: form},
	})
}

func (s *Server) publishDeleted(ctx context.Context, v *visit, eventType string, id int64) {
	by := ""
	if u := v.user(); u != nil {
		by = u.Email
	}
	if err := s.bus.PublishJSON(eventType, events.RecordPayload{ID: id, ChangedBy: by}); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", eventType).Msg("publish event")
	}
}

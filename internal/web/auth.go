package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Chqrety/reservation/internal/backend"
	"github.com/Chqrety/reservation/internal/models"

	"github.com/rs/zerolog"
)

type loginData struct {
	Email  string
	Errors models.ValidationErrors
	Failed string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request, v *visit) {
	if v.session != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login", view{Title: "Login Admin", Notice: v.notice, Data: loginData{}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, v *visit) {
	ctx := r.Context()
	creds := models.Credentials{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	data := loginData{Email: creds.Email}

	sess, err := s.backend.Public().Login(ctx, creds)
	if err != nil {
		status := http.StatusBadGateway
		switch fields, isValidation := backend.FieldErrors(err); {
		case isValidation:
			status = http.StatusUnprocessableEntity
			data.Errors = fields
		case errors.Is(err, backend.ErrUnauthorized):
			status = http.StatusUnauthorized
			data.Failed = backend.Message(err)
			if data.Failed == "" {
				data.Failed = "Email atau password salah."
			}
		case backend.IsConnection(err):
			data.Failed = "Tidak dapat terhubung ke server."
		default:
			data.Failed = "Terjadi kesalahan server."
		}
		zerolog.Ctx(ctx).Info().Err(err).Str("email", creds.Email).Msg("login failed")
		s.render(w, r, status, "login", view{Title: "Login Admin", Data: data})
		return
	}

	// A login always starts under a fresh session id.
	s.registry.Drop(v.sid)
	if err := s.sessions.End(ctx, v.sid); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("drop anonymous session")
	}
	sid := s.issueSession(w)
	if err := s.sessions.Start(ctx, sid, *sess); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("store session")
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}
	zerolog.Ctx(ctx).Info().Str("email", creds.Email).Msg("admin logged in")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// handleLogout tells the backend, then clears the local session even when
// that call fails.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, v *visit) {
	ctx := r.Context()
	if v.session != nil {
		if err := v.client.Logout(ctx); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("backend logout failed")
		}
	}
	if err := s.sessions.End(ctx, v.sid); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("end session")
	}
	s.registry.Drop(v.sid)
	s.flash(w, r, v, models.SuccessNotice("Anda telah keluar."), "/login")
}

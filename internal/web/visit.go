package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Chqrety/reservation/internal/backend"
	"github.com/Chqrety/reservation/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// visit is the per-request view of one browser session.
type visit struct {
	sid     string
	session *models.Session
	client  *backend.Client
	notice  *models.Notice
}

func (v *visit) user() *models.User {
	if v.session == nil {
		return nil
	}
	return &v.session.User
}

type visitHandler func(w http.ResponseWriter, r *http.Request, v *visit)

// public resolves the browser session and serves pages open to everyone.
func (s *Server) public(h visitHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := s.begin(w, r)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("load session")
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
			return
		}
		h(w, r, v)
	}
}

// admin additionally requires a logged-in session.
func (s *Server) admin(h visitHandler) http.HandlerFunc {
	return s.public(func(w http.ResponseWriter, r *http.Request, v *visit) {
		if v.session == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h(w, r, v)
	})
}

func (s *Server) begin(w http.ResponseWriter, r *http.Request) (*visit, error) {
	sid := ""
	if c, err := r.Cookie(s.cfg.HTTP.CookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			sid = c.Value
		}
	}
	if sid == "" {
		sid = s.issueSession(w)
	}

	v := &visit{sid: sid, client: s.backend.Client(s.sessions.For(sid))}
	ctx := r.Context()
	sess, err := s.sessions.Load(ctx, sid)
	if err != nil {
		return nil, err
	}
	v.session = sess
	if v.notice, err = s.sessions.PopNotice(ctx, sid); err != nil {
		return nil, err
	}
	return v, nil
}

// issueSession sets a fresh session cookie and returns its id.
func (s *Server) issueSession(w http.ResponseWriter) string {
	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.HTTP.CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.HTTP.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

// flash stores n for the next page and redirects there.
func (s *Server) flash(w http.ResponseWriter, r *http.Request, v *visit, n *models.Notice, to string) {
	if err := s.sessions.SetNotice(r.Context(), v.sid, n); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("store flash notice")
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// unauthorized handles a 401 from the backend: the client already cleared
// the session, so forget the page state and send the browser to the login.
func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, v *visit, err error) bool {
	if !errors.Is(err, backend.ErrUnauthorized) {
		return false
	}
	s.registry.Drop(v.sid)
	zerolog.Ctx(r.Context()).Info().Msg("backend rejected session, redirecting to login")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func queryInt(r *http.Request, key string) int64 {
	n, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func formInt(r *http.Request, key string) int64 {
	n, err := strconv.ParseInt(r.FormValue(key), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func confirmed(r *http.Request) bool {
	return r.FormValue("confirm") == "yes"
}

package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Chqrety/reservation/internal/backend"
	"github.com/Chqrety/reservation/internal/config"
	"github.com/Chqrety/reservation/internal/events"
	"github.com/Chqrety/reservation/internal/page"
	"github.com/Chqrety/reservation/internal/session"

	"github.com/stretchr/testify/require"
)

type apiCall struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
	Body   []byte
	Header http.Header
}

// stubAPI is an in-memory stand-in for the REST backend.
type stubAPI struct {
	mu     sync.Mutex
	calls  []apiCall
	routes map[string]http.HandlerFunc
}

func newStubAPI() *stubAPI {
	return &stubAPI{routes: make(map[string]http.HandlerFunc)}
}

func (s *stubAPI) on(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = h
}

func (s *stubAPI) reply(method, path string, status int, body any) {
	s.on(method, path, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	})
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(strings.NewReader(string(body)))

	s.mu.Lock()
	s.calls = append(s.calls, apiCall{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
		Body:   body,
		Header: r.Header.Clone(),
	})
	h, ok := s.routes[r.Method+" "+path]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "not found"})
		return
	}
	h(w, r)
}

func (s *stubAPI) callsTo(method, path string) []apiCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []apiCall
	for _, c := range s.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (s *stubAPI) allCalls() []apiCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]apiCall(nil), s.calls...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type harness struct {
	t        *testing.T
	api      *stubAPI
	store    *session.MemoryStore
	bus      *events.Bus
	registry *page.Registry
	web      *httptest.Server
	client   *http.Client
}

func newHarness(t *testing.T, tune ...func(*config.Config)) *harness {
	t.Helper()
	api := newStubAPI()
	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)

	cfg := config.Config{}
	cfg.HTTP.CookieName = "sid"
	cfg.Backend.BaseURL = apiSrv.URL + "/api"
	cfg.Filters.ReservationDebounce = 40 * time.Millisecond
	for _, fn := range tune {
		fn(&cfg)
	}

	store := session.NewMemoryStore(time.Hour)
	bus := events.NewBus()
	registry := page.NewRegistry()
	srv, err := NewServer(Deps{
		Config:   cfg,
		Backend:  backend.New(cfg.Backend.BaseURL, 5*time.Second, nil),
		Sessions: session.NewManager(store),
		Registry: registry,
		Bus:      bus,
	})
	require.NoError(t, err)

	web := httptest.NewServer(srv)
	t.Cleanup(web.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &harness{t: t, api: api, store: store, bus: bus, registry: registry, web: web, client: client}
}

type response struct {
	Status   int
	Body     string
	Header   http.Header
	Location string
}

func (h *harness) do(req *http.Request) response {
	h.t.Helper()
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return response{Status: resp.StatusCode, Body: string(body), Header: resp.Header, Location: resp.Header.Get("Location")}
}

func (h *harness) get(path string) response {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.web.URL+path, nil)
	require.NoError(h.t, err)
	return h.do(req)
}

func (h *harness) post(path string, form url.Values) response {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.web.URL+path, strings.NewReader(form.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func (h *harness) sid() string {
	h.t.Helper()
	u, err := url.Parse(h.web.URL)
	require.NoError(h.t, err)
	for _, c := range h.client.Jar.Cookies(u) {
		if c.Name == "sid" {
			return c.Value
		}
	}
	return ""
}

func (h *harness) sessionValue(key string) string {
	h.t.Helper()
	v, err := h.store.Get(context.Background(), h.sid(), key)
	require.NoError(h.t, err)
	return v
}

// login signs in as the stub admin with token t1.
func (h *harness) login() {
	h.t.Helper()
	h.api.reply(http.MethodPost, "/auth/login", http.StatusOK, map[string]any{
		"data": map[string]any{
			"token": "t1",
			"user":  map[string]any{"id": 1, "name": "Admin", "email": "admin@example.com"},
		},
	})
	resp := h.post("/login", url.Values{"email": {"admin@example.com"}, "password": {"secret"}})
	require.Equal(h.t, http.StatusSeeOther, resp.Status)
	require.Equal(h.t, "/admin", resp.Location)
}

func categoriesBody(names ...string) map[string]any {
	data := make([]any, 0, len(names))
	for i, n := range names {
		data = append(data, map[string]any{"id": i + 1, "name": n})
	}
	return map[string]any{"success": true, "data": data}
}

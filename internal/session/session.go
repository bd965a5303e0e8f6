package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Chqrety/reservation/internal/models"
)

// Store persists string values per browser session ID. Get returns "" with a
// nil error for a missing or expired key.
type Store interface {
	Get(ctx context.Context, sid, key string) (string, error)
	Set(ctx context.Context, sid, key, value string) error
	Delete(ctx context.Context, sid string, keys ...string) error
}

// Manager owns the session lifecycle: started by login, read by every
// authenticated backend call, ended by logout or the first 401.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Start persists the token and user of a fresh login.
func (m *Manager) Start(ctx context.Context, sid string, s models.Session) error {
	user, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	if err := m.store.Set(ctx, sid, models.SessionKeyToken, s.Token); err != nil {
		return fmt.Errorf("store session token: %w", err)
	}
	if err := m.store.Set(ctx, sid, models.SessionKeyUser, string(user)); err != nil {
		return fmt.Errorf("store session user: %w", err)
	}
	return nil
}

// Load returns the current session or nil when the browser is logged out.
func (m *Manager) Load(ctx context.Context, sid string) (*models.Session, error) {
	token, err := m.store.Get(ctx, sid, models.SessionKeyToken)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	s := &models.Session{Token: token}
	raw, err := m.store.Get(ctx, sid, models.SessionKeyUser)
	if err != nil {
		return nil, err
	}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.User); err != nil {
			return nil, fmt.Errorf("decode session user: %w", err)
		}
	}
	return s, nil
}

// End removes both session keys.
func (m *Manager) End(ctx context.Context, sid string) error {
	return m.store.Delete(ctx, sid, models.SessionKeyToken, models.SessionKeyUser)
}

// SetNotice stores a flash notice shown on the next page render.
func (m *Manager) SetNotice(ctx context.Context, sid string, n *models.Notice) error {
	if n == nil {
		return nil
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, sid, models.SessionKeyNotice, string(raw))
}

// PopNotice returns and clears the pending flash notice.
func (m *Manager) PopNotice(ctx context.Context, sid string) (*models.Notice, error) {
	raw, err := m.store.Get(ctx, sid, models.SessionKeyNotice)
	if err != nil || raw == "" {
		return nil, err
	}
	if err := m.store.Delete(ctx, sid, models.SessionKeyNotice); err != nil {
		return nil, err
	}
	var n models.Notice
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return nil, fmt.Errorf("decode notice: %w", err)
	}
	return &n, nil
}

// For binds the manager to one browser session.
func (m *Manager) For(sid string) *Handle {
	return &Handle{manager: m, sid: sid}
}

// Handle is the session of a single browser. It is what the backend client
// receives: a token source that can also be torn down.
type Handle struct {
	manager *Manager
	sid     string
}

// Token returns the bearer token, "" when logged out.
func (h *Handle) Token(ctx context.Context) (string, error) {
	return h.manager.store.Get(ctx, h.sid, models.SessionKeyToken)
}

// Clear ends the session.
func (h *Handle) Clear(ctx context.Context) error {
	return h.manager.End(ctx, h.sid)
}

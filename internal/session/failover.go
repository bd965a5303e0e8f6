package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const failoverRecheck = time.Minute

// FailoverStore uses primary until it errors, then serves from fallback and
// retries primary once per minute.
type FailoverStore struct {
	primary   Store
	fallback  Store
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *FailoverStore) markDown(err error) {
	s.logger.Error().Err(err).Msg("Primary session store failed, falling back to memory")
	s.isDown.Store(true)
	s.lastCheck.Store(s.now().UnixNano())
}

// usePrimary reports whether the primary should be tried for this call.
func (s *FailoverStore) usePrimary() bool {
	if !s.isDown.Load() {
		return true
	}
	return s.now().Sub(time.Unix(0, s.lastCheck.Load())) > failoverRecheck
}

func (s *FailoverStore) Get(ctx context.Context, sid, key string) (string, error) {
	if s.usePrimary() {
		val, err := s.primary.Get(ctx, sid, key)
		if err == nil {
			s.isDown.Store(false)
			return val, nil
		}
		s.markDown(err)
	}
	return s.fallback.Get(ctx, sid, key)
}

func (s *FailoverStore) Set(ctx context.Context, sid, key, value string) error {
	if s.usePrimary() {
		err := s.primary.Set(ctx, sid, key, value)
		if err == nil {
			s.isDown.Store(false)
			return nil
		}
		s.markDown(err)
	}
	return s.fallback.Set(ctx, sid, key, value)
}

func (s *FailoverStore) Delete(ctx context.Context, sid string, keys ...string) error {
	// Both sides are cleared so a session never resurrects after recovery.
	fbErr := s.fallback.Delete(ctx, sid, keys...)
	if s.usePrimary() {
		if err := s.primary.Delete(ctx, sid, keys...); err != nil {
			s.markDown(err)
		} else {
			s.isDown.Store(false)
		}
	}
	return fbErr
}

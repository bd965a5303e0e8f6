package session

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, sid, key string) (string, error) {
	args := m.Called(ctx, sid, key)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Set(ctx context.Context, sid, key, value string) error {
	args := m.Called(ctx, sid, key, value)
	return args.Error(0)
}

func (m *mockStore) Delete(ctx context.Context, sid string, keys ...string) error {
	args := m.Called(ctx, sid, keys)
	return args.Error(0)
}

func TestFailoverStore(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary, fallback := new(mockStore), new(mockStore)
		store := NewFailoverStore(primary, fallback, &logger)

		primary.On("Get", ctx, "sid", "token").Return("t1", nil).Once()

		v, err := store.Get(ctx, "sid", "token")
		assert.NoError(t, err)
		assert.Equal(t, "t1", v)
		fallback.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PrimaryFailureUsesFallback", func(t *testing.T) {
		primary, fallback := new(mockStore), new(mockStore)
		store := NewFailoverStore(primary, fallback, &logger)

		primary.On("Set", ctx, "sid", "token", "t1").Return(errors.New("redis down")).Once()
		fallback.On("Set", ctx, "sid", "token", "t1").Return(nil).Once()
		fallback.On("Get", ctx, "sid", "token").Return("t1", nil).Once()

		assert.NoError(t, store.Set(ctx, "sid", "token", "t1"))
		assert.True(t, store.isDown.Load())

		v, err := store.Get(ctx, "sid", "token")
		assert.NoError(t, err)
		assert.Equal(t, "t1", v)
		primary.AssertNumberOfCalls(t, "Get", 0)
	})

	t.Run("RecoveryAfterRecheckWindow", func(t *testing.T) {
		primary, fallback := new(mockStore), new(mockStore)
		store := NewFailoverStore(primary, fallback, &logger)
		now := time.Now()
		store.now = func() time.Time { return now }

		primary.On("Get", ctx, "sid", "token").Return("", errors.New("down")).Once()
		fallback.On("Get", ctx, "sid", "token").Return("", nil).Once()
		_, _ = store.Get(ctx, "sid", "token")
		assert.True(t, store.isDown.Load())

		now = now.Add(2 * time.Minute)
		primary.On("Get", ctx, "sid", "token").Return("t9", nil).Once()
		v, err := store.Get(ctx, "sid", "token")
		assert.NoError(t, err)
		assert.Equal(t, "t9", v)
		assert.False(t, store.isDown.Load())
	})

	t.Run("DeleteClearsBoth", func(t *testing.T) {
		primary, fallback := new(mockStore), new(mockStore)
		store := NewFailoverStore(primary, fallback, &logger)

		keys := []string{"token", "user"}
		fallback.On("Delete", ctx, "sid", keys).Return(nil).Once()
		primary.On("Delete", ctx, "sid", keys).Return(nil).Once()

		assert.NoError(t, store.Delete(ctx, "sid", "token", "user"))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}

package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

func enabledConfig() shared.IdempotencyConfig {
	return shared.IdempotencyConfig{Enabled: true, TTL: time.Hour}
}

func TestIdempotentHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("second delivery is skipped", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := newTestHandler("A")
		h := NewIdempotentHandler(inner, store, enabledConfig(), zap.NewNop())
		event := newTestEvent("A")

		require.NoError(t, h.Handle(ctx, event))
		require.NoError(t, h.Handle(ctx, event))

		assert.Equal(t, 1, inner.count())
		assert.Equal(t, IdempotencyStats{EventsProcessed: 1, EventsDuplicate: 1}, h.Stats())
	})

	t.Run("failure releases the key for retry", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		inner := newTestHandler("A")
		inner.err = errors.New("downstream down")
		h := NewIdempotentHandler(inner, store, enabledConfig(), zap.NewNop())
		event := newTestEvent("A")

		assert.Error(t, h.Handle(ctx, event))
		inner.err = nil
		require.NoError(t, h.Handle(ctx, event))

		assert.Equal(t, 2, inner.count())
		assert.Equal(t, int64(1), h.Stats().EventsFailed)
	})

	t.Run("store error still handles the event", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := newTestHandler("A")
		h := NewIdempotentHandler(inner, store, enabledConfig(), zap.NewNop())
		event := newTestEvent("A")
		store.On("Reserve", ctx, "event:"+event.EventID().String(), time.Hour).Return(false, errors.New("redis down"))

		require.NoError(t, h.Handle(ctx, event))

		assert.Equal(t, 1, inner.count())
		store.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	})

	t.Run("disabled bypasses the store", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := newTestHandler("A")
		h := NewIdempotentHandler(inner, store, shared.IdempotencyConfig{Enabled: false}, zap.NewNop())
		event := newTestEvent("A")

		require.NoError(t, h.Handle(ctx, event))
		require.NoError(t, h.Handle(ctx, event))

		assert.Equal(t, 2, inner.count())
		store.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delegates event types", func(t *testing.T) {
		h := NewIdempotentHandler(newTestHandler("A", "B"), new(MockIdempotencyStore), enabledConfig(), zap.NewNop())
		assert.Equal(t, []string{"A", "B"}, h.EventTypes())
	})
}

//go:build unit

package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"travel-booking/internal/pkg/clock"
	"travel-booking/internal/usecase/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expiredKeyStub struct {
	mu    sync.Mutex
	calls []time.Time
	n     int64
	err   error
}

func (s *expiredKeyStub) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, now)
	return s.n, s.err
}

func (s *expiredKeyStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestIdempotencySweeper_SweepOnce(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("passes clock time and returns count", func(t *testing.T) {
		store := &expiredKeyStub{n: 3}
		sw := commands.NewIdempotencySweeper(store, clock.NewMockClock(now), time.Minute, nil)

		n, err := sw.SweepOnce(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.Equal(t, []time.Time{now}, store.calls)
	})

	t.Run("wraps store failure", func(t *testing.T) {
		boom := errors.New("boom")
		sw := commands.NewIdempotencySweeper(&expiredKeyStub{err: boom}, clock.NewMockClock(now), time.Minute, nil)

		_, err := sw.SweepOnce(context.Background())

		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "delete expired idempotency keys")
	})
}

func TestIdempotencySweeper_RunStopsOnCancel(t *testing.T) {
	store := &expiredKeyStub{}
	sw := commands.NewIdempotencySweeper(store, clock.NewMockClock(time.Now()), 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

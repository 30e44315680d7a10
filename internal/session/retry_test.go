package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstablish(t *testing.T) {
	rp := RetryPolicy{FirstTimeout: 50 * time.Millisecond, RetryTimeout: 50 * time.Millisecond, MaxRetries: 2}
	boom := errors.New("boom")

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		v, err := Establish(context.Background(), rp, func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, boom
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after the last retry", func(t *testing.T) {
		calls := 0
		_, err := Establish(context.Background(), rp, func(context.Context) (int, error) {
			calls++
			return 0, boom
		})
		assert.ErrorIs(t, err, ErrConnectFailed)
		assert.ErrorContains(t, err, "boom")
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry a missing room", func(t *testing.T) {
		calls := 0
		_, err := Establish(context.Background(), rp, func(context.Context) (int, error) {
			calls++
			return 0, ErrRoomNotFound
		})
		assert.ErrorIs(t, err, ErrRoomNotFound)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when the parent context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Establish(ctx, rp, func(ctx context.Context) (int, error) {
			return 0, ctx.Err()
		})
		assert.ErrorIs(t, err, ErrConnectFailed)
	})
}

func TestDefaultRetryPolicy(t *testing.T) {
	rp := DefaultRetryPolicy()
	assert.Equal(t, 6*time.Second, rp.timeout(0))
	assert.Equal(t, 10*time.Second, rp.timeout(1))
	assert.Equal(t, 10*time.Second, rp.timeout(2))
	assert.Equal(t, 2, rp.MaxRetries)
}

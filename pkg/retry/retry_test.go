package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDo(t *testing.T) {
	errTransient := errors.New("broker unavailable")

	tests := []struct {
		name      string
		failures  int
		permanent bool
		wantCalls int
		wantErr   bool
	}{
		{name: "succeeds first time", failures: 0, wantCalls: 1},
		{name: "succeeds after retries", failures: 2, wantCalls: 3},
		{name: "exhausts retries", failures: 10, wantCalls: 4, wantErr: true},
		{name: "permanent error stops immediately", failures: 10, permanent: true, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBackoff(3, time.Millisecond)
			calls := 0

			err := b.Do(context.Background(), func(ctx context.Context) error {
				calls++
				if calls <= tt.failures {
					if tt.permanent {
						return Permanent(errTransient)
					}
					return errTransient
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errTransient)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBackoffDoStopsOnContextCancel(t *testing.T) {
	b := NewBackoff(5, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := b.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoffDelayIsCapped(t *testing.T) {
	b := NewBackoff(10, 100*time.Millisecond)

	for attempt := 1; attempt <= 10; attempt++ {
		d := b.Delay(attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 1600*time.Millisecond)
	}
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errFlaky = errors.New("connection reset")
	errFatal = errors.New("key is empty")
)

func isFlaky(err error) bool { return errors.Is(err, errFlaky) }

func fast(transient func(error) bool) *Retrier {
	return New(Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Transient: transient})
}

func TestDo_RetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	err := fast(isFlaky).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	err := fast(isFlaky).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errFlaky
	})

	assert.Equal(t, 3, calls)
	assert.Equal(t, errFlaky, err)
}

func TestDo_NonTransientStopsImmediately(t *testing.T) {
	calls := 0
	err := fast(isFlaky).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errFatal
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, errFatal, err)
}

func TestDo_NilClassifierNeverRetries(t *testing.T) {
	calls := 0
	_ = fast(nil).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errFlaky
	})
	assert.Equal(t, 1, calls)
}

func TestStoreRetrier_ReportsEachRetry(t *testing.T) {
	var retried []int
	r := StoreRetrier(isFlaky, func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
		assert.LessOrEqual(t, delay, time.Second+50*time.Millisecond)
	})
	r.policy.BaseDelay = time.Millisecond

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errFlaky
	})

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestValue(t *testing.T) {
	calls := 0
	v, err := Value(context.Background(), fast(isFlaky), func(ctx context.Context) ([]string, error) {
		calls++
		if calls == 1 {
			return nil, errFlaky
		}
		return []string{"user_1_xp"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"user_1_xp"}, v)
	assert.Equal(t, 2, calls)
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fast(isFlaky).Do(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelay_DoublesAndCaps(t *testing.T) {
	r := New(Policy{BaseDelay: 10 * time.Millisecond, MaxDelay: 25 * time.Millisecond})
	r.policy.Jitter = 0

	assert.Equal(t, 10*time.Millisecond, r.delay(1))
	assert.Equal(t, 20*time.Millisecond, r.delay(2))
	assert.Equal(t, 25*time.Millisecond, r.delay(3))
}

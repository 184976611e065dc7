package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithRetry(t *testing.T) {
	transient := &RetrievalError{StatusCode: 502}
	permanent := &RetrievalError{StatusCode: 404}

	tests := []struct {
		name    string
		cfg     RetryConfig
		errs    []error
		want    error
		calls   int
		retried int
	}{
		{name: "first try", cfg: fastRetry(), errs: []error{nil}, calls: 1},
		{name: "recovers", cfg: fastRetry(), errs: []error{transient, nil}, calls: 2, retried: 1},
		{name: "exhausted", cfg: fastRetry(), errs: []error{transient, transient, transient, transient}, want: transient, calls: 3, retried: 2},
		{name: "permanent", cfg: fastRetry(), errs: []error{permanent, nil}, want: permanent, calls: 1},
		{name: "disabled", cfg: RetryConfig{}, errs: []error{transient, nil}, want: transient, calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, retried := 0, 0
			err := withRetry(context.Background(), tt.cfg,
				func(error, time.Duration) { retried++ },
				func(context.Context) error {
					err := tt.errs[calls]
					calls++
					return err
				})
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, tt.calls, calls)
			assert.Equal(t, tt.retried, retried)
		})
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, fastRetry(), nil, func(context.Context) error {
		calls++
		cancel()
		return errors.New("connection reset")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

package fetch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig 控制远程订阅的重试策略。MaxRetries 不含首次请求。
type RetryConfig struct {
	Enabled         bool
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// policy 将配置转换为 backoff 策略，零值字段取默认值。
func (cfg RetryConfig) policy(ctx context.Context) backoff.BackOff {
	if !cfg.Enabled {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = orDuration(cfg.InitialInterval, 500*time.Millisecond)
	exp.MaxInterval = orDuration(cfg.MaxInterval, 5*time.Second)
	exp.MaxElapsedTime = 0
	exp.Multiplier = 2
	if cfg.Multiplier > 0 {
		exp.Multiplier = cfg.Multiplier
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 2
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

func orDuration(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// withRetry 执行 fn；仅可重试错误会再次尝试，notify 在每次等待前调用。
func withRetry(ctx context.Context, cfg RetryConfig, notify backoff.Notify, fn func(ctx context.Context) error) error {
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := fn(ctx)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, cfg.policy(ctx), notify)
}

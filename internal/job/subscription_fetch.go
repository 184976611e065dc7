package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/creamcroissant/v2mng/internal/repository"
	"github.com/creamcroissant/v2mng/internal/service"
)

// SubscriptionFetchJob 定时拉取订阅并可选地重新生成配置。
type SubscriptionFetchJob struct {
	Subscriptions service.SubscriptionService
	// Regen re-composes config.json for the selected entry after each run.
	Regen  bool
	Logger *slog.Logger

	mu     sync.Mutex
	status FetchStatus
}

// FetchStatus 是最近一次运行的结果。
type FetchStatus struct {
	LastRun time.Time
	Entries int
	Err     error
}

// NewSubscriptionFetchJob wires the job.
func NewSubscriptionFetchJob(subscriptions service.SubscriptionService, regen bool, logger *slog.Logger) *SubscriptionFetchJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionFetchJob{Subscriptions: subscriptions, Regen: regen, Logger: logger}
}

// Name 返回任务标识。
func (j *SubscriptionFetchJob) Name() string { return "subscription.fetch" }

// Run 拉取全部订阅源；全部失败时保留已保存的列表。
func (j *SubscriptionFetchJob) Run(ctx context.Context) error {
	if j == nil || j.Subscriptions == nil {
		return fmt.Errorf("subscription fetch job dependencies not configured / 订阅拉取任务依赖未配置")
	}

	result, err := j.Subscriptions.Fetch(ctx, service.FetchOptions{KeepOnFailure: true})
	if err != nil {
		j.setStatus(FetchStatus{LastRun: time.Now(), Err: err})
		return err
	}
	entries := len(result.Snapshot.Entries)
	j.setStatus(FetchStatus{LastRun: time.Now(), Entries: entries})

	if !j.Regen || result.Unchanged {
		return nil
	}
	generated, err := j.Subscriptions.Regenerate(ctx)
	switch {
	case err == nil:
		j.Logger.Info("config regenerated", "name", generated.Entry.QualifiedName)
	case errors.Is(err, service.ErrNoSelection):
		j.Logger.Debug("no selection to regenerate")
	case errors.Is(err, repository.ErrNotFound):
		j.Logger.Warn("selected descriptor disappeared, config left unchanged", "error", err)
	default:
		return fmt.Errorf("regenerate config: %w", err)
	}
	return nil
}

// Status returns the outcome of the last run.
func (j *SubscriptionFetchJob) Status() FetchStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *SubscriptionFetchJob) setStatus(status FetchStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
}

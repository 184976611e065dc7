package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runnable 表示由调度器触发的后台任务。
type Runnable interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler 封装 cron，并提供日志与优雅停机。
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	mu      sync.Mutex
	base    context.Context
	started bool
}

const defaultJobTimeout = 2 * time.Minute

// NewScheduler 构建支持秒与自然描述（@every 6h）的调度器。timeout<=0 使用默认值。
func NewScheduler(logger *slog.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	return &Scheduler{cron: c, logger: logger, timeout: timeout, base: context.Background()}
}

// Register 绑定 cron 表达式与任务。
func (s *Scheduler) Register(schedule string, runnable Runnable) (cron.EntryID, error) {
	if runnable == nil {
		return 0, fmt.Errorf("scheduler: runnable is required / runnable 不能为空")
	}
	if schedule == "" {
		return 0, fmt.Errorf("scheduler: schedule is required / schedule 不能为空")
	}
	entryID, err := s.cron.AddFunc(schedule, func() { s.RunNow(s.baseContext(), runnable) })
	if err != nil {
		return 0, fmt.Errorf("scheduler: invalid schedule %q: %w", schedule, err)
	}
	s.logger.Info("job registered", "job", runnable.Name(), "schedule", schedule)
	return entryID, nil
}

// Start 启动调度器；ctx 取消后不再派生新的任务上下文。
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.base = ctx
	s.cron.Start()
	s.started = true
}

// Stop 停止调度器，返回的 ctx 在执行中的任务结束后完成。
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return context.Background()
	}
	s.started = false
	return s.cron.Stop()
}

// Next returns the next activation time of entry.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

// RunNow 同步执行一次任务，带超时与统一日志。
func (s *Scheduler) RunNow(ctx context.Context, runnable Runnable) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	if err := runnable.Run(ctx); err != nil {
		s.logger.Error("job failed", "job", runnable.Name(), "error", err, "elapsed", time.Since(start))
		return err
	}
	s.logger.Debug("job completed", "job", runnable.Name(), "elapsed", time.Since(start))
	return nil
}

func (s *Scheduler) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

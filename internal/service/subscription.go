// Package service implements the fetch, list and generate use cases on top of the
// repository, the subscription fetcher and the config composer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/creamcroissant/v2mng/internal/compose"
	"github.com/creamcroissant/v2mng/internal/outbound"
	"github.com/creamcroissant/v2mng/internal/repository"
	"github.com/creamcroissant/v2mng/internal/subscribe"
	"github.com/creamcroissant/v2mng/internal/support/fsutil"
)

// SubscriptionService 管理描述列表与最终配置。
type SubscriptionService interface {
	// Fetch retrieves every source and replaces the stored list.
	Fetch(ctx context.Context, opts FetchOptions) (*FetchResult, error)
	// List returns the stored snapshot.
	List(ctx context.Context) (*repository.Snapshot, error)
	// Generate composes the entry at index into the final config.
	Generate(ctx context.Context, index int) (*GenerateResult, error)
	// GenerateByName composes the entry with the given qualified name.
	GenerateByName(ctx context.Context, qualifiedName string) (*GenerateResult, error)
	// Regenerate re-composes the last selected entry against the current list.
	Regenerate(ctx context.Context) (*GenerateResult, error)
}

// SourceLoader returns the ordered subscription sources.
type SourceLoader func() ([]string, error)

// SourceFetcher is satisfied by *subscribe.Fetcher.
type SourceFetcher interface {
	Fetch(ctx context.Context, sources []string) (*subscribe.Report, error)
}

// RunRecorder is told about every persisted run; *metrics.Fetch implements it.
type RunRecorder interface {
	RunDone(entries int)
}

// FetchOptions 控制一次拉取。
type FetchOptions struct {
	// KeepOnFailure keeps the stored list when every source failed.
	KeepOnFailure bool
}

// FetchResult 汇总一次拉取。
type FetchResult struct {
	Snapshot  *repository.Snapshot
	Sources   []subscribe.SourceResult
	Unchanged bool
}

// GenerateResult describes a written config.
type GenerateResult struct {
	Index        int
	Entry        outbound.Named
	ConfigPath   string
	SkeletonPath string // empty when the built-in skeleton was used
}

// Options 组装 SubscriptionService 的依赖。
type Options struct {
	Store         repository.Store
	Fetcher       SourceFetcher
	Sources       SourceLoader
	SkeletonPaths []string
	ConfigPath    string
	Recorder      RunRecorder
	Logger        *slog.Logger
	Now           func() time.Time
	NewID         func() string
}

type subscriptionService struct {
	store         repository.Store
	fetcher       SourceFetcher
	sources       SourceLoader
	skeletonPaths []string
	configPath    string
	recorder      RunRecorder
	logger        *slog.Logger
	now           func() time.Time
	newID         func() string
}

// NewSubscriptionService creates the service.
func NewSubscriptionService(opts Options) SubscriptionService {
	s := &subscriptionService{
		store:         opts.Store,
		fetcher:       opts.Fetcher,
		sources:       opts.Sources,
		skeletonPaths: opts.SkeletonPaths,
		configPath:    opts.ConfigPath,
		recorder:      opts.Recorder,
		logger:        opts.Logger,
		now:           opts.Now,
		newID:         opts.NewID,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.sources == nil {
		s.sources = func() ([]string, error) { return nil, nil }
	}
	return s
}

func (s *subscriptionService) Fetch(ctx context.Context, opts FetchOptions) (*FetchResult, error) {
	sources, err := s.sources()
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	if len(sources) == 0 {
		s.logger.Warn("no subscription sources configured")
	}

	report, err := s.fetcher.Fetch(ctx, sources)
	if err != nil {
		return nil, err
	}
	result := &FetchResult{Sources: report.Sources}

	if opts.KeepOnFailure && len(sources) > 0 && len(report.Failed()) == len(sources) {
		return result, ErrAllSourcesFailed
	}

	previous, err := s.store.Latest(ctx)
	switch {
	case err == nil:
		if previous.ContentHash == report.ContentHash && len(previous.Entries) == len(report.Entries) {
			s.logger.Info("subscriptions unchanged", "entries", len(previous.Entries))
			result.Snapshot = previous
			result.Unchanged = true
			s.record(len(previous.Entries))
			return result, nil
		}
	case errors.Is(err, repository.ErrNoSnapshot):
	default:
		// 列表每次整体覆盖，旧列表读不出来时直接替换
		s.logger.Warn("previous snapshot unreadable, replacing it", "error", err)
	}

	snapshot := &repository.Snapshot{
		ID:          s.newID(),
		FetchedAt:   s.now().UTC().Truncate(time.Second),
		ContentHash: report.ContentHash,
		Entries:     report.Entries,
	}
	if err := s.store.Replace(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Info("subscriptions saved", "snapshot", snapshot.ID, "entries", len(snapshot.Entries), "failed_sources", len(report.Failed()))
	s.record(len(snapshot.Entries))

	result.Snapshot = snapshot
	return result, nil
}

func (s *subscriptionService) record(entries int) {
	if s.recorder != nil {
		s.recorder.RunDone(entries)
	}
}

func (s *subscriptionService) List(ctx context.Context) (*repository.Snapshot, error) {
	return s.store.Latest(ctx)
}

func (s *subscriptionService) Generate(ctx context.Context, index int) (*GenerateResult, error) {
	snapshot, err := s.store.Latest(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := snapshot.At(index)
	if err != nil {
		return nil, fmt.Errorf("select %d of %d: %w", index, len(snapshot.Entries), err)
	}
	return s.generate(ctx, index, entry)
}

func (s *subscriptionService) GenerateByName(ctx context.Context, qualifiedName string) (*GenerateResult, error) {
	snapshot, err := s.store.Latest(ctx)
	if err != nil {
		return nil, err
	}
	index, entry, err := snapshot.Find(qualifiedName)
	if err != nil {
		return nil, fmt.Errorf("select %q: %w", qualifiedName, err)
	}
	return s.generate(ctx, index, entry)
}

func (s *subscriptionService) Regenerate(ctx context.Context) (*GenerateResult, error) {
	name, err := s.store.Selection(ctx)
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}
	if name == "" {
		return nil, ErrNoSelection
	}
	return s.GenerateByName(ctx, name)
}

func (s *subscriptionService) generate(ctx context.Context, index int, entry outbound.Named) (*GenerateResult, error) {
	skeleton, skeletonPath, err := compose.FindSkeleton(s.skeletonPaths...)
	if err != nil {
		return nil, err
	}
	config, err := compose.Compose(skeleton, entry.Descriptor)
	if err != nil {
		return nil, err
	}
	if err := fsutil.WriteFileAtomic(s.configPath, config, 0o600); err != nil {
		return nil, fmt.Errorf("write config: %w", err)
	}
	if err := s.store.SaveSelection(ctx, entry.QualifiedName); err != nil {
		return nil, fmt.Errorf("save selection: %w", err)
	}
	s.logger.Info("config generated", "index", index, "name", entry.QualifiedName, "path", s.configPath)
	return &GenerateResult{
		Index:        index,
		Entry:        entry,
		ConfigPath:   s.configPath,
		SkeletonPath: skeletonPath,
	}, nil
}

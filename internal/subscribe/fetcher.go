package subscribe

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"log/slog"

	"github.com/creamcroissant/v2mng/internal/outbound"
)

// Retriever 取回单个订阅源的原始内容。
type Retriever interface {
	Retrieve(ctx context.Context, source string) ([]byte, error)
}

// Observer receives per-source and per-link outcomes; used for metrics.
type Observer interface {
	SourceDone(result SourceResult)
	LinkRejected(reason string)
}

// Fetcher 按顺序拉取多个订阅源并汇总为带限定名的描述列表。
type Fetcher struct {
	retriever Retriever
	observer  Observer
	logger    *slog.Logger
}

// NewFetcher creates a Fetcher. observer may be nil.
func NewFetcher(retriever Retriever, observer Observer, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{retriever: retriever, observer: observer, logger: logger}
}

// Fetch 顺序处理全部订阅源。单个源失败只记录，不影响后续源；
// 唯一返回的错误是 ctx 被取消。
func (f *Fetcher) Fetch(ctx context.Context, sources []string) (*Report, error) {
	report := &Report{Entries: []outbound.Named{}}
	h := sha256.New()

	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result := SourceResult{Index: i, Source: source}
		raw, err := f.retriever.Retrieve(ctx, source)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Warn("fetch failed", "index", i, "source", source, "error", err)
			result.Err = err
			f.finish(report, result)
			continue
		}

		bundle, err := ParseBundle(raw, f.logger.With("index", i, "source", source))
		if err != nil {
			f.logger.Warn("fetch failed", "index", i, "source", source, "error", err)
			result.Err = err
			f.finish(report, result)
			continue
		}

		writeSourceDigest(h, i, raw)

		for _, name := range bundle.Names() {
			d, _ := bundle.Get(name)
			report.Entries = append(report.Entries, outbound.Named{
				QualifiedName: outbound.QualifiedName(i, name),
				Descriptor:    d,
			})
		}
		result.Entries = bundle.Len()
		result.Rejected = len(bundle.Rejected)
		if f.observer != nil {
			for _, r := range bundle.Rejected {
				f.observer.LinkRejected(Reason(r.Err))
			}
		}
		f.finish(report, result)
	}

	report.ContentHash = hex.EncodeToString(h.Sum(nil))
	return report, nil
}

// writeSourceDigest 写入定长的下标与长度头，再写入内容，避免不同源拼接后相同。
func writeSourceDigest(h hash.Hash, index int, raw []byte) {
	var header [16]byte
	binary.BigEndian.PutUint64(header[:8], uint64(index))
	binary.BigEndian.PutUint64(header[8:], uint64(len(raw)))
	h.Write(header[:])
	h.Write(raw)
}

func (f *Fetcher) finish(report *Report, result SourceResult) {
	report.Sources = append(report.Sources, result)
	if f.observer != nil {
		f.observer.SourceDone(result)
	}
}

package repository

import "context"

// DescriptorRepository 持久化 fetch 结果，供 list/gen 读取。
type DescriptorRepository interface {
	// Replace 整体覆盖已保存的列表。
	Replace(ctx context.Context, snapshot *Snapshot) error
	// Latest 返回最近一次保存的快照；从未保存时返回 ErrNoSnapshot。
	Latest(ctx context.Context) (*Snapshot, error)
	Close() error
}

// SelectionRepository remembers the qualified name last chosen by gen.
type SelectionRepository interface {
	SaveSelection(ctx context.Context, qualifiedName string) error
	// Selection returns "" when nothing has been selected yet.
	Selection(ctx context.Context) (string, error)
}

// Store 组合两类仓储。
type Store interface {
	DescriptorRepository
	SelectionRepository
}

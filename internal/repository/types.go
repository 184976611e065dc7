package repository

import (
	"time"

	"github.com/creamcroissant/v2mng/internal/outbound"
)

// Snapshot 是一次 fetch 写入的完整描述列表，每次 fetch 整体覆盖。
type Snapshot struct {
	ID          string
	FetchedAt   time.Time
	ContentHash string
	Entries     []outbound.Named
}

// At returns the entry at a zero-based index.
func (s *Snapshot) At(index int) (outbound.Named, error) {
	if s == nil || index < 0 || index >= len(s.Entries) {
		return outbound.Named{}, ErrNotFound
	}
	return s.Entries[index], nil
}

// Find returns the entry with the given qualified name.
func (s *Snapshot) Find(qualifiedName string) (int, outbound.Named, error) {
	if s != nil {
		for i, e := range s.Entries {
			if e.QualifiedName == qualifiedName {
				return i, e, nil
			}
		}
	}
	return -1, outbound.Named{}, ErrNotFound
}

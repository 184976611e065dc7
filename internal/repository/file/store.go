// Package file stores the fetched descriptor list as JSON files in the home directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creamcroissant/v2mng/internal/outbound"
	"github.com/creamcroissant/v2mng/internal/repository"
	"github.com/creamcroissant/v2mng/internal/support/fsutil"
)

const (
	listFile      = "subs.json"
	metaFile      = "subs.meta.json"
	selectionFile = "selected.txt"
)

// Store 以 subs.json（[[name, outbound], ...]）保存列表，元数据单独存放。
type Store struct {
	dir string
}

type meta struct {
	ID          string    `json:"id"`
	FetchedAt   time.Time `json:"fetched_at"`
	ContentHash string    `json:"content_hash,omitempty"`
}

// NewStore returns a Store rooted at dir. The directory is created on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// ListPath is the path of the persisted [name, outbound] array.
func (s *Store) ListPath() string { return filepath.Join(s.dir, listFile) }

func (s *Store) Replace(_ context.Context, snapshot *repository.Snapshot) error {
	entries := snapshot.Entries
	if entries == nil {
		entries = []outbound.Named{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode descriptors: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.ListPath(), data, 0o600); err != nil {
		return err
	}

	m, err := json.Marshal(meta{ID: snapshot.ID, FetchedAt: snapshot.FetchedAt, ContentHash: snapshot.ContentHash})
	if err != nil {
		return fmt.Errorf("encode snapshot meta: %w", err)
	}
	return fsutil.WriteFileAtomic(filepath.Join(s.dir, metaFile), m, 0o600)
}

func (s *Store) Latest(_ context.Context) (*repository.Snapshot, error) {
	data, err := os.ReadFile(s.ListPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, repository.ErrNoSnapshot
		}
		return nil, fmt.Errorf("read %s: %w", listFile, err)
	}
	var entries []outbound.Named
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", listFile, err)
	}

	snapshot := &repository.Snapshot{Entries: entries}
	// 元数据缺失（旧版本写入的 subs.json）不视为错误
	if raw, err := os.ReadFile(filepath.Join(s.dir, metaFile)); err == nil {
		var m meta
		if err := json.Unmarshal(raw, &m); err == nil {
			snapshot.ID = m.ID
			snapshot.FetchedAt = m.FetchedAt
			snapshot.ContentHash = m.ContentHash
		}
	}
	return snapshot, nil
}

func (s *Store) SaveSelection(_ context.Context, qualifiedName string) error {
	return fsutil.WriteFileAtomic(filepath.Join(s.dir, selectionFile), []byte(qualifiedName+"\n"), 0o600)
}

func (s *Store) Selection(_ context.Context) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, selectionFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", selectionFile, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *Store) Close() error { return nil }

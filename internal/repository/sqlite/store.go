// Package sqlite is the SQLite-backed DescriptorRepository.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/creamcroissant/v2mng/internal/outbound"
	"github.com/creamcroissant/v2mng/internal/repository"
)

const selectionKey = "selection"

// Store 每次 Replace 在一个事务内写入新快照并删除旧快照。
type Store struct {
	db *sql.DB
}

// NewStore wraps an opened and migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Replace(ctx context.Context, snapshot *repository.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	// 兼容未开启外键的连接
	if _, err := tx.ExecContext(ctx, `DELETE FROM descriptors`); err != nil {
		return fmt.Errorf("clear descriptors: %w", err)
	}

	const insertSnapshot = `INSERT INTO snapshots (id, fetched_at, content_hash) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertSnapshot, snapshot.ID, snapshot.FetchedAt.Unix(), snapshot.ContentHash); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO descriptors (snapshot_id, position, qualified_name, outbound) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, entry := range snapshot.Entries {
		raw, err := json.Marshal(entry.Descriptor)
		if err != nil {
			return fmt.Errorf("encode %s: %w", entry.QualifiedName, err)
		}
		if _, err := stmt.ExecContext(ctx, snapshot.ID, i, entry.QualifiedName, string(raw)); err != nil {
			return fmt.Errorf("insert %s: %w", entry.QualifiedName, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Latest(ctx context.Context) (*repository.Snapshot, error) {
	var (
		snapshot  repository.Snapshot
		fetchedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, fetched_at, content_hash FROM snapshots ORDER BY fetched_at DESC LIMIT 1`,
	).Scan(&snapshot.ID, &fetchedAt, &snapshot.ContentHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoSnapshot
		}
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	snapshot.FetchedAt = time.Unix(fetchedAt, 0)

	rows, err := s.db.QueryContext(ctx,
		`SELECT qualified_name, outbound FROM descriptors WHERE snapshot_id = ? ORDER BY position`,
		snapshot.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query descriptors: %w", err)
	}
	defer rows.Close()

	snapshot.Entries = []outbound.Named{}
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, err
		}
		pair, err := json.Marshal([]json.RawMessage{mustQuote(name), json.RawMessage(raw)})
		if err != nil {
			return nil, err
		}
		var entry outbound.Named
		if err := json.Unmarshal(pair, &entry); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		snapshot.Entries = append(snapshot.Entries, entry)
	}
	return &snapshot, rows.Err()
}

func (s *Store) SaveSelection(ctx context.Context, qualifiedName string) error {
	const query = `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query, selectionKey, qualifiedName, time.Now().Unix())
	return err
}

func (s *Store) Selection(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, selectionKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func mustQuote(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

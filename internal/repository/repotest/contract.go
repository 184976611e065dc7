// Package repotest holds the behaviour every repository.Store implementation must share.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/v2mng/internal/outbound"
	"github.com/creamcroissant/v2mng/internal/repository"
)

// Entries returns a small list covering every transport/security variant.
func Entries() []outbound.Named {
	return []outbound.Named{
		{QualifiedName: "0_plain", Descriptor: outbound.Descriptor{
			Name: "plain", Protocol: outbound.ProtocolVMess,
			Endpoint: outbound.Endpoint{Address: "p.example", Port: 10086, ID: "id-0"},
		}},
		{QualifiedName: "0_ws_tls", Descriptor: outbound.Descriptor{
			Name: "ws_tls", Protocol: outbound.ProtocolVMess,
			Endpoint:  outbound.Endpoint{Address: "w.example", Port: 443, ID: "id-1"},
			Transport: outbound.WebSocket{Path: "/ray", Host: "cdn.example"},
			Security:  outbound.TLS{ServerName: "w.example", ALPN: []string{"h2"}},
		}},
		{QualifiedName: "2_plain", Descriptor: outbound.Descriptor{
			Name: "plain", Protocol: outbound.ProtocolVMess,
			Endpoint: outbound.Endpoint{Address: "q.example", Port: 80, ID: "id-2"},
		}},
	}
}

// RunStoreContract exercises Replace, Latest and the selection memory.
func RunStoreContract(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Run("empty store", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Latest(context.Background())
		assert.ErrorIs(t, err, repository.ErrNoSnapshot)

		name, err := store.Selection(context.Background())
		require.NoError(t, err)
		assert.Empty(t, name)
	})

	t.Run("replace then latest keeps order", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		in := &repository.Snapshot{
			ID:          "snap-1",
			FetchedAt:   time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC),
			ContentHash: "abc",
			Entries:     Entries(),
		}
		require.NoError(t, store.Replace(ctx, in))

		got, err := store.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "snap-1", got.ID)
		assert.True(t, in.FetchedAt.Equal(got.FetchedAt))
		assert.Equal(t, "abc", got.ContentHash)
		assert.Equal(t, Entries(), got.Entries)

		entry, err := got.At(1)
		require.NoError(t, err)
		assert.Equal(t, "0_ws_tls", entry.QualifiedName)
		_, err = got.At(3)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("replace overwrites wholesale", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		require.NoError(t, store.Replace(ctx, &repository.Snapshot{ID: "a", FetchedAt: time.Unix(100, 0), Entries: Entries()}))
		require.NoError(t, store.Replace(ctx, &repository.Snapshot{ID: "b", FetchedAt: time.Unix(200, 0), Entries: Entries()[2:]}))

		got, err := store.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "b", got.ID)
		require.Len(t, got.Entries, 1)
		assert.Equal(t, "2_plain", got.Entries[0].QualifiedName)
	})

	t.Run("empty list is a valid snapshot", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		require.NoError(t, store.Replace(ctx, &repository.Snapshot{ID: "e", FetchedAt: time.Unix(1, 0)}))

		got, err := store.Latest(ctx)
		require.NoError(t, err)
		assert.Empty(t, got.Entries)
	})

	t.Run("selection", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		require.NoError(t, store.SaveSelection(ctx, "0_ws_tls"))
		require.NoError(t, store.SaveSelection(ctx, "2_plain"))

		name, err := store.Selection(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2_plain", name)
	})
}

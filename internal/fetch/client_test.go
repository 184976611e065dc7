package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/v2mng/internal/cache"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetry() RetryConfig {
	return RetryConfig{
		Enabled:         true,
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      1.5,
	}
}

func TestClientGetSuccess(t *testing.T) {
	var userAgent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	client := NewClient(Options{UserAgent: "v2mng-test"}, nil, testLogger())
	body, err := client.Retrieve(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
	assert.Equal(t, "v2mng-test", userAgent.Load())
}

func TestClientRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient(Options{Retry: fastRetry()}, nil, testLogger())
	body, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.EqualValues(t, 3, hits.Load())
}

func TestClientNotFoundIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	client := NewClient(Options{Retry: fastRetry()}, nil, testLogger())
	_, err := client.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrieval)

	var re *RetrievalError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusNotFound, re.StatusCode)
	assert.Equal(t, srv.URL, re.Source)
	assert.EqualValues(t, 1, hits.Load())
}

func TestClientRetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Options{Retry: fastRetry()}, nil, testLogger())
	_, err := client.Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.EqualValues(t, 3, hits.Load())
}

func TestClientConditionalRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte("bundle-v1"))
	}))
	defer srv.Close()

	store := cache.NewStore(cache.Options{DefaultTTL: time.Minute})
	client := NewClient(Options{CacheTTL: time.Minute}, store, testLogger())

	first, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	second, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "bundle-v1", string(first))
	assert.Equal(t, first, second)
	assert.EqualValues(t, 2, hits.Load())
}

func TestClientBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	client := NewClient(Options{MaxBytes: 16, Retry: fastRetry()}, nil, testLogger())
	_, err := client.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, errTooLarge)
}

func TestClientRejectsNonHTTPRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "file:///etc/passwd", http.StatusFound)
	}))
	defer srv.Close()

	client := NewClient(Options{}, nil, testLogger())
	_, err := client.Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, errRedirectBadScheme)
}

func TestReadLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub.txt")
	require.NoError(t, os.WriteFile(path, []byte("local"), 0o600))

	client := NewClient(Options{}, nil, testLogger())
	body, err := client.Retrieve(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "local", string(body))

	_, err = ReadLocal(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCategory
	}{
		{&RetrievalError{StatusCode: 500}, CategoryRetryable},
		{&RetrievalError{StatusCode: 429}, CategoryRetryable},
		{&RetrievalError{StatusCode: 403}, CategoryPermanent},
		{&RetrievalError{Err: errTooLarge}, CategoryPermanent},
		{context.Canceled, CategoryPermanent},
		{errors.New("connection reset"), CategoryRetryable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyError(tt.err), "%v", tt.err)
	}
}

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/creamcroissant/v2mng/internal/cache"
	"github.com/creamcroissant/v2mng/internal/support/fsutil"
)

const (
	defaultUserAgent    = "v2mng"
	defaultMaxBytes     = 5 * 1024 * 1024
	defaultMaxRedirects = 5
)

var (
	errTooLarge          = errors.New("response body exceeds size limit")
	errTooManyRedirects  = errors.New("too many redirects")
	errRedirectBadScheme = errors.New("redirect target scheme is not http/https")
	errInvalidRequest    = errors.New("invalid request")
)

// Options 配置远程取回行为。Timeout 为 0 表示不设超时。
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBytes     int64
	MaxRedirects int
	Retry        RetryConfig
	// CacheTTL 控制条件请求校验信息的保存时间，需配合 cache.Store 使用。
	CacheTTL time.Duration
}

// Client 按来源类型（URL 或本地路径）取回订阅原始内容。
type Client struct {
	http   *http.Client
	opts   Options
	cache  cache.Store
	logger *slog.Logger
}

// cachedResponse 保存条件请求所需的校验信息与响应体。
type cachedResponse struct {
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	Body         []byte `json:"body"`
}

// NewClient builds a Client. store may be nil to disable conditional requests.
func NewClient(opts Options, store cache.Store, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = defaultMaxRedirects
	}
	maxRedirects := opts.MaxRedirects

	if store != nil {
		store = store.Namespace("fetch")
	}

	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: http.DefaultTransport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return errTooManyRedirects
				}
				if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
					return errRedirectBadScheme
				}
				return nil
			},
		},
		opts:   opts,
		cache:  store,
		logger: logger,
	}
}

// IsRemote reports whether a source names an HTTP(S) endpoint.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Retrieve 取回一个订阅源的原始字节。
func (c *Client) Retrieve(ctx context.Context, source string) ([]byte, error) {
	if IsRemote(source) {
		c.logger.Info("retrieve subscription from network", "source", source)
		return c.Get(ctx, source)
	}
	c.logger.Info("retrieve subscription from local", "source", source)
	return ReadLocal(source)
}

// Get performs a GET with retries; any non-2xx status is a RetrievalError.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("retrieval attempt failed", "source", rawURL, "error", err, "retry_in", wait)
	}
	err := withRetry(ctx, c.opts.Retry, notify, func(ctx context.Context) error {
		b, err := c.getOnce(ctx, rawURL)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		var re *RetrievalError
		if errors.As(err, &re) {
			return nil, err
		}
		return nil, &RetrievalError{Source: rawURL, Err: err}
	}
	return body, nil
}

func (c *Client) getOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &RetrievalError{Source: rawURL, Err: fmt.Errorf("%w: %v", errInvalidRequest, err)}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	cached, hasCached := c.lookup(ctx, rawURL)
	if hasCached {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && hasCached {
		c.logger.Debug("subscription not modified", "source", rawURL)
		return cached.Body, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &RetrievalError{Source: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.opts.MaxBytes {
		return nil, &RetrievalError{Source: rawURL, Err: errTooLarge}
	}

	c.remember(ctx, rawURL, resp.Header, body)
	return body, nil
}

func (c *Client) lookup(ctx context.Context, rawURL string) (cachedResponse, bool) {
	var cached cachedResponse
	if c.cache == nil {
		return cached, false
	}
	ok, err := c.cache.GetJSON(ctx, rawURL, &cached)
	if err != nil {
		c.cache.Delete(ctx, rawURL)
		return cached, false
	}
	return cached, ok
}

func (c *Client) remember(ctx context.Context, rawURL string, header http.Header, body []byte) {
	if c.cache == nil {
		return
	}
	entry := cachedResponse{ETag: header.Get("ETag"), LastModified: header.Get("Last-Modified"), Body: body}
	if entry.ETag == "" && entry.LastModified == "" {
		return
	}
	if err := c.cache.SetJSON(ctx, rawURL, entry, c.opts.CacheTTL); err != nil {
		c.logger.Debug("cache subscription response failed", "source", rawURL, "error", err)
	}
}

// ReadLocal reads a subscription file; a leading "~" expands to the home directory.
func ReadLocal(path string) ([]byte, error) {
	expanded, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, &RetrievalError{Source: path, Err: err}
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, &RetrievalError{Source: path, Err: err}
	}
	return data, nil
}

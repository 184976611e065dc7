// Package fetch retrieves raw subscription bundles from remote endpoints or local files.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrRetrieval 是所有取回失败的根错误。
var ErrRetrieval = errors.New("subscription retrieval failed")

// RetrievalError carries the failing source and, for HTTP, the status line.
type RetrievalError struct {
	Source     string
	StatusCode int
	Status     string
	Err        error
}

func (e *RetrievalError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: http status %s", ErrRetrieval, e.Source, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", ErrRetrieval, e.Source, e.Err)
	default:
		return fmt.Sprintf("%s: %s", ErrRetrieval, e.Source)
	}
}

func (e *RetrievalError) Is(target error) bool { return target == ErrRetrieval }

func (e *RetrievalError) Unwrap() error { return e.Err }

// ErrorCategory 决定失败后是否重试。
type ErrorCategory int

const (
	// CategoryRetryable 表示临时错误（网络抖动、5xx、429）。
	CategoryRetryable ErrorCategory = iota
	// CategoryPermanent 表示重试无意义（4xx、本地文件错误、响应过大）。
	CategoryPermanent
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryRetryable:
		return "retryable"
	case CategoryPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// ClassifyError categorizes a retrieval error for the retry loop.
func ClassifyError(err error) ErrorCategory {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, errTooLarge),
		errors.Is(err, errInvalidRequest),
		errors.Is(err, errTooManyRedirects),
		errors.Is(err, errRedirectBadScheme):
		return CategoryPermanent
	}
	var re *RetrievalError
	if errors.As(err, &re) && re.StatusCode != 0 {
		switch {
		case re.StatusCode == http.StatusTooManyRequests,
			re.StatusCode == http.StatusRequestTimeout,
			re.StatusCode >= 500:
			return CategoryRetryable
		default:
			return CategoryPermanent
		}
	}
	// 非 HTTP 状态错误（连接失败、超时）默认可重试
	return CategoryRetryable
}

// IsRetryable returns true if the error is transient and can be retried.
func IsRetryable(err error) bool {
	return ClassifyError(err) == CategoryRetryable
}

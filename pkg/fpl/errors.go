package fpl

import (
	"fmt"
	"net/http"
)

// Kind 错误分类
type Kind string

const (
	KindRateLimited Kind = "rate_limited"
	KindRemote      Kind = "remote"
	KindParse       Kind = "parse"
)

// APIError 远端调用失败。只有 429 可以重试
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
	parse      bool
}

func (e *APIError) Error() string {
	switch {
	case e.parse:
		return fmt.Sprintf("fpl %s: decode: %v", e.Endpoint, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fpl %s: status=%d body=%s", e.Endpoint, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("fpl %s: %v", e.Endpoint, e.Err)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// RateLimited 实现 retry 包识别限流用的接口
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) Kind() Kind {
	switch {
	case e.parse:
		return KindParse
	case e.RateLimited():
		return KindRateLimited
	default:
		return KindRemote
	}
}

func statusError(endpoint string, code int, body []byte) *APIError {
	return &APIError{Endpoint: endpoint, StatusCode: code, Body: abbreviate(body)}
}

func parseError(endpoint string, err error) *APIError {
	return &APIError{Endpoint: endpoint, Err: err, parse: true}
}

func abbreviate(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}

package xerr

import (
	"fmt"
	"net/http"
)

const (
	ErrInternalServer = 500 // HTTP 500

	ErrBadRequest       = 1000 // HTTP 400
	ErrInvalidInput     = 1001 // HTTP 400
	ErrMissingParameter = 1002 // HTTP 400

	ErrNotFound         = 1300 // HTTP 404
	ErrResourceNotFound = 1301 // HTTP 404

	ErrConflict      = 1400 // HTTP 409
	ErrCyclePending  = 1401 // HTTP 409
	ErrUnavailable   = 1500 // HTTP 503
	ErrNotConfigured = 1501 // HTTP 503
	ErrQueryFailed   = 1600 // HTTP 500
)

// CodeMsg 接口返回给调用方的错误
type CodeMsg struct {
	Code int    // 错误码
	Msg  string // 错误消息
	Err  error  // 原始错误
}

func (e *CodeMsg) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, msg=%s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("code=%d, msg=%s", e.Code, e.Msg)
}

func (e *CodeMsg) Unwrap() error {
	return e.Err
}

// HTTPStatus 错误码按千位段映射 HTTP 状态
func (e *CodeMsg) HTTPStatus() int {
	switch {
	case e.Code >= 1000 && e.Code < 1100:
		return http.StatusBadRequest
	case e.Code >= 1300 && e.Code < 1400:
		return http.StatusNotFound
	case e.Code >= 1400 && e.Code < 1500:
		return http.StatusConflict
	case e.Code >= 1500 && e.Code < 1600:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func New(code int, msg string) *CodeMsg {
	return &CodeMsg{Code: code, Msg: msg}
}

// Wrap 带上原始错误，Msg 仍然是给调用方看的
func Wrap(code int, msg string, err error) *CodeMsg {
	return &CodeMsg{Code: code, Msg: msg, Err: err}
}

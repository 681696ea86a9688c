package pkg

import (
	"errors"
	"net/http"
)

// Kind 错误分类，决定返回给客户端的 HTTP 状态码
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
)

// AppError 业务错误；Msg 面向客户端，Err 仅用于服务端日志
type AppError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		if e.Msg == "" {
			return e.Err.Error()
		}
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *AppError) Unwrap() error { return e.Err }

func InvalidInput(msg string) error { return &AppError{Kind: KindInvalidInput, Msg: msg} }

func Unauthenticated(msg string) error { return &AppError{Kind: KindUnauthenticated, Msg: msg} }

func Forbidden(msg string) error { return &AppError{Kind: KindForbidden, Msg: msg} }

func NotFound(msg string) error { return &AppError{Kind: KindNotFound, Msg: msg} }

func Conflict(msg string) error { return &AppError{Kind: KindConflict, Msg: msg} }

// Internal 包装存储层/运行时错误，客户端只会看到通用提示
func Internal(err error) error {
	return &AppError{Kind: KindInternal, Msg: "伺服器錯誤", Err: err}
}

// KindOf 非 AppError 一律视为 Internal
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind 判断 err 是否为指定分类
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

func StatusOf(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage 返回可以安全暴露给客户端的消息
func PublicMessage(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Kind != KindInternal && ae.Msg != "" {
		return ae.Msg
	}
	return "伺服器錯誤"
}

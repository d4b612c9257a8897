package errors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfig    Kind = "config"
	KindDomain    Kind = "domain"
	KindTransport Kind = "transport"
	KindBootstrap Kind = "bootstrap"
	KindStorage   Kind = "storage"

	// 客户端错误分类
	KindAsset   Kind = "asset"   // 本地解码失败，绝不发送
	KindRemote  Kind = "remote"  // 提交接口返回非 2xx
	KindStatus  Kind = "status"  // 限流状态查询返回非 2xx
	KindAudit   Kind = "audit"   // 审核接口返回非 2xx
	KindNetwork Kind = "network" // 尚未收到响应的传输失败

	KindUnknown Kind = "unknown"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Status is the HTTP status of the rejecting response, zero for local failures.
	Status int
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// Remote builds an error for a response that was received but rejected.
func Remote(kind Kind, op string, status int, detail string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: detail,
		Status:  status,
	}
}

// IsKind checks whether any error in the chain matches the provided kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	for err != nil {
		if errors.As(err, &target) {
			return target.Kind == kind
		}
		err = errors.Unwrap(err)
	}
	return false
}

// Detail returns the single human-readable message carried by err, suitable
// for displaying verbatim. Untyped errors fall back to err.Error().
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) {
		if typed.Message == "" && typed.Cause != nil {
			return typed.Cause.Error()
		}
		return typed.Message
	}
	return err.Error()
}

// StatusCode reports the HTTP status attached to err, or zero.
func StatusCode(err error) int {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Status
	}
	return 0
}

package errs

import (
	"errors"
	"strconv"
	"strings"
)

// CodeError is the wire-safe error used across the gateway. Only the
// predefined vars below ever reach a log line tied to client behavior;
// raw detail never leaves the process.
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// WithDetail returns a copy carrying extra context; the receiver is shared
// and must stay immutable.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

// Gateway error taxonomy.
var (
	// ErrInvalidData marks a protocol violation: the connection is closed.
	ErrInvalidData = NewCodeError(1001, "invalid data")
	// ErrInvalidCredentials and ErrInvalidToken are recoverable auth
	// failures; the connection stays open for a retry.
	ErrInvalidCredentials = NewCodeError(1002, "invalid credentials")
	ErrInvalidToken       = NewCodeError(1003, "invalid token")
	// ErrNotFound reports a missing registry entry on unregister.
	ErrNotFound = NewCodeError(1004, "record not found")
	// ErrServerInternal covers recovered handler panics.
	ErrServerInternal = NewCodeError(1500, "server internal error")
)

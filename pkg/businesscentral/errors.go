package businesscentral

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a failure so the HTTP boundary can map it to a status.
type Kind string

const (
	KindAuthentication    Kind = "authentication"
	KindCompanyResolution Kind = "company_resolution"
	KindUpstream          Kind = "upstream"
)

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrAuthentication    = &Error{Kind: KindAuthentication}
	ErrCompanyResolution = &Error{Kind: KindCompanyResolution}
	ErrUpstream          = &Error{Kind: KindUpstream}
)

// Error is returned by every upstream-facing call in this package.
type Error struct {
	Kind   Kind
	Op     string // token | companies | customers
	Status int    // upstream HTTP status, 0 if the call never got a response
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Timeout reports whether the upstream call ran out of time.
func (e *Error) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// KindOf returns the kind of err, or "" if err did not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, op string, status int, err error) *Error {
	return &Error{Kind: kind, Op: op, Status: status, Err: err}
}

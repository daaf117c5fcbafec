// Package apperr carries the failure taxonomy every pipeline stage reports in.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindUnavailable       Kind = "unavailable"
	KindQuotaExceeded     Kind = "quota_exceeded"
	KindMalformedResponse Kind = "malformed_response"
	KindInvalidInput      Kind = "invalid_input"
)

// ErrNoGenerator is wrapped by the generation chain when no provider answered.
var ErrNoGenerator = errors.New("no generation capability available")

// Error is a classified failure. Count and Limit are set for KindQuotaExceeded.
type Error struct {
	Kind    Kind
	Stage   string
	Message string
	Count   int
	Limit   int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Stage == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, stage, message string) *Error {
	return &Error{Kind: kind, Stage: stage, Message: message}
}

// Wrap classifies err. An err that is already an *Error keeps its kind and
// only gains a stage if it had none.
func Wrap(kind Kind, stage string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Stage == "" {
			cp := *ae
			cp.Stage = stage
			return &cp
		}
		return err
	}
	return &Error{Kind: kind, Stage: stage, Message: err.Error(), Err: err}
}

func NotFound(stage, message string) *Error {
	return New(KindNotFound, stage, message)
}

func Unavailable(stage string, err error) error {
	return Wrap(KindUnavailable, stage, err)
}

func Malformed(stage, message string) *Error {
	return New(KindMalformedResponse, stage, message)
}

func Invalid(stage, message string) *Error {
	return New(KindInvalidInput, stage, message)
}

func QuotaExceeded(stage string, count, limit int) *Error {
	return &Error{
		Kind:    KindQuotaExceeded,
		Stage:   stage,
		Message: fmt.Sprintf("free limit reached (%d/%d)", count, limit),
		Count:   count,
		Limit:   limit,
	}
}

// KindOf reports the kind of err. Unclassified errors count as unavailable.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnavailable
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

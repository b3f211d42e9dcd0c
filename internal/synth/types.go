package synth

import (
	"context"
	"errors"
	"fmt"
)

// Synthesizer turns markup into MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, ssml string) ([]byte, error)
}

type Kind string

const (
	KindAuth         Kind = "auth"
	KindQuota        Kind = "quota"
	KindUnavailable  Kind = "unavailable"
	KindInvalidInput Kind = "invalid_input"
)

var (
	ErrAuth         = errors.New("synthesis backend rejected credentials")
	ErrQuota        = errors.New("synthesis quota exceeded")
	ErrUnavailable  = errors.New("synthesis backend unavailable")
	ErrInvalidInput = errors.New("synthesis backend rejected input")
)

// Error is a classified backend failure. errors.Is matches it against the
// sentinel for its Kind.
type Error struct {
	Kind       Kind
	StatusCode int    // HTTP status, 0 when no response was received
	Status     string // Google status, e.g. RESOURCE_EXHAUSTED
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("synth: %s (%d %s): %s", e.Kind, e.StatusCode, e.Status, msg)
	}
	return fmt.Sprintf("synth: %s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Retryable reports whether the same request may succeed later.
// Auth and input failures need a configuration or request change.
func (e *Error) Retryable() bool {
	return e.Kind == KindUnavailable || e.Kind == KindQuota
}

func (k Kind) sentinel() error {
	switch k {
	case KindAuth:
		return ErrAuth
	case KindQuota:
		return ErrQuota
	case KindInvalidInput:
		return ErrInvalidInput
	default:
		return ErrUnavailable
	}
}

// KindOf classifies err, treating anything unclassified as unavailable.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnavailable
}

// classify maps an HTTP status and Google status string to a Kind.
// The Google status wins when it is recognised.
func classify(httpStatus int, googleStatus string) Kind {
	switch googleStatus {
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return KindAuth
	case "RESOURCE_EXHAUSTED":
		return KindQuota
	case "UNAVAILABLE", "INTERNAL", "DEADLINE_EXCEEDED":
		return KindUnavailable
	case "INVALID_ARGUMENT", "FAILED_PRECONDITION", "OUT_OF_RANGE":
		return KindInvalidInput
	}

	switch {
	case httpStatus == 401 || httpStatus == 403:
		return KindAuth
	case httpStatus == 429:
		return KindQuota
	case httpStatus == 400 || httpStatus == 422:
		return KindInvalidInput
	default:
		return KindUnavailable
	}
}

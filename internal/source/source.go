// Package source provides the prediction log sources the dashboard reads from.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/theirongolddev/fincast/internal/model"
)

// Source fetches the current prediction log.
type Source interface {
	Fetch(ctx context.Context) (*model.PredictionLog, error)
}

// Kind classifies why a fetch failed.
type Kind int

const (
	// KindFetch covers transport failures and non-success responses.
	KindFetch Kind = iota + 1
	// KindParse means the document was retrieved but is not a valid prediction log.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

var (
	// ErrFetch matches any fetch-kind Error via errors.Is.
	ErrFetch = errors.New("source: fetch failed")
	// ErrParse matches any parse-kind Error via errors.Is.
	ErrParse = errors.New("source: parse failed")
)

// Error is returned by every Source implementation.
type Error struct {
	Kind   Kind
	Origin string // URL or path
	Status int    // HTTP status, 0 when not applicable
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("source: %s %s: unexpected status %d", e.Kind, e.Origin, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("source: %s %s: %v", e.Kind, e.Origin, e.Err)
	default:
		return fmt.Sprintf("source: %s %s", e.Kind, e.Origin)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers test the failure kind with errors.Is(err, ErrFetch).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrFetch:
		return e.Kind == KindFetch
	case ErrParse:
		return e.Kind == KindParse
	}
	return false
}

// KindOf reports the failure kind of err, or 0 if err is not a source error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

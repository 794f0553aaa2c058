package weather

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a fetch failed.
type ErrorKind string

const (
	KindIO            ErrorKind = "io"
	KindParse         ErrorKind = "parse"
	KindTimeout       ErrorKind = "timeout"
	KindProcessFailed ErrorKind = "process_failed"
	KindUnavailable   ErrorKind = "unavailable"
)

// FetchError is returned by a Fetcher when the raw payload could not be produced.
type FetchError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError builds a FetchError of the given kind.
func NewFetchError(kind ErrorKind, detail string, err error) *FetchError {
	return &FetchError{Kind: kind, Detail: detail, Err: err}
}

// ValidationError reports a payload that lacks a required top-level key.
type ValidationError struct {
	Missing string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload: missing %q", e.Missing)
}

// KindOf returns the fetch error kind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a FetchError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

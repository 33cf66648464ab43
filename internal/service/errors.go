// Package service holds the business rules between the HTTP handlers and
// the repositories.  Every failure a client should see is returned as an
// *Error or a *ValidationError; anything else is an internal error.
package service

import (
	"errors"
	"sort"
	"strings"
)

// Error kinds.  Handlers map them to HTTP status codes.
var (
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadToken     = errors.New("bad token")
	ErrDelivery     = errors.New("delivery failed")
)

// Error is a client-facing failure.  Kind is one of the sentinels above
// and Msg is the text returned in the response body.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func conflict(msg string) error     { return &Error{Kind: ErrConflict, Msg: msg} }
func forbidden(msg string) error    { return &Error{Kind: ErrForbidden, Msg: msg} }
func notFound(msg string) error     { return &Error{Kind: ErrNotFound, Msg: msg} }
func unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Msg: msg} }
func badToken(msg string) error     { return &Error{Kind: ErrBadToken, Msg: msg} }
func delivery(msg string) error     { return &Error{Kind: ErrDelivery, Msg: msg} }

// ValidationError reports bad input per field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// fieldErrors accumulates messages, keeping the first one per field.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// err returns nil when nothing was added.
func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// merge folds a validation error from Validate into f.
func (f fieldErrors) merge(err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		for k, v := range ve.Fields {
			f.add(k, v)
		}
	}
}

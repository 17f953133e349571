// Package apierr defines the API error taxonomy and the JSON envelopes
// every handler responds with.
//
// Success bodies are {"message": <payload>}. Error bodies are
// {"errors":[{"type","msg","path","location"}]} carrying exactly one entry.
// Unknown errors are logged and rendered as a generic 500; their text is
// never sent to the client.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Kind classifies an API error.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindExpiredToken Kind = "expired_token"
	KindRateLimited  Kind = "rate_limited"
	KindInternal     Kind = "internal"
)

// Error is a user-facing failure with a single human-readable message.
type Error struct {
	Kind     Kind
	Msg      string
	Path     string // offending field, if any
	Location string // body | query | params | header
	Err      error  // optional cause, logged but never rendered
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind onto an HTTP status. NotFound deliberately maps to
// 400, matching the convention clients of this API rely on.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindNotFound, KindConflict, KindExpiredToken:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Validation reports a malformed or missing input field.
func Validation(path, location, msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Path: path, Location: location}
}

// Unauthorized reports a missing/invalid credential.
func Unauthorized(msg string) *Error {
	if msg == "" {
		msg = "Unauthorized"
	}
	return &Error{Kind: KindUnauthorized, Msg: msg, Location: "header", Path: "authorization"}
}

// Forbidden reports a missing membership, role or ownership relationship.
func Forbidden(msg string) *Error {
	if msg == "" {
		msg = "You are not allowed to perform this action."
	}
	return &Error{Kind: KindForbidden, Msg: msg}
}

// NotFound reports that a referenced entity id does not resolve.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// Conflict reports duplicates and exceeded quotas.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

// ExpiredToken reports a token that verified but is past its expiry.
func ExpiredToken(msg string) *Error {
	if msg == "" {
		msg = "Sorry, your token expired."
	}
	return &Error{Kind: KindExpiredToken, Msg: msg, Location: "body", Path: "token"}
}

// RateLimited reports a throttled request.
func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimited, Msg: msg}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "Internal server error", Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}

type errorItem struct {
	Type     string `json:"type"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

type errorBody struct {
	Errors []errorItem `json:"errors"`
}

type okBody struct {
	Message any `json:"message"`
}

// WriteOK renders a 200 success envelope.
func WriteOK(w http.ResponseWriter, payload any) {
	writeJSON(w, http.StatusOK, okBody{Message: payload})
}

// WriteCreated renders a 201 success envelope.
func WriteCreated(w http.ResponseWriter, payload any) {
	writeJSON(w, http.StatusCreated, okBody{Message: payload})
}

// Write renders err as an error envelope. Non-API errors are logged and
// collapsed into a generic internal error.
func Write(w http.ResponseWriter, log *zap.Logger, err error) {
	e, ok := As(err)
	if !ok {
		e = Internal(err)
	}
	if e.Kind == KindInternal && log != nil {
		log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, e.Status(), errorBody{Errors: []errorItem{{
		Type:     string(e.Kind),
		Msg:      e.Msg,
		Path:     e.Path,
		Location: e.Location,
	}}})
}

// WriteStatus renders e with an explicit HTTP status instead of the one
// its kind maps to. Used for router-level 404/405 responses.
func WriteStatus(w http.ResponseWriter, status int, e *Error) {
	writeJSON(w, status, errorBody{Errors: []errorItem{{
		Type:     string(e.Kind),
		Msg:      e.Msg,
		Path:     e.Path,
		Location: e.Location,
	}}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

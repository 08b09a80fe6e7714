package clientcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
)

// Result is the normalized outcome of an API call. Every operation reads its
// response through interpret, so error bodies are decoded in one place.
type Result struct {
	OK         bool
	StatusCode int
	Body       []byte
	Message    string // decoded message field, or "HTTP <status>" on failure
}

// Err returns nil for a successful result and an *APIError otherwise.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &APIError{StatusCode: r.StatusCode, Message: r.Message, Body: string(r.Body)}
}

// Decode unmarshals the body of a successful result into v.
func (r Result) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// interpret reads resp and classifies it against the accepted status codes.
// The returned error is non-nil only when the body cannot be read.
func interpret(resp *http.Response, accepted ...int) (Result, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	res := Result{
		OK:         slices.Contains(accepted, resp.StatusCode),
		StatusCode: resp.StatusCode,
		Body:       body,
	}
	if res.OK {
		res.Message = decodeMessage(body)
	} else {
		res.Message = errorMessage(resp.StatusCode, body)
	}
	return res, nil
}

// errorMessage returns the JSON message field of body, or "HTTP <status>"
// when the body is not a JSON object or carries no message.
func errorMessage(statusCode int, body []byte) string {
	if msg := decodeMessage(body); msg != "" {
		return msg
	}
	return "HTTP " + strconv.Itoa(statusCode)
}

func decodeMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "HTTP " + strconv.Itoa(e.StatusCode)
	}
	return e.Message
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested resource does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when the bearer token is missing or rejected (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the request is not permitted (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}
)

// TransportError wraps a failure to reach the server at all: DNS, refused
// connections, timeouts. No HTTP status was received.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

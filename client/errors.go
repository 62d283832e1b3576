package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrNetwork              = errors.New("network error")
	ErrBackend              = errors.New("backend error")
	ErrLoginResponseInvalid = errors.New("invalid login response: missing accessToken")
	ErrTokenDecode          = errors.New("token decode failed")
)

// Error is returned for every failed backend call. Kind is one of the
// sentinel errors above, so callers can use errors.Is(err, ErrForbidden).
type Error struct {
	Kind   error
	Status int
	Path   string
	Body   []byte
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
	case e.Status != 0:
		if msg := e.Message(); msg != "" {
			return fmt.Sprintf("%s %s: status %d: %s", e.Kind, e.Path, e.Status, msg)
		}
		return fmt.Sprintf("%s %s: status %d", e.Kind, e.Path, e.Status)
	default:
		return fmt.Sprintf("%s %s", e.Kind, e.Path)
	}
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Message extracts the backend's error text from the response body, if any.
func (e *Error) Message() string {
	if len(e.Body) == 0 {
		return ""
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}

func statusError(path string, status int, body []byte) *Error {
	kind := ErrBackend
	switch status {
	case http.StatusUnauthorized:
		kind = ErrUnauthorized
	case http.StatusForbidden:
		kind = ErrForbidden
	}
	return &Error{Kind: kind, Status: status, Path: path, Body: body}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrTransport marks failures where no usable response was received:
// network errors, unreadable bodies, or success bodies that failed to decode.
var ErrTransport = errors.New("transport error")

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	Message    string              // the body's "error" field, empty if the body was not JSON
	Details    map[string][]string // per-field validation messages
	Body       string              // raw body, kept for debug logging
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("[%d] %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// HasMessage reports whether the server supplied a human-readable message.
func (e *Error) HasMessage() bool {
	return e.Message != "" || len(e.Details) > 0
}

// FieldErrors returns the per-field messages joined per field, sorted by field name.
func (e *Error) FieldErrors() []string {
	if len(e.Details) == 0 {
		return nil
	}
	fields := make([]string, 0, len(e.Details))
	for f := range e.Details {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, fmt.Sprintf("%s: %s", f, strings.Join(e.Details[f], ", ")))
	}
	return out
}

// Combined folds the message and field details into a single line.
func (e *Error) Combined() string {
	parts := make([]string, 0, 1+len(e.Details))
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	parts = append(parts, e.FieldErrors()...)
	return strings.Join(parts, "; ")
}

// IsNotFound returns true if the error is a 404 Not Found error.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized returns true if the error is a 401 Unauthorized error.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsBadRequest returns true if the error is a 400 Bad Request error.
func IsBadRequest(err error) bool {
	return hasStatus(err, http.StatusBadRequest)
}

func hasStatus(err error, status int) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode == status
	}
	return false
}

// parseError builds an Error from a non-2xx response body.
// The backend uses {"error": "...", "details": {"field": ["..."]}}; some
// endpoints nest the message as {"error": {"message": "..."}}, and Django
// style bodies use "detail".
func parseError(status int, body []byte) *Error {
	apiErr := &Error{StatusCode: status, Body: string(body)}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return apiErr
	}

	if msg, ok := raw["error"]; ok {
		var s string
		if json.Unmarshal(msg, &s) == nil {
			apiErr.Message = s
		} else {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(msg, &nested) == nil {
				apiErr.Message = nested.Message
			}
		}
	}
	if apiErr.Message == "" {
		if msg, ok := raw["detail"]; ok {
			_ = json.Unmarshal(msg, &apiErr.Message)
		}
	}

	if details, ok := raw["details"]; ok {
		apiErr.Details = parseDetails(details)
	}

	return apiErr
}

func parseDetails(raw json.RawMessage) map[string][]string {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}

	out := make(map[string][]string, len(generic))
	for field, v := range generic {
		var list []string
		if json.Unmarshal(v, &list) == nil {
			out[field] = list
			continue
		}
		var single string
		if json.Unmarshal(v, &single) == nil {
			out[field] = []string{single}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

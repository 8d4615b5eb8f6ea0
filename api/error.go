package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	Detail     string
	// Fields holds per-field validation messages, e.g. from registration.
	Fields map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Detail)
}

// IsAuth reports whether the status is an authentication-class rejection.
func (e *Error) IsAuth() bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusBadRequest, http.StatusForbidden:
		return true
	}
	return false
}

// IsAuthError reports whether err is an authentication-class *Error.
func IsAuthError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.IsAuth()
	}
	return false
}

// StatusCode returns the HTTP status of err, or 0 if err carries none.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// Detail returns a human readable message for err, or fallback when err
// has none.
func Detail(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	return fallback
}

// newError builds an *Error from a response body. The message is taken from
// `detail`, then `error`, then `message`; any other keys are treated as
// field errors.
func newError(status int, body []byte) *Error {
	e := &Error{StatusCode: status}

	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, k := range []string{"detail", "error", "message"} {
			if s, ok := obj[k].(string); ok && s != "" {
				e.Detail = s
				break
			}
		}
		for k, v := range obj {
			switch k {
			case "detail", "error", "message", "details":
				continue
			}
			if s := flatten(v); s != "" {
				if e.Fields == nil {
					e.Fields = make(map[string]string)
				}
				e.Fields[k] = s
			}
		}
		if e.Detail == "" && len(e.Fields) > 0 {
			keys := make([]string, 0, len(e.Fields))
			for k := range e.Fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			e.Detail = e.Fields[keys[0]]
		}
	}

	if e.Detail == "" {
		e.Detail = fmt.Sprintf("request failed: %s", http.StatusText(status))
	}
	return e
}

func flatten(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case []interface{}:
		var parts []string
		for _, p := range x {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}

package gateway

import (
	"errors"
	"strings"
)

// Error represents a failed backend operation
type Error struct {
	// Status is the HTTP status code of the backend response; 0 if no response was received
	Status int

	// Message is the normalized human-readable error message
	Message string

	// Body is the decoded error response body, passed through without reshaping
	Body any

	cause error
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) Unwrap() error {
	return err.cause
}

// normalize replaces the message of a backend error by the result of describe.
// Errors that are no *Error are wrapped so that callers always receive an *Error.
func normalize(err error, describe func(body any) string) error {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return &Error{Message: describe(nil), cause: err}
	}
	return &Error{
		Status:  apiErr.Status,
		Message: describe(apiErr.Body),
		Body:    apiErr.Body,
		cause:   apiErr.cause,
	}
}

// describeLogin maps the error envelopes of the login endpoint to a message in the order
// 'non_field_errors', 'detail', raw string, any other body
func describeLogin(body any) string {
	if body == nil {
		return "Login failed"
	}
	if obj, ok := body.(map[string]any); ok {
		if list, ok := obj["non_field_errors"]; ok {
			if entries, ok := list.([]any); ok {
				messages := make([]string, 0, len(entries))
				for _, entry := range entries {
					messages = append(messages, text(entry))
				}
				return strings.Join(messages, ", ")
			}
			if truthy(list) {
				return text(list)
			}
		}
		if detail, ok := obj["detail"]; ok && truthy(detail) {
			return text(detail)
		}
	}
	if raw, ok := body.(string); ok {
		return raw
	}
	return text(body)
}

func describeOTP(any) string {
	return "Failed to request OTP"
}

// describeReset surfaces the message of a rejected challenge token or a generic failure
func describeReset(body any) string {
	if val, ok := Rule("token").Lookup(body); ok && truthy(val) {
		switch typed := val.(type) {
		case []any:
			if len(typed) > 0 {
				return text(typed[0])
			}
		default:
			return text(typed)
		}
	}
	return "Reset failed"
}

// describeSignup uses the 'message' field, the raw body or its JSON text, in that order
func describeSignup(body any) string {
	if val, ok := Rule("message").Lookup(body); ok && truthy(val) {
		return text(val)
	}
	if body != nil && truthy(body) {
		return text(body)
	}
	return "Signup failed"
}

// describeDetail uses the 'detail' field or falls back to the given message
func describeDetail(fallback string) func(any) string {
	return func(body any) string {
		if val, ok := Rule("detail").Lookup(body); ok && truthy(val) {
			return text(val)
		}
		return fallback
	}
}

package schema

// Detail represents the '{"detail": "..."}' error envelope
type Detail struct {
	Detail string `json:"detail"`
}

// FieldErrors represents the error envelope listing messages per request field.
// Errors not bound to a single field are listed under FieldNonField.
type FieldErrors map[string][]string

// FieldNonField is the key of errors not bound to a single request field
const FieldNonField = "non_field_errors"

// Add appends a message to the given field
func (errs FieldErrors) Add(field, message string) {
	errs[field] = append(errs[field], message)
}

var (
	ErrInternal         = &Detail{Detail: "A server error occurred."}
	ErrNotFound         = &Detail{Detail: "Not found."}
	ErrMethodNotAllowed = &Detail{Detail: "Method not allowed."}
	ErrUnauthenticated  = &Detail{Detail: "Authentication credentials were not provided."}
	ErrInvalidToken     = &Detail{Detail: "Invalid token."}
	ErrForbidden        = &Detail{Detail: "You do not have permission to perform this action."}
)

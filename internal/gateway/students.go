package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Student represents a member record as returned by the student endpoints
type Student struct {
	ID        json.Number `json:"id"`
	Username  string      `json:"username"`
	FirstName string      `json:"first_name,omitempty"`
	LastName  string      `json:"last_name,omitempty"`
	Email     string      `json:"email,omitempty"`
	RollNo    string      `json:"roll_no,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	Role      string      `json:"role,omitempty"`
	Club      string      `json:"club,omitempty"`
}

// StudentUpdate is the body of a partial student update; nil fields are left untouched
type StudentUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	RollNo    *string `json:"roll_no,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Role      *string `json:"role,omitempty"`
	Club      *string `json:"club,omitempty"`
}

// GetStudent retrieves a single student using 'GET /students/{id}'
func (client *Client) GetStudent(ctx context.Context, token, id string) (*Student, error) {
	res, err := client.do(ctx, http.MethodGet, "/students/"+url.PathEscape(id), token, nil)
	if err != nil {
		return nil, normalize(err, describeDetail("Failed to fetch member"))
	}
	student := new(Student)
	if err := convert(res.Body, student); err != nil {
		return nil, &Error{Status: res.Status, Message: "Failed to fetch member", Body: res.Body, cause: err}
	}
	return student, nil
}

// ListStudents retrieves all students using 'GET /students/'
func (client *Client) ListStudents(ctx context.Context, token string) ([]*Student, error) {
	return client.listStudents(ctx, token, "/students/")
}

// ListPublicStudents retrieves the public team directory using 'GET /students/public/'
func (client *Client) ListPublicStudents(ctx context.Context) ([]*Student, error) {
	return client.listStudents(ctx, "", "/students/public/")
}

func (client *Client) listStudents(ctx context.Context, token, path string) ([]*Student, error) {
	res, err := client.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, normalize(err, describeDetail("Failed to fetch members"))
	}
	students := []*Student{}
	if err := convert(res.Body, &students); err != nil {
		return nil, &Error{Status: res.Status, Message: "Failed to fetch members", Body: res.Body, cause: err}
	}
	return students, nil
}

// UpdateStudent partially updates a student using 'PATCH /students/{id}'
func (client *Client) UpdateStudent(ctx context.Context, token, id string, update *StudentUpdate) (*Student, error) {
	res, err := client.do(ctx, http.MethodPatch, "/students/"+url.PathEscape(id), token, update)
	if err != nil {
		return nil, normalize(err, describeDetail("Failed to update member"))
	}
	student := new(Student)
	if err := convert(res.Body, student); err != nil {
		return nil, &Error{Status: res.Status, Message: "Failed to update member", Body: res.Body, cause: err}
	}
	return student, nil
}

// DeleteStudent deletes a student using 'DELETE /students/{id}'
func (client *Client) DeleteStudent(ctx context.Context, token, id string) error {
	if _, err := client.do(ctx, http.MethodDelete, "/students/"+url.PathEscape(id), token, nil); err != nil {
		return normalize(err, describeDetail("Failed to delete member"))
	}
	return nil
}

// convert re-encodes a generically decoded body into target
func convert(body any, target any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

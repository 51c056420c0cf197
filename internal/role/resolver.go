// Package role enriches sessions with data that depends on the session's role
package role

import (
	"context"
	"errors"

	"github.com/skybi/portal-client/internal/gateway"
)

// ErrNoStudentID is returned if a club is requested for a session without a student ID
var ErrNoStudentID = errors.New("the session carries no student ID")

// StudentFetcher retrieves a single student record
type StudentFetcher interface {
	GetStudent(ctx context.Context, token, id string) (*gateway.Student, error)
}

// Resolver resolves the club affiliation of LEAD sessions
type Resolver struct {
	Students StudentFetcher
}

// Club fetches the club of the given student, authenticating with token.
// An empty club is not an error.
func (resolver *Resolver) Club(ctx context.Context, studentID, token string) (string, error) {
	if studentID == "" {
		return "", ErrNoStudentID
	}
	student, err := resolver.Students.GetStudent(ctx, token, studentID)
	if err != nil {
		return "", err
	}
	return student.Club, nil
}

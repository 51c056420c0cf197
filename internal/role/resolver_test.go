package role

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybi/portal-client/internal/gateway"
)

type fetcherFunc func(ctx context.Context, token, id string) (*gateway.Student, error)

func (fn fetcherFunc) GetStudent(ctx context.Context, token, id string) (*gateway.Student, error) {
	return fn(ctx, token, id)
}

func TestClub(t *testing.T) {
	resolver := &Resolver{Students: fetcherFunc(func(_ context.Context, token, id string) (*gateway.Student, error) {
		assert.Equal(t, "abc", token)
		assert.Equal(t, "3", id)
		return &gateway.Student{ID: "3", Club: "Robotics"}, nil
	})}

	club, err := resolver.Club(context.Background(), "3", "abc")
	require.NoError(t, err)
	assert.Equal(t, "Robotics", club)
}

func TestClubWithoutStudentID(t *testing.T) {
	resolver := &Resolver{Students: fetcherFunc(func(context.Context, string, string) (*gateway.Student, error) {
		t.Fatal("no request expected")
		return nil, nil
	})}

	_, err := resolver.Club(context.Background(), "", "abc")
	assert.ErrorIs(t, err, ErrNoStudentID)
}

func TestClubFetchFailure(t *testing.T) {
	failure := errors.New("unreachable")
	resolver := &Resolver{Students: fetcherFunc(func(context.Context, string, string) (*gateway.Student, error) {
		return nil, failure
	})}

	_, err := resolver.Club(context.Background(), "3", "abc")
	assert.ErrorIs(t, err, failure)
}

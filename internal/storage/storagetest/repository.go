// Package storagetest provides the behaviour test every session.Repository implementation has to pass
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybi/portal-client/internal/session"
)

// RunRepositoryTests runs the shared repository behaviour tests against repo.
// The repository has to be empty.
func RunRepositoryTests(t *testing.T, repo session.Repository) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent key is empty", func(t *testing.T) {
		value, err := repo.Get(ctx, "absent")
		require.NoError(t, err)
		assert.Empty(t, value)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, session.KeyToken, "abc"))
		value, err := repo.Get(ctx, session.KeyToken)
		require.NoError(t, err)
		assert.Equal(t, "abc", value)
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, session.KeyChallenge, "first"))
		require.NoError(t, repo.Set(ctx, session.KeyChallenge, "second"))
		value, err := repo.Get(ctx, session.KeyChallenge)
		require.NoError(t, err)
		assert.Equal(t, "second", value)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, session.KeyRole, "LEAD"))
		require.NoError(t, repo.Remove(ctx, session.KeyRole))
		value, err := repo.Get(ctx, session.KeyRole)
		require.NoError(t, err)
		assert.Empty(t, value)
	})

	t.Run("remove absent key", func(t *testing.T) {
		assert.NoError(t, repo.Remove(ctx, "never-set"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, session.KeyUserID, "7"))
		require.NoError(t, repo.Set(ctx, session.KeyStudentID, "8"))
		require.NoError(t, repo.Remove(ctx, session.KeyUserID))
		value, err := repo.Get(ctx, session.KeyStudentID)
		require.NoError(t, err)
		assert.Equal(t, "8", value)
	})
}

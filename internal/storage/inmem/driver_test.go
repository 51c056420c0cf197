package inmem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybi/portal-client/internal/session"
	"github.com/skybi/portal-client/internal/storage"
	"github.com/skybi/portal-client/internal/storage/storagetest"
)

func TestRepository(t *testing.T) {
	driver := New()
	require.NoError(t, driver.Initialize(context.Background()))
	defer driver.Close()

	storagetest.RunRepositoryTests(t, driver.Session())
}

func TestUninitializedDriver(t *testing.T) {
	ctx := context.Background()
	driver := New()

	_, err := driver.Session().Get(ctx, session.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotInitialized)

	require.NoError(t, driver.Initialize(ctx))
	require.NoError(t, driver.Session().Set(ctx, session.KeyToken, "abc"))
	driver.Close()
	_, err = driver.Session().Get(ctx, session.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotInitialized)
}

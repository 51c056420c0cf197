package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybi/portal-client/internal/session"
	"github.com/skybi/portal-client/internal/storage/storagetest"
)

func newTestDriver(t *testing.T, namespace string) (*miniredis.Miniredis, *Driver) {
	t.Helper()

	mr := miniredis.RunT(t)
	driver := New(Options{Address: mr.Addr(), Namespace: namespace})
	require.NoError(t, driver.Initialize(context.Background()))
	t.Cleanup(driver.Close)
	return mr, driver
}

func TestRepository(t *testing.T) {
	_, driver := newTestDriver(t, "test")
	storagetest.RunRepositoryTests(t, driver.Session())
}

func TestKeysAreNamespaced(t *testing.T) {
	mr, driver := newTestDriver(t, "alice")
	ctx := context.Background()

	require.NoError(t, driver.Session().Set(ctx, session.KeyToken, "abc"))
	value, err := mr.Get("portal:alice:token")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)

	other := NewWithClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), "bob")
	require.NoError(t, other.Initialize(ctx))
	defer other.Close()
	value, err = other.Session().Get(ctx, session.KeyToken)
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestInitializeUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	driver := New(Options{Address: addr})
	assert.Error(t, driver.Initialize(context.Background()))
}

package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"fitcraft/internal/cache"
	"fitcraft/internal/config"
	"fitcraft/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T, redisAddr string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Env:                  "test",
		DBDriver:             "sqlite",
		DBPath:               filepath.Join(dir, "fitcraft.db"),
		RedisURL:             redisAddr,
		MediaRoot:            filepath.Join(dir, "media"),
		ImageMaxUploadSizeMB: 1,
		LogLevel:             "error",
	}
}

func TestInitRuntime(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() { cache.SetClient(nil) })

	rt, err := InitRuntime(sqliteConfig(t, mr.Addr()), Options{})
	require.NoError(t, err)

	require.NotNil(t, rt.DB)
	require.NotNil(t, rt.Redis)
	require.NotNil(t, rt.Blobs)
	assert.True(t, rt.DB.Migrator().HasTable(&models.Post{}))
	assert.Same(t, rt.Redis, cache.GetClient())

	rt.Close(context.Background())
	assert.Nil(t, rt.DB)
	assert.Nil(t, cache.GetClient())

	// Second close is a no-op.
	rt.Close(context.Background())
}

func TestInitRuntime_SkipSchemaAndRedis(t *testing.T) {
	rt, err := InitRuntime(sqliteConfig(t, ""), Options{SkipSchema: true, SkipRedis: true})
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close(context.Background()) })

	assert.Nil(t, rt.Redis)
	assert.False(t, rt.DB.Migrator().HasTable(&models.Post{}))
}

func TestInitRuntime_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := InitRuntime(sqliteConfig(t, addr), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis connection failed")
}

func TestInitRuntime_RequiresConfig(t *testing.T) {
	_, err := InitRuntime(nil, Options{})
	assert.Error(t, err)
}

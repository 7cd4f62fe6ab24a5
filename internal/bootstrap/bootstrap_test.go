package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"peertutor/internal/cache"
	"peertutor/internal/config"
	"peertutor/internal/database"
	"peertutor/internal/models"
	"peertutor/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:      "test",
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "peertutor.db"),
		MailFrom: "no-reply@peertutor.local",
	}
}

func TestInitRuntime_SeedsThenRestores(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	rt, err := InitRuntime(ctx, cfg, Options{SeedFixtures: true, SkipRedis: true})
	require.NoError(t, err)
	require.NotNil(t, rt.Snapshots)
	seeded := rt.Store.Stats()
	assert.Positive(t, seeded.Tutors)
	require.NoError(t, rt.Close())

	again, err := InitRuntime(ctx, cfg, Options{SeedFixtures: true, SkipRedis: true})
	require.NoError(t, err)
	defer func() { _ = again.Close() }()
	assert.Equal(t, seeded, again.Store.Stats())

	_, ok := again.Store.FindUserByEmail("ada@peertutor.dev")
	assert.True(t, ok)
}

func TestInitRuntime_MemoryOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBDriver = ""

	rt, err := InitRuntime(context.Background(), cfg, Options{SkipRedis: true})
	require.NoError(t, err)
	assert.Nil(t, rt.DB)
	assert.Nil(t, rt.Snapshots)
	assert.Nil(t, rt.Redis)
	assert.Zero(t, rt.Store.Stats().Users)
	assert.NoError(t, rt.Close())
}

func TestInitRuntime_WithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := testConfig(t)
	cfg.DBDriver = ""
	cfg.RedisURL = mr.Addr()

	rt, err := InitRuntime(context.Background(), cfg, Options{})
	require.NoError(t, err)
	require.NotNil(t, rt.Redis)
	assert.NoError(t, rt.Redis.Ping(context.Background()).Err())
	assert.NoError(t, rt.Close())
}

func TestInitRuntime_UnreachableRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBDriver = ""
	cfg.RedisURL = "127.0.0.1:1"

	rt, err := InitRuntime(context.Background(), cfg, Options{})
	require.NoError(t, err)
	assert.Nil(t, rt.Redis)
}

func TestInitRuntime_FailedRestoreReleasesConnections(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisURL = mr.Addr()

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	// The same id in both role tables cannot be restored.
	err = database.NewSnapshotRepository(db).Save(ctx, store.Dataset{
		Tutors: []models.TutorProfile{{User: models.User{ID: "dup", Email: "a@uni.edu", Role: models.RoleTutor}}},
		Tutees: []models.TuteeProfile{{User: models.User{ID: "dup", Email: "b@uni.edu", Role: models.RoleTutee}}},
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rt, err := InitRuntime(ctx, cfg, Options{SeedFixtures: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to restore snapshot")
	assert.Nil(t, rt)

	rdb := cache.GetClient()
	require.NotNil(t, rdb)
	assert.ErrorIs(t, rdb.Ping(ctx).Err(), redis.ErrClosed)
}

package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/screams/backend/internal/auth"
	"github.com/zfogg/screams/backend/internal/database"
	"github.com/zfogg/screams/backend/internal/email"
	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/models"
	"github.com/zfogg/screams/backend/internal/repository"
	"github.com/zfogg/screams/backend/internal/triggers"
)

func newSeeder(t *testing.T) (*Seeder, *repository.Store) {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)

	bus := events.NewSyncBus()
	store := repository.New(db, bus)
	bus.SetHandler(triggers.NewDispatcher(store).Handle)

	provider := auth.NewService(db, []byte("seed-secret"), time.Hour, email.NewLogSender(), "http://localhost")
	return NewSeeder(store, provider, "https://img.test"), store
}

func TestSeedTestIsRepeatable(t *testing.T) {
	seeder, store := newSeeder(t)
	ctx := context.Background()

	require.NoError(t, seeder.SeedTest(ctx))

	alice, err := store.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", alice.Email)

	screams, err := store.ListScreamsByHandle(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, screams, 1)
	assert.Equal(t, 1, screams[0].LikeCount)
	assert.Equal(t, 1, screams[0].CommentCount)

	notifications, err := store.ListNotifications(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Len(t, notifications, 2)
}

func TestSeedDevCreatesConsistentCounters(t *testing.T) {
	seeder, store := newSeeder(t)
	ctx := context.Background()

	require.NoError(t, seeder.SeedDev(ctx, Counts{Users: 3, Screams: 5, Comments: 6, Likes: 7}))

	screams, err := store.ListScreams(ctx)
	require.NoError(t, err)
	require.Len(t, screams, 5)

	likes, comments := 0, 0
	for _, s := range screams {
		likes += s.LikeCount
		comments += s.CommentCount

		stored, err := store.ListComments(ctx, s.ID)
		require.NoError(t, err)
		assert.Len(t, stored, s.CommentCount)
	}
	assert.Equal(t, 7, likes)
	assert.Equal(t, 6, comments)
}

func TestClean(t *testing.T) {
	seeder, store := newSeeder(t)
	ctx := context.Background()
	require.NoError(t, seeder.SeedTest(ctx))

	require.NoError(t, seeder.Clean(ctx))

	var n int64
	for _, table := range []any{&models.User{}, &models.Scream{}, &models.Notification{}, &models.Identity{}} {
		require.NoError(t, store.DB().Model(table).Count(&n).Error)
		assert.Zero(t, n, "%T", table)
	}
}

package container

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/screams/backend/internal/config"
	"github.com/zfogg/screams/backend/internal/email"
	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/models"
	"github.com/zfogg/screams/backend/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment:    "test",
		DatabaseDriver: "sqlite",
		DatabaseURL:    filepath.Join(t.TempDir(), "screams.db"),
		JWTSecret:      []byte("secret"),
		TokenTTL:       time.Hour,
		ImageBaseURL:   "https://img.test",
		AppBaseURL:     "http://localhost",
		TriggerWorkers: 2,
	}
}

func TestBuildWithSyncBusRunsTriggersInline(t *testing.T) {
	ctx := context.Background()
	c, err := Build(ctx, testConfig(t), Options{ServiceName: "test", Bus: BusSync, Migrate: true})
	require.NoError(t, err)
	defer c.Cleanup(ctx)

	assert.Nil(t, c.Consumer())
	assert.Nil(t, c.Worker())
	assert.IsType(t, &email.LogSender{}, c.Mailer())
	assert.IsType(t, &storage.MockUploader{}, c.Images())

	store := c.Store()
	for _, handle := range []string{"author", "fan"} {
		require.NoError(t, store.CreateUser(ctx, &models.User{Handle: handle, UserID: handle, Email: handle + "@email.com"}))
	}
	scream := &models.Scream{UserHandle: "author", Body: "hi"}
	require.NoError(t, store.CreateScream(ctx, scream))
	_, err = store.LikeScream(ctx, "fan", scream.ID)
	require.NoError(t, err)

	notifications, err := store.ListNotifications(ctx, "author", 10)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
}

func TestBuildDefaultsToMemoryBus(t *testing.T) {
	ctx := context.Background()
	c, err := Build(ctx, testConfig(t), Options{Migrate: true})
	require.NoError(t, err)
	defer c.Cleanup(ctx)

	assert.IsType(t, &events.MemoryBus{}, c.Consumer())
	assert.NotNil(t, c.Worker())
	assert.Equal(t, []string{"database"}, c.ServiceValidator().Require("database").RequiredServices())
	assert.NoError(t, c.ServiceValidator().Require("database").ValidateServices(ctx))
}

func TestBuildRedisBusWithoutRedis(t *testing.T) {
	_, err := Build(context.Background(), testConfig(t), Options{Bus: BusRedis})

	var initErr *InitializationError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, []string{"REDIS_HOST"}, initErr.MissingDeps)
}

func TestBuildExternalTriggersNeedsSharedTransport(t *testing.T) {
	_, err := Build(context.Background(), testConfig(t), Options{Migrate: true, ExternalTriggers: true})

	var initErr *InitializationError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, []string{"REDIS_HOST or EVENT_QUEUE_URL"}, initErr.MissingDeps)
}

func TestBuildWithQueueURLPublishesToSQS(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.AWSRegion = "us-east-1"
	cfg.EventQueueURL = "https://sqs.us-east-1.amazonaws.com/123/screams-changes"

	c, err := Build(ctx, cfg, Options{Migrate: true, ExternalTriggers: true})
	require.NoError(t, err)
	defer c.Cleanup(ctx)

	assert.IsType(t, &events.SQSPublisher{}, c.Publisher())
	assert.Nil(t, c.Consumer())
	assert.Nil(t, c.Worker())
}

func TestTransportNameMatchesBus(t *testing.T) {
	cfg := testConfig(t)
	c := New(cfg)
	assert.Equal(t, "inline", c.transportName(Options{Bus: BusSync}))
	assert.Equal(t, "memory", c.transportName(Options{}))
	assert.Equal(t, "redis", c.transportName(Options{Bus: BusRedis}))

	cfg.RedisHost = "localhost"
	assert.Equal(t, "redis", c.transportName(Options{}))

	cfg.EventQueueURL = "https://sqs.us-east-1.amazonaws.com/123/screams-changes"
	assert.Equal(t, "sqs", c.transportName(Options{}))
	assert.Equal(t, "redis", c.transportName(Options{Bus: BusRedis}))
}

func TestValidateReportsMissingDependencies(t *testing.T) {
	err := New(&config.Config{}).Validate()

	var initErr *InitializationError
	require.True(t, errors.As(err, &initErr))
	assert.Contains(t, initErr.MissingDeps, "database")
	assert.Contains(t, initErr.Error(), "container missing required dependencies")
}

func TestCleanupRunsInReverseOrder(t *testing.T) {
	c := New(&config.Config{})
	var order []int
	boom := errors.New("boom")
	c.OnCleanup(func(context.Context) error { order = append(order, 1); return nil })
	c.OnCleanup(func(context.Context) error { order = append(order, 2); return boom })
	c.OnCleanup(func(context.Context) error { order = append(order, 3); return nil })

	assert.ErrorIs(t, c.Cleanup(context.Background()), boom)
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.NoError(t, c.Cleanup(context.Background()))
}

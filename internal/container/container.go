// Package container builds and owns the services shared by the server, the trigger
// worker, the Lambda entry and the tools.
package container

import (
	"context"
	"fmt"
	"sync"

	"github.com/zfogg/screams/backend/internal/auth"
	"github.com/zfogg/screams/backend/internal/cache"
	"github.com/zfogg/screams/backend/internal/config"
	"github.com/zfogg/screams/backend/internal/database"
	"github.com/zfogg/screams/backend/internal/email"
	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/repository"
	"github.com/zfogg/screams/backend/internal/storage"
	"github.com/zfogg/screams/backend/internal/telemetry"
	"github.com/zfogg/screams/backend/internal/triggers"
	"github.com/zfogg/screams/backend/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BusMode selects how change events reach the triggers
type BusMode int

const (
	// BusAuto sends events to SQS when EVENT_QUEUE_URL is set, else to the Redis stream
	// when Redis is configured, else to an in-process bus
	BusAuto BusMode = iota
	// BusSync runs triggers inline inside Publish
	BusSync
	// BusRedis requires the Redis stream
	BusRedis
)

const memoryBusCapacity = 1024

// Options tune Build for each entry point
type Options struct {
	ServiceName string
	Bus         BusMode
	Migrate     bool
	// ExternalTriggers means no trigger worker runs in this process, so the in-process
	// bus would never be drained
	ExternalTriggers bool
}

// Container holds all application dependencies
type Container struct {
	cfg *config.Config

	// Core infrastructure
	db    *gorm.DB
	cache *cache.RedisClient

	// Documents and change events
	store      *repository.Store
	publisher  events.Publisher
	consumer   events.Consumer
	dispatcher *triggers.Dispatcher

	// External services
	auth   *auth.Service
	mailer email.Sender
	images storage.ImageUploader

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates an empty container. Build is the usual way to get a populated one.
func New(cfg *config.Config) *Container {
	return &Container{cfg: cfg}
}

// Build connects every service described by cfg. On failure whatever was already
// started is cleaned up.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Container, error) {
	c := New(cfg)
	if err := c.build(ctx, opts); err != nil {
		_ = c.Cleanup(ctx)
		return nil, err
	}
	return c, nil
}

func (c *Container) build(ctx context.Context, opts Options) error {
	cfg := c.cfg

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:    opts.ServiceName,
		InstanceID:     cfg.ConsumerName,
		EventTransport: c.transportName(opts),
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SamplingRate:   cfg.TraceSampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if tp != nil {
		c.OnCleanup(func(ctx context.Context) error { return telemetry.Shutdown(ctx, tp) })
	}

	if err := database.Initialize(cfg); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.db = database.DB
	c.OnCleanup(func(context.Context) error { return database.Close() })

	if opts.Migrate {
		if err := database.Migrate(); err != nil {
			return err
		}
	}

	if cfg.UsesRedis() {
		rc, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.cache = rc
		c.OnCleanup(func(context.Context) error { return rc.Close() })
	}

	syncBus, err := c.buildBus(ctx, opts)
	if err != nil {
		return err
	}

	c.store = repository.New(c.db, c.publisher)
	c.dispatcher = triggers.NewDispatcher(c.store)
	if syncBus != nil {
		syncBus.SetHandler(c.dispatcher.Handle)
	}

	if cfg.EmailFrom != "" {
		sender, err := email.NewSESSender(cfg.AWSRegion, cfg.EmailFrom, cfg.EmailFromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES: %w", err)
		}
		c.mailer = sender
	} else {
		logger.Log.Warn("EMAIL_FROM not set - mails are only logged")
		c.mailer = email.NewLogSender()
	}

	c.auth = auth.NewService(c.db, cfg.JWTSecret, cfg.TokenTTL, c.mailer, cfg.AppBaseURL)

	if cfg.ImageBucket != "" {
		uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.ImageBucket, cfg.ImageBaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 uploader: %w", err)
		}
		c.images = uploader
	} else {
		logger.Log.Warn("IMAGE_BUCKET not set - uploaded images are kept in memory")
		c.images = storage.NewMockUploader(cfg.ImageBaseURL)
	}

	return c.Validate()
}

// transportName is the bus buildBus will pick, for the tracing resource
func (c *Container) transportName(opts Options) string {
	switch {
	case opts.Bus == BusSync:
		return "inline"
	case opts.Bus == BusAuto && c.cfg.EventQueueURL != "":
		return "sqs"
	case opts.Bus == BusRedis || c.cfg.UsesRedis():
		return "redis"
	default:
		return "memory"
	}
}

// buildBus picks the change-event transport. The sync bus is returned so its handler can
// be installed once the dispatcher exists.
func (c *Container) buildBus(ctx context.Context, opts Options) (*events.SyncBus, error) {
	cfg := c.cfg
	switch {
	case opts.Bus == BusSync:
		bus := events.NewSyncBus()
		c.publisher = bus
		return bus, nil

	case opts.Bus == BusRedis && c.cache == nil:
		return nil, NewInitializationError("redis event stream requested", []string{"REDIS_HOST"})

	case opts.Bus == BusAuto && cfg.EventQueueURL != "":
		publisher, err := events.NewSQSPublisher(cfg.AWSRegion, cfg.EventQueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQS publisher: %w", err)
		}
		c.publisher = publisher
		logger.Log.Info("Change events go to SQS, triggers run on Lambda",
			zap.String("queue_url", cfg.EventQueueURL),
		)
		return nil, nil

	case c.cache != nil:
		stream := events.NewRedisStream(c.cache.Client(), cfg.EventStream, cfg.ConsumerGroup, cfg.ConsumerName, cfg.TriggerWorkers)
		if err := stream.EnsureGroup(ctx); err != nil {
			return nil, fmt.Errorf("failed to create consumer group: %w", err)
		}
		c.publisher = stream
		c.consumer = stream
		logger.Log.Info("Change events go through the Redis stream",
			zap.String("stream", cfg.EventStream),
			zap.String("group", cfg.ConsumerGroup),
			zap.String("consumer", cfg.ConsumerName),
		)
		return nil, nil

	case opts.ExternalTriggers:
		return nil, NewInitializationError("triggers run outside this process but there is no shared event transport",
			[]string{"REDIS_HOST or EVENT_QUEUE_URL"})

	default:
		bus := events.NewMemoryBus(memoryBusCapacity, cfg.TriggerWorkers)
		c.publisher = bus
		c.consumer = bus
		logger.Log.Info("Change events go through the in-process bus", zap.Int("workers", cfg.TriggerWorkers))
		return nil, nil
	}
}

// ============================================================================
// GETTERS
// ============================================================================

// Config returns the configuration the container was built from
func (c *Container) Config() *config.Config {
	return c.cfg
}

// DB returns the database connection
func (c *Container) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Cache returns the Redis client, nil when Redis is not configured
func (c *Container) Cache() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// Store returns the document store
func (c *Container) Store() *repository.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

// Publisher returns where the store sends change events
func (c *Container) Publisher() events.Publisher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.publisher
}

// Consumer returns the event consumer, nil for the sync bus
func (c *Container) Consumer() events.Consumer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.consumer
}

// Dispatcher returns the trigger dispatcher
func (c *Container) Dispatcher() *triggers.Dispatcher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dispatcher
}

// Auth returns the identity provider
func (c *Container) Auth() *auth.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// Mailer returns the mail sender
func (c *Container) Mailer() email.Sender {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mailer
}

// Images returns the profile image uploader
func (c *Container) Images() storage.ImageUploader {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.images
}

// Worker returns a trigger worker over the consumer, nil when triggers run inline
func (c *Container) Worker() *triggers.Worker {
	consumer := c.Consumer()
	if consumer == nil {
		return nil
	}
	return triggers.NewWorker(consumer, c.Dispatcher())
}

// ServiceValidator returns startup checks for the connected services
func (c *Container) ServiceValidator() *validation.ServiceValidator {
	sv := validation.NewServiceValidator().
		Register("database", func(context.Context) error { return database.Health() })
	if rc := c.Cache(); rc != nil {
		sv.Register("redis", rc.Ping)
	}
	if s3, ok := c.Images().(*storage.S3Uploader); ok {
		sv.Register("s3", s3.CheckBucketAccess)
	}
	return sv
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first cleaned up).
func (c *Container) OnCleanup(fn func(context.Context) error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Cleanup runs the registered cleanup functions and returns the first error
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	funcs := c.cleanupFuncs
	c.cleanupFuncs = nil
	c.mu.Unlock()

	var firstErr error
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil {
			logger.Log.Error("Cleanup function failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Validate checks that every required dependency is set
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []string
	if c.db == nil {
		missing = append(missing, "database")
	}
	if c.store == nil {
		missing = append(missing, "store")
	}
	if c.publisher == nil {
		missing = append(missing, "event publisher")
	}
	if c.dispatcher == nil {
		missing = append(missing, "dispatcher")
	}
	if c.auth == nil {
		missing = append(missing, "auth")
	}
	if c.mailer == nil {
		missing = append(missing, "mailer")
	}
	if c.images == nil {
		missing = append(missing, "image uploader")
	}

	if len(missing) > 0 {
		return NewInitializationError("container missing required dependencies", missing)
	}
	return nil
}

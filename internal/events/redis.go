package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zfogg/screams/backend/internal/logger"
	"go.uber.org/zap"
)

const payloadField = "event"

// RedisStream publishes events to a Redis stream and consumes them through a consumer
// group. A message is acknowledged only after its handler succeeds. Failed messages stay
// pending and are claimed again, by any consumer of the group, once they have been idle
// for claimIdle; after maxDeliveries attempts they are dropped.
type RedisStream struct {
	client   redis.UniversalClient
	stream   string
	group    string
	consumer string
	workers  int
	maxLen   int64

	block         time.Duration
	claimIdle     time.Duration
	claimEvery    time.Duration
	maxDeliveries int64
}

// NewRedisStream creates a stream publisher/consumer. consumer names this process inside
// the group and must stay the same across restarts; it defaults to the hostname.
func NewRedisStream(client redis.UniversalClient, stream, group, consumer string, workers int) *RedisStream {
	if workers <= 0 {
		workers = 1
	}
	if consumer == "" {
		consumer, _ = os.Hostname()
	}
	return &RedisStream{
		client:        client,
		stream:        stream,
		group:         group,
		consumer:      consumer,
		workers:       workers,
		maxLen:        100000,
		block:         5 * time.Second,
		claimIdle:     30 * time.Second,
		claimEvery:    10 * time.Second,
		maxDeliveries: 5,
	}
}

// Publish appends events to the stream
func (r *RedisStream) Publish(ctx context.Context, evts ...Event) error {
	for _, e := range evts {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		err = r.client.XAdd(ctx, &redis.XAddArgs{
			Stream: r.stream,
			MaxLen: r.maxLen,
			Approx: true,
			Values: map[string]any{payloadField: string(data)},
		}).Err()
		if err != nil {
			return fmt.Errorf("failed to publish event %s: %w", e.ID, err)
		}
	}
	return nil
}

// EnsureGroup creates the consumer group (and the stream) if missing
func (r *RedisStream) EnsureGroup(ctx context.Context) error {
	err := r.client.XGroupCreateMkStream(ctx, r.stream, r.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Run consumes until ctx is done
func (r *RedisStream) Run(ctx context.Context, h Handler) error {
	if err := r.EnsureGroup(ctx); err != nil {
		return err
	}

	logger.Log.Info("Starting Redis stream consumer",
		zap.String("stream", r.stream),
		zap.String("group", r.group),
		zap.String("consumer", r.consumer),
		zap.Int("workers", r.workers),
	)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			r.consume(ctx, fmt.Sprintf("%s-%d", r.consumer, workerID), h)
		}(i)
	}
	wg.Wait()
	return nil
}

func (r *RedisStream) consume(ctx context.Context, consumer string, h Handler) {
	r.replay(ctx, consumer, h)

	nextClaim := time.Now()
	for ctx.Err() == nil {
		if !time.Now().Before(nextClaim) {
			r.reclaim(ctx, consumer, h)
			nextClaim = time.Now().Add(r.claimEvery)
		}

		streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    r.group,
			Consumer: consumer,
			Streams:  []string{r.stream, ">"},
			Count:    16,
			Block:    r.block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Log.Warn("Failed to read event stream", zap.String("consumer", consumer), zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				r.handle(ctx, msg, h)
			}
		}
	}
}

// replay walks this consumer's pending list once, oldest first. Entries that fail again
// stay pending for reclaim.
func (r *RedisStream) replay(ctx context.Context, consumer string, h Handler) {
	cursor := "0"
	for ctx.Err() == nil {
		streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    r.group,
			Consumer: consumer,
			Streams:  []string{r.stream, cursor},
			Count:    16,
			Block:    -1,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				logger.Log.Warn("Failed to read pending events", zap.String("consumer", consumer), zap.Error(err))
			}
			return
		}

		delivered := 0
		for _, s := range streams {
			for _, msg := range s.Messages {
				delivered++
				cursor = msg.ID
				r.handle(ctx, msg, h)
			}
		}
		if delivered == 0 {
			return
		}
	}
}

// reclaim drops entries that used up their deliveries, then claims and retries entries
// idle for at least claimIdle under any consumer name, including ones that no longer run.
func (r *RedisStream) reclaim(ctx context.Context, consumer string, h Handler) {
	pending, err := r.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: r.stream,
		Group:  r.group,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if err != nil {
		if ctx.Err() == nil {
			logger.Log.Warn("Failed to list pending events", zap.String("consumer", consumer), zap.Error(err))
		}
		return
	}
	for _, p := range pending {
		if p.Idle >= r.claimIdle && p.RetryCount >= r.maxDeliveries {
			logger.Log.Error("Dropping event after repeated failures",
				zap.String("message_id", p.ID),
				zap.String("owner", p.Consumer),
				zap.Int64("deliveries", p.RetryCount),
			)
			r.ack(ctx, p.ID)
		}
	}

	start := "0-0"
	for ctx.Err() == nil {
		msgs, next, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   r.stream,
			Group:    r.group,
			Consumer: consumer,
			MinIdle:  r.claimIdle,
			Start:    start,
			Count:    16,
		}).Result()
		if err != nil {
			if ctx.Err() == nil {
				logger.Log.Warn("Failed to claim idle events", zap.String("consumer", consumer), zap.Error(err))
			}
			return
		}
		for _, msg := range msgs {
			logger.Log.Info("Retrying idle event", zap.String("message_id", msg.ID), zap.String("consumer", consumer))
			r.handle(ctx, msg, h)
		}
		if next == "0-0" || next == "" {
			return
		}
		start = next
	}
}

func (r *RedisStream) handle(ctx context.Context, msg redis.XMessage, h Handler) {
	e, err := DecodeMessage(msg)
	if err != nil {
		// Poison message, acknowledge so it is not redelivered forever
		logger.Log.Error("Dropping undecodable event", zap.String("message_id", msg.ID), zap.Error(err))
		r.ack(ctx, msg.ID)
		return
	}

	if err := h(ctx, e); err != nil {
		logger.Log.Error("Event handler failed, leaving message pending",
			logger.WithEventID(e.ID),
			zap.String("topic", e.Topic()),
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return
	}
	r.ack(ctx, msg.ID)
}

func (r *RedisStream) ack(ctx context.Context, id string) {
	if err := r.client.XAck(ctx, r.stream, r.group, id).Err(); err != nil {
		logger.Log.Warn("Failed to acknowledge event", zap.String("message_id", id), zap.Error(err))
	}
}

// DecodeMessage extracts the event carried by a stream entry
func DecodeMessage(msg redis.XMessage) (Event, error) {
	raw, ok := msg.Values[payloadField]
	if !ok {
		return Event{}, fmt.Errorf("message %s has no %q field", msg.ID, payloadField)
	}
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return Event{}, fmt.Errorf("message %s has unexpected payload type %T", msg.ID, raw)
	}

	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	return e, nil
}

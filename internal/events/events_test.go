package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name string `json:"name"`
}

func TestNewSnapshotsDocuments(t *testing.T) {
	e, err := New(Updated, "users", "alice", doc{Name: "before"}, doc{Name: "after"})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "users/updated", e.Topic())

	var before, after doc
	require.NoError(t, e.DecodeBefore(&before))
	require.NoError(t, e.DecodeAfter(&after))
	assert.Equal(t, "before", before.Name)
	assert.Equal(t, "after", after.Name)

	var current doc
	require.NoError(t, e.DecodeDocument(&current))
	assert.Equal(t, "after", current.Name)
}

func TestDecodeDocumentOnDelete(t *testing.T) {
	e, err := New(Deleted, "likes", "l1", doc{Name: "gone"}, nil)
	require.NoError(t, err)

	var d doc
	require.NoError(t, e.DecodeDocument(&d))
	assert.Equal(t, "gone", d.Name)
	assert.Error(t, e.DecodeAfter(&d))
}

func TestSyncBusDeliversInline(t *testing.T) {
	bus := NewSyncBus()
	e, _ := New(Created, "likes", "l1", nil, doc{Name: "x"})

	// No handler yet
	assert.NoError(t, bus.Publish(context.Background(), e))

	var got []string
	bus.SetHandler(func(ctx context.Context, ev Event) error {
		got = append(got, ev.DocID)
		if ev.DocID == "bad" {
			return errors.New("boom")
		}
		return nil
	})

	bad, _ := New(Created, "likes", "bad", nil, nil)
	err := bus.Publish(context.Background(), e, bad)
	assert.Error(t, err)
	assert.Equal(t, []string{"l1", "bad"}, got)
}

func TestMemoryBusRunsWorkers(t *testing.T) {
	bus := NewMemoryBus(16, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := map[string]bool{}
	done := make(chan struct{})
	go func() {
		_ = bus.Run(ctx, func(ctx context.Context, e Event) error {
			mu.Lock()
			defer mu.Unlock()
			seen[e.DocID] = true
			if len(seen) == 5 {
				close(done)
			}
			return nil
		})
	}()

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		e, _ := New(Created, "comments", id, nil, nil)
		require.NoError(t, bus.Publish(ctx, e))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events were not delivered")
	}
}

func TestMemoryBusPublishRespectsContext(t *testing.T) {
	bus := NewMemoryBus(1, 1)
	e, _ := New(Created, "likes", "l1", nil, nil)

	// Nothing consumes; Publish still returns
	require.NoError(t, bus.Publish(context.Background(), e, e, e))
	assert.Equal(t, 3, bus.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.Publish(ctx, e), context.Canceled)
	assert.Equal(t, 3, bus.Pending())
}

func TestMemoryBusHandlersCanPublish(t *testing.T) {
	bus := NewMemoryBus(2, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	children := 0
	go func() {
		_ = bus.Run(ctx, func(ctx context.Context, e Event) error {
			if e.Collection == "screams" {
				// Fan out well past the initial capacity from inside the only worker
				for i := 0; i < 50; i++ {
					child, _ := New(Deleted, "likes", fmt.Sprintf("l%d", i), nil, nil)
					if err := bus.Publish(ctx, child); err != nil {
						return err
					}
				}
				return nil
			}
			mu.Lock()
			children++
			mu.Unlock()
			return nil
		})
	}()

	parent, _ := New(Deleted, "screams", "s1", nil, nil)
	require.NoError(t, bus.Publish(ctx, parent))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return children == 50 && bus.Pending() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDecodeMessage(t *testing.T) {
	e, _ := New(Deleted, "screams", "s1", doc{Name: "x"}, nil)
	data, err := json.Marshal(e)
	require.NoError(t, err)

	got, err := DecodeMessage(redis.XMessage{ID: "1-0", Values: map[string]any{"event": string(data)}})
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "screams/deleted", got.Topic())

	_, err = DecodeMessage(redis.XMessage{ID: "2-0", Values: map[string]any{}})
	assert.Error(t, err)

	_, err = DecodeMessage(redis.XMessage{ID: "3-0", Values: map[string]any{"event": "{not json"}})
	assert.Error(t, err)
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testStream(client *redis.Client, consumer string) *RedisStream {
	r := NewRedisStream(client, "changes", "triggers", consumer, 1)
	r.block = 20 * time.Millisecond
	r.claimIdle = 50 * time.Millisecond
	r.claimEvery = 20 * time.Millisecond
	return r
}

// runStream consumes in the background; the returned func stops it and waits
func runStream(t *testing.T, r *RedisStream, h Handler) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx, h)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("stream consumer did not stop")
		}
	}
}

// pendingCount returns -1 when the summary cannot be read; it runs inside Eventually
func pendingCount(client *redis.Client) int64 {
	p, err := client.XPending(context.Background(), "changes", "triggers").Result()
	if err != nil {
		return -1
	}
	return p.Count
}

// counter is a Handler that records calls per doc id and fails for the ids in fail
type counter struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newCounter(fail ...string) *counter {
	c := &counter{calls: map[string]int{}, fail: map[string]bool{}}
	for _, id := range fail {
		c.fail[id] = true
	}
	return c
}

func (c *counter) handle(_ context.Context, e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[e.DocID]++
	if c.fail[e.DocID] {
		return errors.New("handler failed")
	}
	return nil
}

func (c *counter) count(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[id]
}

func publishDoc(t *testing.T, r *RedisStream, id string) {
	t.Helper()
	e, err := New(Created, "likes", id, nil, doc{Name: id})
	require.NoError(t, err)
	require.NoError(t, r.Publish(context.Background(), e))
}

func TestRedisStreamAcksHandledEvents(t *testing.T) {
	client := testRedis(t)
	r := testStream(client, "node")
	require.NoError(t, r.EnsureGroup(context.Background()))

	for _, id := range []string{"a", "b", "c"} {
		publishDoc(t, r, id)
	}

	c := newCounter()
	stop := runStream(t, r, c.handle)
	defer stop()

	assert.Eventually(t, func() bool {
		return c.count("a") == 1 && c.count("b") == 1 && c.count("c") == 1 && pendingCount(client) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedisStreamRetriesAfterConsumerRename(t *testing.T) {
	client := testRedis(t)

	first := testStream(client, "node-a")
	first.claimIdle = time.Hour
	require.NoError(t, first.EnsureGroup(context.Background()))
	publishDoc(t, first, "flaky")

	failing := newCounter("flaky")
	stop := runStream(t, first, failing.handle)
	require.Eventually(t, func() bool { return failing.count("flaky") == 1 }, 2*time.Second, 10*time.Millisecond)
	stop()
	require.Equal(t, int64(1), pendingCount(client))

	// The process comes back under another name; the idle entry is claimed and retried
	second := testStream(client, "node-b")
	healthy := newCounter()
	stop = runStream(t, second, healthy.handle)
	defer stop()

	assert.Eventually(t, func() bool {
		return healthy.count("flaky") == 1 && pendingCount(client) == 0
	}, 3*time.Second, 10*time.Millisecond)
}

func TestRedisStreamPendingEntryDoesNotStarveNewEvents(t *testing.T) {
	client := testRedis(t)

	first := testStream(client, "node")
	first.claimIdle = time.Hour
	require.NoError(t, first.EnsureGroup(context.Background()))
	publishDoc(t, first, "bad")

	c := newCounter("bad")
	stop := runStream(t, first, c.handle)
	require.Eventually(t, func() bool { return c.count("bad") == 1 }, 2*time.Second, 10*time.Millisecond)
	stop()

	// Same consumer name, entry still failing
	second := testStream(client, "node")
	second.claimIdle = time.Hour
	stop = runStream(t, second, c.handle)
	defer stop()

	publishDoc(t, second, "good")
	require.Eventually(t, func() bool { return c.count("good") == 1 }, 2*time.Second, 10*time.Millisecond)

	// One replay pass on restart, no hot loop
	assert.Equal(t, 2, c.count("bad"))
	assert.Equal(t, int64(1), pendingCount(client))
}

func TestRedisStreamDropsAfterMaxDeliveries(t *testing.T) {
	client := testRedis(t)
	r := testStream(client, "node")
	r.claimIdle = 30 * time.Millisecond
	r.maxDeliveries = 2
	require.NoError(t, r.EnsureGroup(context.Background()))
	publishDoc(t, r, "poison")

	c := newCounter("poison")
	stop := runStream(t, r, c.handle)
	defer stop()

	assert.Eventually(t, func() bool {
		return pendingCount(client) == 0
	}, 3*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, c.count("poison"), 2)
}

func TestRedisStreamAcksUndecodableMessages(t *testing.T) {
	client := testRedis(t)
	r := testStream(client, "node")
	require.NoError(t, r.EnsureGroup(context.Background()))
	require.NoError(t, client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: "changes",
		Values: map[string]any{"event": "{not json"},
	}).Err())

	c := newCounter()
	stop := runStream(t, r, c.handle)
	defer stop()

	assert.Eventually(t, func() bool { return pendingCount(client) == 0 }, 2*time.Second, 10*time.Millisecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Empty(t, c.calls)
}

package triggers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/screams/backend/internal/database"
	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/metrics"
	"github.com/zfogg/screams/backend/internal/models"
	"github.com/zfogg/screams/backend/internal/repository"
)

type TriggersTestSuite struct {
	suite.Suite
	store      *repository.Store
	bus        *events.SyncBus
	dispatcher *Dispatcher
	ctx        context.Context
}

func TestTriggersSuite(t *testing.T) {
	suite.Run(t, new(TriggersTestSuite))
}

func (suite *TriggersTestSuite) SetupTest() {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(suite.T(), err)

	suite.bus = events.NewSyncBus()
	suite.store = repository.New(db, suite.bus)
	suite.dispatcher = NewDispatcher(suite.store)
	suite.bus.SetHandler(suite.dispatcher.Handle)
	suite.ctx = context.Background()

	for _, handle := range []string{"alice", "bob"} {
		require.NoError(suite.T(), suite.store.CreateUser(suite.ctx, &models.User{
			Handle:   handle,
			UserID:   "uid-" + handle,
			Email:    handle + "@example.com",
			ImageURL: "https://img.test/user.png",
		}))
	}
}

func (suite *TriggersTestSuite) createScream(handle string) *models.Scream {
	s := &models.Scream{UserHandle: handle, Body: "body", UserImage: "https://img.test/user.png"}
	require.NoError(suite.T(), suite.store.CreateScream(suite.ctx, s))
	return s
}

func (suite *TriggersTestSuite) likeID(handle, screamID string) string {
	like, err := suite.store.FindLike(suite.ctx, handle, screamID)
	require.NoError(suite.T(), err)
	return like.ID
}

func (suite *TriggersTestSuite) TestLikeCreatesNotificationWithLikeID() {
	t := suite.T()
	s := suite.createScream("alice")

	_, err := suite.store.LikeScream(suite.ctx, "bob", s.ID)
	require.NoError(t, err)

	id := suite.likeID("bob", s.ID)
	n, err := suite.store.GetNotification(suite.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", n.Recipient)
	assert.Equal(t, "bob", n.Sender)
	assert.Equal(t, models.NotificationLike, n.Type)
	assert.Equal(t, s.ID, n.ScreamID)
	assert.False(t, n.Read)
}

func (suite *TriggersTestSuite) TestSelfLikeCreatesNoNotification() {
	t := suite.T()
	s := suite.createScream("alice")

	_, err := suite.store.LikeScream(suite.ctx, "alice", s.ID)
	require.NoError(t, err)

	list, err := suite.store.ListNotifications(suite.ctx, "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func (suite *TriggersTestSuite) TestUnlikeDeletesNotification() {
	t := suite.T()
	s := suite.createScream("alice")

	_, err := suite.store.LikeScream(suite.ctx, "bob", s.ID)
	require.NoError(t, err)
	id := suite.likeID("bob", s.ID)

	_, err = suite.store.UnlikeScream(suite.ctx, "bob", s.ID)
	require.NoError(t, err)

	_, err = suite.store.GetNotification(suite.ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func (suite *TriggersTestSuite) TestCommentCreatesNotification() {
	t := suite.T()
	s := suite.createScream("alice")

	comment := &models.Comment{ScreamID: s.ID, UserHandle: "bob", Body: "nice"}
	_, err := suite.store.AddComment(suite.ctx, comment)
	require.NoError(t, err)

	n, err := suite.store.GetNotification(suite.ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationComment, n.Type)
	assert.Equal(t, "alice", n.Recipient)
}

func (suite *TriggersTestSuite) TestRedeliveredLikeKeepsReadFlag() {
	t := suite.T()
	s := suite.createScream("alice")
	like := &models.Like{ID: "like-1", UserHandle: "bob", ScreamID: s.ID, CreatedAt: time.Now().UTC()}
	e, err := events.New(events.Created, models.CollectionLikes, like.ID, nil, like)
	require.NoError(t, err)

	require.NoError(t, suite.dispatcher.Handle(suite.ctx, e))
	_, err = suite.store.MarkNotificationsRead(suite.ctx, "alice", []string{"like-1"})
	require.NoError(t, err)

	require.NoError(t, suite.dispatcher.Handle(suite.ctx, e))

	n, err := suite.store.GetNotification(suite.ctx, "like-1")
	require.NoError(t, err)
	assert.True(t, n.Read)
}

func (suite *TriggersTestSuite) TestLikeOnMissingScreamIsSkipped() {
	t := suite.T()
	like := &models.Like{ID: "like-x", UserHandle: "bob", ScreamID: "gone"}
	e, err := events.New(events.Created, models.CollectionLikes, like.ID, nil, like)
	require.NoError(t, err)

	assert.NoError(t, suite.dispatcher.Handle(suite.ctx, e))
	_, err = suite.store.GetNotification(suite.ctx, "like-x")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func (suite *TriggersTestSuite) TestUnlikeRedeliveryIsNoop() {
	e, err := events.New(events.Deleted, models.CollectionLikes, "never-existed", &models.Like{ID: "never-existed"}, nil)
	require.NoError(suite.T(), err)

	assert.NoError(suite.T(), suite.dispatcher.Handle(suite.ctx, e))
	assert.NoError(suite.T(), suite.dispatcher.Handle(suite.ctx, e))
}

func (suite *TriggersTestSuite) TestImageChangePropagatesToScreams() {
	t := suite.T()
	s := suite.createScream("alice")
	other := suite.createScream("bob")

	_, err := suite.store.UpdateUserImage(suite.ctx, "alice", "https://img.test/new.png")
	require.NoError(t, err)

	got, err := suite.store.GetScream(suite.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/new.png", got.UserImage)

	untouched, err := suite.store.GetScream(suite.ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/user.png", untouched.UserImage)
}

func (suite *TriggersTestSuite) TestDetailsUpdateDoesNotTouchScreams() {
	t := suite.T()
	suite.createScream("alice")

	m := metrics.Get()
	before := testutil.ToFloat64(m.TriggerEventsTotal.WithLabelValues("onUserImageChange", statusSkipped))

	_, err := suite.store.UpdateUserDetails(suite.ctx, "alice", models.UserDetails{Bio: "hi"})
	require.NoError(t, err)

	after := testutil.ToFloat64(m.TriggerEventsTotal.WithLabelValues("onUserImageChange", statusSkipped))
	assert.Equal(t, before+1, after)
}

func (suite *TriggersTestSuite) TestDeleteScreamCascades() {
	t := suite.T()
	s := suite.createScream("alice")

	_, err := suite.store.LikeScream(suite.ctx, "bob", s.ID)
	require.NoError(t, err)
	_, err = suite.store.AddComment(suite.ctx, &models.Comment{ScreamID: s.ID, UserHandle: "bob", Body: "c"})
	require.NoError(t, err)

	notifications, err := suite.store.ListNotifications(suite.ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	require.NoError(t, suite.store.DeleteScream(suite.ctx, s.ID))

	comments, err := suite.store.ListComments(suite.ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	_, err = suite.store.FindLike(suite.ctx, "bob", s.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	notifications, err = suite.store.ListNotifications(suite.ctx, "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func (suite *TriggersTestSuite) TestUnroutedTopicsAreIgnored() {
	e, err := events.New(events.Created, models.CollectionScreams, "s1", nil, &models.Scream{ID: "s1"})
	require.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.dispatcher.Handle(suite.ctx, e))
	assert.Len(suite.T(), suite.dispatcher.Topics(), 5)
}

// failingStore fails scream lookups
type failingStore struct{ *repository.Store }

var errBoom = errors.New("boom")

func (failingStore) GetScream(context.Context, string) (*models.Scream, error) {
	return nil, errBoom
}

func TestHandleReturnsTriggerErrors(t *testing.T) {
	d := NewDispatcher(failingStore{})
	like := &models.Like{ID: "l1", UserHandle: "bob", ScreamID: "s1"}
	e, err := events.New(events.Created, models.CollectionLikes, like.ID, nil, like)
	require.NoError(t, err)

	m := metrics.Get()
	before := testutil.ToFloat64(m.TriggerEventsTotal.WithLabelValues("createNotificationOnLike", statusError))

	err = d.Handle(context.Background(), e)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, before+1, testutil.ToFloat64(m.TriggerEventsTotal.WithLabelValues("createNotificationOnLike", statusError)))
}

func TestHandleRejectsUndecodableEvent(t *testing.T) {
	d := NewDispatcher(failingStore{})
	e := events.Event{ID: "e1", Kind: events.Created, Collection: models.CollectionComments, DocID: "c1"}

	assert.Error(t, d.Handle(context.Background(), e))
}

func TestWorkerDrainsMemoryBus(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)

	bus := events.NewMemoryBus(16, 1)
	store := repository.New(db, bus)
	worker := NewWorker(bus, NewDispatcher(store))

	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, &models.User{Handle: "alice", UserID: "a", Email: "a@example.com"}))
	s := &models.Scream{UserHandle: "alice", Body: "hi"}
	require.NoError(t, store.CreateScream(ctx, s))
	_, err = store.LikeScream(ctx, "bob", s.ID)
	require.NoError(t, err)

	worker.Start(ctx)
	worker.Start(ctx)
	defer worker.Stop()

	assert.Eventually(t, func() bool {
		list, err := store.ListNotifications(ctx, "alice", 10)
		return err == nil && len(list) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCascadeThroughMemoryBus(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)

	// Far smaller than the number of events the cascade publishes
	bus := events.NewMemoryBus(8, 1)
	store := repository.New(db, bus)
	dispatcher := NewDispatcher(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Run(ctx, dispatcher.Handle)
	}()

	s := &models.Scream{UserHandle: "alice", Body: "popular", UserImage: "https://img.test/user.png"}
	require.NoError(t, store.CreateScream(ctx, s))
	for i := 0; i < 20; i++ {
		_, err := store.LikeScream(ctx, fmt.Sprintf("fan-%d", i), s.ID)
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool {
		n, err := store.ListNotifications(ctx, "alice", 100)
		return err == nil && len(n) == 20
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, store.DeleteScream(ctx, s.ID))
	require.Eventually(t, func() bool {
		n, err := store.ListNotifications(ctx, "alice", 100)
		return err == nil && len(n) == 0 && bus.Pending() == 0
	}, 5*time.Second, 10*time.Millisecond)

	for i := 0; i < 20; i++ {
		_, err := store.FindLike(ctx, fmt.Sprintf("fan-%d", i), s.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	}

	publishCtx, publishCancel := context.WithTimeout(ctx, time.Second)
	defer publishCancel()
	extra, err := events.New(events.Created, models.CollectionScreams, "s2", nil, &models.Scream{ID: "s2"})
	require.NoError(t, err)
	assert.NoError(t, bus.Publish(publishCtx, extra))

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bus did not stop")
	}
}

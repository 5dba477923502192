package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/models/db_models"
	"storefront/internal/repositories"
)

func TestHub_DeliversOnlyToOwner(t *testing.T) {
	hub := NewHub()
	alice, bob := uuid.New(), uuid.New()

	aliceCh, cancelAlice := hub.Subscribe(alice)
	defer cancelAlice()
	bobCh, cancelBob := hub.Subscribe(bob)
	defer cancelBob()

	n := db_models.Notification{ID: uuid.New(), UserID: alice, Title: "Payment Approved"}
	assert.Equal(t, 1, hub.Publish(n))

	select {
	case got := <-aliceCh:
		assert.Equal(t, n.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("alice did not receive notification")
	}
	select {
	case <-bobCh:
		t.Fatal("bob received alice's notification")
	default:
	}
}

func TestHub_CancelRemovesSubscriber(t *testing.T) {
	hub := NewHub()
	user := uuid.New()

	ch, cancel := hub.Subscribe(user)
	assert.Equal(t, 1, hub.Subscribers(user))
	cancel()
	cancel()
	assert.Equal(t, 0, hub.Subscribers(user))

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Publish(db_models.Notification{UserID: user}))
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	user := uuid.New()
	_, cancel := hub.Subscribe(user)
	defer cancel()

	for i := 0; i < subscriberBuffer; i++ {
		require.Equal(t, 1, hub.Publish(db_models.Notification{UserID: user}))
	}
	assert.Equal(t, 0, hub.Publish(db_models.Notification{UserID: user}))
}

func TestHub_CloseEndsStreams(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(uuid.New())
	hub.Close()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := hub.Subscribe(uuid.New())
	_, ok = <-late
	assert.False(t, ok)
}

func newDispatchListener(t *testing.T) (*Listener, *Hub, *repositories.MemoryStore) {
	t.Helper()
	hub := NewHub()
	store := repositories.NewMemoryStore()
	return NewListener("", "feed", time.Second, time.Second, hub, store.NotificationRepo(), zap.NewNop()), hub, store
}

func feedPayload(t *testing.T, n db_models.Notification) string {
	t.Helper()
	payload, err := json.Marshal(repositories.FeedEvent{ID: n.ID, UserID: n.UserID})
	require.NoError(t, err)
	return string(payload)
}

func TestListener_DispatchLoadsNotificationByID(t *testing.T) {
	l, hub, store := newDispatchListener(t)
	user := uuid.New()
	ch, cancel := hub.Subscribe(user)
	defer cancel()

	// message far larger than a NOTIFY payload may carry
	n := db_models.Notification{UserID: user, Title: "Payment Rejected", Type: db_models.NotificationError,
		Message: strings.Repeat("<", 9000)}
	require.NoError(t, store.NotificationRepo().Create(context.Background(), &n))

	l.Dispatch(feedPayload(t, n))
	l.Dispatch("{not json")
	l.Dispatch(`{"id":"00000000-0000-0000-0000-000000000000"}`)

	got := <-ch
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, "Payment Rejected", got.Title)
	assert.Len(t, got.Message, 9000)
	assert.Len(t, ch, 0)
}

func TestListener_DispatchSkipsMissingOrFailedLoads(t *testing.T) {
	l, hub, store := newDispatchListener(t)
	user := uuid.New()
	ch, cancel := hub.Subscribe(user)
	defer cancel()

	l.Dispatch(feedPayload(t, db_models.Notification{ID: uuid.New(), UserID: user}))

	n := db_models.Notification{UserID: user, Title: "Access Revoked", Type: db_models.NotificationError}
	require.NoError(t, store.NotificationRepo().Create(context.Background(), &n))
	store.FailOn("notifications.find", errors.New("connection reset"))
	l.Dispatch(feedPayload(t, n))

	assert.Len(t, ch, 0)
}

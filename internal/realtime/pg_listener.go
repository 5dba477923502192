package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"storefront/internal/models/db_models"
	"storefront/internal/repositories"
	"storefront/pkg/metrics"
)

const loadTimeout = 5 * time.Second

// NotificationLoader reads back the row a feed event points at.
type NotificationLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Notification, error)
}

// Listener relays feed events written by the notification repository into
// the Hub.
type Listener struct {
	dsn          string
	channel      string
	minReconnect time.Duration
	maxReconnect time.Duration
	hub          *Hub
	loader       NotificationLoader
	logger       *zap.Logger

	pl   *pq.Listener
	done chan struct{}
	wg   sync.WaitGroup
}

func NewListener(dsn, channel string, minReconnect, maxReconnect time.Duration, hub *Hub, loader NotificationLoader, logger *zap.Logger) *Listener {
	return &Listener{
		dsn:          dsn,
		channel:      channel,
		minReconnect: minReconnect,
		maxReconnect: maxReconnect,
		hub:          hub,
		loader:       loader,
		logger:       logger.Named("realtime"),
		done:         make(chan struct{}),
	}
}

func (l *Listener) Start() error {
	l.pl = pq.NewListener(l.dsn, l.minReconnect, l.maxReconnect, l.onEvent)
	if err := l.pl.Listen(l.channel); err != nil {
		_ = l.pl.Close()
		return err
	}
	l.logger.Info("listening for notifications", zap.String("channel", l.channel))

	l.wg.Add(1)
	go l.loop()
	return nil
}

func (l *Listener) Stop() error {
	close(l.done)
	var err error
	if l.pl != nil {
		err = l.pl.Close()
	}
	l.wg.Wait()
	l.hub.Close()
	return err
}

func (l *Listener) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
		l.logger.Warn("notification listener connection problem", zap.Error(err))
	case pq.ListenerEventReconnected:
		l.logger.Info("notification listener reconnected")
	}
}

func (l *Listener) loop() {
	defer l.wg.Done()
	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-l.done:
			return
		case n, ok := <-l.pl.Notify:
			if !ok {
				return
			}
			// nil after a reconnect
			if n == nil {
				continue
			}
			l.Dispatch(n.Extra)
		case <-ping.C:
			if err := l.pl.Ping(); err != nil {
				l.logger.Warn("notification listener ping failed", zap.Error(err))
			}
		}
	}
}

// Dispatch decodes one feed event, loads the notification and publishes it.
func (l *Listener) Dispatch(payload string) {
	var ev repositories.FeedEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || ev.ID == uuid.Nil {
		metrics.NotificationsPublished.WithLabelValues("malformed").Inc()
		l.logger.Warn("malformed notification payload", zap.String("payload", payload), zap.Error(err))
		return
	}
	// no subscriber, nothing to load
	if l.hub.Subscribers(ev.UserID) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	n, err := l.loader.FindByID(ctx, ev.ID)
	if err != nil {
		metrics.NotificationsPublished.WithLabelValues("load_failed").Inc()
		l.logger.Warn("load notification failed", zap.Stringer("notification_id", ev.ID), zap.Error(err))
		return
	}
	if n == nil {
		metrics.NotificationsPublished.WithLabelValues("missing").Inc()
		l.logger.Warn("notification from feed not found", zap.Stringer("notification_id", ev.ID))
		return
	}

	delivered := l.hub.Publish(*n)
	l.logger.Debug("notification relayed",
		zap.Stringer("notification_id", n.ID),
		zap.Stringer("user_id", n.UserID),
		zap.Int("streams", delivered))
}

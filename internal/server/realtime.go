package server

import (
	"context"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
)

const (
	RealtimeEventActivity   = "activity"
	realtimeEventHeartbeat  = "heartbeat"
	realtimeSourceBackend   = "scoreboard-backend"
	defaultHeartbeatPeriod  = 15 * time.Second
	defaultSubscriberBuffer = 16
)

// ActivityDispatcher fans recorded activities out to live stream subscribers.
type ActivityDispatcher struct {
	mu          sync.RWMutex
	subscribers map[int64]*activitySubscriber
	nextID      int64
	bufferSize  int
}

type activitySubscriber struct {
	id     int64
	stream chan leaderboard.Activity
}

func NewActivityDispatcher() *ActivityDispatcher {
	return &ActivityDispatcher{
		subscribers: make(map[int64]*activitySubscriber),
		bufferSize:  defaultSubscriberBuffer,
	}
}

// Subscribe registers a stream that lives until ctx is done or cleanup is called.
func (d *ActivityDispatcher) Subscribe(ctx context.Context) (<-chan leaderboard.Activity, func()) {
	subscriber := &activitySubscriber{
		stream: make(chan leaderboard.Activity, d.bufferSize),
	}
	d.registerSubscriber(subscriber)
	cleanup := func() {
		d.unregisterSubscriber(subscriber.id)
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// PublishActivity implements leaderboard.ActivityPublisher. Full subscriber buffers drop the message.
func (d *ActivityDispatcher) PublishActivity(_ context.Context, activity leaderboard.Activity) error {
	d.mu.RLock()
	if len(d.subscribers) == 0 {
		d.mu.RUnlock()
		return nil
	}
	copies := make([]*activitySubscriber, 0, len(d.subscribers))
	for _, subscriber := range d.subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- activity:
		default:
		}
	}
	return nil
}

// SubscriberCount reports the number of live subscribers.
func (d *ActivityDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

func (d *ActivityDispatcher) registerSubscriber(subscriber *activitySubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	subscriber.id = d.nextID
	d.subscribers[subscriber.id] = subscriber
}

func (d *ActivityDispatcher) unregisterSubscriber(subscriberID int64) {
	d.mu.Lock()
	delete(d.subscribers, subscriberID)
	d.mu.Unlock()
}

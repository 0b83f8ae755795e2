package server

import (
	"context"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
)

func TestActivityDispatcherPublishesToEverySubscriber(t *testing.T) {
	dispatcher := NewActivityDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, cleanupFirst := dispatcher.Subscribe(ctx)
	defer cleanupFirst()
	second, cleanupSecond := dispatcher.Subscribe(ctx)
	defer cleanupSecond()

	activity := leaderboard.Activity{
		ID:        "a-1",
		Type:      leaderboard.ActivityPlayerAdded,
		Message:   "Alice added to the leaderboard",
		Timestamp: time.Now().UTC(),
	}
	if err := dispatcher.PublishActivity(context.Background(), activity); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	for index, stream := range []<-chan leaderboard.Activity{first, second} {
		select {
		case received := <-stream:
			if received.ID != "a-1" {
				t.Fatalf("subscriber %d received unexpected activity %s", index, received.ID)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("subscriber %d expected activity within deadline", index)
		}
	}
}

func TestActivityDispatcherDropsWhenBufferFull(t *testing.T) {
	dispatcher := NewActivityDispatcher()
	dispatcher.bufferSize = 1
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := dispatcher.Subscribe(ctx)
	defer cleanup()

	_ = dispatcher.PublishActivity(context.Background(), leaderboard.Activity{ID: "a-1"})
	_ = dispatcher.PublishActivity(context.Background(), leaderboard.Activity{ID: "a-2"})

	received := <-stream
	if received.ID != "a-1" {
		t.Fatalf("expected first activity to be kept, got %s", received.ID)
	}
	select {
	case extra := <-stream:
		t.Fatalf("expected overflow to be dropped, got %s", extra.ID)
	default:
	}
}

func TestActivityDispatcherUnsubscribesOnContextDone(t *testing.T) {
	dispatcher := NewActivityDispatcher()
	ctx, cancel := context.WithCancel(context.Background())

	_, _ = dispatcher.Subscribe(ctx)
	if count := dispatcher.SubscriberCount(); count != 1 {
		t.Fatalf("expected one subscriber, got %d", count)
	}

	cancel()
	deadline := time.Now().Add(time.Second)
	for dispatcher.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected subscriber to be removed after cancellation")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

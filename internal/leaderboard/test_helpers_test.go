package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type memoryStore struct {
	mu       sync.Mutex
	document *Document
	saves    int
	loadErr  error
	saveErr  error
}

func (store *memoryStore) Load(context.Context) (Document, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.loadErr != nil {
		return Document{}, store.loadErr
	}
	if store.document == nil {
		return Document{}, ErrDocumentMissing
	}
	return store.document.clone(), nil
}

func (store *memoryStore) Save(_ context.Context, document Document) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.saveErr != nil {
		return store.saveErr
	}
	copied := document.clone()
	store.document = &copied
	store.saves++
	return nil
}

func (store *memoryStore) Initialize(_ context.Context, seed Document) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.saveErr != nil {
		return false, store.saveErr
	}
	if store.document != nil {
		return false, nil
	}
	copied := seed.clone()
	store.document = &copied
	store.saves++
	return true, nil
}

type sequenceIDProvider struct {
	mu   sync.Mutex
	next int
}

func (provider *sequenceIDProvider) NewID() (string, error) {
	provider.mu.Lock()
	defer provider.mu.Unlock()
	provider.next++
	return fmt.Sprintf("id-%03d", provider.next), nil
}

type failingIDProvider struct{}

func (failingIDProvider) NewID() (string, error) {
	return "", errors.New("entropy exhausted")
}

type steppingClock struct {
	mu      sync.Mutex
	current time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{current: time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)}
}

func (clock *steppingClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.current = clock.current.Add(time.Second)
	return clock.current
}

type recordingPublisher struct {
	mu         sync.Mutex
	activities []Activity
	err        error
}

func (publisher *recordingPublisher) PublishActivity(_ context.Context, activity Activity) error {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	publisher.activities = append(publisher.activities, activity)
	return publisher.err
}

func newTestService(t *testing.T, store *memoryStore, publishers ...ActivityPublisher) *Service {
	t.Helper()
	clock := newSteppingClock()
	service, err := NewService(ServiceConfig{
		Store:      store,
		Clock:      clock.Now,
		IDProvider: &sequenceIDProvider{},
		Publishers: publishers,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}

func newSeededService(t *testing.T, publishers ...ActivityPublisher) (*Service, *memoryStore) {
	t.Helper()
	store := &memoryStore{}
	service := newTestService(t, store, publishers...)
	if _, err := service.Initialize(context.Background()); err != nil {
		t.Fatalf("failed to seed service: %v", err)
	}
	return service, store
}

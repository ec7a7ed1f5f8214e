package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPublisherStampsIdentityAndTime(t *testing.T) {
	publisher := NewPublisher(4, discardLogger())
	publisher.Emit(context.Background(), Event{Action: ActionStepSubmitted})

	event := <-publisher.Inbox()
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestPublisherDropsWhenInboxFull(t *testing.T) {
	publisher := NewPublisher(1, discardLogger())
	publisher.Emit(context.Background(), Event{Action: ActionStepSubmitted})
	// Second emit must not block even though nothing drains the inbox.
	publisher.Emit(context.Background(), Event{Action: ActionStepVerified})

	event := <-publisher.Inbox()
	assert.Equal(t, ActionStepSubmitted, event.Action)
	select {
	case <-publisher.Inbox():
		t.Fatal("overflow event should have been dropped")
	default:
	}
}

func TestWorkerPersistsAndFansOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewMemoryStore()
	sink := &recordingSink{}
	publisher := NewPublisher(16, discardLogger())
	worker := NewWorker(store, sink, publisher.Inbox(), discardLogger())

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	merchantID := uuid.New()
	publisher.Emit(ctx, Event{
		ActorID:    merchantID,
		ActorRole:  "merchant",
		MerchantID: merchantID,
		Action:     ActionStepSubmitted,
		StepNumber: 2,
	})

	waitFor(t, func() bool { return sink.count() == 1 })

	events, err := store.ListByMerchant(ctx, merchantID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionStepSubmitted, events[0].Action)
	assert.Equal(t, 2, events[0].StepNumber)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

type failingStore struct{ Store }

func (failingStore) Append(context.Context, Event) error {
	return errors.New("disk full")
}

func TestWorkerSkipsSinkOnPersistFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recordingSink{}
	publisher := NewPublisher(16, discardLogger())
	worker := NewWorker(failingStore{}, sink, publisher.Inbox(), discardLogger())

	go func() { _ = worker.Run(ctx) }()

	publisher.Emit(ctx, Event{MerchantID: uuid.New(), Action: ActionStepRejected})

	// The worker must survive the failure and never reach the sink.
	waitFor(t, func() bool { return len(publisher.Inbox()) == 0 })
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, sink.count())
}

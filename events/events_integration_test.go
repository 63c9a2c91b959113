package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"owldoor/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan MatchCreatedEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeMatchCreated, func(ctx context.Context, event Event) {
		defer wg.Done()
		if matchEvent, ok := event.(MatchCreatedEvent); ok {
			select {
			case eventReceived <- matchEvent:
			case <-time.After(1 * time.Second):
				t.Error("Timeout sending event to channel")
			}
		} else {
			t.Errorf("Expected MatchCreatedEvent, got %T", event)
		}
	})

	testEvent := MatchCreatedEvent{
		MatchID:        42,
		LeadID:         7,
		ClientID:       10,
		CreditsCharged: decimal.NewFromInt(100),
		RunID:          uuid.New(),
	}

	// Publish to the transactional bus and flush, simulating a commit
	transactionalBus.Publish(testEvent)
	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)

	wg.Wait()

	select {
	case receivedEvent := <-eventReceived:
		assert.Equal(t, testEvent.MatchID, receivedEvent.MatchID)
		assert.Equal(t, testEvent.LeadID, receivedEvent.LeadID)
		assert.Equal(t, testEvent.ClientID, receivedEvent.ClientID)
		assert.True(t, testEvent.CreditsCharged.Equal(receivedEvent.CreditsCharged))
		assert.Equal(t, testEvent.RunID, receivedEvent.RunID)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestDiscardDropsPendingEvents tests that rolled-back transactions emit nothing
func TestDiscardDropsPendingEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	delivered := make(chan Event, 1)
	mainBus.Subscribe(EventTypeCreditChange, func(ctx context.Context, event Event) {
		delivered <- event
	})

	transactionalBus.Publish(CreditChangeEvent{
		ClientID:     10,
		OldBalance:   decimal.NewFromInt(500),
		NewBalance:   decimal.NewFromInt(400),
		ChangeAmount: decimal.NewFromInt(-100),
		Reason:       models.CreditReasonMatchCharge,
	})

	// Simulate a rollback
	transactionalBus.Discard()

	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)

	select {
	case <-delivered:
		t.Fatal("Discarded event should not be delivered")
	case <-time.After(100 * time.Millisecond):
	}
}

// TestMultipleEventsDelivery tests delivering multiple events in sequence
func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventsReceived := make(chan MatchMissedEvent, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	mainBus.Subscribe(EventTypeMatchMissed, func(ctx context.Context, event Event) {
		defer wg.Done()
		if missedEvent, ok := event.(MatchMissedEvent); ok {
			eventsReceived <- missedEvent
		}
	})

	runID := uuid.New()
	testEvents := []MatchMissedEvent{
		{MissedMatchID: 1, LeadID: 7, ClientID: 10, Reason: models.MissReasonInsufficientCredits, RunID: runID},
		{MissedMatchID: 2, LeadID: 7, ClientID: 11, Reason: models.MissReasonInsufficientCredits, RunID: runID},
		{MissedMatchID: 3, LeadID: 8, ClientID: 10, Reason: models.MissReasonInsufficientCredits, RunID: runID},
	}

	for _, event := range testEvents {
		transactionalBus.Publish(event)
	}

	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)

	wg.Wait()
	close(eventsReceived)

	received := make(map[int64]bool)
	for event := range eventsReceived {
		received[event.MissedMatchID] = true
	}
	assert.Len(t, received, 3)
}

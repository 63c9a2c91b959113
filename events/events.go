package events

import (
	"context"
	"sync"

	"owldoor/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeMatchCreated     EventType = "match_created"
	EventTypeMatchMissed      EventType = "match_missed"
	EventTypeCreditChange     EventType = "credit_change"
	EventTypeLeadCreated      EventType = "lead_created"
	EventTypeLeadStageChanged EventType = "lead_stage_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// MatchCreatedEvent represents a completed lead/client pairing
type MatchCreatedEvent struct {
	MatchID        int64
	LeadID         int64
	ClientID       int64
	CreditsCharged decimal.Decimal
	RunID          uuid.UUID
}

func (e MatchCreatedEvent) Type() EventType {
	return EventTypeMatchCreated
}

// MatchMissedEvent represents a pairing opportunity lost to insufficient credits
type MatchMissedEvent struct {
	MissedMatchID int64
	LeadID        int64
	ClientID      int64
	Reason        models.MissReason
	RunID         uuid.UUID
}

func (e MatchMissedEvent) Type() EventType {
	return EventTypeMatchMissed
}

// CreditChangeEvent represents a credit balance change that occurred
type CreditChangeEvent struct {
	ClientID     int64
	OldBalance   decimal.Decimal
	NewBalance   decimal.Decimal
	ChangeAmount decimal.Decimal
	Reason       models.CreditReason
}

func (e CreditChangeEvent) Type() EventType {
	return EventTypeCreditChange
}

// LeadCreatedEvent represents a new lead entering the pipeline
type LeadCreatedEvent struct {
	LeadID int64
	City   string
	State  string
}

func (e LeadCreatedEvent) Type() EventType {
	return EventTypeLeadCreated
}

// LeadStageChangedEvent represents a lead pipeline stage transition
type LeadStageChangedEvent struct {
	LeadID   int64
	OldStage models.PipelineStage
	NewStage models.PipelineStage
}

func (e LeadStageChangedEvent) Type() EventType {
	return EventTypeLeadStageChanged
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the caller
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events are processed independently of the transaction lifecycle,
	// so a background context avoids expired transaction contexts.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events. Called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

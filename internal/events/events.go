// Package events defines the domain events the engine emits after
// successful commands, and the publisher port that carries them out.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionCreated       = "transaction.created"
	TransactionUpdated       = "transaction.updated"
	TransactionDeleted       = "transaction.deleted"
	FeeDerived               = "fee.derived"
	FeeDerivationFailed      = "fee.derivation_failed"
	CollectionRecorded       = "collection.recorded"
	DebtSettled              = "debt.settled"
	SettlementPartialFailure = "settlement.partial_failure"
)

// Event is a lightweight notification. Consumers fetch full rows from the
// store when they need them.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	TransactionID int64           `json:"transaction_id,omitempty"`
	RelatedIDs    []int64         `json:"related_ids,omitempty"`
	Payer         string          `json:"payer,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Error         string          `json:"error,omitempty"`
}

// New creates an event with a fresh id and timestamp.
func New(eventType string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON creates an event from JSON bytes
func FromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Publisher delivers events. Delivery failures are reported to the caller
// but must never undo the command that produced the event.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error // returned by Publish when set
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of what was published.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the published event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

package kafka

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/taneryldrm/bugless-crm-sub000/internal/events"
)

func TestMessageKeyedByType(t *testing.T) {
	e := events.New(events.FeeDerived)
	e.TransactionID = 7
	e.Amount = decimal.RequireFromString("62.90")

	msg, err := message(e)
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if string(msg.Key) != events.FeeDerived {
		t.Errorf("key = %q, want %q", msg.Key, events.FeeDerived)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != e.ID {
		t.Errorf("headers = %+v, want event_id %s", msg.Headers, e.ID)
	}

	back, err := events.FromJSON(msg.Value)
	if err != nil {
		t.Fatalf("decode value: %v", err)
	}
	if back.ID != e.ID || back.TransactionID != 7 || !back.Amount.Equal(e.Amount) {
		t.Errorf("value = %+v, want %+v", back, e)
	}
}

func TestNewPublisherUsesTopic(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "ledger-events")
	defer p.Close()
	if p.writer.Topic != "ledger-events" {
		t.Fatalf("topic = %q", p.writer.Topic)
	}
}

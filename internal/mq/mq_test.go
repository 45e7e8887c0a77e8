package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/Concord/internal/domain"
)

type countingNudger struct{ n int }

func (c *countingNudger) Nudge() { c.n++ }

// roundTrip имитирует доставку: конверт проходит через JSON, как в брокере.
func roundTrip(t *testing.T, msg *Message) *Delivery {
	t.Helper()
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Message
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return &Delivery{Message: got}
}

// --- Nudge Tests ---

func TestNudgeHandler(t *testing.T) {
	n := &countingNudger{}
	h := NudgeHandler(n, nil)

	d := roundTrip(t, newMessage(MessageTypeWorkNudge, NudgePayload{Reason: "import finished"}))
	if err := h(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.n != 1 {
		t.Errorf("expected one nudge, got %d", n.n)
	}
}

func TestNudgeHandler_RejectsForeignMessages(t *testing.T) {
	n := &countingNudger{}
	h := NudgeHandler(n, nil)

	d := roundTrip(t, newMessage(MessageType(domain.EventWorkFailed), nil))
	if err := h(context.Background(), d); !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected ErrMalformedMessage, got %v", err)
	}
	if n.n != 0 {
		t.Error("foreign message must not nudge")
	}
}

// --- Payload Tests ---

func TestParsePayload(t *testing.T) {
	ev := domain.NewEvent(domain.EventWorkCompleted, domain.NewTargetRef("Order", "42"), map[string]any{"kind": "validation"})
	d := roundTrip(t, newMessage(MessageType(ev.Type), ev))

	got, err := ParsePayload[domain.Event](&d.Message)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != ev.ID || got.Target.String() != "Order#42" || got.Payload["kind"] != "validation" {
		t.Errorf("unexpected event %+v", got)
	}

	bad := &Message{Payload: "not an object"}
	if _, err := ParsePayload[NudgePayload](bad); !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("expected ErrMalformedMessage, got %v", err)
	}
}

func TestEventRoutingKey(t *testing.T) {
	ev := domain.NewEvent(domain.EventWorkFailed, domain.NewTargetRef("Order", "42"), nil)
	if got := eventRoutingKey(ev); got != RoutingKeyWorkFailed {
		t.Errorf("expected %q, got %q", RoutingKeyWorkFailed, got)
	}
}

// --- Connection Tests ---

func TestNextDelay(t *testing.T) {
	d := initialReconnectDelay
	for range 10 {
		d = nextDelay(d)
	}
	if d != maxReconnectDelay {
		t.Errorf("expected delay capped at %s, got %s", maxReconnectDelay, d)
	}
	if nextDelay(time.Second) != 2*time.Second {
		t.Error("expected doubling")
	}
}

// --- Topology Tests ---

func TestTopology_BindingsReferenceDeclared(t *testing.T) {
	exchanges, queues, bindings := topology()

	ex := map[Exchange]bool{}
	for _, e := range exchanges {
		ex[e.name] = true
	}
	qs := map[Queue]bool{}
	for _, q := range queues {
		qs[q.name] = true
	}

	for _, b := range bindings {
		if !ex[b.exchange] || !qs[b.queue] {
			t.Errorf("binding %+v references undeclared entity", b)
		}
	}
}

package bus

import (
	"context"
	"testing"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()

	var first, second []Message
	b.Subscribe(StateUpdate, func(m Message) { first = append(first, m) })
	b.Subscribe(StateUpdate, func(m Message) { second = append(second, m) })

	b.Publish(StateUpdate, "recording")
	b.Publish(StateUpdate, "transcribing")
	b.Publish(ShowSummary, "ignored by these subscribers")

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("Subscriber counts = %d, %d, want 2 each", len(first), len(second))
	}
	if first[0].Payload != "recording" || first[1].Payload != "transcribing" {
		t.Errorf("Delivery order broken: %+v", first)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()

	count := 0
	unsubscribe := b.Subscribe(StateUpdate, func(Message) { count++ })

	b.Publish(StateUpdate, nil)
	unsubscribe()
	b.Publish(StateUpdate, nil)

	if count != 1 {
		t.Errorf("Subscriber called %d times, want 1", count)
	}
}

func TestRequestSingleResponder(t *testing.T) {
	b := New()

	err := b.Handle(GetState, func(ctx context.Context, msg Message) (any, error) {
		return "idle", nil
	})
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	reply, err := b.Request(context.Background(), GetState, nil)
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}
	if reply != "idle" {
		t.Errorf("Request() = %v, want idle", reply)
	}
}

func TestHandleRejectsSecondResponder(t *testing.T) {
	b := New()

	noop := func(ctx context.Context, msg Message) (any, error) { return nil, nil }
	if err := b.Handle(AskAI, noop); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if err := b.Handle(AskAI, noop); err == nil {
		t.Error("Second Handle() for the same type succeeded, want error")
	}
}

func TestRequestWithoutHandler(t *testing.T) {
	b := New()
	if _, err := b.Request(context.Background(), FetchSessions, nil); err == nil {
		t.Error("Request() without handler succeeded, want error")
	}
}

// Package bus is the typed in-process message channel between the recording
// surfaces (popup, content overlay, dashboard) and the background pipeline.
// Publish fans a message out to every subscriber; Request is answered by the
// single registered handler for its type (at most one responder per type).
package bus

import (
	"context"
	"fmt"
	"sync"
)

// Type identifies a message topic.
type Type string

const (
	StartRecording Type = "START_RECORDING"
	StopRecording  Type = "STOP_RECORDING"
	Reset          Type = "RESET"
	GetState       Type = "GET_STATE"
	SessionStart   Type = "SESSION_START"
	SessionEnd     Type = "SESSION_END"
	AskAI          Type = "ASK_AI"
	FetchSessions  Type = "FETCH_SESSIONS"
	OpenLibrary    Type = "OPEN_LIBRARY"
	StateUpdate    Type = "STATE_UPDATE"
	ShowSummary    Type = "SHOW_SUMMARY"
)

// Message is one envelope on the bus.
type Message struct {
	Type    Type
	Payload any
}

// Handler answers a Request for one message type.
type Handler func(ctx context.Context, msg Message) (any, error)

type subscription struct {
	fn func(Message)
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[Type][]*subscription
	handlers    map[Type]Handler
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[Type][]*subscription),
		handlers:    make(map[Type]Handler),
	}
}

// Subscribe registers fn for every message of type t. The returned function
// removes the subscription.
func (b *Bus) Subscribe(t Type, fn func(Message)) func() {
	sub := &subscription{fn: fn}

	b.mu.Lock()
	b.subscribers[t] = append(b.subscribers[t], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[t]
		for i, s := range subs {
			if s == sub {
				b.subscribers[t] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the message to all current subscribers, synchronously and
// in registration order. Delivery is at-least-once from the subscriber's
// point of view; there is no ordering guarantee beyond same-process issuance
// order.
func (b *Bus) Publish(t Type, payload any) {
	b.mu.RLock()
	subs := make([]*subscription, len(b.subscribers[t]))
	copy(subs, b.subscribers[t])
	b.mu.RUnlock()

	msg := Message{Type: t, Payload: payload}
	for _, sub := range subs {
		sub.fn(msg)
	}
}

// Handle registers the single responder for type t. Registering a second
// handler for the same type is an error: the contract is at most one
// responder per message type.
func (b *Bus) Handle(t Type, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for %s", t)
	}
	b.handlers[t] = h
	return nil
}

// Request sends a message to the responder registered for its type and
// returns its answer.
func (b *Bus) Request(ctx context.Context, t Type, payload any) (any, error) {
	b.mu.RLock()
	h, exists := b.handlers[t]
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("no handler registered for %s", t)
	}
	return h(ctx, Message{Type: t, Payload: payload})
}

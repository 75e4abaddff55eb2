package events

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Handler reacts to one event. Returning an error does not stop delivery to other handlers.
type Handler func(ctx context.Context, event Event) error

// Dispatcher routes events to handlers by type.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler Handler)
}

// SubscribeAll registers handler for every type in AllEventTypes.
func SubscribeAll(d Dispatcher, handler Handler) {
	for _, eventType := range AllEventTypes {
		d.Subscribe(eventType, handler)
	}
}

// Bus is an in-process Dispatcher. Publish runs handlers on the caller's goroutine in
// subscription order, after the publishing transaction has committed.
type Bus struct {
	mu     sync.RWMutex
	routes map[EventType][]Handler
}

var _ Dispatcher = (*Bus)(nil)

// NewBus returns a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{routes: map[EventType][]Handler{}}
}

// Publish delivers event to every handler of its type and joins their errors.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	route := slices.Clone(b.routes[event.Type])
	b.mu.RUnlock()

	errs := make([]error, 0, len(route))
	for _, handle := range route {
		errs = append(errs, handle(ctx, event))
	}
	return errors.Join(errs...)
}

// Subscribe appends handler to the route for eventType.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	b.routes[eventType] = append(b.routes[eventType], handler)
	b.mu.Unlock()
}

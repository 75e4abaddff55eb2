package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewBus()
	var got []EventType
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})
	d.Subscribe(EventTicketEdited, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	actor := ActorFrom(domain.Actor{ID: "u1", Role: domain.RoleAdmin})
	require.NoError(t, d.Publish(context.Background(), New(EventTicketCreated, "t1", actor, nil)))
	assert.Equal(t, []EventType{EventTicketCreated}, got)
}

func TestDispatcherJoinsHandlerErrors(t *testing.T) {
	d := NewBus()
	first := errors.New("first")
	second := errors.New("second")
	calls := 0
	d.Subscribe(EventOverallStatusChanged, func(context.Context, Event) error {
		calls++
		return first
	})
	d.Subscribe(EventOverallStatusChanged, func(context.Context, Event) error {
		calls++
		return second
	})

	err := d.Publish(context.Background(), New(EventOverallStatusChanged, "t1", Actor{}, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Equal(t, 2, calls)
}

func TestNewStampsEvent(t *testing.T) {
	e := New(EventTicketEdited, "t1", Actor{UserID: "u1", Role: domain.RoleUser}, TicketEditedPayload{Fields: []string{"title"}})
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, "t1", e.TicketID)
}

func TestSubscribeAllCoversEveryType(t *testing.T) {
	bus := NewBus()
	seen := map[EventType]int{}
	SubscribeAll(bus, func(_ context.Context, e Event) error {
		seen[e.Type]++
		return nil
	})

	for _, eventType := range AllEventTypes {
		require.NoError(t, bus.Publish(context.Background(), New(eventType, "t1", Actor{}, nil)))
	}
	assert.Len(t, seen, len(AllEventTypes))
	for _, eventType := range AllEventTypes {
		assert.Equal(t, 1, seen[eventType])
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	assert.NoError(t, NewBus().Publish(context.Background(), New(EventTicketCreated, "t1", Actor{}, nil)))
}

package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/events"
)

type recordingSink struct {
	mu  sync.Mutex
	got []string
}

func (r *recordingSink) Send(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, e.ID)
	return nil
}

func (r *recordingSink) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.got...)
}

func TestNotificationWorkerDeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	w := NewNotificationWorker(sink, 8, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	StartNotificationWorker(ctx, w)

	first := events.New(events.EventTicketCreated, "t1", events.Actor{}, nil)
	second := events.New(events.EventTicketEdited, "t1", events.Actor{}, nil)
	require.NoError(t, w.Send(ctx, first))
	require.NoError(t, w.Send(ctx, second))

	assert.Eventually(t, func() bool { return len(sink.ids()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	w.Wait()
	assert.Equal(t, []string{first.ID, second.ID}, sink.ids())
}

func TestNotificationWorkerRejectsWhenFull(t *testing.T) {
	w := NewNotificationWorker(&recordingSink{}, 1, zap.NewNop())
	require.NoError(t, w.Send(context.Background(), events.New(events.EventTicketCreated, "t1", events.Actor{}, nil)))
	err := w.Send(context.Background(), events.New(events.EventTicketCreated, "t2", events.Actor{}, nil))
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestNotificationWorkerDrainsOnShutdown(t *testing.T) {
	sink := &recordingSink{}
	w := NewNotificationWorker(sink, 4, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Send(context.Background(), events.New(events.EventTicketCreated, "t1", events.Actor{}, nil)))

	w.Run(ctx)
	assert.Len(t, sink.ids(), 1)
}

package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/events"
)

// ErrQueueFull is returned when the outbound buffer cannot accept another event.
var ErrQueueFull = errors.New("notification queue full")

// NotificationWorker decouples request handling from the outbound broker: Send enqueues and
// Run drains the queue into the downstream sink.
type NotificationWorker struct {
	queue      chan events.Event
	downstream events.Sink
	logger     *zap.Logger
	done       chan struct{}
	once       sync.Once
}

var _ events.Sink = (*NotificationWorker)(nil)

// NewNotificationWorker builds a worker with a bounded queue.
func NewNotificationWorker(downstream events.Sink, bufferSize int, logger *zap.Logger) *NotificationWorker {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &NotificationWorker{
		queue:      make(chan events.Event, bufferSize),
		downstream: downstream,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Send enqueues without blocking.
func (w *NotificationWorker) Send(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		w.logger.Warn("dropping event", zap.String("event_id", event.ID), zap.String("type", string(event.Type)))
		return ErrQueueFull
	}
}

// Run delivers queued events until ctx is cancelled, then drains what is left.
func (w *NotificationWorker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case event := <-w.queue:
			w.deliver(ctx, event)
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

// Wait blocks until Run has returned.
func (w *NotificationWorker) Wait() {
	<-w.done
}

func (w *NotificationWorker) drain() {
	for {
		select {
		case event := <-w.queue:
			w.deliver(context.Background(), event)
		default:
			return
		}
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, event events.Event) {
	if err := w.downstream.Send(ctx, event); err != nil {
		w.logger.Error("deliver event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}

// StartNotificationWorker runs the worker in the background.
func StartNotificationWorker(ctx context.Context, w *NotificationWorker) {
	if w == nil {
		return
	}
	w.once.Do(func() {
		go w.Run(ctx)
	})
}

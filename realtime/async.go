package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrQueueFull = errors.New("realtime queue full")
	ErrClosed    = errors.New("realtime publisher closed")
)

type queuedEvent struct {
	room string
	evt  Event
}

// Async hands events to one background goroutine that forwards them to next,
// so a slow broker never holds up the request that produced the event. Order
// is kept; when the queue is full new events are dropped.
type Async struct {
	next    Publisher
	queue   chan queuedEvent
	timeout time.Duration
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsync(next Publisher, size int, timeout time.Duration, log *slog.Logger) *Async {
	if size <= 0 {
		size = 256
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	a := &Async{
		next:    next,
		queue:   make(chan queuedEvent, size),
		timeout: timeout,
		log:     log,
		done:    make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) Publish(_ context.Context, room string, evt Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- queuedEvent{room: room, evt: evt}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (a *Async) loop() {
	defer close(a.done)
	for q := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.next.Publish(ctx, q.room, q.evt); err != nil {
			a.log.Warn("realtime publish failed", "action", "broadcast", "room", q.room, "event", q.evt.Name, "error", err)
		}
		cancel()
	}
}

// Close stops accepting events and waits for the queued ones to go out.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}

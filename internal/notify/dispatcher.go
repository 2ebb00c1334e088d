package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrDispatcherClosed = errors.New("dispatcher closed")

// Dispatcher sends messages on background workers so request handlers never
// wait on mail delivery. Enqueue does not block: when the queue is full the
// message is dropped and logged. Delivery failures are logged, never retried.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
	timeout  time.Duration

	queue chan Message
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts workers goroutines reading from a queue of size queueSize.
func NewDispatcher(n Notifier, logger *slog.Logger, queueSize, workers int, timeout time.Duration) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}

	d := &Dispatcher{
		notifier: n,
		logger:   logger,
		timeout:  timeout,
		queue:    make(chan Message, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Enqueue schedules msgs for delivery. It returns ErrDispatcherClosed after
// Close; otherwise it always succeeds, dropping what does not fit.
func (d *Dispatcher) Enqueue(msgs ...Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	for _, msg := range msgs {
		select {
		case d.queue <- msg:
		default:
			d.logger.Warn("notification queue full, dropping message", "to", msg.To, "subject", msg.Subject)
		}
	}
	return nil
}

// Close stops accepting messages and waits for queued ones to be sent or for
// ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.notifier.Send(ctx, msg); err != nil {
		d.logger.Error("notification failed", "to", msg.To, "subject", msg.Subject, "error", err)
	}
}

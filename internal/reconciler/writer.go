package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/vocabtrainer/backend/internal/models"
)

// writeJob is the payload of one save: a copy of the document and the identity it belongs to
type writeJob struct {
	identity models.Identity
	doc      models.ProgressDocument
}

// pendingWriter is a single-slot debounced write scheduler.
//
// Each schedule call replaces the pending job and restarts the delay. One goroutine drains
// the slot, so at most one write is in flight and at most one job is pending.
type pendingWriter struct {
	delay time.Duration
	write func(ctx context.Context, job writeJob) error

	mu         sync.Mutex
	pending    *writeJob
	timer      *time.Timer
	generation uint64
	closed     bool

	// writeMu serializes take-and-write so an older job never lands after a newer one
	writeMu sync.Mutex

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newPendingWriter(delay time.Duration, write func(ctx context.Context, job writeJob) error) *pendingWriter {
	w := &pendingWriter{
		delay: delay,
		write: write,
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go w.drain()
	return w
}

// schedule replaces the pending job and restarts the quiet period
func (w *pendingWriter) schedule(job writeJob) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending = &job
	w.generation++
	if w.timer != nil {
		w.timer.Stop()
	}
	gen := w.generation
	w.timer = time.AfterFunc(w.delay, func() {
		w.fire(gen)
	})
}

// fire wakes the drain goroutine unless a newer schedule restarted the timer
func (w *pendingWriter) fire(gen uint64) {
	w.mu.Lock()
	current := gen == w.generation
	w.mu.Unlock()
	if !current {
		return
	}
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// take empties the slot and stops the timer
func (w *pendingWriter) take() *writeJob {
	w.mu.Lock()
	defer w.mu.Unlock()
	job := w.pending
	w.pending = nil
	w.generation++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	return job
}

func (w *pendingWriter) drain() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-w.wake:
			w.writeMu.Lock()
			if job := w.take(); job != nil {
				// Errors are reported by the write function itself
				_ = w.write(context.Background(), *job)
			}
			w.writeMu.Unlock()
		}
	}
}

// flush writes the pending job now and waits for an in-flight write to finish
func (w *pendingWriter) flush(ctx context.Context) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	job := w.take()
	if job == nil {
		return nil
	}
	return w.write(ctx, *job)
}

// writeNow drops the pending job and writes the given one immediately
func (w *pendingWriter) writeNow(ctx context.Context, job writeJob) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.take()
	return w.write(ctx, job)
}

// exclusive drops the pending job and runs fn while no write can start
func (w *pendingWriter) exclusive(fn func()) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.take()
	fn()
}

// close flushes the pending job and stops the drain goroutine
func (w *pendingWriter) close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	err := w.flush(ctx)
	close(w.stop)
	select {
	case <-w.done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

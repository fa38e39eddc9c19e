package modem

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Worker owns a Modem and runs jobs against it one at a time. It is how
// several goroutines, such as HTTP handlers, share a Modem that is not safe
// for concurrent use.
type Worker struct {
	modem *Modem
	// jobs queues requests for the Loop to process, unbuffered
	jobs chan *job
	// stopped is closed when the Loop returns
	stopped chan struct{}
	running atomic.Bool
}

// job is a unit of work executed by the Loop.
type job struct {
	fn func(*Modem) error
	// done receives the result, buffered so the Loop never blocks on a
	// caller that stopped waiting
	done chan error
}

func NewWorker(m *Modem) *Worker {
	return &Worker{
		modem:   m,
		jobs:    make(chan *job),
		stopped: make(chan struct{}),
	}
}

// Loop runs submitted jobs until ctx is cancelled. It must be called
// exactly once, typically in its own goroutine:
//
//	w := modem.NewWorker(m)
//	go w.Loop(ctx)
//
//	err := w.Do(ctx, func(m *modem.Modem) error {
//		_, err := m.SendSMS("+491234567890", "hello")
//		return err
//	})
func (w *Worker) Loop(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer close(w.stopped)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-w.jobs:
			j.done <- j.fn(w.modem)
		}
	}
}

// Do queues fn and waits for its result. The context bounds the wait only:
// a job that has started runs to completion even if ctx is cancelled.
func (w *Worker) Do(ctx context.Context, fn func(*Modem) error) error {
	j := &job{fn: fn, done: make(chan error, 1)}

	select {
	case w.jobs <- j:
	case <-w.stopped:
		return ErrWorkerStopped
	case <-ctx.Done():
		return fmt.Errorf("job cancelled before start: %w", ctx.Err())
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("job timeout: %w", ctx.Err())
	}
}

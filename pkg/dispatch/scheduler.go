package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
)

// Scheduler runs each event in its own goroutine. Jobs share a root context
// that Shutdown cancels.
type Scheduler struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func NewScheduler(parent context.Context, jobTimeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{
		ctx:     ctx,
		cancel:  cancel,
		timeout: jobTimeout,
	}
}

// Go starts fn unless the scheduler was shut down. A panicking job is
// reported and otherwise ignored.
func (s *Scheduler) Go(name string, fn func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := s.ctx, context.CancelFunc(func() {})
		if s.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
		}
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				sentry.CurrentHub().Recover(r)
				log.Error().Str("job", name).Interface("panic", r).Msg("job panicked")
			}
		}()

		fn(ctx)
	}()
	return true
}

// Shutdown stops new jobs, cancels running ones and waits for them until
// ctx is done.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

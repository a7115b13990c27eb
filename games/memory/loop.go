/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"context"
	"runtime/debug"
	"time"
)

// DefaultSweepInterval bounds how far past its deadline a turn can run.
const DefaultSweepInterval = 250 * time.Millisecond

// minReapInterval keeps tiny idle timeouts from asking for a zero ticker.
const minReapInterval = 100 * time.Millisecond

// Loop serialises every engine call onto one goroutine: inbound events,
// settle callbacks, the timer sweep and the idle reaper.
type Loop struct {
	engine *Engine
	events chan func(*Engine)
	done   chan struct{}

	sweepInterval time.Duration
	idleTimeout   time.Duration
}

// NewLoop wraps e. Settle callbacks scheduled by e are routed back through
// the loop. An idleTimeout of zero disables the reaper.
func NewLoop(e *Engine, sweepInterval, idleTimeout time.Duration) *Loop {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	l := &Loop{
		engine:        e,
		events:        make(chan func(*Engine), 256),
		done:          make(chan struct{}),
		sweepInterval: sweepInterval,
		idleTimeout:   idleTimeout,
	}

	e.after = func(d time.Duration, fn func()) {
		time.AfterFunc(d, func() {
			_ = l.Do(func(*Engine) { fn() })
		})
	}

	return l
}

// Run processes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	sweep := time.NewTicker(l.sweepInterval)
	defer sweep.Stop()

	var reap <-chan time.Time
	if l.idleTimeout > 0 {
		t := time.NewTicker(l.reapInterval())
		defer t.Stop()
		reap = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case fn := <-l.events:
			l.safely(fn)

		case <-sweep.C:
			l.safely(func(e *Engine) { e.Sweep() })

		case <-reap:
			l.safely(func(e *Engine) { e.Reap(e.now().Add(-l.idleTimeout)) })
		}
	}
}

// reapInterval is how often idle rooms are looked for.
func (l *Loop) reapInterval() time.Duration {
	return max(l.idleTimeout/2, minReapInterval)
}

// Do queues fn to run on the loop. It blocks while the queue is full and
// fails once the loop has stopped.
func (l *Loop) Do(fn func(*Engine)) error {
	select {
	case <-l.done:
		return ErrEngineStopped
	default:
	}

	select {
	case l.events <- fn:
		return nil
	case <-l.done:
		return ErrEngineStopped
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func(*Engine)) error {
	finished := make(chan struct{})

	err := l.Do(func(e *Engine) {
		defer close(finished)
		fn(e)
	})
	if err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// safely keeps one bad event from taking the loop, and every other room,
// down with it.
func (l *Loop) safely(fn func(*Engine)) {
	defer func() {
		if v := recover(); v != nil {
			l.engine.logf("ERROR: Recovered from panic in event loop: %v\n%s", v, debug.Stack())
		}
	}()

	fn(l.engine)
}

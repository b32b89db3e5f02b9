// Package shutdown records the first reason the process has to stop and
// broadcasts it to every loop through a context.
package shutdown

import (
	"context"
	"sync"
)

const (
	ExitOK      = 0
	ExitFailure = 1
	// ExitUpdated asks the service manager to start the new version.
	ExitUpdated = 3
)

type Reason string

const (
	ReasonNone     Reason = ""
	ReasonSignal   Reason = "signal"
	ReasonRestart  Reason = "restart"
	ReasonShutdown Reason = "shutdown"
	ReasonUpdate   Reason = "update"
	ReasonFailure  Reason = "failure"
	ReasonOneShot  Reason = "one-shot"
)

type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	once   sync.Once
	mu     sync.Mutex
	reason Reason
	code   int
}

// New returns a coordinator whose context ends when Trigger is called or
// parent is cancelled. Cancellation of parent counts as ReasonSignal.
func New(parent context.Context) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{ctx: ctx, cancel: cancel}

	go func() {
		select {
		case <-parent.Done():
			c.Trigger(ReasonSignal, ExitOK)
		case <-ctx.Done():
		}
	}()

	return c
}

// Trigger starts the shutdown. Only the first call has any effect; it
// reports whether this call was the one that did.
func (c *Coordinator) Trigger(reason Reason, code int) bool {
	fired := false
	c.once.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.code = code
		c.mu.Unlock()

		c.cancel()
		fired = true
	})
	return fired
}

func (c *Coordinator) Context() context.Context { return c.ctx }
func (c *Coordinator) Done() <-chan struct{}    { return c.ctx.Done() }

func (c *Coordinator) Triggered() bool {
	return c.ctx.Err() != nil
}

func (c *Coordinator) Reason() Reason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// ExitCode is the process exit status for the recorded reason.
func (c *Coordinator) ExitCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

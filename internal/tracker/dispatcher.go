package tracker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"tickerboard/internal/logger"
)

// Dispatcher owns the single mutable state lineage. One goroutine
// consumes the inbox and applies actions strictly in issue order, so a
// transition never observes a partially applied predecessor. Readers
// get the latest fully settled snapshot from an atomic pointer and may
// hold it for as long as they like.
type Dispatcher struct {
	inbox  chan envelope
	stopCh chan struct{}
	wg     sync.WaitGroup

	state    *State
	snapshot atomic.Pointer[State]

	subMu       sync.Mutex
	subscribers []func(*State)
}

type envelope struct {
	action  Action
	replyCh chan struct{}
}

// NewDispatcher returns a dispatcher seeded with the empty state. Call
// Start before dispatching.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		inbox:  make(chan envelope, 256),
		stopCh: make(chan struct{}),
		state:  NewState(),
	}
	d.snapshot.Store(d.state)
	return d
}

// Start launches the event loop.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.runLoop()
}

// Stop shuts the loop down and waits for it to drain the in-flight
// action, if any. Dispatching after Stop returns an error.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

// Snapshot returns the latest settled state.
func (d *Dispatcher) Snapshot() *State {
	return d.snapshot.Load()
}

// Subscribe registers fn to run on the loop goroutine after every
// transition. Subscribers must return quickly; anything slow should
// hand off to its own goroutine.
func (d *Dispatcher) Subscribe(fn func(*State)) {
	if fn == nil {
		return
	}
	d.subMu.Lock()
	d.subscribers = append(d.subscribers, fn)
	d.subMu.Unlock()
}

// Dispatch queues an action without waiting for it to apply.
func (d *Dispatcher) Dispatch(a Action) error {
	select {
	case <-d.stopCh:
		return fmt.Errorf("dispatcher is stopped")
	default:
	}
	select {
	case d.inbox <- envelope{action: a}:
		return nil
	case <-d.stopCh:
		return fmt.Errorf("dispatcher is stopped")
	}
}

// DispatchSync queues an action and blocks until it has been applied,
// the context is done, or the dispatcher stops.
func (d *Dispatcher) DispatchSync(ctx context.Context, a Action) error {
	env := envelope{action: a, replyCh: make(chan struct{})}
	select {
	case d.inbox <- env:
	case <-d.stopCh:
		return fmt.Errorf("dispatcher is stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-env.replyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopCh:
		return fmt.Errorf("dispatcher stopped during sync dispatch")
	}
}

func (d *Dispatcher) runLoop() {
	defer d.wg.Done()
	for {
		select {
		case env := <-d.inbox:
			d.apply(env)
		case <-d.stopCh:
			return
		}
	}
}

func (d *Dispatcher) apply(env envelope) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("tracker: panic applying %T: %v", env.action, r)
		}
		if env.replyCh != nil {
			close(env.replyCh)
		}
	}()

	next := Apply(d.state, env.action)
	if next == d.state {
		return
	}
	d.state = next
	d.snapshot.Store(next)
	d.notify(next)
}

func (d *Dispatcher) notify(s *State) {
	d.subMu.Lock()
	subs := d.subscribers
	d.subMu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

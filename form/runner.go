package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrBusy is returned when a form is submitted while a previous submission
// is still being validated or submitted.
var ErrBusy = errors.New("form submission already in progress")

// State of a form submission.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) busy() bool {
	return s == Validating || s == Submitting
}

// Snapshot is the observable state of a Runner.
type Snapshot struct {
	State  State
	Result *Result
	Err    error
}

// Runner drives one form through validation and submission and lets
// observers follow along.
type Runner struct {
	mu          sync.Mutex
	current     Snapshot
	subscribers map[int]chan Snapshot
	nextID      int
}

func NewRunner() *Runner {
	return &Runner{subscribers: make(map[int]chan Snapshot)}
}

// Snapshot returns the current state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Runner) State() State {
	return r.Snapshot().State
}

// Subscribe returns a channel receiving every state change. Slow readers
// miss intermediate states but always see the latest one. The returned
// function unsubscribes and closes the channel.
func (r *Runner) Subscribe() (<-chan Snapshot, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	ch := make(chan Snapshot, 1)
	r.subscribers[id] = ch

	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			close(sub)
		}
	}
}

// set must be called with r.mu held.
func (r *Runner) set(s Snapshot) {
	r.current = s
	for _, ch := range r.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

/*
Run validates the form and, when it is valid, submits it.

An invalid form ends in Failed with a *ValidationError and submit is not
called. A failing submit ends in Failed with its error. Run may be called
again from any terminal state; calling it while a run is in flight returns
ErrBusy without changing the state.
*/
func (r *Runner) Run(ctx context.Context, validate func(context.Context) *Result, submit func(context.Context) error) error {
	r.mu.Lock()
	if r.current.State.busy() {
		r.mu.Unlock()
		return ErrBusy
	}
	r.set(Snapshot{State: Validating})
	r.mu.Unlock()

	result := validate(ctx)
	if err := result.Err(); err != nil {
		r.finish(Snapshot{State: Failed, Result: result, Err: err})
		return err
	}

	r.mu.Lock()
	r.set(Snapshot{State: Submitting, Result: result})
	r.mu.Unlock()

	if err := submit(ctx); err != nil {
		r.finish(Snapshot{State: Failed, Result: result, Err: err})
		return err
	}
	r.finish(Snapshot{State: Succeeded, Result: result})
	return nil
}

func (r *Runner) finish(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set(s)
}

// Reset returns an idle runner to Idle. It returns ErrBusy while a run is
// in flight.
func (r *Runner) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current.State.busy() {
		return ErrBusy
	}
	r.set(Snapshot{State: Idle})
	return nil
}

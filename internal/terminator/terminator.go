// Package terminator implements the asynchronous wall-clock killer
// described in §4.6 of the design: an agent that SIGKILLs the sandboxed
// child when its wall-clock budget elapses, coordinated with the
// parent controller's own reap of the same pid through a shared
// Handle.
//
// This replaces the original's polled `while (done == 0);` spin loop
// (see §9) with a channel close, while preserving the same three
// observable events: fire, complete, and cancel.
package terminator

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/aero31aero/crux-judge/internal/xlog"
)

// state models the small {armed, firedCleaning, firedDone, cancelled}
// state machine called for in §9, stored as an atomic int32 so both
// the parent and the terminator goroutine can observe it lock-free.
type state int32

const (
	stateArmed state = iota
	stateFiredCleaning
	stateFiredDone
	stateCancelled
)

// Handle is the shared control block between the parent controller and
// the terminator goroutine. It is allocated by Arm and the parent
// drops its reference once WaitDone returns.
type Handle struct {
	pid int
	log *xlog.Logger

	terminated int32 // set by the parent once it has reaped the child
	st         int32  // state, see the `state` constants

	done        chan struct{}
	doneOnce    sync.Once
	onFire      func() // invoked exactly once, iff the terminator actually fires
	cancelTimer func() bool
}

// Arm starts the terminator goroutine: it sleeps for wallClock and, if
// not cancelled first, SIGKILLs pid and invokes onFire (used by the
// caller to publish ExceededCause = WallClock). onFire is called at
// most once and only if the timer actually expires.
func Arm(pid int, wallClock time.Duration, log *xlog.Logger, onFire func()) *Handle {
	h := &Handle{
		pid:    pid,
		log:    log,
		done:   make(chan struct{}),
		onFire: onFire,
	}

	timer := time.NewTimer(wallClock)
	h.cancelTimer = timer.Stop

	go func() {
		select {
		case <-timer.C:
			h.fire()
		case <-h.done:
			// Cancelled before the timer expired; h.done was already
			// closed by Cancel, nothing left to do here.
		}
	}()

	return h
}

func (h *Handle) fire() {
	if !atomic.CompareAndSwapInt32(&h.st, int32(stateArmed), int32(stateFiredCleaning)) {
		// Already cancelled; nothing to do.
		return
	}
	if atomic.LoadInt32(&h.terminated) == 0 {
		if err := unix.Kill(h.pid, unix.SIGKILL); err != nil {
			h.log.Err("terminator: kill failed", err)
		}
		if h.onFire != nil {
			h.onFire()
		}
	}
	atomic.StoreInt32(&h.st, int32(stateFiredDone))
	h.doneOnce.Do(func() { close(h.done) })
}

// MarkTerminated records that the parent has already reaped the
// child via waitpid; the terminator must not signal a reused pid.
func (h *Handle) MarkTerminated() {
	atomic.StoreInt32(&h.terminated, 1)
}

// Fired reports whether the terminator has already fired at least
// once (state FiredCleaning or FiredDone).
func (h *Handle) Fired() bool {
	s := state(atomic.LoadInt32(&h.st))
	return s == stateFiredCleaning || s == stateFiredDone
}

// Cancel requests the terminator shut down without firing. If it has
// already fired, Cancel degenerates to waiting for completion, per
// §4.3 step 10 / §5.
func (h *Handle) Cancel() {
	if atomic.CompareAndSwapInt32(&h.st, int32(stateArmed), int32(stateCancelled)) {
		if h.cancelTimer != nil {
			h.cancelTimer()
		}
		h.doneOnce.Do(func() { close(h.done) })
		return
	}
	h.WaitDone()
}

// WaitDone blocks until the terminator has completed its cleanup
// (state FiredDone or Cancelled), replacing the original's busy loop
// on `done == 1`.
func (h *Handle) WaitDone() {
	<-h.done
}

// Package threading provides cross-platform thread synchronization
// primitives built directly on the kernelwait abstraction: a manual-reset
// Gate, a counting Semaphore, and a countdown Latch. All three expose an
// untimed wait, a timed wait against the monotonic clock, and release
// operations that stay correct under races between waiters and wakers.
//
// None of the three types are safe to destroy (let go out of scope) while a
// goroutine is still blocked in one of their wait methods; the caller must
// open the gate / post the semaphore / count the latch down and let every
// waiter return first.
package threading

import (
	"sync/atomic"
	"time"

	"github.com/nuclexgo/corelib/kernelwait"
)

const (
	gateClosed uint32 = 0
	gateOpen   uint32 = 1
)

// Gate lets goroutines through only while it is open; otherwise any number
// of waiters block until it opens. To .NET/Windows developers this is known
// as a ManualResetEvent.
type Gate struct {
	word uint32
}

// NewGate constructs a Gate, initially open or closed per initiallyOpen.
func NewGate(initiallyOpen bool) *Gate {
	g := &Gate{}
	if initiallyOpen {
		g.word = gateOpen
	}
	return g
}

// Open sets the gate to the open state and wakes every waiting goroutine.
// Idempotent.
func (g *Gate) Open() {
	atomic.StoreUint32(&g.word, gateOpen)
	kernelwait.WakeAll(&g.word)
}

// Close sets the gate to the closed state. Idempotent; does not interact
// with any waiter (a closed gate simply lets future Wait calls block).
func (g *Gate) Close() {
	atomic.StoreUint32(&g.word, gateClosed)
}

// Set opens or closes the gate depending on opened.
func (g *Gate) Set(opened bool) {
	if opened {
		g.Open()
	} else {
		g.Close()
	}
}

// Wait returns once the gate is observed open, blocking immediately if it
// is currently closed.
func (g *Gate) Wait() {
	for {
		if atomic.LoadUint32(&g.word) == gateOpen {
			return
		}
		kernelwait.Wait(&g.word, gateClosed)
	}
}

// WaitFor returns true once the gate is observed open before the deadline
// elapses, or false if deadline passes first. The deadline is computed once
// from time.Now(), which carries a monotonic reading immune to wall-clock
// adjustments.
func (g *Gate) WaitFor(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		if atomic.LoadUint32(&g.word) == gateOpen {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		if kernelwait.WaitUntil(&g.word, gateClosed, deadline) == kernelwait.TimedOut {
			return atomic.LoadUint32(&g.word) == gateOpen
		}
	}
}

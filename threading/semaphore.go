package threading

import (
	"sync/atomic"
	"time"

	"github.com/nuclexgo/corelib/kernelwait"
)

// Semaphore admits at most the posted number of concurrent goroutines past
// WaitThenDecrement. The admit counter may transiently dip below zero while
// goroutines race between reserving a ticket and a matching Post arriving;
// the primitive self-corrects on the next Post or Wait. Post never wakes
// more goroutines than it admits; Wait never returns without having
// observably decremented the counter or timed out.
type Semaphore struct {
	counter int64  // admit count; may run negative while waiters queue
	word    uint32 // 1 when non-contested (counter > 0), 0 when contested
}

// NewSemaphore constructs a Semaphore with the given initial admit count.
func NewSemaphore(initial int64) *Semaphore {
	s := &Semaphore{counter: initial}
	if initial > 0 {
		s.word = 1
	}
	return s
}

// Post increases the admit count by n (default 1, via Post(1)) and wakes up
// to n blocked waiters.
func (s *Semaphore) Post(n int64) {
	if n <= 0 {
		return
	}
	prior := atomic.AddInt64(&s.counter, n) - n
	if prior < 0 {
		toWake := n
		if -prior < toWake {
			toWake = -prior
		}
		kernelwait.WakeN(&s.word, int(toWake))
	}
	// Only the resulting count, not merely "someone was waiting", decides
	// the wait key: a partial Post that still leaves the count at or below
	// zero must not mark the semaphore non-contested, or a waiter that
	// hasn't been woken yet could slip past on the stale word instead of a
	// real ticket.
	if prior+n > 0 {
		atomic.StoreUint32(&s.word, 1)
	}
}

// WaitThenDecrement consumes one admit, blocking until one is available.
func (s *Semaphore) WaitThenDecrement() {
	prior := atomic.AddInt64(&s.counter, -1) + 1
	if prior > 0 {
		// A ticket was available lock-free.
		return
	}
	if prior == 0 {
		atomic.CompareAndSwapUint32(&s.word, 1, 0)
	}
	for {
		if kernelwait.Wait(&s.word, 0) == kernelwait.Awoken {
			// Post targeted us explicitly via WakeN: our reservation
			// above has been paid for, even if the semaphore is still
			// contested overall (word may still read 0 when Post only
			// partially covered the queue).
			return
		}
		// The word no longer reads 0: re-confirm rather than trust the
		// snapshot implicit in the wait call's return, since it may have
		// flipped back to contested by the time we look.
		if atomic.LoadUint32(&s.word) == 1 {
			return
		}
	}
}

// WaitForThenDecrement consumes one admit if one becomes available before d
// elapses, returning true on success. On timeout it returns false and does
// not consume a ticket: the counter is restored to its pre-call value.
func (s *Semaphore) WaitForThenDecrement(d time.Duration) bool {
	deadline := time.Now().Add(d)

	prior := atomic.AddInt64(&s.counter, -1) + 1
	if prior > 0 {
		return true
	}
	if prior == 0 {
		atomic.CompareAndSwapUint32(&s.word, 1, 0)
	}

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			s.undoReservation()
			return false
		}
		switch kernelwait.WaitUntil(&s.word, 0, deadline) {
		case kernelwait.TimedOut:
			s.undoReservation()
			return false
		case kernelwait.Awoken:
			return true
		}
		if atomic.LoadUint32(&s.word) == 1 {
			return true
		}
	}
}

// undoReservation reverses the speculative decrement made at the start of
// WaitForThenDecrement once its deadline has elapsed without a matching
// Post. It never opens the wait word itself: Post is the sole place that
// transitions the word to non-contested, and only once it observes the
// count strictly positive after its own add, so undoing a decrement back to
// exactly zero (still contested, per the count>0 invariant) must not do so
// either.
func (s *Semaphore) undoReservation() {
	atomic.AddInt64(&s.counter, 1)
}

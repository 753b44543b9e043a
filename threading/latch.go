package threading

import (
	"sync/atomic"
	"time"

	"github.com/nuclexgo/corelib/kernelwait"
)

// Latch is a countdown barrier: waiters pass once the counter has been
// counted down to zero. Post closes the latch again (raises the bar) if it
// moves the counter away from zero. The latch prefers false wake-ups over false
// blocks: on any race between a waiter re-closing the door and a CountDown
// opening it, the open wins.
type Latch struct {
	counter int64  // remaining count; never observed negative
	word    uint32 // 1 when counter == 0 (open), 0 otherwise (closed)
}

// NewLatch constructs a Latch with the given initial count.
func NewLatch(initial int64) *Latch {
	l := &Latch{counter: initial}
	if initial == 0 {
		l.word = 1
	}
	return l
}

// Post increases the countdown by n, closing the latch again if that moves
// the counter away from zero.
func (l *Latch) Post(n int64) {
	if n <= 0 {
		return
	}
	prior := atomic.AddInt64(&l.counter, n) - n
	if prior == 0 {
		atomic.StoreUint32(&l.word, 0)
		// A racing CountDown may have already brought the counter back to
		// zero by the time we close the door; prefer the spurious open
		// over leaving waiters spuriously blocked.
		if atomic.LoadInt64(&l.counter) == 0 {
			atomic.StoreUint32(&l.word, 1)
		}
	}
}

// CountDown decreases the countdown by n. When the counter reaches zero,
// every waiter is woken.
func (l *Latch) CountDown(n int64) {
	if n <= 0 {
		return
	}
	prior := atomic.AddInt64(&l.counter, -n) + n
	if prior < n {
		panic("threading: Latch counted down past zero")
	}
	if prior == n {
		atomic.StoreUint32(&l.word, 1)
		kernelwait.WakeAll(&l.word)
	}
}

// Wait blocks until the counter is observed as zero.
func (l *Latch) Wait() {
	for {
		if atomic.LoadInt64(&l.counter) == 0 {
			return
		}
		kernelwait.Wait(&l.word, 0)
		if atomic.LoadInt64(&l.counter) == 0 {
			return
		}
		if l.recloseUnlessOpen() {
			return
		}
	}
}

// WaitFor blocks until the counter is observed as zero or d elapses,
// returning whether the counter reached zero in time.
func (l *Latch) WaitFor(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		if atomic.LoadInt64(&l.counter) == 0 {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		if kernelwait.WaitUntil(&l.word, 0, deadline) == kernelwait.TimedOut {
			return atomic.LoadInt64(&l.counter) == 0
		}
		if atomic.LoadInt64(&l.counter) == 0 {
			return true
		}
		if l.recloseUnlessOpen() {
			return true
		}
	}
}

// recloseUnlessOpen closes the wait word after a spurious wake observed
// while the counter was still non-zero, applying the spurious-open
// correction: if the counter reached zero between the check and the close,
// it reopens the word and reports true (the caller should return) instead
// of looping once more.
func (l *Latch) recloseUnlessOpen() bool {
	atomic.StoreUint32(&l.word, 0)
	if atomic.LoadInt64(&l.counter) == 0 {
		atomic.StoreUint32(&l.word, 1)
		return true
	}
	return false
}

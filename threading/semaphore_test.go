package threading

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestSemaphoreFIFOCapacity is spec scenario 2: exactly as many waiters are
// admitted as have been posted, and no more.
func TestSemaphoreFIFOCapacity(t *testing.T) {
	s := NewSemaphore(0)

	var returned int32
	for i := 0; i < 3; i++ {
		go func() {
			s.WaitThenDecrement()
			atomic.AddInt32(&returned, 1)
		}()
	}

	time.Sleep(10 * time.Millisecond)
	s.Post(2)

	time.Sleep(25 * time.Millisecond)
	if got := atomic.LoadInt32(&returned); got != 2 {
		t.Fatalf("expected exactly 2 waiters admitted by Post(2), got %d", got)
	}

	s.Post(1)
	time.Sleep(25 * time.Millisecond)
	if got := atomic.LoadInt32(&returned); got != 3 {
		t.Fatalf("expected the third waiter admitted after Post(1), got %d", got)
	}
}

// TestSemaphoreTimeoutDoesNotConsumeTicket is (S3).
func TestSemaphoreTimeoutDoesNotConsumeTicket(t *testing.T) {
	s := NewSemaphore(0)

	ok := s.WaitForThenDecrement(15 * time.Millisecond)
	if ok {
		t.Fatal("expected timeout on an empty semaphore")
	}
	if got := atomic.LoadInt64(&s.counter); got != 0 {
		t.Fatalf("expected the timed-out wait to restore the counter to 0, got %d", got)
	}

	// A single Post(1) must now admit a new waiter.
	done := make(chan struct{})
	go func() {
		s.WaitThenDecrement()
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	s.Post(1)

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Post(1) after a timed-out wait should still admit a new waiter")
	}
}

func TestSemaphoreWaitForThenDecrementSucceeds(t *testing.T) {
	s := NewSemaphore(1)
	if !s.WaitForThenDecrement(10 * time.Millisecond) {
		t.Fatal("expected immediate success against a pre-posted semaphore")
	}
}

// TestSemaphoreConservesTickets is (S1): across any interleaving, the sum
// of posted tickets equals completed waits plus the final count.
func TestSemaphoreConservesTickets(t *testing.T) {
	s := NewSemaphore(0)

	const waiters = 50
	const posted = int64(waiters)

	var wg sync.WaitGroup
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			s.WaitThenDecrement()
		}()
	}

	var postWg sync.WaitGroup
	postWg.Add(int(posted))
	for i := int64(0); i < posted; i++ {
		go func() {
			defer postWg.Done()
			s.Post(1)
		}()
	}
	postWg.Wait()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all waiters were admitted by the posted tickets")
	}

	if got := atomic.LoadInt64(&s.counter); got != 0 {
		t.Fatalf("expected the counter to settle at 0, got %d", got)
	}
}

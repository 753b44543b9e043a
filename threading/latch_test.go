package threading

import (
	"sync"
	"testing"
	"time"
)

// TestLatchThreeDown is spec scenario 3.
func TestLatchThreeDown(t *testing.T) {
	l := NewLatch(3)

	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			l.Wait()
		}()
	}

	l.CountDown(1)
	l.CountDown(1)
	time.Sleep(25 * time.Millisecond) // both waiters should still be blocked

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("waiters returned before the counter reached zero")
	case <-time.After(10 * time.Millisecond):
	}

	l.CountDown(1)

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("waiters did not return once the counter reached zero")
	}
}

func TestLatchZeroInitialDoesNotBlock(t *testing.T) {
	l := NewLatch(0)
	if !l.WaitFor(0) {
		t.Fatal("a latch constructed with count zero should never block")
	}
}

// TestLatchPostReopens is (L2): a Post during countdown recloses the latch
// only when it transitions the counter from zero to non-zero.
func TestLatchPostReopens(t *testing.T) {
	l := NewLatch(1)
	l.CountDown(1)
	if !l.WaitFor(0) {
		t.Fatal("latch should be open once its sole count reaches zero")
	}

	l.Post(1)
	if l.WaitFor(10 * time.Millisecond) {
		t.Fatal("Post after the counter reached zero should reclose the latch")
	}

	l.CountDown(1)
	if !l.WaitFor(0) {
		t.Fatal("latch should reopen once the reposted count is counted back down")
	}
}

func TestLatchWaitForTimesOut(t *testing.T) {
	l := NewLatch(1)
	start := time.Now()
	ok := l.WaitFor(20 * time.Millisecond)
	elapsed := time.Since(start)

	if ok {
		t.Fatal("expected timeout on a latch that never reaches zero")
	}
	if elapsed < 20*time.Millisecond {
		t.Fatalf("WaitFor returned too early: %v", elapsed)
	}
}

func TestLatchCountDownPastZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected CountDown to panic when decrementing past zero")
		}
	}()
	l := NewLatch(1)
	l.CountDown(2)
}

//go:build !linux && !windows

package kernelwait

import (
	"hash/maphash"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"
)

// This backend emulates futex-style waiting with a mutex+condition-variable
// bucket table, the way twmb/dash's experimental/futex package does:
// waiters register themselves in a bucket keyed off the word's address
// before checking whether the expected value still holds, so that a Wake
// racing the registration is never missed. The bucket lock is held only
// long enough to splice the waiter in or out of its list; the actual block
// happens on a per-waiter sync.Cond, so unrelated words never contend with
// each other beyond the (small) chance of a bucket collision.
const numBuckets = 4096

var bucketSeed = maphash.MakeSeed()

type waitNode struct {
	next, prev *waitNode
	addr       uintptr
	signalled  bool
	mtx        sync.Mutex
	cond       *sync.Cond
}

type bucket struct {
	mtx   sync.Mutex
	ring  *waitNode // sentinel; ring.next/.prev form the circular list
}

var buckets [numBuckets]*bucket

func init() {
	for i := range buckets {
		sentinel := &waitNode{}
		sentinel.next = sentinel
		sentinel.prev = sentinel
		buckets[i] = &bucket{ring: sentinel}
	}
}

func bucketFor(addr uintptr) *bucket {
	var h maphash.Hash
	h.SetSeed(bucketSeed)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(addr >> (8 * i))
	}
	h.Write(buf[:])
	return buckets[h.Sum64()%numBuckets]
}

func waitUntil(word *uint32, expected uint32, deadline *time.Time) Result {
	addr := uintptr(unsafe.Pointer(word))
	b := bucketFor(addr)

	node := &waitNode{addr: addr}
	node.cond = sync.NewCond(&node.mtx)

	// Lock the bucket before checking the word: either we observe the new
	// value and never enqueue, or we miss the change but are already
	// registered to receive the corresponding Wake.
	b.mtx.Lock()
	if atomic.LoadUint32(word) != expected {
		b.mtx.Unlock()
		return ValueChanged
	}
	node.prev = b.ring.prev
	b.ring.prev.next = node
	b.ring.prev = node
	node.next = b.ring
	b.mtx.Unlock()

	node.mtx.Lock()
	if deadline == nil {
		for !node.signalled {
			node.cond.Wait()
		}
		node.mtx.Unlock()
		return Awoken
	}

	result := Awoken
	for !node.signalled {
		remaining := time.Until(*deadline)
		if remaining <= 0 {
			result = TimedOut
			break
		}
		timedWait(node, remaining)
	}
	woke := node.signalled
	node.mtx.Unlock()

	if !woke {
		unlinkIfPresent(b, node)
		return TimedOut
	}
	return result
}

// timedWait waits on node.cond for at most d, using a helper goroutine to
// translate the condition variable's unbounded Wait into a bounded one;
// sync.Cond has no native timeout support.
func timedWait(node *waitNode, d time.Duration) {
	timer := time.AfterFunc(d, func() {
		node.mtx.Lock()
		node.cond.Broadcast()
		node.mtx.Unlock()
	})
	defer timer.Stop()
	node.cond.Wait()
}

func unlinkIfPresent(b *bucket, node *waitNode) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if node.next == nil && node.prev == nil {
		return
	}
	node.prev.next = node.next
	node.next.prev = node.prev
	node.next, node.prev = nil, nil
}

func wake(word *uint32, count int) {
	addr := uintptr(unsafe.Pointer(word))
	b := bucketFor(addr)

	b.mtx.Lock()
	var woken []*waitNode
	for iter := b.ring.next; iter != b.ring; {
		next := iter.next
		if iter.addr == addr {
			iter.prev.next = iter.next
			iter.next.prev = iter.prev
			iter.next, iter.prev = nil, nil
			woken = append(woken, iter)
			if count > 0 && len(woken) >= count {
				break
			}
		}
		iter = next
	}
	b.mtx.Unlock()

	for _, node := range woken {
		node.mtx.Lock()
		node.signalled = true
		node.cond.Signal()
		node.mtx.Unlock()
	}
}

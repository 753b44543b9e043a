//go:build linux

package kernelwait

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// waitUntil blocks on word using the Linux futex(2) syscall directly, with
// the FUTEX_PRIVATE_FLAG hint (the word is never shared across processes,
// matching spec's explicit non-goal of inter-process primitives).
func waitUntil(word *uint32, expected uint32, deadline *time.Time) Result {
	for {
		var ts *unix.Timespec
		if deadline != nil {
			remaining := time.Until(*deadline)
			if remaining <= 0 {
				return TimedOut
			}
			spec := unix.NsecToTimespec(remaining.Nanoseconds())
			ts = &spec
		}

		_, _, errno := unix.Syscall6(
			unix.SYS_FUTEX,
			uintptr(unsafe.Pointer(word)),
			uintptr(unix.FUTEX_WAIT|unix.FUTEX_PRIVATE_FLAG),
			uintptr(expected),
			uintptr(unsafe.Pointer(ts)),
			0, 0,
		)

		switch errno {
		case 0:
			return Awoken
		case unix.EAGAIN:
			// The word had already changed by the time the kernel looked;
			// equivalent to a value-changed result.
			return ValueChanged
		case unix.EINTR:
			// Retry: the wait was interrupted by a signal before the word
			// changed or the deadline elapsed.
			continue
		case unix.ETIMEDOUT:
			return TimedOut
		default:
			// An unexpected errno from FUTEX_WAIT is a system error per
			// spec; this indicates a programming error in the wait-word
			// protocol (e.g. passing a misaligned address), not a
			// recoverable runtime condition.
			panic("kernelwait: unexpected futex errno: " + errno.Error())
		}
	}
}

// wake issues FUTEX_WAKE for up to count waiters (count < 0 means "all").
func wake(word *uint32, count int) {
	n := uint32(count)
	if count < 0 {
		n = ^uint32(0) >> 1 // INT_MAX worth of waiters; effectively "all"
	}
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(word)),
		uintptr(unix.FUTEX_WAKE|unix.FUTEX_PRIVATE_FLAG),
		uintptr(n),
		0, 0, 0,
	)
	if errno != 0 && errno != unix.EAGAIN {
		panic("kernelwait: unexpected futex wake errno: " + errno.Error())
	}
}

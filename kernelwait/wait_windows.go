//go:build windows

package kernelwait

import (
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32           = windows.NewLazySystemDLL("kernel32.dll")
	procWaitOnAddress     = modkernel32.NewProc("WaitOnAddress")
	procWakeByAddressAll  = modkernel32.NewProc("WakeByAddressAll")
	procWakeByAddressOne  = modkernel32.NewProc("WakeByAddressSingle")
)

// waitUntil blocks on word using the WaitOnAddress/WakeByAddress* family
// introduced in Windows 8. The expected value is compared byte-for-byte by
// the kernel against the live value at word, exactly like the Linux futex
// path, so the calling convention mirrors it: pass both addresses plus the
// comparand size (4 bytes, since word is a uint32).
func waitUntil(word *uint32, expected uint32, deadline *time.Time) Result {
	comparand := expected
	for {
		timeoutMs := uint32(0xFFFFFFFF) // INFINITE
		if deadline != nil {
			remaining := time.Until(*deadline)
			if remaining <= 0 {
				return TimedOut
			}
			ms := remaining.Milliseconds()
			if ms > 0xFFFFFFFE {
				ms = 0xFFFFFFFE
			}
			timeoutMs = uint32(ms)
		}

		ret, _, errno := procWaitOnAddress.Call(
			uintptr(unsafe.Pointer(word)),
			uintptr(unsafe.Pointer(&comparand)),
			uintptr(unsafe.Sizeof(comparand)),
			uintptr(timeoutMs),
		)
		if ret != 0 {
			return Awoken
		}
		if errno == windows.ERROR_TIMEOUT {
			if deadline != nil {
				return TimedOut
			}
			// No deadline was given but the call still reports a timeout
			// spuriously; treat it as a spurious wake and let the caller
			// re-check its condition.
			return Awoken
		}
		// Any other failure (e.g. ERROR_INVALID_PARAMETER from a bad
		// address) is a system error; WaitOnAddress does not fail for
		// benign reasons once arguments are validated once.
		panic("kernelwait: WaitOnAddress failed: " + errno.Error())
	}
}

// wake wakes up to count waiters (count < 0 means "all"). WakeByAddressSingle
// is issued once per requested waiter so WakeN never wakes more than asked.
func wake(word *uint32, count int) {
	if count < 0 {
		procWakeByAddressAll.Call(uintptr(unsafe.Pointer(word)))
		return
	}
	for i := 0; i < count; i++ {
		procWakeByAddressOne.Call(uintptr(unsafe.Pointer(word)))
	}
}

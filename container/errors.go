package container

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds, checkable with errors.Is. Each is wrapped with
// contextual detail before it reaches the caller of Get/TryGet/GetAll.
var (
	// ErrUnresolvedDependency is returned when a requested service has no
	// registered binding reachable from the calling provider/scope.
	ErrUnresolvedDependency = errors.New("corelib/container: unresolved dependency")
	// ErrCyclicDependency is returned when a service's factory transitively
	// requests its own service type.
	ErrCyclicDependency = errors.New("corelib/container: cyclic dependency")
	// ErrScopeMisuse is returned when a scoped service is requested from
	// the root provider, or CreateScope is called from inside a factory.
	ErrScopeMisuse = errors.New("corelib/container: scope misuse")
)

func errUnresolved(tag ServiceTag) error {
	return fmt.Errorf("%w: %s", ErrUnresolvedDependency, tag)
}

func errCyclic(stack []ServiceTag, tag ServiceTag) error {
	names := make([]string, 0, len(stack)+1)
	for _, t := range stack {
		names = append(names, t.String())
	}
	names = append(names, tag.String())
	return fmt.Errorf("%w: %s", ErrCyclicDependency, strings.Join(names, " -> "))
}

func errScopedAtRoot(tag ServiceTag) error {
	return fmt.Errorf("%w: %s is registered scoped but was requested from the root provider", ErrScopeMisuse, tag)
}

func errCreateScopeDuringActivation() error {
	return fmt.Errorf("%w: CreateScope cannot be called from inside a factory; no scope created during activation could outlive it", ErrScopeMisuse)
}

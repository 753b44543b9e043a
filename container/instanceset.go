package container

import (
	"sync"
	"sync/atomic"
)

// instanceSet is one lifetime partition's lazily-activated instance slab:
// a presence flag and a storage slot per binding, plus a change mutex that
// serializes the false-to-true transition of those flags. It corresponds
// to spec.md's InstanceSet.
//
// Two parallel slices are used rather than the original single contiguous
// allocation with manually computed alignment padding (see DESIGN.md): that
// layout is a systems-language micro-optimization with no analogue worth
// reproducing in Go, where a slice of atomic.Bool and a slice of any are
// already about as compact and are far clearer.
type instanceSet struct {
	bindingSet *ServiceCollection
	partition  Lifetime

	changeMu sync.Mutex
	presence []atomic.Bool
	slots    []any
}

func newInstanceSet(bindingSet *ServiceCollection, partition Lifetime) *instanceSet {
	n := bindingSet.partitionLen(partition)
	return &instanceSet{
		bindingSet: bindingSet,
		partition:  partition,
		presence:   make([]atomic.Bool, n),
		slots:      make([]any, n),
	}
}

// tryFetchOrActivate resolves the most recently registered binding for tag
// in this partition. found is false iff no binding for tag exists here at
// all; err is only meaningful when found is true, and is non-nil iff first
// activation's factory/clone returned an error (in which case the presence
// flag is left false, so a later retry can still succeed).
//
// Activation follows the double-checked locking protocol from spec.md
// §4.6: the fast path only ever takes an atomic load; the change mutex is
// entered solely on first activation of a given binding.
func (is *instanceSet) tryFetchOrActivate(tag ServiceTag, ctx *ResolutionContext) (instance any, found bool, err error) {
	b := is.bindingSet.lookupLast(tag, is.partition)
	if b == nil {
		return nil, false, nil
	}
	instance, err = is.activate(b, ctx)
	return instance, true, err
}

// activateAll activates (or fetches) every binding for tag in this
// partition, in registration order.
func (is *instanceSet) activateAll(tag ServiceTag, ctx *ResolutionContext) ([]any, error) {
	bindings := is.bindingSet.lookupAll(tag, is.partition)
	out := make([]any, 0, len(bindings))
	for _, b := range bindings {
		instance, err := is.activate(b, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, instance)
	}
	return out, nil
}

func (is *instanceSet) activate(b *binding, ctx *ResolutionContext) (any, error) {
	if is.presence[b.index].Load() {
		return is.slots[b.index], nil
	}

	// If this resolution chain already holds is's change mutex (an
	// ancestor factory call in the same chain is activating a dependency
	// that lands in this same instanceSet), do not lock again: changeMu is
	// a plain sync.Mutex, not reentrant, and re-locking it here would
	// deadlock against ourselves. The ancestor's held lock already
	// serializes this activation.
	if !ctx.holdsActivationMutex(is) {
		release := ctx.enterActivationMutex(is)
		defer release()
	}

	if is.presence[b.index].Load() {
		return is.slots[b.index], nil
	}

	instance, err := b.activate(ctx)
	if err != nil {
		return nil, err
	}

	is.slots[b.index] = instance
	is.presence[b.index].Store(true)
	return instance, nil
}

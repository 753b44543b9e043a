package container

import (
	"github.com/google/uuid"

	"github.com/nuclexgo/corelib/internal/diag"
)

// resolverCore is the resolution logic shared by ServiceProvider and
// ServiceScope. scoped is nil for the root provider; the presence of a
// scoped instanceSet is exactly what distinguishes "am I a scope" for
// dispatch purposes.
type resolverCore struct {
	bindingSet *ServiceCollection
	singleton  *instanceSet
	scoped     *instanceSet
	logger     *diag.Logger
}

func newResolutionContext(core *resolverCore) *ResolutionContext {
	return &ResolutionContext{core: core, callID: uuid.New()}
}

// resolve dispatches a single-service lookup per spec.md §4.8: scoped
// partition first (if this core has one), then singleton, then transient;
// a tag bound only in the scoped partition but requested from a core with
// no scoped instanceSet fails with scope-misuse.
func (c *resolverCore) resolve(ctx *ResolutionContext, tag ServiceTag) (any, error) {
	if err := ctx.push(tag); err != nil {
		return nil, err
	}
	defer ctx.pop()

	if c.scoped != nil {
		if instance, found, err := c.scoped.tryFetchOrActivate(tag, ctx); found {
			if err != nil {
				c.logger.Error("scoped activation failed", diag.Fields{"tag": tag, "error": err})
			}
			return instance, err
		}
	}
	if instance, found, err := c.singleton.tryFetchOrActivate(tag, ctx); found {
		if err != nil {
			c.logger.Error("singleton activation failed", diag.Fields{"tag": tag, "error": err})
		} else {
			c.logger.Debug("singleton resolved", diag.Fields{"tag": tag})
		}
		return instance, err
	}
	if b := c.bindingSet.lookupLast(tag, Transient); b != nil {
		return b.activate(ctx)
	}

	if c.scoped == nil && c.bindingSet.lookupLast(tag, Scoped) != nil {
		return nil, errScopedAtRoot(tag)
	}
	return nil, errUnresolved(tag)
}

// resolveAll gathers every matching binding across the reachable
// partitions (scoped, then singleton, then transient), in that order.
func (c *resolverCore) resolveAll(ctx *ResolutionContext, tag ServiceTag) ([]any, error) {
	if err := ctx.push(tag); err != nil {
		return nil, err
	}
	defer ctx.pop()

	var out []any

	if c.scoped != nil {
		vs, err := c.scoped.activateAll(tag, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}

	vs, err := c.singleton.activateAll(tag, ctx)
	if err != nil {
		return nil, err
	}
	out = append(out, vs...)

	for _, b := range c.bindingSet.lookupAll(tag, Transient) {
		instance, err := b.activate(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, instance)
	}

	return out, nil
}

// canResolve reports whether tag would be resolvable by resolve, without
// activating anything. Used by GetFactory to fail eagerly rather than
// defer an unresolved-dependency error to the factory's first invocation.
func (c *resolverCore) canResolve(tag ServiceTag) error {
	if c.scoped != nil && c.bindingSet.lookupLast(tag, Scoped) != nil {
		return nil
	}
	if c.bindingSet.lookupLast(tag, Singleton) != nil {
		return nil
	}
	if c.bindingSet.lookupLast(tag, Transient) != nil {
		return nil
	}
	if c.scoped == nil && c.bindingSet.lookupLast(tag, Scoped) != nil {
		return errScopedAtRoot(tag)
	}
	return errUnresolved(tag)
}

// ResolutionContext is the per-call state threaded through one resolution
// chain: the resolution stack used for cycle detection, and the instance
// sets in play. It is handed to every factory, which may use it exactly
// like a ServiceProvider to request its own dependencies via the
// package-level Get/TryGet/GetAll/GetFactory functions. It is stack-
// resident and must never be retained past the call that produced it.
type ResolutionContext struct {
	core   *resolverCore
	stack  []ServiceTag
	callID uuid.UUID

	// heldActivationMutexes records which instanceSets this context has
	// already entered the change mutex of, further up its own call stack.
	// spec.md §3 describes this as "a boolean flag recording whether the
	// context has already acquired the activation mutex"; it is tracked
	// per instanceSet rather than as a single bool because one resolution
	// chain can legitimately hold two distinct change mutexes at once (a
	// scoped activation whose factory requests a singleton dependency, or
	// vice versa) and only re-entry into the *same* instanceSet's mutex
	// must be suppressed. Without this, a singleton (or scoped) factory
	// that requests another singleton (or scoped) dependency would have
	// its nested instanceSet.activate call try to lock the same
	// non-reentrant sync.Mutex its caller already holds, and deadlock.
	heldActivationMutexes map[*instanceSet]bool
}

// holdsActivationMutex reports whether this context's own call stack has
// already entered is's change mutex, per the note above.
func (ctx *ResolutionContext) holdsActivationMutex(is *instanceSet) bool {
	return ctx.heldActivationMutexes[is]
}

// enterActivationMutex locks is's change mutex and records that this
// context now holds it, returning a function that unlocks and clears the
// record. Callers that already hold it (per holdsActivationMutex) must not
// call this; they proceed without locking instead.
func (ctx *ResolutionContext) enterActivationMutex(is *instanceSet) func() {
	is.changeMu.Lock()
	if ctx.heldActivationMutexes == nil {
		ctx.heldActivationMutexes = make(map[*instanceSet]bool, 2)
	}
	ctx.heldActivationMutexes[is] = true
	return func() {
		delete(ctx.heldActivationMutexes, is)
		is.changeMu.Unlock()
	}
}

func (ctx *ResolutionContext) push(tag ServiceTag) error {
	for _, t := range ctx.stack {
		if t == tag {
			return errCyclic(ctx.stack, tag)
		}
	}
	ctx.stack = append(ctx.stack, tag)
	return nil
}

func (ctx *ResolutionContext) pop() {
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
}

// CreateScope always fails: no scope created during a factory call could
// outlive the call, so ResolutionContext never permits it.
func (ctx *ResolutionContext) CreateScope() (*ServiceScope, error) {
	return nil, errCreateScopeDuringActivation()
}

func (ctx *ResolutionContext) coreRef() *resolverCore { return ctx.core }

func (ctx *ResolutionContext) resolveOne(tag ServiceTag) (any, error) {
	return ctx.core.resolve(ctx, tag)
}

func (ctx *ResolutionContext) resolveAllTag(tag ServiceTag) ([]any, error) {
	return ctx.core.resolveAll(ctx, tag)
}

package container

import "github.com/google/uuid"

// ServiceProvider is the root of a resolved ServiceCollection: it owns the
// singleton partition's instanceSet and resolves singleton/transient
// services directly. Scoped services are unreachable from the root and
// fail with ErrScopeMisuse; create a ServiceScope to reach them.
type ServiceProvider struct {
	core resolverCore
}

func (p *ServiceProvider) resolveOne(tag ServiceTag) (any, error) {
	ctx := newResolutionContext(&p.core)
	return p.core.resolve(ctx, tag)
}

func (p *ServiceProvider) resolveAllTag(tag ServiceTag) ([]any, error) {
	ctx := newResolutionContext(&p.core)
	return p.core.resolveAll(ctx, tag)
}

func (p *ServiceProvider) coreRef() *resolverCore { return &p.core }

// CreateScope returns a new ServiceScope sharing this provider's singleton
// instances and bindings, with its own scoped instanceSet.
func (p *ServiceProvider) CreateScope() *ServiceScope {
	return &ServiceScope{
		core: resolverCore{
			bindingSet: p.core.bindingSet,
			singleton:  p.core.singleton,
			scoped:     newInstanceSet(p.core.bindingSet, Scoped),
			logger:     p.core.logger,
		},
		id: uuid.New(),
	}
}

// Resolver is satisfied by ServiceProvider, ServiceScope, and
// ResolutionContext: anywhere a service may be requested from. It is
// deliberately unexported-method-only so no type outside this package can
// implement it; factories receive a *ResolutionContext and nothing else.
type Resolver interface {
	coreRef() *resolverCore
	resolveOne(tag ServiceTag) (any, error)
	resolveAllTag(tag ServiceTag) ([]any, error)
}

var (
	_ Resolver = (*ServiceProvider)(nil)
	_ Resolver = (*ServiceScope)(nil)
	_ Resolver = (*ResolutionContext)(nil)
)

// Get resolves the single most-recently-registered binding for T, failing
// with ErrUnresolvedDependency, ErrCyclicDependency, or ErrScopeMisuse.
func Get[T any](r Resolver) (T, error) {
	var zero T
	v, err := r.resolveOne(tagFor[T]())
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// TryGet resolves T the way Get does, but reports failure as ok=false
// instead of returning an error — useful for optional dependencies.
func TryGet[T any](r Resolver) (T, bool) {
	v, err := Get[T](r)
	if err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// GetAll resolves every binding registered for T, across every lifetime
// partition reachable from r, in registration order.
func GetAll[T any](r Resolver) ([]T, error) {
	vs, err := r.resolveAllTag(tagFor[T]())
	if err != nil {
		return nil, err
	}
	out := make([]T, len(vs))
	for i, v := range vs {
		out[i] = v.(T)
	}
	return out, nil
}

// GetFactory returns a closure that produces a fresh resolution of T on
// each call, rooted at r's underlying provider/scope rather than at
// whatever ResolutionContext r happened to be — the closure may safely
// outlive the call that obtained it. It fails immediately, before
// returning a closure, if T has no binding reachable from r at all.
func GetFactory[T any](r Resolver) (func() (T, error), error) {
	tag := tagFor[T]()
	core := r.coreRef()
	if err := core.canResolve(tag); err != nil {
		return nil, err
	}
	return func() (T, error) {
		var zero T
		ctx := newResolutionContext(core)
		v, err := core.resolve(ctx, tag)
		if err != nil {
			return zero, err
		}
		return v.(T), nil
	}, nil
}

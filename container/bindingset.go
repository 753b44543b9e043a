// Package container implements dependency injection with three service
// lifetimes (singleton, scoped, transient), cyclic-dependency detection,
// and thread-safe singleton/scoped activation. Usage follows
// spec.md's control flow: register bindings on a ServiceCollection,
// call Build to obtain a ServiceProvider, then resolve services with the
// package-level Get/TryGet/GetAll/GetFactory functions.
package container

import (
	"sync"

	"github.com/nuclexgo/corelib/internal/diag"
)

// ServiceCollection is the registry of bindings a caller populates before
// calling Build. It partitions bindings by lifetime into three ordered
// lists, searched by ServiceTag: registering a tag under one lifetime removes every
// prior binding for that tag from the other two partitions, so a tag's
// lifetime is always unambiguous once Build is called.
//
// A ServiceCollection is only ever mutated before Build; afterwards it is
// immutable and safely shared read-only by the ServiceProvider and every
// ServiceScope derived from it.
type ServiceCollection struct {
	mu         sync.Mutex
	partitions [3][]*binding // indexed by Lifetime
	built      bool
}

// NewServiceCollection returns an empty ServiceCollection ready for
// registration.
func NewServiceCollection() *ServiceCollection {
	return &ServiceCollection{}
}

func (sc *ServiceCollection) add(b *binding) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.built {
		panic("container: cannot register bindings on a ServiceCollection after Build")
	}

	// Registering under one lifetime strips the tag from the other two
	// partitions: only the most recent lifetime wins per tag.
	for lt := Lifetime(0); lt < 3; lt++ {
		if lt == b.lifetime {
			continue
		}
		sc.partitions[lt] = removeTag(sc.partitions[lt], b.tag)
	}
	sc.partitions[b.lifetime] = append(sc.partitions[b.lifetime], b)
}

func removeTag(bindings []*binding, tag ServiceTag) []*binding {
	out := bindings[:0]
	for _, b := range bindings {
		if b.tag != tag {
			out = append(out, b)
		}
	}
	return out
}

// AddSingleton registers a factory-backed singleton binding for T.
func AddSingleton[T any](sc *ServiceCollection, factory func(*ResolutionContext) (T, error)) {
	sc.add(newFactoryBinding(Singleton, factory))
}

// AddScoped registers a factory-backed scoped binding for T.
func AddScoped[T any](sc *ServiceCollection, factory func(*ResolutionContext) (T, error)) {
	sc.add(newFactoryBinding(Scoped, factory))
}

// AddTransient registers a factory-backed transient binding for T.
func AddTransient[T any](sc *ServiceCollection, factory func(*ResolutionContext) (T, error)) {
	sc.add(newFactoryBinding(Transient, factory))
}

// AddSingletonInstance registers a singleton binding for T that materializes
// by cloning prototype via clone, instead of invoking a factory.
func AddSingletonInstance[T any](sc *ServiceCollection, prototype T, clone func(T) T) {
	sc.add(newPrototypeBinding(Singleton, prototype, clone))
}

// AddScopedInstance registers a scoped binding for T that materializes by
// cloning prototype via clone.
func AddScopedInstance[T any](sc *ServiceCollection, prototype T, clone func(T) T) {
	sc.add(newPrototypeBinding(Scoped, prototype, clone))
}

// AddTransientInstance registers a transient binding for T that materializes
// by cloning prototype via clone on every resolution.
func AddTransientInstance[T any](sc *ServiceCollection, prototype T, clone func(T) T) {
	sc.add(newPrototypeBinding(Transient, prototype, clone))
}

func newFactoryBinding[T any](lt Lifetime, factory func(*ResolutionContext) (T, error)) *binding {
	return &binding{
		tag:      tagFor[T](),
		lifetime: lt,
		factory: func(ctx *ResolutionContext) (any, error) {
			return factory(ctx)
		},
	}
}

func newPrototypeBinding[T any](lt Lifetime, prototype T, clone func(T) T) *binding {
	return &binding{
		tag:          tagFor[T](),
		lifetime:     lt,
		hasPrototype: true,
		prototype:    prototype,
		clone: func(p any) any {
			return clone(p.(T))
		},
	}
}

// RemoveAll erases tag from every lifetime partition and returns the number
// of bindings removed.
func (sc *ServiceCollection) RemoveAll(tag ServiceTag) int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.built {
		panic("container: cannot remove bindings from a ServiceCollection after Build")
	}

	removed := 0
	for lt := Lifetime(0); lt < 3; lt++ {
		before := len(sc.partitions[lt])
		sc.partitions[lt] = removeTag(sc.partitions[lt], tag)
		removed += before - len(sc.partitions[lt])
	}
	return removed
}

// lookupLast finds the most recently registered binding for tag in the
// given partition, used for single-service resolution.
func (sc *ServiceCollection) lookupLast(tag ServiceTag, lt Lifetime) *binding {
	bindings := sc.partitions[lt]
	for i := len(bindings) - 1; i >= 0; i-- {
		if bindings[i].tag == tag {
			return bindings[i]
		}
	}
	return nil
}

// lookupAll enumerates every binding for tag in the given partition, in
// registration order, used for get-all queries.
func (sc *ServiceCollection) lookupAll(tag ServiceTag, lt Lifetime) []*binding {
	var out []*binding
	for _, b := range sc.partitions[lt] {
		if b.tag == tag {
			out = append(out, b)
		}
	}
	return out
}

// BuildOption configures a ServiceProvider at Build time.
type BuildOption func(*buildConfig)

type buildConfig struct {
	logger *diag.Logger
}

// WithLogger attaches a diagnostic logger to the ServiceProvider built from
// this ServiceCollection. Without it, the container logs nothing.
func WithLogger(logger *diag.Logger) BuildOption {
	return func(cfg *buildConfig) { cfg.logger = logger }
}

// Build assigns dense per-partition indices to every registered binding,
// freezes the ServiceCollection against further registration, and returns
// the root ServiceProvider.
func (sc *ServiceCollection) Build(opts ...BuildOption) *ServiceProvider {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.built {
		panic("container: ServiceCollection.Build called more than once")
	}
	sc.built = true

	for lt := Lifetime(0); lt < 3; lt++ {
		for i, b := range sc.partitions[lt] {
			b.index = i
		}
	}

	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	p := &ServiceProvider{
		core: resolverCore{
			bindingSet: sc,
			singleton:  newInstanceSet(sc, Singleton),
			logger:     cfg.logger,
		},
	}
	return p
}

func (sc *ServiceCollection) partitionLen(lt Lifetime) int {
	return len(sc.partitions[lt])
}

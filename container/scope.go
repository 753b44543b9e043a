package container

import "github.com/google/uuid"

// ServiceScope layers a scoped instanceSet over its parent's singleton
// partition and bindings. Resolution through a scope checks scoped, then
// singleton, then transient, in that order — the same dispatch a
// ServiceProvider uses, minus the scope-misuse failure mode, since a scope
// always has somewhere to look for a scoped binding.
//
// Closing a scope does not tear down or finalize the instances it
// activated; it only discards the scope's instanceSet, matching
// spec.md's description of scope lifetime as "caller-managed, no
// implicit disposal".
type ServiceScope struct {
	core resolverCore
	id   uuid.UUID
}

func (s *ServiceScope) resolveOne(tag ServiceTag) (any, error) {
	ctx := newResolutionContext(&s.core)
	return s.core.resolve(ctx, tag)
}

func (s *ServiceScope) resolveAllTag(tag ServiceTag) ([]any, error) {
	ctx := newResolutionContext(&s.core)
	return s.core.resolveAll(ctx, tag)
}

func (s *ServiceScope) coreRef() *resolverCore { return &s.core }

// ID identifies this scope, for correlating its activations in logs.
func (s *ServiceScope) ID() uuid.UUID {
	return s.id
}

// CreateScope returns a sibling scope: a fresh scoped instanceSet sharing
// this scope's parent singleton partition and bindings. Scoped instances
// activated in s are not visible from the sibling.
func (s *ServiceScope) CreateScope() *ServiceScope {
	return &ServiceScope{
		core: resolverCore{
			bindingSet: s.core.bindingSet,
			singleton:  s.core.singleton,
			scoped:     newInstanceSet(s.core.bindingSet, Scoped),
			logger:     s.core.logger,
		},
		id: uuid.New(),
	}
}

// Close discards this scope's instanceSet by replacing it with a fresh,
// empty one. Resolving through the scope after Close activates new scoped
// instances; the ones activated before Close are no longer returned.
func (s *ServiceScope) Close() {
	s.core.scoped = newInstanceSet(s.core.bindingSet, Scoped)
}

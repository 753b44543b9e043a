package container

// binding captures how to materialize one registered service. Exactly one
// of factory or (prototype + clone) is populated; index is assigned by
// ServiceCollection.Build and is thereafter immutable.
type binding struct {
	tag      ServiceTag
	lifetime Lifetime

	factory func(*ResolutionContext) (any, error)

	hasPrototype bool
	prototype    any
	clone        func(any) any

	// index identifies this binding's slot inside the instanceSet of its
	// lifetime partition. Assigned densely, per partition, at Build time.
	index int
}

func (b *binding) activate(ctx *ResolutionContext) (any, error) {
	if b.hasPrototype {
		return b.clone(b.prototype), nil
	}
	return b.factory(ctx)
}

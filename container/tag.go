package container

import (
	"reflect"

	"github.com/gobeam/stringy"
)

// ServiceTag is the stable, comparable identity a service is registered and
// looked up by. It wraps the reflect.Type of the service interface/struct it
// was derived for — the Design Notes' option (b), a TypeId-equivalent built
// from the language's own type system, which needs no runtime registry the
// way a manifest-constant or user-supplied string tag would. ServiceTag is
// comparable and therefore usable as a map key directly.
type ServiceTag struct {
	t reflect.Type
}

// tagFor returns the ServiceTag for T. It is the sole place reflect.TypeOf
// is used to derive identity; everywhere else a ServiceTag is passed around
// opaquely.
func tagFor[T any]() ServiceTag {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return ServiceTag{t: t}
}

// String renders a human-readable, diagnostic-only name for the tag. It is
// never used for equality or map lookups — only in error messages and log
// fields, via internal/diag — so a reflect.Type's raw String() is reshaped
// into a conventional snake_case service name the way the rest of the
// framework formats identifiers.
func (s ServiceTag) String() string {
	name := s.t.String()
	return stringy.New(name).SnakeCase().ToLower()
}

package container

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type printer struct{ lines []string }

func (p *printer) Print(s string) { p.lines = append(p.lines, s) }

type announcer struct{ p *printer }

func (a *announcer) Announce(s string) { a.p.Print("announcing: " + s) }

func TestSingletonDependencySharedAcrossConsumers(t *testing.T) {
	sc := NewServiceCollection()
	AddSingleton(sc, func(ctx *ResolutionContext) (*printer, error) {
		return &printer{}, nil
	})
	AddSingleton(sc, func(ctx *ResolutionContext) (*announcer, error) {
		p, err := Get[*printer](ctx)
		if err != nil {
			return nil, err
		}
		return &announcer{p: p}, nil
	})
	provider := sc.Build()

	a, err := Get[*announcer](provider)
	if err != nil {
		t.Fatalf("Get announcer: %v", err)
	}
	a.Announce("first")

	p, err := Get[*printer](provider)
	if err != nil {
		t.Fatalf("Get printer: %v", err)
	}
	if p != a.p {
		t.Fatal("expected announcer to share the provider's singleton printer")
	}
	if len(p.lines) != 1 || p.lines[0] != "announcing: first" {
		t.Errorf("unexpected printer lines: %v", p.lines)
	}
}

type nodeA struct{ b *nodeB }
type nodeB struct{ a *nodeA }

func TestCyclicDependencyFails(t *testing.T) {
	sc := NewServiceCollection()
	AddSingleton(sc, func(ctx *ResolutionContext) (*nodeA, error) {
		b, err := Get[*nodeB](ctx)
		if err != nil {
			return nil, err
		}
		return &nodeA{b: b}, nil
	})
	AddSingleton(sc, func(ctx *ResolutionContext) (*nodeB, error) {
		a, err := Get[*nodeA](ctx)
		if err != nil {
			return nil, err
		}
		return &nodeB{a: a}, nil
	})
	provider := sc.Build()

	_, err := Get[*nodeA](provider)
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}
}

func TestUnresolvedDependencyFails(t *testing.T) {
	sc := NewServiceCollection()
	provider := sc.Build()

	_, err := Get[*printer](provider)
	if !errors.Is(err, ErrUnresolvedDependency) {
		t.Fatalf("expected ErrUnresolvedDependency, got %v", err)
	}
}

func TestTryGetReturnsFalseInsteadOfError(t *testing.T) {
	sc := NewServiceCollection()
	provider := sc.Build()

	_, ok := TryGet[*printer](provider)
	if ok {
		t.Error("expected TryGet to report ok=false for an unbound service")
	}
}

func TestGetAllCollectsEveryRegisteredBinding(t *testing.T) {
	sc := NewServiceCollection()
	AddSingleton(sc, func(ctx *ResolutionContext) (*printer, error) { return &printer{lines: []string{"one"}}, nil })
	AddTransient(sc, func(ctx *ResolutionContext) (*printer, error) { return &printer{lines: []string{"two"}}, nil })
	provider := sc.Build()

	all, err := GetAll[*printer](provider)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	// The tag was re-registered under Transient, which strips it from the
	// Singleton partition (see bindingset.go's add), so only one binding
	// survives to Build.
	if len(all) != 1 {
		t.Fatalf("expected exactly 1 surviving binding after re-registration, got %d", len(all))
	}
}

func TestGetFactoryProducesFreshInstancesOnDemand(t *testing.T) {
	sc := NewServiceCollection()
	AddTransient(sc, func(ctx *ResolutionContext) (*printer, error) { return &printer{}, nil })
	provider := sc.Build()

	factory, err := GetFactory[*printer](provider)
	if err != nil {
		t.Fatalf("GetFactory: %v", err)
	}

	a, err := factory()
	if err != nil {
		t.Fatalf("factory(): %v", err)
	}
	b, err := factory()
	if err != nil {
		t.Fatalf("factory(): %v", err)
	}
	if a == b {
		t.Error("expected each factory() call to produce a distinct transient instance")
	}
}

// TestSingletonActivatesExactlyOnceUnderConcurrentGet is (D1): however many
// goroutines race to resolve a singleton for the first time, the factory
// runs exactly once and every caller observes the same instance.
func TestSingletonActivatesExactlyOnceUnderConcurrentGet(t *testing.T) {
	sc := NewServiceCollection()
	var activations int64
	AddSingleton(sc, func(ctx *ResolutionContext) (*printer, error) {
		atomic.AddInt64(&activations, 1)
		return &printer{}, nil
	})
	provider := sc.Build()

	const callers = 64
	results := make([]*printer, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			p, err := Get[*printer](provider)
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			results[i] = p
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt64(&activations); got != 1 {
		t.Fatalf("expected the factory to run exactly once, ran %d times", got)
	}
	for i, p := range results {
		if p != results[0] {
			t.Fatalf("caller %d observed a different instance than caller 0", i)
		}
	}
}

func TestGetFactoryFailsEagerlyForUnboundType(t *testing.T) {
	sc := NewServiceCollection()
	provider := sc.Build()

	if _, err := GetFactory[*printer](provider); !errors.Is(err, ErrUnresolvedDependency) {
		t.Fatalf("expected ErrUnresolvedDependency, got %v", err)
	}
}

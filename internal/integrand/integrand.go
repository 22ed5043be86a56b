// Package integrand defines the real-valued functions riemann integrates and
// the serializable form used to ship them across a process boundary.
package integrand

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	apperrors "github.com/agbru/riemann/internal/errors"
)

// Func is a one-argument real function. It must be deterministic and safe
// to call from several goroutines at once.
type Func func(x float64) float64

// Spec names a registered integrand together with its parameters. Unlike a
// Func it can be encoded and sent to a worker process, which resolves it
// through its own Registry.
type Spec struct {
	Name   string    `json:"name"`
	Params []float64 `json:"params,omitempty"`
}

// String renders the spec in the name:p1,p2 form accepted by Parse.
func (s Spec) String() string {
	if len(s.Params) == 0 {
		return s.Name
	}
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = strconv.FormatFloat(p, 'g', -1, 64)
	}
	return s.Name + ":" + strings.Join(parts, ",")
}

// Parse reads a spec of the form "name" or "name:p1,p2,...".
func Parse(s string) (Spec, error) {
	name, rawParams, hasParams := strings.Cut(strings.TrimSpace(s), ":")
	if name == "" {
		return Spec{}, apperrors.NewValidationError("integrand", "empty integrand name")
	}
	spec := Spec{Name: name}
	if !hasParams {
		return spec, nil
	}
	for _, raw := range strings.Split(rawParams, ",") {
		p, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Spec{}, apperrors.NewValidationError("integrand", "bad parameter %q in %q", raw, s)
		}
		spec.Params = append(spec.Params, p)
	}
	return spec, nil
}

// Factory builds a Func from spec parameters.
type Factory func(params []float64) (Func, error)

// Registry maps integrand names to factories. The zero value is not usable;
// call NewRegistry.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Resolve builds the Func described by spec. Unknown names and bad parameter
// counts are invalid-argument errors.
func (r *Registry) Resolve(spec Spec) (Func, error) {
	r.mu.RLock()
	f, ok := r.factories[spec.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewValidationError("integrand", "unknown integrand %q", spec.Name)
	}
	return f(spec.Params)
}

// Names lists the registered integrand names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry of built-in integrands. Worker
// processes resolve specs against it, so custom integrands meant for the
// process backend must be registered before procpool.RunWorkerIfRequested.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		registerBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

func fixed(fn Func) Factory {
	return func(params []float64) (Func, error) {
		if len(params) != 0 {
			return nil, apperrors.NewValidationError("integrand", "takes no parameters, got %d", len(params))
		}
		return fn, nil
	}
}

func registerBuiltins(r *Registry) {
	r.Register("cos", fixed(math.Cos))
	r.Register("sin", fixed(math.Sin))
	r.Register("exp", fixed(math.Exp))
	r.Register("sqrt", fixed(math.Sqrt))
	r.Register("square", fixed(func(x float64) float64 { return x * x }))
	// 4/(1+x²) integrates to π over [0, 1].
	r.Register("pi", fixed(func(x float64) float64 { return 4 / (1 + x*x) }))
	r.Register("const", func(params []float64) (Func, error) {
		if len(params) != 1 {
			return nil, apperrors.NewValidationError("integrand", "const takes exactly one parameter, got %d", len(params))
		}
		c := params[0]
		return func(float64) float64 { return c }, nil
	})
	r.Register("poly", func(params []float64) (Func, error) {
		if len(params) == 0 {
			return nil, apperrors.NewValidationError("integrand", "poly needs at least one coefficient")
		}
		return Polynomial(params...), nil
	})
}

// Polynomial returns c0 + c1·x + c2·x² + ..., evaluated with Horner's scheme.
func Polynomial(coeffs ...float64) Func {
	c := append([]float64(nil), coeffs...)
	return func(x float64) float64 {
		acc := 0.0
		for i := len(c) - 1; i >= 0; i-- {
			acc = acc*x + c[i]
		}
		return acc
	}
}

// MustResolve is Resolve on the default registry, panicking on error. It is
// meant for package-level integrands in examples and tests.
func MustResolve(s string) Func {
	spec, err := Parse(s)
	if err != nil {
		panic(err)
	}
	f, err := Default().Resolve(spec)
	if err != nil {
		panic(fmt.Sprintf("integrand %q: %v", s, err))
	}
	return f
}

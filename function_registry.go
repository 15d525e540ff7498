package buildopts

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrReservedFunction is returned when a helper would shadow a name every
// condition already binds.
var ErrReservedFunction = errors.New("buildopts: function name is reserved")

// conditionBindings are the names each evaluator injects into a condition.
var conditionBindings = map[string]bool{
	"enabled":  true,
	"disabled": true,
	"option":   true,
	"pkg":      true,
	"metadata": true,
	"call":     true,
}

// Function is a helper callable from conditions, directly by name under expr
// or through call(name, ...) under cel and js.
type Function func(args ...any) (any, error)

// FunctionRegistry holds condition helpers by exact name.
type FunctionRegistry struct {
	mu      sync.RWMutex
	helpers map[string]Function
}

// NewFunctionRegistry returns a registry without helpers.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{helpers: map[string]Function{}}
}

// Register adds fn as name. Names are case sensitive, may be added once and
// cannot shadow enabled, disabled, option, pkg, metadata or call.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	switch {
	case name == "":
		return errors.New("buildopts: helper needs a name")
	case fn == nil:
		return fmt.Errorf("buildopts: helper %q has no implementation", name)
	case conditionBindings[name]:
		return fmt.Errorf("%w: %q", ErrReservedFunction, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.helpers == nil {
		r.helpers = map[string]Function{}
	}
	if r.helpers[name] != nil {
		return fmt.Errorf("buildopts: helper %q registered twice", name)
	}
	r.helpers[name] = fn
	return nil
}

// Clone snapshots the registry so later registrations do not leak into an
// evaluator already configured with it.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := NewFunctionRegistry()
	for name, fn := range r.helpers {
		snapshot.helpers[name] = fn
	}
	return snapshot
}

// Call runs the helper registered as name. Helper failures are prefixed with
// the helper name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	var fn Function
	if r != nil {
		r.mu.RLock()
		fn = r.helpers[name]
		r.mu.RUnlock()
	}
	if fn == nil {
		return nil, fmt.Errorf("buildopts: unknown helper %q", name)
	}
	out, err := fn(args...)
	if err != nil {
		return nil, fmt.Errorf("buildopts: helper %s: %w", name, err)
	}
	return out, nil
}

// Names lists the helpers in alphabetical order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.helpers))
	for name := range r.helpers {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// WithFunctionRegistry hands a snapshot of registry to the default evaluator.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *resolverConfig) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

// WithCustomFunction adds a single helper for the default evaluator. Invalid
// or reserved names are ignored; use FunctionRegistry.Register to see why.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *resolverConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

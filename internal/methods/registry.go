package methods

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	"github.com/alexisbeaulieu97/peakflow/internal/value"
	peakerrors "github.com/alexisbeaulieu97/peakflow/pkg/errors"
)

var (
	// ErrNotRegistered is wrapped by Get when no method has the name.
	ErrNotRegistered = errors.New("method not registered")
	// ErrDuplicate is wrapped by Register when the name is already taken.
	ErrDuplicate = errors.New("method already registered")
)

// Registry is an in-memory catalogue of methods keyed by name.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]workflow.Method
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]workflow.Method)}
}

// NewDefaultRegistry creates a registry holding the built-in methods.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, m := range Builtins() {
		if err := r.Register(m); err != nil {
			panic(fmt.Sprintf("register builtin %s: %v", m.Name(), err))
		}
	}
	return r
}

// Register adds a method after checking its name and schema.
func (r *Registry) Register(m workflow.Method) error {
	if m == nil {
		return peakerrors.NewMethodError("", fmt.Errorf("method is nil"))
	}
	name := m.Name()
	if name == "" {
		return peakerrors.NewMethodError("", fmt.Errorf("method name is required"))
	}
	if err := checkSchema(m.Schema()); err != nil {
		return peakerrors.NewMethodError(name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.methods[name]; exists {
		return peakerrors.NewMethodError(name, ErrDuplicate)
	}
	r.methods[name] = m
	return nil
}

// RegisterFactory constructs a method and registers it under name. The
// constructed method must report the same name.
func (r *Registry) RegisterFactory(name string, factory func() (workflow.Method, error)) error {
	if name == "" {
		return peakerrors.NewMethodError("", fmt.Errorf("method name is required"))
	}
	if factory == nil {
		return peakerrors.NewMethodError(name, fmt.Errorf("factory is nil"))
	}

	m, err := factory()
	if err != nil {
		return peakerrors.NewMethodError(name, fmt.Errorf("construct: %w", err))
	}
	if m == nil {
		return peakerrors.NewMethodError(name, fmt.Errorf("factory returned nil"))
	}
	if m.Name() != name {
		return peakerrors.NewMethodError(name, fmt.Errorf("factory produced method %q", m.Name()))
	}
	return r.Register(m)
}

// Get returns the method registered under name.
func (r *Registry) Get(name string) (workflow.Method, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.methods[name]
	if !ok {
		return nil, peakerrors.NewMethodError(name, ErrNotRegistered)
	}
	return m, nil
}

// List returns every registered method sorted by name.
func (r *Registry) List() []workflow.Method {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]workflow.Method, 0, len(names))
	for _, name := range names {
		result = append(result, r.methods[name])
	}
	return result
}

func checkSchema(schema workflow.Schema) error {
	seen := make(map[string]struct{}, len(schema))
	for _, spec := range schema {
		if spec.Name == "" {
			return fmt.Errorf("parameter name is required")
		}
		if _, dup := seen[spec.Name]; dup {
			return fmt.Errorf("parameter %q declared twice", spec.Name)
		}
		seen[spec.Name] = struct{}{}

		if spec.Default.IsSet() && spec.Type != value.Unset && spec.Default.Kind() != spec.Type {
			return fmt.Errorf("parameter %q default is %s, declared %s", spec.Name, spec.Default.Kind(), spec.Type)
		}
	}
	return nil
}

package decision

import (
	"fmt"
	"slices"
	"sync"
)

// EvaluatorDoc is the configuration record for one evaluator: a type tag selecting
// the implementation plus named numeric parameters.
type EvaluatorDoc struct {
	Type       string             `json:"type" yaml:"type" validate:"required"`
	Name       string             `json:"name,omitempty" yaml:"name,omitempty"`
	Weight     *float64           `json:"weight,omitempty" yaml:"weight,omitempty"`
	Params     map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
	Expression string             `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// Param returns the named parameter or def when it is not set.
func (s EvaluatorDoc) Param(name string, def float64) float64 {
	if v, ok := s.Params[name]; ok {
		return v
	}
	return def
}

func (s EvaluatorDoc) weight() float64 {
	if s.Weight == nil {
		return 1
	}
	return *s.Weight
}

// Factory builds an evaluator from its configuration record.
type Factory func(doc EvaluatorDoc) (Evaluator, error)

// Registry maps type tags to evaluator factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry holding every built-in evaluator.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for tag, f := range builtins {
		r.factories[tag] = f
	}
	return r
}

func (r *Registry) Register(tag string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tag == "" || f == nil {
		return fmt.Errorf("%w: invalid evaluator registration %q", ErrConfiguration, tag)
	}
	if _, ok := r.factories[tag]; ok {
		return fmt.Errorf("%w: evaluator type %q already registered", ErrConfiguration, tag)
	}
	r.factories[tag] = f
	return nil
}

// Build instantiates the evaluator the document's type tag names.
func (r *Registry) Build(doc EvaluatorDoc) (Weighted, error) {
	r.mu.RLock()
	f, ok := r.factories[doc.Type]
	r.mu.RUnlock()

	if !ok {
		return Weighted{}, fmt.Errorf("%w: unknown evaluator type %q", ErrConfiguration, doc.Type)
	}
	e, err := f(doc)
	if err != nil {
		return Weighted{}, fmt.Errorf("build evaluator %q: %w", doc.Type, err)
	}
	name := doc.Name
	if name == "" {
		name = doc.Type
	}
	return Weighted{Name: name, Evaluator: e, Weight: doc.weight()}, nil
}

func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

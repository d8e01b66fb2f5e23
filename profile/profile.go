// Package profile loads bot personalities: named, ordered sets of decisions
// described as data.
package profile

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"hexbot/decision"
)

var validate = validator.New()

// namespace for IDs derived from profile names.
var namespace = uuid.MustParse("6f1d2a0e-4b8c-4f57-9a3e-2c7d5b9e8a10")

// Document is the serialized form of a profile.
type Document struct {
	ID          string        `json:"id,omitempty" yaml:"id,omitempty" validate:"omitempty,uuid"`
	Name        string        `json:"name" yaml:"name" validate:"required"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Stickiness  float64       `json:"stickiness,omitempty" yaml:"stickiness,omitempty" validate:"gte=0"`
	Decisions   []DecisionDoc `json:"decisions" yaml:"decisions" validate:"required,min=1,dive"`
}

type DecisionDoc struct {
	Name        string                  `json:"name" yaml:"name" validate:"required"`
	Combination string                  `json:"combination,omitempty" yaml:"combination,omitempty"`
	Weight      *float64                `json:"weight,omitempty" yaml:"weight,omitempty"`
	Evaluators  []decision.EvaluatorDoc `json:"evaluators" yaml:"evaluators" validate:"required,min=1,dive"`
}

// Profile is a built, immutable personality.
type Profile struct {
	ID          uuid.UUID
	Name        string
	Description string
	// Stickiness is the bonus added to a path that ends where the unit's
	// previous choice ended. Zero disables it.
	Stickiness float64
	Decisions  []*decision.Decision
}

// ConfigurationError reports why a profile document cannot be built.
type ConfigurationError struct {
	Profile string
	Field   string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("profile %q: %v", e.Profile, e.Err)
	}
	return fmt.Sprintf("profile %q: %s: %v", e.Profile, e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool {
	return target == decision.ErrConfiguration
}

// Build validates doc and instantiates every evaluator through the registry.
func Build(doc Document, registry *decision.Registry) (*Profile, error) {
	if registry == nil {
		registry = decision.DefaultRegistry()
	}
	if err := validate.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &ConfigurationError{Profile: doc.Name, Field: verrs[0].Namespace(), Err: err}
		}
		return nil, &ConfigurationError{Profile: doc.Name, Err: err}
	}

	id := uuid.NewSHA1(namespace, []byte(doc.Name))
	if doc.ID != "" {
		parsed, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, &ConfigurationError{Profile: doc.Name, Field: "id", Err: err}
		}
		id = parsed
	}

	p := &Profile{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		Stickiness:  doc.Stickiness,
		Decisions:   make([]*decision.Decision, 0, len(doc.Decisions)),
	}
	seen := make(map[string]struct{}, len(doc.Decisions))
	for i, dd := range doc.Decisions {
		field := fmt.Sprintf("decisions[%d]", i)
		if _, ok := seen[dd.Name]; ok {
			return nil, &ConfigurationError{Profile: doc.Name, Field: field, Err: fmt.Errorf("duplicate decision name %q", dd.Name)}
		}
		seen[dd.Name] = struct{}{}

		d, err := buildDecision(dd, registry)
		if err != nil {
			return nil, &ConfigurationError{Profile: doc.Name, Field: field, Err: err}
		}
		p.Decisions = append(p.Decisions, d)
	}
	return p, nil
}

func buildDecision(dd DecisionDoc, registry *decision.Registry) (*decision.Decision, error) {
	mode, err := decision.ParseCombination(dd.Combination)
	if err != nil {
		return nil, err
	}
	weight := 1.0
	if dd.Weight != nil {
		weight = *dd.Weight
	}
	parts := make([]decision.Weighted, 0, len(dd.Evaluators))
	for _, doc := range dd.Evaluators {
		w, err := registry.Build(doc)
		if err != nil {
			return nil, err
		}
		parts = append(parts, w)
	}
	return decision.New(dd.Name, mode, weight, parts...)
}

func ptr(v float64) *float64 { return &v }

// DefaultDocument is a balanced personality: trade damage, stay on your feet,
// keep formation and face the enemy.
func DefaultDocument() Document {
	return Document{
		Name:        "balanced",
		Description: "trade damage evenly, avoid falls, keep formation",
		Decisions: []DecisionDoc{
			{
				Name:   "damage-exchange",
				Weight: ptr(1),
				Evaluators: []decision.EvaluatorDoc{
					{Type: "expected-damage"},
					{Type: "damage-taken", Weight: ptr(0.7)},
				},
			},
			{
				Name:        "footing",
				Combination: "min",
				Evaluators: []decision.EvaluatorDoc{
					{Type: "move-success", Params: map[string]float64{"fall_cost": 20, "floor": 0.3}},
				},
			},
			{
				Name:   "formation",
				Weight: ptr(0.5),
				Evaluators: []decision.EvaluatorDoc{
					{Type: "herding", Params: map[string]float64{"spread": 3}},
					{Type: "focus-fire", Params: map[string]float64{"isolated_bonus": 2}},
				},
			},
			{
				Name:   "posture",
				Weight: ptr(0.5),
				Evaluators: []decision.EvaluatorDoc{
					{Type: "facing"},
				},
			},
		},
	}
}

// Default builds DefaultDocument with the built-in registry.
func Default() *Profile {
	p, err := Build(DefaultDocument(), decision.DefaultRegistry())
	if err != nil {
		panic(fmt.Sprintf("default profile: %v", err))
	}
	return p
}

// Package decision defines the scoring rules the bot ranks move paths with.
//
// An Evaluator maps a (world, candidate) pair to a Score. A Decision is a
// named rule combining one or more evaluators by weighted sum, minimum or
// maximum. Decisions hold no mutable state and are shared by all scoring
// goroutines.
//
// Higher scores are better. Scores are unbounded; each evaluator is
// responsible for scaling its output to single-turn damage points so that
// sums across heuristics stay commensurable.
package decision

import (
	"fmt"
	"math"
	"strings"

	"hexbot/cluster"
	"hexbot/game"
	"hexbot/utility"
	"hexbot/world"
)

type Score struct {
	Value  float64
	Reason string
}

type Evaluator interface {
	Evaluate(ctx *Context, c *Candidate) Score
}

type EvaluatorFunc func(ctx *Context, c *Candidate) Score

func (f EvaluatorFunc) Evaluate(ctx *Context, c *Candidate) Score {
	return f(ctx, c)
}

// Context is the read-only input shared by every evaluation in one cycle.
type Context struct {
	World    *world.World
	Clusters cluster.Sides
	Calc     utility.Set
	// Previous returns the path chosen for the unit last cycle, if any.
	Previous func(game.UnitID) (RankedPath, bool)
}

func (ctx *Context) PreviousPath(id game.UnitID) (RankedPath, bool) {
	if ctx.Previous == nil {
		return RankedPath{}, false
	}
	return ctx.Previous(id)
}

// Candidate is one path under evaluation together with its unit. Calculator
// results are memoized on first use; a candidate is scored by one goroutine.
type Candidate struct {
	Unit game.Unit
	Path game.MovePath

	damage  *utility.DamageEstimate
	success *float64
}

func NewCandidate(unit game.Unit, path game.MovePath) *Candidate {
	return &Candidate{Unit: unit, Path: path}
}

func (c *Candidate) Damage(ctx *Context) utility.DamageEstimate {
	if c.damage == nil {
		est := ctx.Calc.Damage.Estimate(ctx.World, c.Unit, c.Path)
		c.damage = &est
	}
	return *c.damage
}

func (c *Candidate) Success(ctx *Context) float64 {
	if c.success == nil {
		p := ctx.Calc.Success.Probability(ctx.World, c.Unit, c.Path)
		p = math.Max(0, math.Min(1, p))
		c.success = &p
	}
	return *c.success
}

// Combination selects how a Decision folds its evaluators' scores.
type Combination int

const (
	WeightedSum Combination = iota // trade criteria off additively
	Minimum                        // fail if any single criterion is catastrophic
	Maximum
)

func (c Combination) String() string {
	switch c {
	case Minimum:
		return "min"
	case Maximum:
		return "max"
	default:
		return "sum"
	}
}

func ParseCombination(s string) (Combination, error) {
	switch strings.ToLower(s) {
	case "", "sum", "weighted-sum":
		return WeightedSum, nil
	case "min", "minimum":
		return Minimum, nil
	case "max", "maximum":
		return Maximum, nil
	}
	return WeightedSum, fmt.Errorf("%w: unknown combination %q", ErrConfiguration, s)
}

// Weighted is one evaluator inside a Decision. Weight only applies to
// weighted-sum decisions.
type Weighted struct {
	Name      string
	Evaluator Evaluator
	Weight    float64
}

type Decision struct {
	name   string
	mode   Combination
	weight float64
	parts  []Weighted
}

// New builds a decision. weight scales the decision's contribution when an
// Intelligence sums several decisions.
func New(name string, mode Combination, weight float64, parts ...Weighted) (*Decision, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: decision name is empty", ErrConfiguration)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: decision %q has no evaluators", ErrConfiguration, name)
	}
	for i, p := range parts {
		if p.Evaluator == nil {
			return nil, fmt.Errorf("%w: decision %q evaluator %d is nil", ErrConfiguration, name, i)
		}
	}
	return &Decision{name: name, mode: mode, weight: weight, parts: append([]Weighted(nil), parts...)}, nil
}

func (d *Decision) Name() string      { return d.name }
func (d *Decision) Mode() Combination { return d.mode }
func (d *Decision) Weight() float64   { return d.weight }
func (d *Decision) Parts() []Weighted { return append([]Weighted(nil), d.parts...) }
func (d *Decision) String() string    { return fmt.Sprintf("%s(%s)", d.name, d.mode) }

// Evaluate scores the candidate. It does not apply the decision weight.
func (d *Decision) Evaluate(ctx *Context, c *Candidate) Score {
	reasons := make([]string, 0, len(d.parts))
	var value float64
	for i, p := range d.parts {
		s := p.Evaluator.Evaluate(ctx, c)
		if math.IsNaN(s.Value) {
			s.Value = 0
		}
		reasons = append(reasons, fmt.Sprintf("%s=%.2f %s", p.label(i), s.Value, s.Reason))

		switch d.mode {
		case Minimum:
			if i == 0 || s.Value < value {
				value = s.Value
			}
		case Maximum:
			if i == 0 || s.Value > value {
				value = s.Value
			}
		default:
			value += p.Weight * s.Value
		}
	}
	return Score{
		Value:  value,
		Reason: fmt.Sprintf("%s[%s]", d.mode, strings.Join(reasons, "; ")),
	}
}

func (p Weighted) label(i int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("#%d", i)
}

// Scored pairs a decision with the score it gave one candidate. Err is set
// when the decision could not score it; Score is then zero.
type Scored struct {
	Decision *Decision
	Score    Score
	Err      error
}

// Weighted is the decision's contribution to a candidate's rank. NaN counts
// as 0.
func (s Scored) Weighted() float64 {
	if s.Err != nil {
		return 0
	}
	v := s.Decision.Weight() * s.Score.Value
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// Package intelligence holds a bot's active decisions, scores candidate paths
// against them and remembers the path each unit chose last cycle.
package intelligence

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"hexbot/decision"
	"hexbot/game"
	"hexbot/meta"
	"hexbot/profile"
)

// DuplicateDecisionError is returned when a decision name is registered twice.
type DuplicateDecisionError struct {
	Name string
}

func (e *DuplicateDecisionError) Error() string {
	return fmt.Sprintf("duplicate decision %q", e.Name)
}

func (e *DuplicateDecisionError) Is(target error) bool {
	return target == decision.ErrConfiguration
}

type Option func(*Intelligence)

func WithDecisionMaker(dm DecisionMaker) Option {
	return func(i *Intelligence) {
		if dm != nil {
			i.maker = dm
		}
	}
}

// WithStickiness pins the stability bonus. A pinned bonus survives Swap.
func WithStickiness(bonus float64) Option {
	return func(i *Intelligence) {
		if bonus >= 0 {
			i.stickiness = bonus
			i.pinned = true
		}
	}
}

func WithMemorySize(size int) Option {
	return func(i *Intelligence) {
		if size > 0 {
			i.memorySize = size
		}
	}
}

type Intelligence struct {
	mu         sync.RWMutex
	profile    string
	decisions  []*decision.Decision
	names      map[string]struct{}
	maker      DecisionMaker
	stickiness float64
	pinned     bool // stickiness set explicitly, profiles do not override it
	memorySize int
	memory     map[game.UnitID]decision.RankedPath
	order      []game.UnitID // oldest first
}

// New returns an Intelligence without decisions and without stickiness.
func New(options ...Option) *Intelligence {
	i := &Intelligence{
		names:      make(map[string]struct{}),
		maker:      Best{},
		memorySize: meta.MEMORY_SIZE,
		memory:     make(map[game.UnitID]decision.RankedPath),
	}
	for _, option := range options {
		option(i)
	}
	return i
}

// FromProfile registers every decision of p. Options override the profile's
// stickiness.
func FromProfile(p *profile.Profile, options ...Option) (*Intelligence, error) {
	i := New(options...)
	i.profile = p.Name
	if !i.pinned {
		i.stickiness = p.Stickiness
	}
	for _, d := range p.Decisions {
		if err := i.AddDecision(d); err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
	}
	return i, nil
}

func (i *Intelligence) AddDecision(d *decision.Decision) error {
	if d == nil {
		return fmt.Errorf("%w: nil decision", decision.ErrConfiguration)
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.names[d.Name()]; ok {
		return &DuplicateDecisionError{Name: d.Name()}
	}
	i.names[d.Name()] = struct{}{}
	i.decisions = append(i.decisions, d)
	return nil
}

// Decisions returns the registered decisions in registration order.
func (i *Intelligence) Decisions() []*decision.Decision {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]*decision.Decision(nil), i.decisions...)
}

func (i *Intelligence) DecisionMaker() DecisionMaker {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.maker
}

func (i *Intelligence) Profile() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.profile
}

func (i *Intelligence) Stickiness() float64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.stickiness
}

// Swap replaces the decisions with those of p. Stickiness follows p unless it
// was pinned with WithStickiness. Call it between cycles only. Path
// memory is kept.
func (i *Intelligence) Swap(p *profile.Profile) error {
	names := make(map[string]struct{}, len(p.Decisions))
	for _, d := range p.Decisions {
		if _, ok := names[d.Name()]; ok {
			return &DuplicateDecisionError{Name: d.Name()}
		}
		names[d.Name()] = struct{}{}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.profile = p.Name
	i.decisions = append([]*decision.Decision(nil), p.Decisions...)
	i.names = names
	if !i.pinned {
		i.stickiness = p.Stickiness
	}
	log.Info().Msgf("swapped to profile %s with %d decisions", p.Name, len(p.Decisions))
	return nil
}

// Score sums every decision's weighted score for the candidate. A decision
// that panics contributes nothing and is reported in the reason.
func (i *Intelligence) Score(ctx *decision.Context, c *decision.Candidate) (float64, string) {
	scored := i.Breakdown(ctx, c)

	var total float64
	reasons := make([]string, 0, len(scored))
	for _, s := range scored {
		if s.Err != nil {
			reasons = append(reasons, fmt.Sprintf("%s: failed", s.Decision.Name()))
			continue
		}
		v := s.Weighted()
		total += v
		reasons = append(reasons, fmt.Sprintf("%s=%.2f %s", s.Decision.Name(), v, s.Score.Reason))
	}
	return total, strings.Join(reasons, " | ")
}

// Breakdown scores the candidate against each decision in registration order.
func (i *Intelligence) Breakdown(ctx *decision.Context, c *decision.Candidate) []decision.Scored {
	i.mu.RLock()
	decisions := i.decisions
	i.mu.RUnlock()

	scored := make([]decision.Scored, 0, len(decisions))
	for _, d := range decisions {
		s, err := evaluate(d, ctx, c)
		if err != nil {
			log.Warn().Err(err).Str("decision", d.Name()).Str("path", c.Path.Key()).Msg("decision failed")
			s = decision.Score{}
		}
		scored = append(scored, decision.Scored{Decision: d, Score: s, Err: err})
	}
	return scored
}

func evaluate(d *decision.Decision, ctx *decision.Context, c *decision.Candidate) (s decision.Score, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return d.Evaluate(ctx, c), nil
}

// BonusFactor is the stability bonus for rp: the configured stickiness when rp
// ends on the same hex and facing as the unit's previous choice, else 0.
func (i *Intelligence) BonusFactor(rp decision.RankedPath) float64 {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.stickiness == 0 {
		return 0
	}
	prev, ok := i.memory[rp.Path.Unit]
	if !ok {
		return 0
	}
	if prev.Path.Final() == rp.Path.Final() && prev.Path.FinalFacing() == rp.Path.FinalFacing() {
		return i.stickiness
	}
	return 0
}

// Remember records the path chosen for unit. Call it once the cycle's
// selection is final.
func (i *Intelligence) Remember(unit game.UnitID, rp decision.RankedPath) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.remember(unit, rp)
}

func (i *Intelligence) remember(unit game.UnitID, rp decision.RankedPath) {
	if _, ok := i.memory[unit]; ok {
		i.forget(unit)
	}
	for len(i.order) >= i.memorySize {
		delete(i.memory, i.order[0])
		i.order = i.order[1:]
	}
	i.memory[unit] = rp
	i.order = append(i.order, unit)
}

func (i *Intelligence) forget(unit game.UnitID) {
	for k, id := range i.order {
		if id == unit {
			i.order = append(i.order[:k], i.order[k+1:]...)
			break
		}
	}
	delete(i.memory, unit)
}

func (i *Intelligence) Previous(unit game.UnitID) (decision.RankedPath, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	rp, ok := i.memory[unit]
	return rp, ok
}

// Update merges the path memory and stickiness of other into i. Entries from
// other win. Must not run concurrently with scoring.
func (i *Intelligence) Update(other *Intelligence) error {
	if other == nil {
		return errors.New("update from nil intelligence")
	}
	if other == i {
		return nil
	}
	other.mu.RLock()
	order := append([]game.UnitID(nil), other.order...)
	memory := make(map[game.UnitID]decision.RankedPath, len(other.memory))
	for k, v := range other.memory {
		memory[k] = v
	}
	stickiness, pinned := other.stickiness, other.pinned
	other.mu.RUnlock()

	i.mu.Lock()
	defer i.mu.Unlock()
	for _, id := range order {
		i.remember(id, memory[id])
	}
	i.stickiness = stickiness
	i.pinned = i.pinned || pinned
	return nil
}

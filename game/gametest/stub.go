// Package gametest provides an in-memory game.Engine for tests.
package gametest

import (
	"iter"

	"hexbot/game"
)

// Board is a rectangular board; hexes outside it are not contained.
type Board struct {
	W, H    int
	Hazards map[game.Coords]int
}

func (b Board) Width() int  { return b.W }
func (b Board) Height() int { return b.H }

func (b Board) Contains(c game.Coords) bool {
	if b.W <= 0 || b.H <= 0 {
		return true
	}
	return c.Q >= 0 && c.Q < b.W && c.R >= 0 && c.R < b.H
}

func (b Board) Hazard(c game.Coords) int {
	return b.Hazards[c]
}

// Engine is a fixed battlefield. Paths come from PathsByUnit when set,
// otherwise every unit can only stand still.
type Engine struct {
	UnitList    []game.Unit
	Teams       map[game.PlayerID]game.TeamID
	Options     map[string]bool
	Grid        Board
	PathsByUnit map[game.UnitID][]game.MovePath
	// HitChance overrides the flat to-hit probability when set.
	HitChance func(attacker game.Unit, from game.Coords, target game.Unit) float64
	// Pulled counts paths handed out by Paths.
	Pulled int
}

func (e *Engine) Units() []game.Unit {
	out := make([]game.Unit, len(e.UnitList))
	copy(out, e.UnitList)
	return out
}

func (e *Engine) TeamOf(p game.PlayerID) (game.TeamID, bool) {
	t, ok := e.Teams[p]
	return t, ok
}

func (e *Engine) BooleanOption(name string) bool { return e.Options[name] }
func (e *Engine) Board() game.Board              { return e.Grid }

func (e *Engine) Paths(u game.Unit) iter.Seq[game.MovePath] {
	return func(yield func(game.MovePath) bool) {
		paths, ok := e.PathsByUnit[u.ID]
		if !ok {
			paths = []game.MovePath{game.StandStill(u)}
		}
		for _, p := range paths {
			e.Pulled++
			if !yield(p) {
				return
			}
		}
	}
}

func (e *Engine) ToHit(attacker game.Unit, from game.Coords, target game.Unit) float64 {
	if e.HitChance != nil {
		return e.HitChance(attacker, from, target)
	}
	return 0.5
}

// Walk builds a path for u from a compact step string: F forward, L left, R right.
func Walk(u game.Unit, steps string) game.MovePath {
	p := game.StandStill(u)
	for _, s := range steps {
		switch s {
		case 'F':
			p = p.Extend(game.Forward)
		case 'L':
			p = p.Extend(game.TurnLeft)
		case 'R':
			p = p.Extend(game.TurnRight)
		}
	}
	return p
}

// Package utility holds the calculators heuristics use to score a path:
// expected damage exchange, probability of completing the move and distance
// to the home edge.
package utility

import (
	"hexbot/game"
	"hexbot/world"
)

// DamageEstimate is the expected single-turn damage exchange if the unit ends
// its move on the path's final hex, in game damage points.
type DamageEstimate struct {
	Firing    float64     // best single target, weapons fire
	Physical  float64     // best adjacent target, physical attack
	Received  float64     // sum over enemies that can fire at the final hex
	Target    game.UnitID // best firing target, valid when HasTarget
	HasTarget bool
	InRange   int // enemies within the unit's maximum range
}

// Dealt is the total damage the unit is expected to deal.
func (d DamageEstimate) Dealt() float64 {
	return d.Firing + d.Physical
}

type DamageCalculator interface {
	Estimate(w *world.World, unit game.Unit, path game.MovePath) DamageEstimate
}

// ExpectedDamage is the default damage calculator. It uses the engine's to-hit
// probability and the unit's capability summary; it does not pick individual
// weapons.
type ExpectedDamage struct {
	PhysicalFactor float64 // share of weapon damage a physical attack does
	RunPenalty     float64 // to-hit multiplier when the attacker ran
}

func NewExpectedDamage() ExpectedDamage {
	return ExpectedDamage{PhysicalFactor: 0.5, RunPenalty: 0.85}
}

func (d ExpectedDamage) Estimate(w *world.World, unit game.Unit, path game.MovePath) DamageEstimate {
	moved := unit
	moved.Position = path.Final()
	moved.Facing = path.FinalFacing()

	attackScale := 1.0
	if path.Mode == game.Run {
		attackScale = d.RunPenalty
	}
	evasion := Evasion(path.HexesMoved())

	var est DamageEstimate
	for _, enemy := range w.EnemyUnits() {
		dist := game.Distance(moved.Position, enemy.Position)

		if factor := unit.Weapons.RangeFactor(dist); factor > 0 && dist <= unit.Weapons.MaxRange() {
			est.InRange++
			hit := w.Engine().ToHit(moved, moved.Position, enemy) * attackScale
			firing := unit.Weapons.Damage * factor * hit
			if firing > est.Firing || !est.HasTarget {
				est.Firing = firing
				est.Target = enemy.ID
				est.HasTarget = true
			}
			if dist <= 1 {
				est.Physical = max(est.Physical, unit.Weapons.Damage*d.PhysicalFactor*hit)
			}
		}

		if factor := enemy.Weapons.RangeFactor(dist); factor > 0 && dist <= enemy.Weapons.MaxRange() {
			hit := w.Engine().ToHit(enemy, enemy.Position, moved)
			est.Received += enemy.Weapons.Damage * factor * hit * evasion
		}
	}
	return est
}

// Evasion is the to-hit multiplier enemies suffer against a unit that moved
// the given number of hexes, from the target movement modifier table.
func Evasion(hexesMoved int) float64 {
	var tmm int
	switch {
	case hexesMoved <= 2:
		tmm = 0
	case hexesMoved <= 4:
		tmm = 1
	case hexesMoved <= 6:
		tmm = 2
	case hexesMoved <= 9:
		tmm = 3
	case hexesMoved <= 17:
		tmm = 4
	case hexesMoved <= 24:
		tmm = 5
	default:
		tmm = 6
	}
	return 1 - 0.1*float64(tmm)
}

package decision

import (
	"fmt"
	"math"

	"hexbot/game"
	"hexbot/utility"
)

var builtins = map[string]Factory{
	"constant":        newConstant,
	"expected-damage": newExpectedDamage,
	"damage-taken":    newDamageTaken,
	"move-success":    newMoveSuccess,
	"home-edge":       newHomeEdge,
	"herding":         newHerding,
	"focus-fire":      newFocusFire,
	"facing":          newFacing,
	"expression":      newExpression,
}

func newConstant(doc EvaluatorDoc) (Evaluator, error) {
	v := doc.Param("value", 0)
	return EvaluatorFunc(func(*Context, *Candidate) Score {
		return Score{Value: v}
	}), nil
}

// expected-damage rewards damage dealt from the final hex.
func newExpectedDamage(doc EvaluatorDoc) (Evaluator, error) {
	scale := doc.Param("scale", 1)
	return EvaluatorFunc(func(ctx *Context, c *Candidate) Score {
		d := c.Damage(ctx)
		if !d.HasTarget {
			return Score{Value: 0, Reason: "no target in range"}
		}
		return Score{
			Value:  scale * d.Dealt(),
			Reason: fmt.Sprintf("deals %.1f to #%d", d.Dealt(), d.Target),
		}
	}), nil
}

// damage-taken penalizes damage received at the final hex.
func newDamageTaken(doc EvaluatorDoc) (Evaluator, error) {
	scale := doc.Param("scale", 1)
	return EvaluatorFunc(func(ctx *Context, c *Candidate) Score {
		d := c.Damage(ctx)
		return Score{Value: -scale * d.Received, Reason: fmt.Sprintf("takes %.1f", d.Received)}
	}), nil
}

// move-success penalizes the chance of failing a piloting roll on the way.
// Below floor the path counts as catastrophic.
func newMoveSuccess(doc EvaluatorDoc) (Evaluator, error) {
	fallCost := doc.Param("fall_cost", 20)
	floor := doc.Param("floor", 0)
	if floor < 0 || floor > 1 {
		return nil, fmt.Errorf("%w: floor %.2f outside [0,1]", ErrConfiguration, floor)
	}
	return EvaluatorFunc(func(ctx *Context, c *Candidate) Score {
		p := c.Success(ctx)
		if p < floor {
			return Score{Value: -fallCost * 10, Reason: fmt.Sprintf("success %.2f below floor", p)}
		}
		return Score{Value: -(1 - p) * fallCost, Reason: fmt.Sprintf("success %.2f", p)}
	}), nil
}

// home-edge pulls the unit towards its home edge for positive pull and pushes
// it away for negative pull.
func newHomeEdge(doc EvaluatorDoc) (Evaluator, error) {
	pull := doc.Param("pull", 1)
	return EvaluatorFunc(func(ctx *Context, c *Candidate) Score {
		if c.Unit.HomeEdge == game.NoEdge {
			return Score{Reason: "no home edge"}
		}
		d := utility.DistanceToHomeEdge(ctx.World.Board(), c.Path.Final(), c.Unit.HomeEdge)
		return Score{Value: -pull * float64(d), Reason: fmt.Sprintf("%d hexes from home", d)}
	}), nil
}

// herding keeps units near the largest friendly cluster.
func newHerding(doc EvaluatorDoc) (Evaluator, error) {
	weight := doc.Param("weight", 1)
	spread := doc.Param("spread", 2)
	return EvaluatorFunc(func(ctx *Context, c *Candidate) Score {
		largest, ok := ctx.Clusters.Friendly.Largest()
		if !ok || (largest.Size() == 1 && largest.Members[0] == c.Unit.ID) {
			return Score{Reason: "no formation"}
		}
		d := float64(game.Distance(c.Path.Final(), largest.Centroid))
		excess := math.Max(0, d-spread)
		return Score{
			Value:  -weight * excess,
			Reason: fmt.Sprintf("%.0f hexes from formation %d", d, largest.ID),
		}
	}), nil
}

// focus-fire rewards engaging a target friends can also reach, with a bonus
// when that target stands apart from its own side.
func newFocusFire(doc EvaluatorDoc) (Evaluator, error) {
	weight := doc.Param("weight", 1)
	isolated := doc.Param("isolated_bonus", 0)
	return EvaluatorFunc(func(ctx *Context, c *Candidate) Score {
		d := c.Damage(ctx)
		if !d.HasTarget {
			return Score{Reason: "no target"}
		}
		target, ok := ctx.World.Unit(d.Target)
		if !ok {
			return Score{Reason: "target gone"}
		}
		friends := 0
		for _, f := range ctx.World.FriendlyUnits() {
			if f.ID == c.Unit.ID {
				continue
			}
			if game.Distance(f.Position, target.Position) <= f.Weapons.MaxRange() {
				friends++
			}
		}
		value := weight * float64(friends)
		if ctx.Clusters.Enemy.Isolated(target.ID) {
			value += isolated
		}
		return Score{Value: value, Reason: fmt.Sprintf("%d friends on #%d", friends, target.ID)}
	}), nil
}

// facing penalizes ending the move turned away from the nearest enemy.
func newFacing(doc EvaluatorDoc) (Evaluator, error) {
	weight := doc.Param("weight", 1)
	return EvaluatorFunc(func(ctx *Context, c *Candidate) Score {
		final := c.Path.Final()
		nearest, ok := nearestEnemy(ctx, final)
		if !ok {
			return Score{Reason: "no enemies"}
		}
		want := game.FacingTowards(final, nearest.Position)
		delta := game.FacingDelta(c.Path.FinalFacing(), want)
		return Score{Value: -weight * float64(delta), Reason: fmt.Sprintf("%d turns off #%d", delta, nearest.ID)}
	}), nil
}

func nearestEnemy(ctx *Context, from game.Coords) (game.Unit, bool) {
	var best game.Unit
	bestDist := -1
	for _, e := range ctx.World.EnemyUnits() {
		d := game.Distance(from, e.Position)
		if bestDist < 0 || d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, bestDist >= 0
}

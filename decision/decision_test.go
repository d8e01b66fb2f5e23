package decision

import (
	"math"
	"testing"

	"hexbot/cluster"
	"hexbot/game"
	"hexbot/game/gametest"
	"hexbot/utility"
	"hexbot/world"

	"github.com/stretchr/testify/require"
)

var weapons = game.Capability{Damage: 20, Short: 2, Medium: 3, Long: 4}

func skirmish() (*Context, game.Unit) {
	me := game.Unit{ID: 1, Owner: 1, Position: game.Coords{Q: 0, R: 0}, Facing: game.North, Piloting: 5, Armor: 10, MaxArmor: 10, Weapons: weapons}
	enemy := game.Unit{ID: 2, Owner: 2, Position: game.Coords{Q: 0, R: 5}, Armor: 10, MaxArmor: 10, Weapons: weapons}
	e := &gametest.Engine{
		UnitList: []game.Unit{me, enemy},
		Teams:    map[game.PlayerID]game.TeamID{1: 1, 2: 2},
	}
	w := world.Build(e, 1)
	ctx := &Context{
		World:    w,
		Clusters: cluster.NewService(3, 1).Partition(w),
		Calc:     utility.Defaults(),
	}
	return ctx, me
}

// field builds a context over the given units on a 10x10 board. Player 1 is
// on team 1, player 2 on team 2.
func field(units ...game.Unit) *Context {
	e := &gametest.Engine{
		UnitList: units,
		Teams:    map[game.PlayerID]game.TeamID{1: 1, 2: 2},
		Grid:     gametest.Board{W: 10, H: 10},
	}
	w := world.Build(e, 1)
	return &Context{
		World:    w,
		Clusters: cluster.NewService(3, 1).Partition(w),
		Calc:     utility.Defaults(),
	}
}

func at(u game.Unit, q, r int) game.Unit {
	u.Position = game.Coords{Q: q, R: r}
	return u
}

type fixedDamage utility.DamageEstimate

func (f fixedDamage) Estimate(*world.World, game.Unit, game.MovePath) utility.DamageEstimate {
	return utility.DamageEstimate(f)
}

func constant(v float64) Evaluator {
	return EvaluatorFunc(func(*Context, *Candidate) Score { return Score{Value: v} })
}

func TestDecision(t *testing.T) {
	ctx, me := skirmish()
	cand := NewCandidate(me, game.StandStill(me))

	t.Run("new rejects an empty decision", func(t *testing.T) {
		_, err := New("", WeightedSum, 1, Weighted{Evaluator: constant(1)})
		require.ErrorIs(t, err, ErrConfiguration)

		_, err = New("empty", WeightedSum, 1)
		require.ErrorIs(t, err, ErrConfiguration)

		_, err = New("nil", WeightedSum, 1, Weighted{Name: "x"})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("minimum is never above any part", func(t *testing.T) {
		d, err := New("safety", Minimum, 1,
			Weighted{Name: "a", Evaluator: constant(3), Weight: 1},
			Weighted{Name: "b", Evaluator: constant(-5), Weight: 100},
			Weighted{Name: "c", Evaluator: constant(0.5), Weight: 1},
		)
		require.NoError(t, err)

		s := d.Evaluate(ctx, cand)
		require.Equal(t, -5.0, s.Value)
		for _, p := range d.Parts() {
			require.LessOrEqual(t, s.Value, p.Evaluator.Evaluate(ctx, cand).Value)
		}
	})

	t.Run("maximum picks the best part", func(t *testing.T) {
		d, err := New("opportunity", Maximum, 1,
			Weighted{Evaluator: constant(3)},
			Weighted{Evaluator: constant(-5)},
		)
		require.NoError(t, err)
		require.Equal(t, 3.0, d.Evaluate(ctx, cand).Value)
	})

	t.Run("weighted sum is linear in the weights", func(t *testing.T) {
		d1, err := New("sum", WeightedSum, 1,
			Weighted{Evaluator: constant(2), Weight: 1},
			Weighted{Evaluator: constant(4), Weight: 0.5},
		)
		require.NoError(t, err)
		d2, err := New("sum", WeightedSum, 1,
			Weighted{Evaluator: constant(2), Weight: 2},
			Weighted{Evaluator: constant(4), Weight: 1},
		)
		require.NoError(t, err)

		require.InDelta(t, 4.0, d1.Evaluate(ctx, cand).Value, 1e-9)
		require.InDelta(t, 2*d1.Evaluate(ctx, cand).Value, d2.Evaluate(ctx, cand).Value, 1e-9)
	})

	t.Run("NaN scores count as zero", func(t *testing.T) {
		d, err := New("nan", WeightedSum, 1,
			Weighted{Evaluator: constant(math.NaN()), Weight: 1},
			Weighted{Evaluator: constant(1), Weight: 1},
		)
		require.NoError(t, err)
		require.Equal(t, 1.0, d.Evaluate(ctx, cand).Value)
	})

	t.Run("reason names every part", func(t *testing.T) {
		d, err := New("why", WeightedSum, 1,
			Weighted{Name: "alpha", Evaluator: constant(1), Weight: 1},
			Weighted{Evaluator: constant(2), Weight: 1},
		)
		require.NoError(t, err)
		reason := d.Evaluate(ctx, cand).Reason
		require.Contains(t, reason, "alpha=1.00")
		require.Contains(t, reason, "#1=2.00")
	})
}

func TestParseCombination(t *testing.T) {
	for in, want := range map[string]Combination{
		"":             WeightedSum,
		"sum":          WeightedSum,
		"MIN":          Minimum,
		"maximum":      Maximum,
		"max":          Maximum,
		"minimum":      Minimum,
		"weighted-sum": WeightedSum,
	} {
		got, err := ParseCombination(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseCombination("median")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestBuiltins(t *testing.T) {
	registry := DefaultRegistry()

	build := func(t *testing.T, doc EvaluatorDoc) *Decision {
		w, err := registry.Build(doc)
		require.NoError(t, err)
		d, err := New(doc.Type, WeightedSum, 1, w)
		require.NoError(t, err)
		return d
	}

	t.Run("expected damage prefers ending in range", func(t *testing.T) {
		ctx, me := skirmish()
		d := build(t, EvaluatorDoc{Type: "expected-damage"})

		// about face then two hexes south: distance 3 to the enemy
		inRange := gametest.Walk(me, "RRRFF")
		outOfRange := game.StandStill(me)

		a := d.Evaluate(ctx, NewCandidate(me, inRange))
		b := d.Evaluate(ctx, NewCandidate(me, outOfRange))
		require.Greater(t, a.Value, b.Value)
		require.Zero(t, b.Value)
	})

	t.Run("damage taken is a penalty", func(t *testing.T) {
		ctx, me := skirmish()
		d := build(t, EvaluatorDoc{Type: "damage-taken"})

		exposed := d.Evaluate(ctx, NewCandidate(me, gametest.Walk(me, "RRRFF")))
		safe := d.Evaluate(ctx, NewCandidate(me, game.StandStill(me)))
		require.Less(t, exposed.Value, 0.0)
		require.Zero(t, safe.Value)
	})

	t.Run("move success charges for risky hexes", func(t *testing.T) {
		ctx, me := skirmish()
		e := ctx.World.Engine().(*gametest.Engine)
		e.Grid.Hazards = map[game.Coords]int{{Q: 0, R: -1}: 4}
		d := build(t, EvaluatorDoc{Type: "move-success", Params: map[string]float64{"fall_cost": 10}})

		risky := d.Evaluate(ctx, NewCandidate(me, gametest.Walk(me, "F")))
		safe := d.Evaluate(ctx, NewCandidate(me, game.StandStill(me)))
		require.Less(t, risky.Value, 0.0)
		require.Zero(t, safe.Value)
	})

	t.Run("move success rejects a bad floor", func(t *testing.T) {
		_, err := registry.Build(EvaluatorDoc{Type: "move-success", Params: map[string]float64{"floor": 2}})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("facing rewards turning towards the enemy", func(t *testing.T) {
		ctx, me := skirmish()
		d := build(t, EvaluatorDoc{Type: "facing"})

		turned := d.Evaluate(ctx, NewCandidate(me, gametest.Walk(me, "RRR")))
		away := d.Evaluate(ctx, NewCandidate(me, game.StandStill(me)))
		require.Zero(t, turned.Value)
		require.Equal(t, -3.0, away.Value)
	})

	t.Run("expected damage scores a target with id zero", func(t *testing.T) {
		me := game.Unit{ID: 1, Owner: 1, Facing: game.North, Piloting: 5, Armor: 10, MaxArmor: 10, Weapons: weapons}
		enemy := game.Unit{ID: 0, Owner: 2, Position: game.Coords{Q: 0, R: 5}, Armor: 10, MaxArmor: 10, Weapons: weapons}
		ctx := field(me, enemy)
		d := build(t, EvaluatorDoc{Type: "expected-damage"})

		cand := NewCandidate(me, gametest.Walk(me, "RRRFF"))
		est := cand.Damage(ctx)
		require.True(t, est.HasTarget)
		require.Equal(t, game.UnitID(0), est.Target)

		s := d.Evaluate(ctx, cand)
		require.InDelta(t, est.Dealt(), s.Value, 1e-9)
		require.Positive(t, s.Value)
		require.Greater(t, s.Value, d.Evaluate(ctx, NewCandidate(me, game.StandStill(me))).Value)
	})

	t.Run("herding grows with distance beyond the spread", func(t *testing.T) {
		me := game.Unit{ID: 1, Owner: 1, Armor: 10, MaxArmor: 10, Weapons: weapons}
		ctx := field(
			me,
			at(game.Unit{ID: 3, Owner: 1, Armor: 10, MaxArmor: 10}, 6, 0),
			at(game.Unit{ID: 4, Owner: 1, Armor: 10, MaxArmor: 10}, 8, 0),
		)
		d := build(t, EvaluatorDoc{Type: "herding", Params: map[string]float64{"spread": 2}})
		score := func(q, r int) float64 {
			u := at(me, q, r)
			return d.Evaluate(ctx, NewCandidate(u, game.StandStill(u))).Value
		}

		// the formation is units 3 and 4, centred on (7,0)
		require.Equal(t, -5.0, score(0, 0))
		require.Equal(t, -1.0, score(4, 0))
		require.Zero(t, score(6, 1))
		require.Less(t, score(0, 0), score(4, 0))
	})

	t.Run("herding is neutral for a lone unit", func(t *testing.T) {
		me := game.Unit{ID: 1, Owner: 1, Armor: 10, MaxArmor: 10, Weapons: weapons}
		ctx := field(me, at(game.Unit{ID: 2, Owner: 2, Armor: 10, MaxArmor: 10}, 9, 9))
		d := build(t, EvaluatorDoc{Type: "herding"})

		s := d.Evaluate(ctx, NewCandidate(me, game.StandStill(me)))
		require.Zero(t, s.Value)
		require.Contains(t, s.Reason, "no formation")
	})

	t.Run("focus fire counts friends and rewards an isolated target", func(t *testing.T) {
		me := game.Unit{ID: 1, Owner: 1, Armor: 10, MaxArmor: 10, Weapons: weapons}
		helper := at(game.Unit{ID: 3, Owner: 1, Armor: 10, MaxArmor: 10, Weapons: weapons}, 0, 8)
		distant := at(game.Unit{ID: 4, Owner: 1, Armor: 10, MaxArmor: 10, Weapons: weapons}, 9, 9)
		target := at(game.Unit{ID: 0, Owner: 2, Armor: 10, MaxArmor: 10, Weapons: weapons}, 0, 5)
		d := build(t, EvaluatorDoc{Type: "focus-fire", Params: map[string]float64{"weight": 2, "isolated_bonus": 3}})
		engaged := at(me, 0, 3)

		alone := d.Evaluate(field(me, helper, distant, target), NewCandidate(engaged, game.StandStill(engaged)))
		require.Equal(t, 5.0, alone.Value)
		require.Contains(t, alone.Reason, "1 friends on #0")

		escorted := field(me, helper, distant, target, at(game.Unit{ID: 5, Owner: 2, Armor: 10, MaxArmor: 10, Weapons: weapons}, 1, 5))
		grouped := d.Evaluate(escorted, NewCandidate(engaged, game.StandStill(engaged)))
		require.Equal(t, 2.0, grouped.Value)

		none := d.Evaluate(field(me, helper, distant, target), NewCandidate(me, game.StandStill(me)))
		require.Zero(t, none.Value)
	})

	t.Run("focus fire degrades when the target is gone", func(t *testing.T) {
		me := game.Unit{ID: 1, Owner: 1, Armor: 10, MaxArmor: 10, Weapons: weapons}
		ctx := field(me)
		ctx.Calc.Damage = fixedDamage{Firing: 10, Target: 42, HasTarget: true, InRange: 1}
		d := build(t, EvaluatorDoc{Type: "focus-fire", Params: map[string]float64{"weight": 2, "isolated_bonus": 3}})

		s := d.Evaluate(ctx, NewCandidate(me, game.StandStill(me)))
		require.Zero(t, s.Value)
		require.Contains(t, s.Reason, "target gone")
	})

	t.Run("home edge rewards staying close to home", func(t *testing.T) {
		me := game.Unit{ID: 1, Owner: 1, HomeEdge: game.SouthEdge, Armor: 10, MaxArmor: 10}
		ctx := field(me)
		d := build(t, EvaluatorDoc{Type: "home-edge", Params: map[string]float64{"pull": 2}})
		score := func(u game.Unit) Score {
			return d.Evaluate(ctx, NewCandidate(u, game.StandStill(u)))
		}

		home, forward := score(at(me, 0, 9)), score(at(me, 0, 2))
		require.Zero(t, home.Value)
		require.Equal(t, -14.0, forward.Value)
		require.Greater(t, home.Value, forward.Value)

		drifter := at(me, 0, 2)
		drifter.HomeEdge = game.NoEdge
		s := score(drifter)
		require.Zero(t, s.Value)
		require.Contains(t, s.Reason, "no home edge")
	})

	t.Run("constant ignores the candidate", func(t *testing.T) {
		ctx, me := skirmish()
		d := build(t, EvaluatorDoc{Type: "constant", Params: map[string]float64{"value": 7}})
		require.Equal(t, 7.0, d.Evaluate(ctx, NewCandidate(me, game.StandStill(me))).Value)
	})
}

func TestExpression(t *testing.T) {
	registry := DefaultRegistry()

	t.Run("evaluates against the candidate", func(t *testing.T) {
		ctx, me := skirmish()
		w, err := registry.Build(EvaluatorDoc{
			Type:       "expression",
			Name:       "aggression",
			Expression: "Dealt * P.aggression - Received",
			Params:     map[string]float64{"aggression": 2},
		})
		require.NoError(t, err)
		require.Equal(t, "aggression", w.Name)

		cand := NewCandidate(me, gametest.Walk(me, "RRRFF"))
		d := cand.Damage(ctx)
		s := w.Evaluator.Evaluate(ctx, cand)
		require.InDelta(t, d.Dealt()*2-d.Received, s.Value, 1e-9)
	})

	t.Run("integer results are converted", func(t *testing.T) {
		ctx, me := skirmish()
		w, err := registry.Build(EvaluatorDoc{Type: "expression", Expression: "HexesMoved"})
		require.NoError(t, err)
		s := w.Evaluator.Evaluate(ctx, NewCandidate(me, gametest.Walk(me, "RRRFF")))
		require.Equal(t, 2.0, s.Value)
	})

	t.Run("compile errors are configuration errors", func(t *testing.T) {
		_, err := registry.Build(EvaluatorDoc{Type: "expression", Expression: "Dealt +"})
		require.ErrorIs(t, err, ErrConfiguration)

		_, err = registry.Build(EvaluatorDoc{Type: "expression", Expression: "Nope * 2"})
		require.ErrorIs(t, err, ErrConfiguration)

		_, err = registry.Build(EvaluatorDoc{Type: "expression"})
		require.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestRegistry(t *testing.T) {
	t.Run("unknown tags are configuration errors", func(t *testing.T) {
		_, err := DefaultRegistry().Build(EvaluatorDoc{Type: "telepathy"})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("register adds a factory once", func(t *testing.T) {
		r := NewRegistry()
		f := func(EvaluatorDoc) (Evaluator, error) { return constant(1), nil }

		require.NoError(t, r.Register("one", f))
		require.ErrorIs(t, r.Register("one", f), ErrConfiguration)
		require.Equal(t, []string{"one"}, r.Tags())

		w, err := r.Build(EvaluatorDoc{Type: "one"})
		require.NoError(t, err)
		require.Equal(t, "one", w.Name)
		require.Equal(t, 1.0, w.Weight)
	})

	t.Run("weight defaults to one", func(t *testing.T) {
		weight := 0.25
		w, err := DefaultRegistry().Build(EvaluatorDoc{Type: "constant", Weight: &weight})
		require.NoError(t, err)
		require.Equal(t, 0.25, w.Weight)
	})

	t.Run("default registry has the built-ins", func(t *testing.T) {
		tags := DefaultRegistry().Tags()
		require.Contains(t, tags, "expected-damage")
		require.Contains(t, tags, "expression")
		require.Contains(t, tags, "herding")
	})
}

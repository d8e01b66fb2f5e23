package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"hexbot/cluster"
	"hexbot/game"
	"hexbot/game/gametest"
	"hexbot/gamemaster"
	"hexbot/intelligence"
	"hexbot/profile"
	"hexbot/ranker"
	"hexbot/utility"

	"github.com/stretchr/testify/require"
)

// interrupter cancels the game after the first accepted path.
type interrupter struct {
	*gamemaster.Local
	cancel context.CancelFunc
}

func (i interrupter) Submit(p game.MovePath) error {
	defer i.cancel()
	return i.Local.Submit(p)
}

type recorder struct {
	submitted []game.MovePath
	reject    func(game.MovePath) error
}

func (r *recorder) Submit(p game.MovePath) error {
	if r.reject != nil {
		if err := r.reject(p); err != nil {
			return err
		}
	}
	r.submitted = append(r.submitted, p)
	return nil
}

var weapons = game.Capability{Damage: 20, Short: 2, Medium: 3, Long: 4}

func battlefield() *gametest.Engine {
	a := game.Unit{ID: 2, Owner: 1, Position: game.Coords{Q: 0, R: 0}, Facing: game.South, Armor: 10, MaxArmor: 10, Weapons: weapons}
	b := game.Unit{ID: 1, Owner: 1, Position: game.Coords{Q: 3, R: 0}, Facing: game.South, Armor: 10, MaxArmor: 10, Weapons: weapons, Immobile: true}
	enemy := game.Unit{ID: 3, Owner: 2, Position: game.Coords{Q: 0, R: 5}, Armor: 10, MaxArmor: 10, Weapons: weapons}
	return &gametest.Engine{
		UnitList: []game.Unit{a, b, enemy},
		Teams:    map[game.PlayerID]game.TeamID{1: 1, 2: 2},
		PathsByUnit: map[game.UnitID][]game.MovePath{
			2: {game.StandStill(a), gametest.Walk(a, "F"), gametest.Walk(a, "FF")},
		},
	}
}

func controller(t *testing.T, e game.Engine, s game.Submitter) (*Controller, *intelligence.Intelligence) {
	intel, err := intelligence.FromProfile(profile.Default())
	require.NoError(t, err)
	r := ranker.New(intel, utility.Defaults(), ranker.WithBudget(0), ranker.WithMetrics())
	return NewController(1, e, s, r, cluster.NewService(3, 2)), intel
}

func TestPlayCycle(t *testing.T) {
	t.Run("one order per unit in id order", func(t *testing.T) {
		sub := &recorder{}
		c, intel := controller(t, battlefield(), sub)

		orders, records, err := c.PlayCycle(context.Background())
		require.NoError(t, err)
		require.Len(t, orders, 2)
		require.Len(t, records, 2)
		require.Len(t, sub.submitted, 2)

		// the immobile unit stands still at the lowest rank
		require.Equal(t, game.UnitID(1), orders[0].Unit)
		require.Equal(t, 0, orders[0].Path.Cost())
		require.True(t, math.IsInf(orders[0].Rank, -1))
		_, ok := intel.Previous(1)
		require.False(t, ok)

		require.Equal(t, game.UnitID(2), orders[1].Unit)
		prev, ok := intel.Previous(2)
		require.True(t, ok)
		require.Equal(t, orders[1].Path.Key(), prev.Path.Key())
		require.Equal(t, 3, records[1].Scored)
		require.Equal(t, 1, records[1].Cycle)
	})

	t.Run("rejected paths fall back to standing still", func(t *testing.T) {
		sub := &recorder{reject: func(p game.MovePath) error {
			if p.Cost() > 0 {
				return errors.New("nope")
			}
			return nil
		}}
		e := battlefield()
		e.PathsByUnit[2] = []game.MovePath{gametest.Walk(e.UnitList[0], "F")}
		c, intel := controller(t, e, sub)

		orders, _, err := c.PlayCycle(context.Background())
		require.NoError(t, err)
		require.Error(t, orders[1].Err)
		require.Equal(t, 0, orders[1].Path.Cost())
		_, ok := intel.Previous(2)
		require.False(t, ok)
	})

	t.Run("profile swaps apply at the next cycle", func(t *testing.T) {
		c, intel := controller(t, battlefield(), &recorder{})
		doc := profile.DefaultDocument()
		doc.Name = "other"
		doc.Decisions = doc.Decisions[:1]
		p, err := profile.Build(doc, nil)
		require.NoError(t, err)

		c.SwapProfile(p)
		require.Equal(t, "balanced", intel.Profile())
		_, _, err = c.PlayCycle(context.Background())
		require.NoError(t, err)
		require.Equal(t, "other", intel.Profile())
		require.Len(t, intel.Decisions(), 1)
	})

	t.Run("a cancelled context stops the cycle", func(t *testing.T) {
		sub := &recorder{}
		c, _ := controller(t, battlefield(), sub)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		orders, _, err := c.PlayCycle(ctx)
		require.ErrorIs(t, err, context.Canceled)
		require.Empty(t, orders)
		require.Empty(t, sub.submitted)
	})
}

func TestLocal(t *testing.T) {
	newBot := func(t *testing.T, player game.PlayerID, b *gamemaster.Local) *Controller {
		intel, err := intelligence.FromProfile(profile.Default())
		require.NoError(t, err)
		r := ranker.New(intel, utility.Defaults(), ranker.WithBudget(50*time.Millisecond), ranker.WithGoroutines(2))
		return NewController(player, b, b, r, cluster.NewService(3, 2))
	}

	t.Run("plays to a result within the round limit", func(t *testing.T) {
		b := gamemaster.NewLocal(gamemaster.Config{Width: 8, Height: 6, UnitsPerTeam: 2, Seed: 5, Roughness: 0.3})
		l := NewLocal(b, newBot(t, 1, b), newBot(t, 2, b))
		l.MaxRounds = 5

		gm, cycles := l.Run(context.Background())
		require.LessOrEqual(t, gm.Cycles, 5)
		require.Positive(t, gm.Cycles)
		require.Equal(t, gm.Orders, len(cycles))
		require.False(t, gm.EndTime.Before(gm.StartTime))

		_, over := b.Winner()
		require.True(t, over || b.Over())
	})

	t.Run("an interrupted round is not resolved", func(t *testing.T) {
		b := gamemaster.NewLocal(gamemaster.Config{Width: 8, Height: 6, UnitsPerTeam: 2, Seed: 5, Roughness: 0.3})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		intel, err := intelligence.FromProfile(profile.Default())
		require.NoError(t, err)
		r := ranker.New(intel, utility.Defaults(), ranker.WithBudget(0))
		first := NewController(1, b, interrupter{Local: b, cancel: cancel}, r, cluster.NewService(3, 2))
		round := b.Round()

		gm, cycles := NewLocal(b, first, newBot(t, 2, b)).Run(ctx)
		require.Zero(t, gm.Cycles)
		require.Equal(t, 1, gm.Orders)
		require.Len(t, cycles, 1)
		require.Equal(t, round, b.Round())
	})

	t.Run("needs two players", func(t *testing.T) {
		b := gamemaster.NewLocal(gamemaster.DefaultConfig())
		require.Panics(t, func() { NewLocal(b, newBot(t, 1, b)) })
	})
}

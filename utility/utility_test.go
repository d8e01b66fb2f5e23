package utility

import (
	"testing"

	"hexbot/game"
	"hexbot/game/gametest"
	"hexbot/world"

	"github.com/stretchr/testify/require"
)

var weapons = game.Capability{Damage: 20, Short: 3, Medium: 6, Long: 9}

func battlefield(hazards map[game.Coords]int) (*gametest.Engine, game.Unit) {
	me := game.Unit{ID: 1, Owner: 1, Position: game.Coords{Q: 0, R: 0}, Facing: game.South, Piloting: 5, Weapons: weapons}
	enemy := game.Unit{ID: 2, Owner: 2, Position: game.Coords{Q: 0, R: 10}, Weapons: weapons}
	e := &gametest.Engine{
		UnitList: []game.Unit{me, enemy},
		Teams:    map[game.PlayerID]game.TeamID{1: 1, 2: 2},
		Grid:     gametest.Board{W: 20, H: 20, Hazards: hazards},
		HitChance: func(game.Unit, game.Coords, game.Unit) float64 {
			return 1
		},
	}
	return e, me
}

func TestExpectedDamage(t *testing.T) {
	calc := NewExpectedDamage()

	t.Run("out of range deals and receives nothing", func(t *testing.T) {
		e, me := battlefield(nil)
		est := calc.Estimate(world.Build(e, 1), me, game.StandStill(me))

		require.Zero(t, est.Dealt())
		require.Zero(t, est.Received)
		require.Zero(t, est.InRange)
		require.False(t, est.HasTarget)
	})

	t.Run("range brackets scale damage", func(t *testing.T) {
		e, me := battlefield(nil)
		w := world.Build(e, 1)

		long := calc.Estimate(w, me, gametest.Walk(me, "F"))        // distance 9
		medium := calc.Estimate(w, me, gametest.Walk(me, "FFFF"))   // distance 6
		short := calc.Estimate(w, me, gametest.Walk(me, "FFFFFFF")) // distance 3

		require.InDelta(t, 10.0, long.Firing, 1e-9)
		require.InDelta(t, 15.0, medium.Firing, 1e-9)
		require.InDelta(t, 20.0, short.Firing, 1e-9)
		require.True(t, short.HasTarget)
		require.Equal(t, game.UnitID(2), short.Target)
	})

	t.Run("moving further makes the unit harder to hit", func(t *testing.T) {
		e, me := battlefield(nil)
		w := world.Build(e, 1)

		near := calc.Estimate(w, me, gametest.Walk(me, "FFFFFFF"))
		require.InDelta(t, 20.0*Evasion(7), near.Received, 1e-9)
		require.Less(t, Evasion(7), Evasion(1))
	})

	t.Run("adjacent targets add a physical attack", func(t *testing.T) {
		e, me := battlefield(nil)
		est := calc.Estimate(world.Build(e, 1), me, gametest.Walk(me, "FFFFFFFFF"))

		require.InDelta(t, 10.0, est.Physical, 1e-9)
		require.InDelta(t, 30.0, est.Dealt(), 1e-9)
	})
}

func TestPilotingRolls(t *testing.T) {
	t.Run("clear terrain never fails", func(t *testing.T) {
		e, me := battlefield(nil)
		p := PilotingRolls{}.Probability(world.Build(e, 1), me, gametest.Walk(me, "FFF"))
		require.Equal(t, 1.0, p)
	})

	t.Run("each hazardous hex entered needs a roll", func(t *testing.T) {
		hazards := map[game.Coords]int{{Q: 0, R: 1}: 2, {Q: 0, R: 2}: 2}
		e, me := battlefield(hazards)
		w := world.Build(e, 1)

		one := PilotingRolls{}.Probability(w, me, gametest.Walk(me, "F"))
		two := PilotingRolls{}.Probability(w, me, gametest.Walk(me, "FF"))

		require.InDelta(t, PassProbability(7), one, 1e-9)
		require.InDelta(t, one*one, two, 1e-9)
	})

	t.Run("running makes rolls harder", func(t *testing.T) {
		hazards := map[game.Coords]int{{Q: 0, R: 1}: 1}
		e, me := battlefield(hazards)
		w := world.Build(e, 1)
		walk := gametest.Walk(me, "F")
		run := walk
		run.Mode = game.Run

		require.Greater(t, PilotingRolls{}.Probability(w, me, walk), PilotingRolls{}.Probability(w, me, run))
	})

	t.Run("pass probability is bounded", func(t *testing.T) {
		require.Equal(t, 1.0, PassProbability(-3))
		require.Equal(t, 0.0, PassProbability(14))
	})
}

func TestDistanceToHomeEdge(t *testing.T) {
	board := gametest.Board{W: 10, H: 20}
	pos := game.Coords{Q: 3, R: 5}

	require.Equal(t, 5, DistanceToHomeEdge(board, pos, game.NorthEdge))
	require.Equal(t, 14, DistanceToHomeEdge(board, pos, game.SouthEdge))
	require.Equal(t, 3, DistanceToHomeEdge(board, pos, game.WestEdge))
	require.Equal(t, 6, DistanceToHomeEdge(board, pos, game.EastEdge))
	require.Zero(t, DistanceToHomeEdge(board, pos, game.NoEdge))
}

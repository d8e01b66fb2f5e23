package cluster

import (
	"testing"

	"hexbot/game"
	"hexbot/game/gametest"
	"hexbot/world"

	"github.com/stretchr/testify/require"
)

func unitAt(id game.UnitID, q, r int) game.Unit {
	return game.Unit{ID: id, Position: game.Coords{Q: q, R: r}}
}

func TestAssign(t *testing.T) {
	t.Run("zero units give an empty assignment", func(t *testing.T) {
		a := NewService(2, 2).Assign(nil)
		require.Empty(t, a.Clusters)
		require.Empty(t, a.ByUnit)
		_, ok := a.Largest()
		require.False(t, ok)
	})

	t.Run("a chain of close units shares one cluster", func(t *testing.T) {
		// 1-2 and 2-3 are within 2 hexes, 1-3 is not
		units := []game.Unit{unitAt(1, 0, 0), unitAt(2, 0, 2), unitAt(3, 0, 4)}
		a := NewService(2, 1).Assign(units)

		require.Len(t, a.Clusters, 1)
		require.Equal(t, a.ByUnit[1], a.ByUnit[3], "Chained units should share a cluster")
		require.Equal(t, game.Coords{Q: 0, R: 2}, a.Clusters[0].Centroid)
	})

	t.Run("distant units form singletons", func(t *testing.T) {
		units := []game.Unit{unitAt(1, 0, 0), unitAt(2, 0, 2), unitAt(3, 10, 10)}
		a := NewService(2, 1).Assign(units)

		require.Len(t, a.Clusters, 2)
		require.True(t, a.Isolated(3))
		require.False(t, a.Isolated(1))
		c, ok := a.Largest()
		require.True(t, ok)
		require.ElementsMatch(t, []game.UnitID{1, 2}, c.Members)
	})

	t.Run("components below the minimum size are split", func(t *testing.T) {
		units := []game.Unit{unitAt(1, 0, 0), unitAt(2, 0, 1), unitAt(3, 5, 5), unitAt(4, 5, 6), unitAt(5, 6, 5)}
		a := NewService(1, 3).Assign(units)

		require.Len(t, a.Clusters, 3)
		require.True(t, a.Isolated(1))
		require.True(t, a.Isolated(2))
		require.Equal(t, a.ByUnit[3], a.ByUnit[5])
	})

	t.Run("ids follow input order and repeat across calls", func(t *testing.T) {
		units := []game.Unit{unitAt(9, 8, 8), unitAt(1, 0, 0), unitAt(2, 0, 1)}
		s := NewService(1, 1)
		a := s.Assign(units)
		b := s.Assign(units)

		require.Equal(t, ID(0), a.ByUnit[9])
		require.Equal(t, ID(1), a.ByUnit[1])
		require.Equal(t, a, b)
	})
}

func TestPartition(t *testing.T) {
	t.Run("friendly and enemy units are clustered separately", func(t *testing.T) {
		e := &gametest.Engine{
			UnitList: []game.Unit{
				{ID: 1, Owner: 1, Position: game.Coords{Q: 0, R: 0}},
				{ID: 2, Owner: 2, Position: game.Coords{Q: 0, R: 1}},
				{ID: 3, Owner: 1, Position: game.Coords{Q: 1, R: 0}},
			},
			Teams: map[game.PlayerID]game.TeamID{1: 1, 2: 2},
		}
		sides := NewService(3, 1).Partition(world.Build(e, 1))

		require.Len(t, sides.Friendly.Clusters, 1)
		require.Len(t, sides.Enemy.Clusters, 1)
		_, ok := sides.Friendly.Of(2)
		require.False(t, ok, "Enemy unit should not be in a friendly cluster")
	})
}

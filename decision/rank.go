package decision

import (
	"math"
	"slices"
	"strings"

	"hexbot/game"
)

// RankedPath is a scored candidate path. RankedPaths are totally ordered:
// higher rank first, then lower path hash, then path key.
type RankedPath struct {
	Rank   float64
	Path   game.MovePath
	Reason string
}

// Compare returns a negative number when a sorts before b. It only returns 0
// when both paths have the same key.
func Compare(a, b RankedPath) int {
	ra, rb := sortable(a.Rank), sortable(b.Rank)
	switch {
	case ra > rb:
		return -1
	case ra < rb:
		return 1
	}
	ha, hb := a.Path.Hash(), b.Path.Hash()
	switch {
	case ha < hb:
		return -1
	case ha > hb:
		return 1
	}
	return strings.Compare(a.Path.Key(), b.Path.Key())
}

func (a RankedPath) Compare(b RankedPath) int {
	return Compare(a, b)
}

// Sort orders ranked paths best first.
func Sort(ranked []RankedPath) {
	slices.SortFunc(ranked, Compare)
}

func sortable(rank float64) float64 {
	if math.IsNaN(rank) {
		return math.Inf(-1)
	}
	return rank
}

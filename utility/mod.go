package utility

import "hexbot/game"

// Set bundles the calculators a scoring pass uses.
type Set struct {
	Damage  DamageCalculator
	Success SuccessCalculator
}

func Defaults() Set {
	return Set{Damage: NewExpectedDamage(), Success: PilotingRolls{}}
}

// DistanceToHomeEdge returns how many hexes separate pos from the edge.
// Boards are laid out with q in [0, width) and r in [0, height).
func DistanceToHomeEdge(board game.Board, pos game.Coords, edge game.Edge) int {
	var d int
	switch edge {
	case game.NorthEdge:
		d = pos.R
	case game.SouthEdge:
		d = board.Height() - 1 - pos.R
	case game.WestEdge:
		d = pos.Q
	case game.EastEdge:
		d = board.Width() - 1 - pos.Q
	default:
		return 0
	}
	return max(d, 0)
}

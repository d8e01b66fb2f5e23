package game

import "iter"

type UnitID int
type PlayerID int
type TeamID int

// Engine is the read-only view of the rules engine that the bot consumes. Any
// game that wants to be played by the ranker implements it.
type Engine interface {
	Units() []Unit
	TeamOf(player PlayerID) (TeamID, bool)
	BooleanOption(name string) bool
	Board() Board
	// Paths yields every legal move path for the unit this turn. Consumers may
	// stop early; implementations must tolerate that.
	Paths(unit Unit) iter.Seq[MovePath]
	// ToHit returns the probability in [0, 1] that attacker, standing at from,
	// hits target at its current position.
	ToHit(attacker Unit, from Coords, target Unit) float64
}

type Board interface {
	Width() int
	Height() int
	Contains(c Coords) bool
	// Hazard is the piloting roll modifier for entering c, 0 for clear terrain.
	Hazard(c Coords) int
}

// Submitter accepts the chosen path for a unit.
type Submitter interface {
	Submit(path MovePath) error
}

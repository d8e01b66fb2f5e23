package engine

import (
	"hexbot/game"
	"hexbot/gamemaster"
)

// Battlefield is a game the bots can play to the end: the engine view they
// rank against plus round control.
type Battlefield interface {
	game.Engine
	game.Submitter
	EndRound() []gamemaster.Fire
	Winner() (team game.TeamID, over bool)
	Round() int
	Stop()
}

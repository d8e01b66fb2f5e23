package utility

import (
	"hexbot/game"
	"hexbot/world"
)

type SuccessCalculator interface {
	// Probability returns the chance in [0, 1] that the unit completes the
	// path without failing a piloting roll.
	Probability(w *world.World, unit game.Unit, path game.MovePath) float64
}

var pPassTable = [13]float64{
	0, 0, 1.0, 35.0 / 36, 33.0 / 36, 30.0 / 36, 26.0 / 36,
	21.0 / 36, 15.0 / 36, 10.0 / 36, 6.0 / 36, 3.0 / 36, 1.0 / 36,
}

// PassProbability is the chance of rolling target or better on 2d6.
func PassProbability(target int) float64 {
	if target <= 2 {
		return 1.0
	}
	if target >= 13 {
		return 0.0
	}
	return pPassTable[target]
}

// PilotingRolls multiplies the pass chance of one piloting roll for every
// hazardous hex entered. Running adds +1 to each roll.
type PilotingRolls struct{}

func (PilotingRolls) Probability(w *world.World, unit game.Unit, path game.MovePath) float64 {
	board := w.Board()
	p := 1.0
	for _, s := range path.Steps {
		if s.Type != game.Forward {
			continue
		}
		hazard := board.Hazard(s.Position)
		if hazard <= 0 {
			continue
		}
		target := unit.Piloting + hazard
		if path.Mode == game.Run {
			target++
		}
		p *= PassProbability(target)
	}
	return p
}

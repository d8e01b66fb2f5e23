package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"hexbot/experiments/metrics"
	"hexbot/meta"
)

// Local plays a battlefield to the end with one controller per player.
type Local struct {
	Battlefield Battlefield
	Controllers []*Controller
	MaxRounds   int
}

func NewLocal(b Battlefield, controllers ...*Controller) *Local {
	if b == nil {
		panic("need a battlefield")
	}
	if len(controllers) < 2 {
		panic("need at least two players")
	}
	return &Local{Battlefield: b, Controllers: controllers, MaxRounds: meta.MAX_TURNS}
}

// Run executes rounds until one team is left, the round limit is reached or
// ctx is done.
func (l *Local) Run(ctx context.Context) (metrics.GameMetric, []metrics.CycleMetric) {
	game := metrics.GameMetric{StartTime: time.Now()}
	var cycles []metrics.CycleMetric

	log.Info().Msgf("starting game with %d players", len(l.Controllers))

rounds:
	for round := 1; round <= l.MaxRounds; round++ {
		if _, over := l.Battlefield.Winner(); over {
			break
		}
		if ctx.Err() != nil {
			log.Warn().Msgf("game interrupted in round %d", round)
			break
		}

		for _, c := range l.Controllers {
			orders, records, err := c.PlayCycle(ctx)
			game.Orders += len(orders)
			cycles = append(cycles, records...)
			if err != nil {
				// a half-played round is never resolved
				log.Warn().Err(err).Msgf("player %d cycle cut short, round %d abandoned", c.Player(), round)
				break rounds
			}
		}

		fires := l.Battlefield.EndRound()
		game.Cycles = round
		log.Info().Msgf("round %d resolved %d attacks", round, len(fires))
	}

	team, over := l.Battlefield.Winner()
	if !over {
		log.Info().Msgf("stopped after %d rounds (no winner yet)", game.Cycles)
		l.Battlefield.Stop()
	} else {
		log.Info().Msgf("game ended with winner: team %d", team)
	}

	game.Winner = int(team)
	game.EndTime = time.Now()
	game.Duration = game.EndTime.Sub(game.StartTime)
	return game, cycles
}

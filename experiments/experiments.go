package experiments

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hexbot/cluster"
	"hexbot/engine"
	"hexbot/experiments/metrics"
	"hexbot/game"
	"hexbot/gamemaster"
	"hexbot/intelligence"
	"hexbot/meta"
	"hexbot/profile"
	"hexbot/ranker"
	"hexbot/utility"
)

const (
	NumGames   = 10 // Per match up
	TimeBudget = 20 * time.Millisecond
)

var budgetConfigs = []metrics.BotConfig{
	{ID: 1, Goroutines: meta.GO_ROUTINES, Budget: time.Millisecond},
	{ID: 2, Goroutines: meta.GO_ROUTINES, Budget: 5 * time.Millisecond},
	{ID: 3, Goroutines: meta.GO_ROUTINES, Budget: TimeBudget},
	{ID: 4, Goroutines: meta.GO_ROUTINES, Budget: 100 * time.Millisecond},
}

// Experiment runs every match up NumGames times on boards seeded from Seed.
type Experiment struct {
	Name     string
	Profiles map[string]*profile.Profile
	Board    gamemaster.Config
	Games    int
	Writer   *metrics.Writer // nil skips writing
}

// RunBudgetExperiment pairs each budget against the baseline budget.
func RunBudgetExperiment(x Experiment) error {
	baseline := metrics.BotConfig{ID: 0, Goroutines: meta.GO_ROUTINES, Budget: TimeBudget}
	matchUps := [][]metrics.BotConfig{}
	for _, config := range budgetConfigs {
		matchUps = append(matchUps, []metrics.BotConfig{baseline, config})
	}
	return x.run(append(budgetConfigs, baseline), matchUps)
}

func (x Experiment) run(configs []metrics.BotConfig, matchUps [][]metrics.BotConfig) error {
	games := x.Games
	if games <= 0 {
		games = NumGames
	}
	count := 0
	gameRecords := []metrics.GameRecord{}
	unitRecords := []metrics.UnitRecord{}

	log.Info().Msgf("starting %s experiment...", x.Name)

	for mi, matchup := range matchUps {
		config1, config2 := matchup[0], matchup[1]
		log.Info().Msgf("starting matchup %d of %d between bot1=%+v and bot2=%+v...", mi+1, len(matchUps), config1, config2)

		for i := 0; i < games; i++ {
			board := x.Board
			board.Seed += uint64(i)
			gameMetric, cycles, err := x.runGame(board, config1, config2)
			if err != nil {
				return err
			}
			count++
			gameRecords = append(gameRecords, metrics.GameRecord{
				ID:         count,
				Bot1:       config1.ID,
				Bot2:       config2.ID,
				GameMetric: gameMetric,
			})
			for _, cm := range cycles {
				unitRecords = append(unitRecords, metrics.UnitRecord{Game: count, CycleMetric: cm})
			}
			log.Info().Msgf("completed matchup %d game %d with winner: team %d", mi+1, i+1, gameMetric.Winner)
		}
	}

	log.Info().Msgf("completed %s experiment", x.Name)
	if x.Writer == nil {
		return nil
	}
	if err := x.Writer.WriteBotConfigs(configs); err != nil {
		return fmt.Errorf("failed to store bot configs: %w", err)
	}
	if err := x.Writer.WriteGameRecords(gameRecords); err != nil {
		return fmt.Errorf("failed to write game records: %w", err)
	}
	if err := x.Writer.WriteUnitRecords(unitRecords); err != nil {
		return fmt.Errorf("failed to write unit records: %w", err)
	}
	log.Info().Msgf("stored records in %s", x.Writer.Dir())
	return nil
}

// runGame plays a single game between two bots.
func (x Experiment) runGame(board gamemaster.Config, config1, config2 metrics.BotConfig) (metrics.GameMetric, []metrics.CycleMetric, error) {
	b := gamemaster.NewLocal(board)
	c1, err := x.createController(1, b, config1)
	if err != nil {
		return metrics.GameMetric{}, nil, err
	}
	c2, err := x.createController(2, b, config2)
	if err != nil {
		return metrics.GameMetric{}, nil, err
	}
	gm, cycles := engine.NewLocal(b, c1, c2).Run(context.Background())
	return gm, cycles, nil
}

func (x Experiment) createController(player game.PlayerID, b *gamemaster.Local, config metrics.BotConfig) (*engine.Controller, error) {
	p := profile.Default()
	if config.Profile != "" {
		found, ok := x.Profiles[config.Profile]
		if !ok {
			return nil, fmt.Errorf("bot %d: unknown profile %q", config.ID, config.Profile)
		}
		p = found
	}
	intel, err := intelligence.FromProfile(p)
	if err != nil {
		return nil, err
	}

	options := []ranker.Option{ranker.WithMetrics()}
	if config.Goroutines > 0 {
		options = append(options, ranker.WithGoroutines(config.Goroutines))
	}
	if config.Budget > 0 {
		options = append(options, ranker.WithBudget(config.Budget))
	}
	r := ranker.New(intel, utility.Defaults(), options...)
	return engine.NewController(player, b, b, r, cluster.NewService(meta.CLUSTER_DISTANCE, meta.CLUSTER_MIN_SIZE)), nil
}

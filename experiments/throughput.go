package experiments

import (
	"maps"
	"slices"

	"hexbot/experiments/metrics"
	"hexbot/profile"
)

var throughputConfigs = []metrics.BotConfig{
	{ID: 1, Goroutines: 1, Budget: TimeBudget},
	{ID: 2, Goroutines: 2, Budget: TimeBudget},
	{ID: 3, Goroutines: 4, Budget: TimeBudget},
	{ID: 4, Goroutines: 8, Budget: TimeBudget},
	{ID: 5, Goroutines: 16, Budget: TimeBudget},
}

// RunThroughputExperiment measures paths scored per budget as goroutines grow.
// Both bots share a config for similar playing strength and game length.
func RunThroughputExperiment(x Experiment) error {
	matchUps := [][]metrics.BotConfig{}
	for _, config := range throughputConfigs {
		matchUps = append(matchUps, []metrics.BotConfig{config, config})
	}
	return x.run(throughputConfigs, matchUps)
}

// RunProfileExperiment pits every named profile against the default one.
func RunProfileExperiment(x Experiment) error {
	baseline := metrics.BotConfig{ID: 0, Budget: TimeBudget}
	configs := []metrics.BotConfig{baseline}
	matchUps := [][]metrics.BotConfig{}
	for _, name := range sortedNames(x.Profiles) {
		config := metrics.BotConfig{ID: len(configs), Budget: TimeBudget, Profile: name}
		configs = append(configs, config)
		matchUps = append(matchUps, []metrics.BotConfig{baseline, config})
	}
	return x.run(configs, matchUps)
}

func sortedNames(profiles map[string]*profile.Profile) []string {
	return slices.Sorted(maps.Keys(profiles))
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hexbot/cluster"
	"hexbot/engine"
	"hexbot/experiments"
	"hexbot/experiments/metrics"
	"hexbot/game"
	"hexbot/gamemaster"
	"hexbot/intelligence"
	"hexbot/meta"
	"hexbot/profile"
	"hexbot/ranker"
	"hexbot/utility"
)

type options struct {
	profiles   []string
	store      string
	seed       uint64
	rounds     int
	budget     time.Duration
	goroutines int
	units      int
	width      int
	height     int
	roughness  float64
	stickiness float64
	experiment string
	games      int
}

type profileFlags []string

func (p *profileFlags) String() string     { return fmt.Sprint(*p) }
func (p *profileFlags) Set(v string) error { *p = append(*p, v); return nil }

func main() {
	var opts options
	var profiles profileFlags
	level := flag.String("level", "info", "log level (debug, info, warn, error)")
	flag.Var(&profiles, "profile", "profile file (yaml or json), or a stored profile name with -store; first for player 1, second for player 2")
	flag.StringVar(&opts.store, "store", "", "SQLite profile library; loaded files are saved into it")
	flag.Uint64Var(&opts.seed, "seed", 1, "board and deployment seed")
	flag.IntVar(&opts.rounds, "rounds", meta.MAX_TURNS, "round limit")
	flag.DurationVar(&opts.budget, "budget", meta.BUDGET, "ranking budget per unit")
	flag.IntVar(&opts.goroutines, "goroutines", meta.GO_ROUTINES, "scoring goroutines")
	flag.IntVar(&opts.units, "units", 3, "units per team")
	flag.IntVar(&opts.width, "width", 16, "board width")
	flag.IntVar(&opts.height, "height", 12, "board height")
	flag.Float64Var(&opts.roughness, "roughness", 0.4, "share of hazardous terrain in [0, 1]")
	flag.Float64Var(&opts.stickiness, "stickiness", -1, "override profile stickiness when >= 0")
	flag.StringVar(&opts.experiment, "experiment", "", "run an experiment instead of one game: budget, throughput or profiles")
	flag.IntVar(&opts.games, "games", experiments.NumGames, "games per match up in experiments")
	flag.Parse()
	opts.profiles = profiles

	lvl, err := zerolog.ParseLevel(*level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", *level)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatal().Err(err).Msg("hexbot failed")
	}
}

func run(ctx context.Context, opts options) error {
	loaded, err := loadProfiles(opts)
	if err != nil {
		return err
	}
	board := gamemaster.Config{
		Width:        opts.width,
		Height:       opts.height,
		UnitsPerTeam: opts.units,
		Seed:         opts.seed,
		Roughness:    opts.roughness,
	}

	if opts.experiment != "" {
		return runExperiment(opts, board, loaded)
	}

	b := gamemaster.NewLocal(board)
	controllers := make([]*engine.Controller, 0, 2)
	for i, player := range []game.PlayerID{1, 2} {
		p := profile.Default()
		if len(loaded) > 0 {
			p = loaded[min(i, len(loaded)-1)]
		}
		c, err := newController(player, b, p, opts)
		if err != nil {
			return err
		}
		log.Info().Msgf("player %d plays profile %s (%s)", player, p.Name, p.ID)
		controllers = append(controllers, c)
	}

	l := engine.NewLocal(b, controllers...)
	l.MaxRounds = opts.rounds
	gm, cycles := l.Run(ctx)
	summarize(gm, cycles)
	return nil
}

func newController(player game.PlayerID, b *gamemaster.Local, p *profile.Profile, opts options) (*engine.Controller, error) {
	var intelOpts []intelligence.Option
	if opts.stickiness >= 0 {
		intelOpts = append(intelOpts, intelligence.WithStickiness(opts.stickiness))
	}
	intel, err := intelligence.FromProfile(p, intelOpts...)
	if err != nil {
		return nil, err
	}
	r := ranker.New(intel, utility.Defaults(),
		ranker.WithGoroutines(opts.goroutines),
		ranker.WithBudget(opts.budget),
		ranker.WithMetrics(),
	)
	return engine.NewController(player, b, b, r, cluster.NewService(meta.CLUSTER_DISTANCE, meta.CLUSTER_MIN_SIZE)), nil
}

// loadProfiles reads each -profile argument as a file, or as a stored name
// when it is not a file and a store is open.
func loadProfiles(opts options) ([]*profile.Profile, error) {
	var store *profile.Store
	if opts.store != "" {
		s, err := profile.OpenStore(opts.store)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		store = s
	}

	var out []*profile.Profile
	for _, arg := range opts.profiles {
		var doc profile.Document
		if _, err := os.Stat(arg); err == nil {
			doc, err = profile.LoadFile(arg)
			if err != nil {
				return nil, err
			}
			if store != nil {
				if err := store.Put(doc); err != nil {
					return nil, fmt.Errorf("save profile %q: %w", doc.Name, err)
				}
			}
		} else if store != nil {
			doc, err = store.Get(arg)
			if err != nil {
				return nil, err
			}
		} else {
			return nil, fmt.Errorf("profile %q: %w", arg, err)
		}

		p, err := profile.Build(doc, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	if store != nil && len(opts.profiles) == 0 {
		docs, err := store.List()
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			log.Info().Msgf("stored profile %s: %s", doc.Name, doc.Description)
		}
	}
	return out, nil
}

func runExperiment(opts options, board gamemaster.Config, loaded []*profile.Profile) error {
	w, err := metrics.NewWriter(opts.experiment)
	if err != nil {
		return err
	}
	named := make(map[string]*profile.Profile, len(loaded))
	for _, p := range loaded {
		named[p.Name] = p
	}
	x := experiments.Experiment{Name: opts.experiment, Profiles: named, Board: board, Games: opts.games, Writer: w}

	switch opts.experiment {
	case "budget":
		return experiments.RunBudgetExperiment(x)
	case "throughput":
		return experiments.RunThroughputExperiment(x)
	case "profiles":
		return experiments.RunProfileExperiment(x)
	}
	return fmt.Errorf("unknown experiment %q", opts.experiment)
}

func summarize(gm metrics.GameMetric, cycles []metrics.CycleMetric) {
	var scored, enumerated, partial int
	for _, c := range cycles {
		scored += c.Scored
		enumerated += c.Enumerated
		if c.Partial {
			partial++
		}
	}
	result := "draw"
	if gm.Winner != 0 {
		result = fmt.Sprintf("team %d wins", gm.Winner)
	}
	fmt.Printf("%s after %s round in %s\n", result, humanize.Ordinal(gm.Cycles), gm.Duration.Round(time.Millisecond))
	fmt.Printf("%s orders, %s paths enumerated, %s scored, %s partial rankings\n",
		humanize.Comma(int64(gm.Orders)),
		humanize.Comma(int64(enumerated)),
		humanize.Comma(int64(scored)),
		humanize.Comma(int64(partial)),
	)
}

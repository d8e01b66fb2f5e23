// Package ranker enumerates a unit's legal move paths, scores them against an
// Intelligence and returns them best first within a wall-clock budget.
package ranker

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hexbot/cluster"
	"hexbot/decision"
	"hexbot/experiments/metrics"
	"hexbot/game"
	"hexbot/intelligence"
	"hexbot/meta"
	"hexbot/utility"
	"hexbot/world"
)

var (
	// ErrEmptyCandidateSet means the unit has no legal path. Callers stand still.
	ErrEmptyCandidateSet = errors.New("empty candidate set")
	// ErrDeadlineExceeded means the budget ran out before enumeration ended
	// and the ordering is partial.
	ErrDeadlineExceeded = errors.New("ranking deadline exceeded")
)

const partialTag = "[partial] "

type Option func(r *PathRanker)

func WithGoroutines(goroutines int) Option {
	return func(r *PathRanker) {
		if goroutines > 0 {
			r.goroutines = goroutines
		}
	}
}

// WithBudget sets the per-unit wall-clock budget. Zero means no budget.
func WithBudget(budget time.Duration) Option {
	return func(r *PathRanker) {
		if budget >= 0 {
			r.budget = budget
		}
	}
}

func WithBatchSize(size int) Option {
	return func(r *PathRanker) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

func WithMaxCandidates(n int) Option {
	return func(r *PathRanker) {
		if n > 0 {
			r.maxCandidates = n
		}
	}
}

func WithMetrics() Option {
	return func(r *PathRanker) {
		r.metrics = metrics.NewCollector()
	}
}

type PathRanker struct {
	intel         *intelligence.Intelligence
	calc          utility.Set
	goroutines    int
	budget        time.Duration
	batchSize     int
	maxCandidates int
	metrics       metrics.Collector
}

func New(intel *intelligence.Intelligence, calc utility.Set, options ...Option) *PathRanker {
	if intel == nil {
		panic("path ranker needs an intelligence")
	}
	if calc.Damage == nil || calc.Success == nil {
		panic("path ranker needs damage and success calculators")
	}
	r := &PathRanker{ // Default values
		intel:         intel,
		calc:          calc,
		goroutines:    meta.GO_ROUTINES,
		budget:        meta.BUDGET,
		batchSize:     meta.BATCH_SIZE,
		maxCandidates: meta.MAX_CANDIDATES,
		metrics:       metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *PathRanker) Intelligence() *intelligence.Intelligence { return r.intel }

// Result is the outcome of ranking one unit's paths.
type Result struct {
	Unit    game.Unit
	Ranked  []decision.RankedPath // best first
	Chosen  decision.RankedPath
	Found   bool // Chosen was picked from Ranked
	Partial bool
	Err     error
	Metric  metrics.RankMetric
}

// Choice returns the chosen path, or standing still with the lowest possible
// rank when nothing was ranked.
func (res Result) Choice() decision.RankedPath {
	if res.Found {
		return res.Chosen
	}
	reason := "stand still: no candidates"
	if res.Err != nil {
		reason = fmt.Sprintf("stand still: %v", res.Err)
	}
	return decision.RankedPath{Rank: math.Inf(-1), Path: game.StandStill(res.Unit), Reason: reason}
}

// Rank scores every path the engine enumerates for unit. When the budget runs
// out, the paths scored so far are returned as a partial ordering. The first
// batch is always scored.
func (r *PathRanker) Rank(ctx context.Context, w *world.World, sides cluster.Sides, unit game.Unit) Result {
	r.metrics.Start(r.goroutines, r.budget)
	res := r.rank(ctx, w, sides, unit)
	r.metrics.SetPartial(res.Partial)
	res.Metric = r.metrics.Complete()

	log.Debug().
		Int("unit", int(unit.ID)).
		Int("ranked", len(res.Ranked)).
		Bool("partial", res.Partial).
		Err(res.Err).
		Msg("ranked paths")
	return res
}

func (r *PathRanker) rank(ctx context.Context, w *world.World, sides cluster.Sides, unit game.Unit) Result {
	res := Result{Unit: unit}
	current, ok := w.Unit(unit.ID)
	if !ok {
		res.Err = fmt.Errorf("unit %d: %w", unit.ID, world.ErrStaleReference)
		return res
	}
	res.Unit = current
	if current.Immobile {
		res.Err = ErrEmptyCandidateSet
		return res
	}

	if r.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.budget)
		defer cancel()
	}

	dctx := &decision.Context{
		World:    w,
		Clusters: sides,
		Calc:     r.calc,
		Previous: r.intel.Previous,
	}

	next, stop := iter.Pull(w.Engine().Paths(current))
	defer stop()

	seen := make(map[string]struct{})
	var ranked []decision.RankedPath
	for {
		batch, more := r.pull(next, seen, len(ranked))
		ranked = append(ranked, r.score(dctx, current, batch)...)
		if !more {
			break
		}
		if err := ctx.Err(); err != nil {
			// enumeration may have ended exactly at the batch boundary
			if _, ok := next(); !ok {
				break
			}
			res.Partial = true
			if errors.Is(err, context.DeadlineExceeded) {
				res.Err = ErrDeadlineExceeded
			} else {
				res.Err = fmt.Errorf("ranking cancelled: %w", err)
			}
			break
		}
	}

	if len(ranked) == 0 {
		res.Err = ErrEmptyCandidateSet
		return res
	}

	decision.Sort(ranked)
	if res.Partial {
		for i := range ranked {
			ranked[i].Reason = partialTag + ranked[i].Reason
		}
		log.Warn().Msgf("unit %d ranked %d paths before the %v budget ran out", current.ID, len(ranked), r.budget)
	}
	res.Ranked = ranked
	res.Chosen, res.Found = r.intel.DecisionMaker().PickOne(ranked, r.intel.BonusFactor)
	return res
}

// pull takes up to one batch of unseen paths. more is false once enumeration
// ended or the candidate cap was reached.
func (r *PathRanker) pull(next func() (game.MovePath, bool), seen map[string]struct{}, have int) (batch []game.MovePath, more bool) {
	batch = make([]game.MovePath, 0, r.batchSize)
	for len(batch) < r.batchSize {
		if have+len(batch) >= r.maxCandidates {
			log.Debug().Msgf("candidate cap %d reached", r.maxCandidates)
			r.metrics.AddEnumerated(len(batch))
			return batch, false
		}
		path, ok := next()
		if !ok {
			r.metrics.AddEnumerated(len(batch))
			return batch, false
		}
		key := path.Key()
		if _, dup := seen[key]; dup {
			log.Warn().Msgf("skipping duplicate path %s", key)
			r.metrics.AddDuplicate()
			continue
		}
		seen[key] = struct{}{}
		batch = append(batch, path)
	}
	r.metrics.AddEnumerated(len(batch))
	return batch, true
}

// score evaluates a batch on the worker pool. Results keep the batch order.
func (r *PathRanker) score(ctx *decision.Context, unit game.Unit, batch []game.MovePath) []decision.RankedPath {
	results := make([]decision.RankedPath, len(batch))
	if len(batch) == 0 {
		return results
	}

	task := make(chan int, len(batch))
	for i := range batch {
		task <- i
	}
	close(task)

	var wg sync.WaitGroup
	for i := 0; i < min(r.goroutines, len(batch)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := range task {
				c := decision.NewCandidate(unit, batch[i])
				rank, reason := r.intel.Score(ctx, c)
				results[i] = decision.RankedPath{Rank: rank, Path: batch[i], Reason: reason}
				r.metrics.AddScored()
			}
		}()
	}

	wg.Wait()
	return results
}

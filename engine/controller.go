package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"hexbot/cluster"
	"hexbot/experiments/metrics"
	"hexbot/game"
	"hexbot/profile"
	"hexbot/ranker"
	"hexbot/world"
)

// Order is the path submitted for one unit in a cycle.
type Order struct {
	Unit    game.UnitID
	Path    game.MovePath
	Rank    float64
	Reason  string
	Partial bool
	Err     error // ranking or submission problem that was absorbed
}

// Controller runs one player's decision cycles.
type Controller struct {
	player    game.PlayerID
	engine    game.Engine
	submitter game.Submitter
	ranker    *ranker.PathRanker
	clusters  cluster.Service

	mu      sync.Mutex
	pending *profile.Profile
	cycle   int
}

func NewController(player game.PlayerID, engine game.Engine, submitter game.Submitter, r *ranker.PathRanker, clusters cluster.Service) *Controller {
	if engine == nil || submitter == nil || r == nil {
		panic("controller needs an engine, a submitter and a ranker")
	}
	return &Controller{
		player:    player,
		engine:    engine,
		submitter: submitter,
		ranker:    r,
		clusters:  clusters,
	}
}

func (c *Controller) Player() game.PlayerID { return c.player }

// SwapProfile replaces the bot's decisions at the start of the next cycle.
func (c *Controller) SwapProfile(p *profile.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = p
}

// PlayCycle builds this cycle's world, then ranks, picks and submits a path
// for each of the player's units in id order. Units that cannot be ranked
// stand still. The returned error is only set when ctx ends the cycle early.
func (c *Controller) PlayCycle(ctx context.Context) ([]Order, []metrics.CycleMetric, error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.cycle++
	cycle := c.cycle
	c.mu.Unlock()

	intel := c.ranker.Intelligence()
	if pending != nil {
		if err := intel.Swap(pending); err != nil {
			log.Error().Err(err).Msgf("player %d keeps profile %s", c.player, intel.Profile())
		}
	}

	w := world.Build(c.engine, c.player)
	sides := c.clusters.Partition(w)

	units := w.MyUnits()
	orders := make([]Order, 0, len(units))
	records := make([]metrics.CycleMetric, 0, len(units))
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return orders, records, fmt.Errorf("cycle %d: %w", cycle, err)
		}

		res := c.ranker.Rank(ctx, w, sides, u)
		choice := res.Choice()
		order := Order{
			Unit:    u.ID,
			Path:    choice.Path,
			Rank:    choice.Rank,
			Reason:  choice.Reason,
			Partial: res.Partial,
		}
		if res.Err != nil && !errors.Is(res.Err, ranker.ErrEmptyCandidateSet) {
			order.Err = res.Err
		}

		if err := c.submitter.Submit(choice.Path); err != nil {
			log.Warn().Err(err).Msgf("unit %d path %s rejected, standing still", u.ID, choice.Path)
			order.Err = errors.Join(order.Err, err)
			order.Path = game.StandStill(u)
			if err := c.submitter.Submit(order.Path); err != nil {
				log.Warn().Err(err).Msgf("unit %d could not stand still", u.ID)
				order.Err = errors.Join(order.Err, err)
			}
		} else if res.Found {
			intel.Remember(u.ID, choice)
		}

		log.Debug().Msgf("cycle %d unit %d -> %s (%.2f) %s", cycle, u.ID, order.Path, order.Rank, order.Reason)
		orders = append(orders, order)
		records = append(records, metrics.CycleMetric{
			Cycle:      cycle,
			Player:     int(c.player),
			Unit:       int(u.ID),
			Rank:       order.Rank,
			RankMetric: res.Metric,
		})
	}
	return orders, records, nil
}

package gamemaster

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"hexbot/game"
	"hexbot/utility"
)

var (
	ErrGameOver     = errors.New("game is over")
	ErrIllegalPath  = errors.New("illegal path")
	ErrAlreadyMoved = errors.New("unit already moved this round")
)

type Config struct {
	Width        int
	Height       int
	UnitsPerTeam int
	Seed         uint64
	Roughness    float64
	Options      map[string]bool
}

func DefaultConfig() Config {
	return Config{Width: 16, Height: 12, UnitsPerTeam: 3, Seed: 1, Roughness: 0.4}
}

// Local is an in-process battlefield for two teams, one player each. It
// implements game.Engine and game.Submitter; reads are safe from many
// goroutines.
type Local struct {
	mu       sync.RWMutex
	board    *Board
	units    map[game.UnitID]*game.Unit
	order    []game.UnitID
	teams    map[game.PlayerID]game.TeamID
	options  map[string]bool
	rng      *rand.Rand
	damage   map[game.UnitID]float64 // accumulated, not yet applied to armor
	moved    map[game.UnitID]game.MovePath
	round    int
	gameOver bool
}

func NewLocal(cfg Config) *Local {
	if cfg.Width < 4 || cfg.Height < 2 {
		panic("board too small")
	}
	if cfg.UnitsPerTeam <= 0 || cfg.UnitsPerTeam > cfg.Height {
		panic("units per team must fit along the home edge")
	}

	e := &Local{
		board:   GenerateBoard(cfg.Width, cfg.Height, int64(cfg.Seed), cfg.Roughness),
		units:   make(map[game.UnitID]*game.Unit),
		teams:   map[game.PlayerID]game.TeamID{1: 1, 2: 2},
		options: make(map[string]bool, len(cfg.Options)),
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		damage:  make(map[game.UnitID]float64),
		moved:   make(map[game.UnitID]game.MovePath),
		round:   1,
	}
	for k, v := range cfg.Options {
		e.options[k] = v
	}
	e.deploy(cfg.UnitsPerTeam)
	return e
}

// deploy places player 1 on the west edge facing east and player 2 on the
// east edge facing west, at distinct rows drawn from the seed.
func (e *Local) deploy(perTeam int) {
	id := game.UnitID(1)
	for _, player := range []game.PlayerID{1, 2} {
		rows := e.rng.Perm(e.board.height)[:perTeam]
		slices.Sort(rows)
		for _, r := range rows {
			u := &game.Unit{
				ID:       id,
				Owner:    player,
				WalkMP:   4,
				RunMP:    6,
				Piloting: 4 + e.rng.Intn(2),
				Gunnery:  3 + e.rng.Intn(2),
				Armor:    40,
				MaxArmor: 40,
				Weapons:  game.Capability{Damage: 10, Short: 3, Medium: 6, Long: 9},
			}
			if player == 1 {
				u.Position = game.Coords{Q: 0, R: r}
				u.Facing = game.SouthEast
				u.HomeEdge = game.WestEdge
			} else {
				// keep the east column inside the rhombus row
				u.Position = game.Coords{Q: e.board.width - 1, R: r}
				u.Facing = game.NorthWest
				u.HomeEdge = game.EastEdge
			}
			e.board.clear(u.Position)
			e.units[id] = u
			e.order = append(e.order, id)
			id++
		}
	}
}

func (e *Local) Units() []game.Unit {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]game.Unit, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.units[id])
	}
	return out
}

func (e *Local) TeamOf(p game.PlayerID) (game.TeamID, bool) {
	t, ok := e.teams[p]
	return t, ok
}

func (e *Local) BooleanOption(name string) bool { return e.options[name] }
func (e *Local) Board() game.Board              { return e.board }
func (e *Local) Round() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.round
}

// ToHit follows the 2d6 roll: gunnery plus a range modifier of 0, 2 or 4,
// plus 1 against a unit that moved this round.
func (e *Local) ToHit(attacker game.Unit, from game.Coords, target game.Unit) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.toHitLocked(attacker, from, target)
}

func hitChance(attacker game.Unit, distance int, targetMoved bool) float64 {
	roll := attacker.Gunnery
	switch {
	case distance <= attacker.Weapons.Short:
	case distance <= attacker.Weapons.Medium:
		roll += 2
	default:
		roll += 4
	}
	if targetMoved {
		roll++
	}
	return utility.PassProbability(roll)
}

type node struct {
	path game.MovePath
	cost int
}

type state struct {
	pos    game.Coords
	facing game.Facing
}

// Paths yields the cheapest path to every reachable (hex, facing), first
// walking then running. Running paths only cover states walking cannot reach.
func (e *Local) Paths(u game.Unit) iter.Seq[game.MovePath] {
	return func(yield func(game.MovePath) bool) {
		e.mu.RLock()
		current, ok := e.units[u.ID]
		if !ok || current.Destroyed() || current.Immobile {
			e.mu.RUnlock()
			return
		}
		unit := *current
		_, done := e.moved[u.ID]
		done = done || e.gameOver
		occupied := make(map[game.Coords]bool, len(e.units))
		for _, other := range e.units {
			if other.ID != unit.ID && !other.Destroyed() {
				occupied[other.Position] = true
			}
		}
		e.mu.RUnlock()

		if done {
			return
		}

		walked := make(map[state]bool)
		for _, mode := range []game.MoveMode{game.Walk, game.Run} {
			budget := unit.WalkMP
			if mode == game.Run {
				budget = unit.RunMP
			}
			start := game.StandStill(unit)
			start.Mode = mode

			visited := map[state]bool{{pos: unit.Position, facing: unit.Facing}: true}
			queue := []node{{path: start}}
			for len(queue) > 0 {
				n := queue[0]
				queue = queue[1:]

				s := state{pos: n.path.Final(), facing: n.path.FinalFacing()}
				if mode == game.Walk {
					walked[s] = true
					if !yield(n.path) {
						return
					}
				} else if !walked[s] {
					if !yield(n.path) {
						return
					}
				}

				for _, step := range []game.StepType{game.Forward, game.TurnLeft, game.TurnRight} {
					next := n.path.Extend(step)
					cost := n.cost + 1
					ns := state{pos: next.Final(), facing: next.FinalFacing()}
					if cost > budget || visited[ns] {
						continue
					}
					if step == game.Forward && (!e.board.Passable(ns.pos) || occupied[ns.pos]) {
						continue
					}
					visited[ns] = true
					queue = append(queue, node{path: next, cost: cost})
				}
			}
		}
	}
}

func (e *Local) isOver() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gameOver
}

// Submit validates path against the unit's position and movement budget and
// moves the unit. A failed piloting roll on a hazard leaves the unit where it
// fell and costs armor.
func (e *Local) Submit(path game.MovePath) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gameOver {
		return ErrGameOver
	}
	u, ok := e.units[path.Unit]
	if !ok || u.Destroyed() {
		return fmt.Errorf("%w: unknown unit %d", ErrIllegalPath, path.Unit)
	}
	if _, done := e.moved[u.ID]; done {
		return fmt.Errorf("unit %d: %w", u.ID, ErrAlreadyMoved)
	}
	if err := e.validate(*u, path); err != nil {
		return err
	}

	for _, s := range path.Steps {
		if s.Type == game.Forward {
			if hazard := e.board.Hazard(s.Position); hazard > 0 {
				target := u.Piloting + hazard
				if path.Mode == game.Run {
					target++
				}
				if e.roll2d6() < target {
					u.Position = s.Position
					u.Facing = s.Facing
					e.damage[u.ID] += 5
					e.moved[u.ID] = path
					log.Debug().Msgf("unit %d fell at %s", u.ID, s.Position)
					return nil
				}
			}
		}
		u.Position = s.Position
		u.Facing = s.Facing
	}
	e.moved[u.ID] = path
	return nil
}

func (e *Local) validate(u game.Unit, path game.MovePath) error {
	if path.Start != u.Position || path.StartFacing.Normalize() != u.Facing.Normalize() {
		return fmt.Errorf("%w: path for unit %d starts at %s, unit is at %s", ErrIllegalPath, u.ID, path.Start, u.Position)
	}
	budget := u.WalkMP
	if path.Mode == game.Run {
		budget = u.RunMP
	}
	if path.Cost() > budget {
		return fmt.Errorf("%w: cost %d exceeds %s budget %d", ErrIllegalPath, path.Cost(), path.Mode, budget)
	}
	if u.Immobile && path.Cost() > 0 {
		return fmt.Errorf("%w: unit %d is immobile", ErrIllegalPath, u.ID)
	}

	pos, facing := path.Start, path.StartFacing
	for i, s := range path.Steps {
		switch s.Type {
		case game.Forward:
			pos = pos.Neighbor(facing)
			if !e.board.Passable(pos) || e.occupied(pos, u.ID) {
				return fmt.Errorf("%w: step %d enters %s", ErrIllegalPath, i, pos)
			}
		case game.TurnLeft:
			facing = facing.Left()
		case game.TurnRight:
			facing = facing.Right()
		}
		if s.Position != pos || s.Facing.Normalize() != facing.Normalize() {
			return fmt.Errorf("%w: step %d is inconsistent", ErrIllegalPath, i)
		}
	}
	return nil
}

func (e *Local) occupied(c game.Coords, except game.UnitID) bool {
	for _, u := range e.units {
		if u.ID != except && !u.Destroyed() && u.Position == c {
			return true
		}
	}
	return false
}

func (e *Local) roll2d6() int {
	return 2 + e.rng.Intn(6) + e.rng.Intn(6)
}

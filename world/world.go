// Package world provides the per-cycle snapshot of the battlefield that the
// decision pipeline reads from. A World is built once per decision cycle and
// never modified afterwards; the With* methods return a new World.
package world

import (
	"errors"
	"slices"

	"hexbot/game"

	"github.com/rs/zerolog/log"
)

// ErrStaleReference marks a unit that is referenced but no longer supplied by
// the engine, usually because it was destroyed mid-cycle.
var ErrStaleReference = errors.New("unit no longer exists")

// Snapshot lists the unit ids and game flags a World is built from.
type Snapshot struct {
	Me           game.PlayerID
	MyUnits      []game.UnitID
	AlliedUnits  []game.UnitID
	EnemyUnits   []game.UnitID
	TeamOfPlayer map[game.PlayerID]game.TeamID
	Options      []string
}

type World struct {
	engine  game.Engine
	me      game.PlayerID
	units   map[game.UnitID]game.Unit
	mine    []game.UnitID
	allied  []game.UnitID
	enemy   []game.UnitID
	teams   map[game.PlayerID]game.TeamID
	options map[string]bool
}

// Build partitions the engine's live units by team relative to player me.
func Build(engine game.Engine, me game.PlayerID) *World {
	snap := Snapshot{Me: me, TeamOfPlayer: make(map[game.PlayerID]game.TeamID)}
	myTeam, hasTeam := engine.TeamOf(me)

	for _, u := range engine.Units() {
		team, ok := engine.TeamOf(u.Owner)
		if ok {
			snap.TeamOfPlayer[u.Owner] = team
		}
		switch {
		case u.Owner == me:
			snap.MyUnits = append(snap.MyUnits, u.ID)
		case ok && hasTeam && team == myTeam:
			snap.AlliedUnits = append(snap.AlliedUnits, u.ID)
		default:
			snap.EnemyUnits = append(snap.EnemyUnits, u.ID)
		}
	}
	if hasTeam {
		snap.TeamOfPlayer[me] = myTeam
	}
	return New(engine, snap)
}

// New builds a World from explicit unit sets. Ids the engine does not know
// about are dropped.
func New(engine game.Engine, snap Snapshot) *World {
	w := &World{
		engine:  engine,
		me:      snap.Me,
		units:   make(map[game.UnitID]game.Unit),
		teams:   make(map[game.PlayerID]game.TeamID, len(snap.TeamOfPlayer)),
		options: make(map[string]bool, len(snap.Options)),
	}
	for _, u := range engine.Units() {
		if u.Destroyed() {
			continue
		}
		w.units[u.ID] = u
	}
	for p, t := range snap.TeamOfPlayer {
		w.teams[p] = t
	}
	for _, name := range snap.Options {
		w.options[name] = true
	}
	w.mine = w.resolve(snap.MyUnits)
	w.allied = w.resolve(snap.AlliedUnits)
	w.enemy = w.resolve(snap.EnemyUnits)
	return w
}

func (w *World) resolve(ids []game.UnitID) []game.UnitID {
	out := make([]game.UnitID, 0, len(ids))
	for _, id := range ids {
		if _, ok := w.units[id]; !ok {
			log.Debug().Int("unit", int(id)).Err(ErrStaleReference).Msg("dropping unit from world")
			continue
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

func (w *World) clone() *World {
	c := *w
	return &c
}

// WithMyUnits returns a copy of the world with the friendly set replaced.
func (w *World) WithMyUnits(ids []game.UnitID) *World {
	c := w.clone()
	c.mine = w.resolve(ids)
	return c
}

// WithAlliedUnits returns a copy of the world with the allied set replaced.
func (w *World) WithAlliedUnits(ids []game.UnitID) *World {
	c := w.clone()
	c.allied = w.resolve(ids)
	return c
}

// WithEnemyUnits returns a copy of the world with the enemy set replaced.
func (w *World) WithEnemyUnits(ids []game.UnitID) *World {
	c := w.clone()
	c.enemy = w.resolve(ids)
	return c
}

func (w *World) Engine() game.Engine { return w.engine }
func (w *World) Me() game.PlayerID   { return w.me }
func (w *World) Board() game.Board   { return w.engine.Board() }

// InGameObjects passes through the engine's live unit list.
func (w *World) InGameObjects() []game.Unit {
	return w.engine.Units()
}

// BooleanOption reads a game rule toggle. Options listed in the snapshot
// override the engine.
func (w *World) BooleanOption(name string) bool {
	if w.options[name] {
		return true
	}
	return w.engine.BooleanOption(name)
}

func (w *World) TeamOf(player game.PlayerID) (game.TeamID, bool) {
	t, ok := w.teams[player]
	return t, ok
}

// Unit looks a unit up in the snapshot.
func (w *World) Unit(id game.UnitID) (game.Unit, bool) {
	u, ok := w.units[id]
	return u, ok
}

func (w *World) MyUnits() []game.Unit     { return w.lookup(w.mine) }
func (w *World) AlliedUnits() []game.Unit { return w.lookup(w.allied) }
func (w *World) EnemyUnits() []game.Unit  { return w.lookup(w.enemy) }

// FriendlyUnits returns my units followed by allied units.
func (w *World) FriendlyUnits() []game.Unit {
	return append(w.MyUnits(), w.AlliedUnits()...)
}

func (w *World) IsEnemy(id game.UnitID) bool {
	_, found := slices.BinarySearch(w.enemy, id)
	return found
}

func (w *World) lookup(ids []game.UnitID) []game.Unit {
	out := make([]game.Unit, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.units[id])
	}
	return out
}

package gamemaster

import (
	"math"

	"github.com/rs/zerolog/log"

	"hexbot/game"
)

// Fire is one unit's attack resolved at the end of a round.
type Fire struct {
	Attacker game.UnitID
	Target   game.UnitID
	Damage   float64
}

// EndRound resolves weapons fire for every surviving unit, applies the
// damage and starts the next round. Each unit fires at the enemy it is most
// likely to hurt; damage is the expected value so replays are stable.
func (e *Local) EndRound() []Fire {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gameOver {
		return nil
	}

	var fires []Fire
	for _, id := range e.order {
		attacker := e.units[id]
		if attacker.Destroyed() {
			continue
		}
		best := Fire{Attacker: id}
		for _, tid := range e.order {
			target := e.units[tid]
			if target.Destroyed() || e.teams[target.Owner] == e.teams[attacker.Owner] {
				continue
			}
			d := game.Distance(attacker.Position, target.Position)
			dmg := attacker.Weapons.Damage * attacker.Weapons.RangeFactor(d) * e.toHitLocked(*attacker, attacker.Position, *target)
			if dmg > best.Damage {
				best.Target, best.Damage = tid, dmg
			}
		}
		if best.Damage > 0 {
			fires = append(fires, best)
		}
	}

	// fire is simultaneous: apply after every attacker has picked
	for _, f := range fires {
		e.damage[f.Target] += f.Damage
	}
	for _, id := range e.order {
		u := e.units[id]
		if dmg := e.damage[id]; dmg >= 1 {
			whole := math.Floor(dmg)
			u.Armor = max(0, u.Armor-int(whole))
			e.damage[id] = dmg - whole
			if u.Destroyed() {
				log.Info().Msgf("unit %d destroyed in round %d", id, e.round)
			}
		}
	}

	clear(e.moved)
	e.round++
	if _, over := e.winnerLocked(); over {
		e.gameOver = true
	}
	return fires
}

func (e *Local) toHitLocked(attacker game.Unit, from game.Coords, target game.Unit) float64 {
	_, moved := e.moved[target.ID]
	d := game.Distance(from, target.Position)
	if d > attacker.Weapons.MaxRange() {
		return 0
	}
	return hitChance(attacker, d, moved)
}

// Winner returns the team with surviving units once the other team has none.
// over is false while both teams still fight.
func (e *Local) Winner() (team game.TeamID, over bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.winnerLocked()
}

func (e *Local) winnerLocked() (game.TeamID, bool) {
	alive := make(map[game.TeamID]int)
	for _, u := range e.units {
		if !u.Destroyed() {
			alive[e.teams[u.Owner]]++
		}
	}
	switch len(alive) {
	case 0:
		return 0, true
	case 1:
		for team := range alive {
			return team, true
		}
	}
	return 0, false
}

// Stop ends the game, e.g. when the turn limit is reached.
func (e *Local) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gameOver = true
}

func (e *Local) Over() bool {
	return e.isOver()
}

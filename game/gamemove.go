package game

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// StepType is a single movement action within a path.
type StepType int

const (
	Forward StepType = iota
	TurnLeft
	TurnRight
)

func (s StepType) code() byte {
	switch s {
	case TurnLeft:
		return 'L'
	case TurnRight:
		return 'R'
	default:
		return 'F'
	}
}

// MoveMode is the movement mode a path is executed in.
type MoveMode int

const (
	Walk MoveMode = iota
	Run
)

func (m MoveMode) String() string {
	if m == Run {
		return "run"
	}
	return "walk"
}

// Step is one movement action and the position/facing it results in.
type Step struct {
	Type     StepType
	Position Coords
	Facing   Facing
}

// MovePath is one fully specified movement option for a unit. Paths are
// values and are never modified after construction.
type MovePath struct {
	Unit        UnitID
	Start       Coords
	StartFacing Facing
	Mode        MoveMode
	Steps       []Step
}

// StandStill returns the empty path that leaves the unit where it is.
func StandStill(u Unit) MovePath {
	return MovePath{Unit: u.ID, Start: u.Position, StartFacing: u.Facing}
}

// Extend returns a new path with one more step. The receiver is not modified.
func (p MovePath) Extend(t StepType) MovePath {
	pos, facing := p.Final(), p.FinalFacing()
	switch t {
	case Forward:
		pos = pos.Neighbor(facing)
	case TurnLeft:
		facing = facing.Left()
	case TurnRight:
		facing = facing.Right()
	}
	steps := make([]Step, len(p.Steps), len(p.Steps)+1)
	copy(steps, p.Steps)
	p.Steps = append(steps, Step{Type: t, Position: pos, Facing: facing})
	return p
}

func (p MovePath) Final() Coords {
	if len(p.Steps) == 0 {
		return p.Start
	}
	return p.Steps[len(p.Steps)-1].Position
}

func (p MovePath) FinalFacing() Facing {
	if len(p.Steps) == 0 {
		return p.StartFacing
	}
	return p.Steps[len(p.Steps)-1].Facing
}

// Cost is the movement points spent, one per step.
func (p MovePath) Cost() int {
	return len(p.Steps)
}

// HexesMoved counts hexes entered.
func (p MovePath) HexesMoved() int {
	n := 0
	for _, s := range p.Steps {
		if s.Type == Forward {
			n++
		}
	}
	return n
}

// Key is the stable identity of the path: unit, origin, mode and steps.
func (p MovePath) Key() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(p.Unit)))
	b.WriteByte('@')
	b.WriteString(strconv.Itoa(p.Start.Q))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(p.Start.R))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(int(p.StartFacing.Normalize())))
	b.WriteByte(':')
	b.WriteString(p.Mode.String())
	b.WriteByte(':')
	for _, s := range p.Steps {
		b.WriteByte(s.Type.code())
	}
	return b.String()
}

// Hash returns the FNV-1a hash of Key.
func (p MovePath) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(p.Key()))
	return h.Sum64()
}

func (p MovePath) String() string {
	return p.Key() + "->" + p.Final().String()
}

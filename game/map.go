package game

import "fmt"

// Coords is a hex position in axial coordinates. The third cube coordinate
// is derived: s = -q - r.
type Coords struct {
	Q int `json:"q" yaml:"q"`
	R int `json:"r" yaml:"r"`
}

func (c Coords) S() int {
	return -c.Q - c.R
}

func (c Coords) String() string {
	return fmt.Sprintf("(%d,%d)", c.Q, c.R)
}

// Facing 0-5: 0=N, 1=NE, 2=SE, 3=S, 4=SW, 5=NW (clockwise from top)
type Facing int

const (
	North Facing = iota
	NorthEast
	SouthEast
	South
	SouthWest
	NorthWest
)

var directions = [6]Coords{
	{Q: 0, R: -1},
	{Q: 1, R: -1},
	{Q: 1, R: 0},
	{Q: 0, R: 1},
	{Q: -1, R: 1},
	{Q: -1, R: 0},
}

func (f Facing) Normalize() Facing {
	return ((f % 6) + 6) % 6
}

func (f Facing) Left() Facing {
	return (f - 1).Normalize()
}

func (f Facing) Right() Facing {
	return (f + 1).Normalize()
}

// Neighbor returns the adjacent hex in direction f.
func (c Coords) Neighbor(f Facing) Coords {
	d := directions[f.Normalize()]
	return Coords{Q: c.Q + d.Q, R: c.R + d.R}
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b Coords) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	return max(dq, dr, ds)
}

// FacingTowards returns the facing from "from" that points most directly at "to".
func FacingTowards(from, to Coords) Facing {
	if from == to {
		return North
	}
	best := North
	bestDist := -1
	for f := North; f <= NorthWest; f++ {
		d := Distance(from.Neighbor(f), to)
		if bestDist < 0 || d < bestDist {
			best = f
			bestDist = d
		}
	}
	return best
}

// FacingDelta returns how many hexside turns separate two facings (0-3).
func FacingDelta(a, b Facing) int {
	d := abs(int(a.Normalize() - b.Normalize()))
	if d > 3 {
		d = 6 - d
	}
	return d
}

// Edge identifies a board edge, used as a unit's home edge.
type Edge int

const (
	NoEdge Edge = iota
	NorthEdge
	SouthEdge
	EastEdge
	WestEdge
)

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

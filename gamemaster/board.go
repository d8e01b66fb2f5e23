package gamemaster

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"hexbot/game"
)

// Impassable is the hazard level at and above which a hex cannot be entered.
const Impassable = 3

// Board is a width x height rhombus of axial hexes with q in [0, width) and
// r in [0, height).
type Board struct {
	width, height int
	hazards       []int
}

// GenerateBoard lays out hazards from octave noise. roughness in [0, 1]
// raises how much of the board is hazardous.
func GenerateBoard(width, height int, seed int64, roughness float64) *Board {
	noise := opensimplex.NewNormalized(seed)
	b := &Board{width: width, height: height, hazards: make([]int, width*height)}
	threshold := 1 - math.Max(0, math.Min(1, roughness))*0.5

	for r := 0; r < height; r++ {
		for q := 0; q < width; q++ {
			// Axial to cartesian so the noise field is not skewed
			x := float64(q) + float64(r)*0.5
			y := float64(r) * math.Sqrt(3.0) / 2.0
			v := octaveNoise(noise, x, y, 3, 0.15, 0.5)
			if v < threshold {
				continue
			}
			// Map the band above the threshold onto hazard levels 1..Impassable
			level := 1 + int((v-threshold)/(1-threshold+1e-9)*Impassable)
			b.hazards[r*width+q] = min(level, Impassable)
		}
	}
	return b
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }

func (b *Board) Contains(c game.Coords) bool {
	return c.Q >= 0 && c.Q < b.width && c.R >= 0 && c.R < b.height
}

func (b *Board) Hazard(c game.Coords) int {
	if !b.Contains(c) {
		return Impassable
	}
	return b.hazards[c.R*b.width+c.Q]
}

func (b *Board) Passable(c game.Coords) bool {
	return b.Hazard(c) < Impassable
}

// clear removes hazards, used to keep deployment hexes usable.
func (b *Board) clear(c game.Coords) {
	if b.Contains(c) {
		b.hazards[c.R*b.width+c.Q] = 0
	}
}

package intelligence

import (
	"math"
	"slices"

	"golang.org/x/exp/rand"

	"hexbot/decision"
)

// DecisionMaker picks the final path among ranked candidates. bonus is added
// to each candidate's rank before picking.
type DecisionMaker interface {
	PickOne(ranked []decision.RankedPath, bonus func(decision.RankedPath) float64) (decision.RankedPath, bool)
}

// Best picks the highest adjusted rank, breaking ties by path hash. It is the
// default policy and is deterministic.
type Best struct{}

func (Best) PickOne(ranked []decision.RankedPath, bonus func(decision.RankedPath) float64) (decision.RankedPath, bool) {
	if len(ranked) == 0 {
		return decision.RankedPath{}, false
	}
	best := adjust(ranked[0], bonus)
	for _, rp := range ranked[1:] {
		if a := adjust(rp, bonus); decision.Compare(a, best) < 0 {
			best = a
		}
	}
	return best, true
}

func adjust(rp decision.RankedPath, bonus func(decision.RankedPath) float64) decision.RankedPath {
	if bonus != nil {
		rp.Rank += bonus(rp)
	}
	return rp
}

// Roulette samples among the top N adjusted candidates with probability
// proportional to exp(rank/temperature). A temperature of 0 falls back to
// Best, as does a Roulette not built by NewRoulette.
type Roulette struct {
	TopN        int
	Temperature float64
	rng         *rand.Rand
}

func NewRoulette(topN int, temperature float64, seed uint64) *Roulette {
	if topN <= 0 {
		panic("roulette needs a positive top N")
	}
	return &Roulette{TopN: topN, Temperature: temperature, rng: rand.New(rand.NewSource(seed))}
}

func (r *Roulette) PickOne(ranked []decision.RankedPath, bonus func(decision.RankedPath) float64) (decision.RankedPath, bool) {
	if len(ranked) == 0 {
		return decision.RankedPath{}, false
	}
	if r.Temperature <= 0 || r.TopN <= 0 || r.rng == nil {
		return Best{}.PickOne(ranked, bonus)
	}

	adjusted := make([]decision.RankedPath, len(ranked))
	for k, rp := range ranked {
		adjusted[k] = adjust(rp, bonus)
	}
	slices.SortFunc(adjusted, decision.Compare)
	top := adjusted[:min(r.TopN, len(adjusted))]

	// Softmax relative to the best rank keeps exponents finite
	weights := make([]float64, len(top))
	sum := 0.0
	for k, rp := range top {
		w := math.Exp((rp.Rank - top[0].Rank) / r.Temperature)
		if math.IsNaN(w) {
			w = 0
		}
		weights[k] = w
		sum += w
	}
	if sum == 0 {
		return top[0], true
	}

	sampled := r.rng.Float64() * sum
	cumulative := 0.0
	for k, w := range weights {
		cumulative += w
		if sampled < cumulative {
			return top[k], true
		}
	}
	return top[len(top)-1], true // rounding
}

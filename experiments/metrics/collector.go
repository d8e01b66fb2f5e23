package metrics

import (
	"sync/atomic"
	"time"
)

// RankMetric describes one PathRanker run for one unit.
type RankMetric struct {
	Goroutines int
	Budget     time.Duration
	Duration   time.Duration
	Enumerated int
	Scored     int
	Duplicates int
	Partial    bool
}

// CycleMetric describes one unit's order in a decision cycle.
type CycleMetric struct {
	Cycle  int
	Player int // game.PlayerID
	Unit   int // game.UnitID
	Rank   float64
	RankMetric
}

type GameMetric struct {
	Winner    int // game.TeamID, 0 on a draw
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Cycles    int
	Orders    int
}

type Collector interface {
	Start(goroutines int, budget time.Duration)
	AddEnumerated(n int)
	AddScored()
	AddDuplicate()
	SetPartial(value bool)
	Complete() RankMetric
}

type collector struct {
	goroutines int
	budget     time.Duration
	startTime  time.Time
	enumerated atomic.Int32
	scored     atomic.Int32
	duplicates atomic.Int32
	partial    atomic.Bool
}

func NewCollector() Collector {
	return &collector{}
}

// Start resets the counters for a new run.
func (m *collector) Start(goroutines int, budget time.Duration) {
	m.startTime = time.Now()
	m.goroutines = goroutines
	m.budget = budget
	m.enumerated.Store(0)
	m.scored.Store(0)
	m.duplicates.Store(0)
	m.partial.Store(false)
}

func (m *collector) AddEnumerated(n int) {
	m.enumerated.Add(int32(n))
}

func (m *collector) AddScored() {
	m.scored.Add(1)
}

func (m *collector) AddDuplicate() {
	m.duplicates.Add(1)
}

func (m *collector) SetPartial(value bool) {
	m.partial.Store(value)
}

func (m *collector) Complete() RankMetric {
	return RankMetric{
		Goroutines: m.goroutines,
		Budget:     m.budget,
		Duration:   time.Since(m.startTime),
		Enumerated: int(m.enumerated.Load()),
		Scored:     int(m.scored.Load()),
		Duplicates: int(m.duplicates.Load()),
		Partial:    m.partial.Load(),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(goroutines int, budget time.Duration) {}
func (m *dummyCollector) AddEnumerated(n int)                        {}
func (m *dummyCollector) AddScored()                                 {}
func (m *dummyCollector) AddDuplicate()                              {}
func (m *dummyCollector) SetPartial(value bool)                      {}
func (m *dummyCollector) Complete() RankMetric                       { return RankMetric{} }

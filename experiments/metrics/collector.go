package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Goroutines  int
	Duration    time.Duration
	Iterations  int
	Expansions  int
	Nodes       int
	IsTreeReuse bool
}

type MoveMetric struct {
	Step   int
	Player int // Player index
	SearchMetric
}

type GameMetric struct {
	StartingPlayer int
	Winner         int // -1 when the game was cut off
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalMoves     int
}

// Collector gathers the statistics of one search at a time. Counters may be
// incremented from several goroutines.
type Collector interface {
	Start(goroutines int)
	SetTreeReuse(value bool)
	AddIteration()
	AddExpansion()
	Complete(nodes int) SearchMetric
}

type collector struct {
	goroutines  int
	startTime   time.Time
	iterations  atomic.Int32
	expansions  atomic.Int32
	isTreeReuse atomic.Bool
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(goroutines int) {
	m.startTime = time.Now()
	m.goroutines = goroutines
	m.iterations.Store(0)
	m.expansions.Store(0)
	m.isTreeReuse.Store(false)
}

func (m *collector) SetTreeReuse(value bool) {
	m.isTreeReuse.Store(value)
}

func (m *collector) AddIteration() {
	m.iterations.Add(1)
}

func (m *collector) AddExpansion() {
	m.expansions.Add(1)
}

func (m *collector) Complete(nodes int) SearchMetric {
	return SearchMetric{
		Goroutines:  m.goroutines,
		Duration:    time.Since(m.startTime),
		Iterations:  int(m.iterations.Load()),
		Expansions:  int(m.expansions.Load()),
		Nodes:       nodes,
		IsTreeReuse: m.isTreeReuse.Load(),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(goroutines int)            {}
func (m *dummyCollector) SetTreeReuse(value bool)         {}
func (m *dummyCollector) AddIteration()                   {}
func (m *dummyCollector) AddExpansion()                   {}
func (m *dummyCollector) Complete(nodes int) SearchMetric { return SearchMetric{} }

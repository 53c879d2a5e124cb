package sim

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats is an Observer accumulating engagement statistics: the miss
// distance on every tick the pursuer is active, and the number of active
// ticks it took to score each hit.
type Stats struct {
	mu          sync.Mutex
	ticks       uint64
	activeTicks uint64
	miss        []float64
	timeToHit   []float64
	engagement  uint64 // active ticks since the last activation
}

// StatsSummary is the reduced form of Stats.
type StatsSummary struct {
	Ticks            uint64  `json:"ticks"`
	ActiveTicks      uint64  `json:"active_ticks"`
	Hits             int     `json:"hits"`
	MeanMissDistance float64 `json:"mean_miss_distance"`
	StdMissDistance  float64 `json:"std_miss_distance"`
	MinMissDistance  float64 `json:"min_miss_distance"`
	MeanTimeToHit    float64 `json:"mean_time_to_hit"` // ticks
	StdTimeToHit     float64 `json:"std_time_to_hit"`
}

// NewStats returns an empty accumulator.
func NewStats() *Stats { return &Stats{} }

// ObserveTick implements Observer.
func (st *Stats) ObserveTick(s Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.ticks++
	// A hit tick deactivates the pursuer, but it was active while stepping.
	if !s.Active && !s.Hit {
		st.engagement = 0
		return
	}
	st.activeTicks++
	st.engagement++
	st.miss = append(st.miss, s.MissDistance)
	if s.Hit {
		st.timeToHit = append(st.timeToHit, float64(st.engagement))
		st.engagement = 0
	}
}

// Summary reduces the samples collected so far. Statistics over empty
// sample sets are NaN.
func (st *Stats) Summary() StatsSummary {
	st.mu.Lock()
	defer st.mu.Unlock()

	sum := StatsSummary{
		Ticks:            st.ticks,
		ActiveTicks:      st.activeTicks,
		Hits:             len(st.timeToHit),
		MeanMissDistance: math.NaN(),
		StdMissDistance:  math.NaN(),
		MinMissDistance:  math.NaN(),
		MeanTimeToHit:    math.NaN(),
		StdTimeToHit:     math.NaN(),
	}
	if len(st.miss) > 0 {
		sum.MeanMissDistance, sum.StdMissDistance = meanStd(st.miss)
		sum.MinMissDistance = floats.Min(st.miss)
	}
	if len(st.timeToHit) > 0 {
		sum.MeanTimeToHit, sum.StdTimeToHit = meanStd(st.timeToHit)
	}
	return sum
}

// meanStd returns the mean and sample standard deviation; the deviation of
// a single sample is zero rather than NaN.
func meanStd(x []float64) (float64, float64) {
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

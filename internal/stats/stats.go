package stats

import (
	"sort"
	"sync"
	"time"
)

// Percentile returns the pct-th percentile of sortedValues using linear
// interpolation between closest ranks. sortedValues must be ascending.
func Percentile(sortedValues []float64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return sortedValues[0]
	}
	if pct >= 100 {
		return sortedValues[len(sortedValues)-1]
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return sortedValues[lower]
	}
	weight := index - float64(lower)
	lo := sortedValues[lower]
	hi := sortedValues[upper]
	return lo + ((hi - lo) * weight)
}

type sample struct {
	timestamp  time.Time
	durationMs int64
	failed     bool
}

// Snapshot is a point-in-time aggregate of oracle latency samples.
type Snapshot struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// Latency tracks recent call latencies within a rolling window.
type Latency struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewLatency(maxAge time.Duration) *Latency {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Latency{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// Record adds one call. Failed calls count toward Errors and latency alike.
func (s *Latency) Record(d time.Duration, failed bool) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{timestamp: now, durationMs: ms, failed: failed})
}

func (s *Latency) Snapshot() Snapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if len(s.samples) == 0 {
		return Snapshot{}
	}

	values := make([]float64, 0, len(s.samples))
	var sum int64
	errs := 0
	for _, sm := range s.samples {
		values = append(values, float64(sm.durationMs))
		sum += sm.durationMs
		if sm.failed {
			errs++
		}
	}
	sort.Float64s(values)

	return Snapshot{
		Count:  len(values),
		Errors: errs,
		MinMs:  int64(values[0]),
		MaxMs:  int64(values[len(values)-1]),
		AvgMs:  float64(sum) / float64(len(values)),
		P50Ms:  Percentile(values, 50),
		P95Ms:  Percentile(values, 95),
		P99Ms:  Percentile(values, 99),
	}
}

func (s *Latency) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

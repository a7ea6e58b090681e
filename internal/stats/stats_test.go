package stats

import (
	"testing"
	"time"
)

func TestPercentile_LinearInterpolation(t *testing.T) {
	values := []float64{100, 200, 300, 400, 500}
	tests := []struct {
		pct  float64
		want float64
	}{
		{0, 100},
		{50, 300},
		{95, 480},
		{99, 496},
		{100, 500},
	}
	for _, tc := range tests {
		if got := Percentile(values, tc.pct); got != tc.want {
			t.Errorf("Percentile(%v) = %v, want %v", tc.pct, got, tc.want)
		}
	}
}

func TestPercentile_Edges(t *testing.T) {
	if got := Percentile(nil, 95); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
	if got := Percentile([]float64{7}, 95); got != 7 {
		t.Errorf("expected 7 for single value, got %v", got)
	}
}

func TestLatencySnapshot(t *testing.T) {
	l := NewLatency(time.Hour)
	l.Record(100*time.Millisecond, false)
	l.Record(200*time.Millisecond, false)
	l.Record(300*time.Millisecond, true)
	l.Record(400*time.Millisecond, false)
	l.Record(500*time.Millisecond, false)

	snap := l.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.Errors != 1 {
		t.Fatalf("expected errors=1, got %d", snap.Errors)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
}

func TestLatencyPrunesExpiredSamples(t *testing.T) {
	l := NewLatency(10 * time.Millisecond)
	l.Record(100*time.Millisecond, false)
	time.Sleep(25 * time.Millisecond)

	if snap := l.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}
}

func TestLatencyRecordClampsNegativeDuration(t *testing.T) {
	l := NewLatency(time.Hour)
	l.Record(-10*time.Millisecond, false)
	snap := l.Snapshot()
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", snap)
	}
}

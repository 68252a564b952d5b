package observability

import "testing"

func TestWindowSnapshotPercentiles(t *testing.T) {
	w := newLatencyWindow(16)
	for i := 1; i <= 10; i++ {
		w.Observe(StageProviderCall, float64(i*100))
	}

	snap := w.Snapshot()
	if len(snap.Stages) != 1 {
		t.Fatalf("snapshot has %d stages, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Stage != StageProviderCall {
		t.Fatalf("stage = %q", s.Stage)
	}
	if s.Samples != 10 {
		t.Fatalf("samples = %d, want 10", s.Samples)
	}
	if s.LastMS != 1000 {
		t.Fatalf("last = %v, want 1000", s.LastMS)
	}
	if s.AvgMS != 550 {
		t.Fatalf("avg = %v, want 550", s.AvgMS)
	}
	if s.P50MS != 550 {
		t.Fatalf("p50 = %v, want 550", s.P50MS)
	}
	if s.P99MS > 1000 || s.P99MS < s.P50MS {
		t.Fatalf("p99 = %v out of range", s.P99MS)
	}
}

func TestWindowWrapsAtCapacity(t *testing.T) {
	w := newLatencyWindow(4)
	for i := 0; i < 10; i++ {
		w.Observe(StageRequestTotal, float64(i))
	}

	snap := w.Snapshot()
	if len(snap.Stages) != 1 || snap.Stages[0].Samples != 4 {
		t.Fatalf("window should cap samples at 4: %+v", snap.Stages)
	}
}

func TestWindowIgnoresInvalidSamples(t *testing.T) {
	w := newLatencyWindow(4)
	w.Observe("", 10)
	w.Observe(StageRequestTotal, -1)

	if snap := w.Snapshot(); len(snap.Stages) != 0 {
		t.Fatalf("invalid samples should be dropped: %+v", snap.Stages)
	}
}

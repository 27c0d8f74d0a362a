package client

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

const latencyWindow = 100

// LatencySummary summarizes recent round trips to the server, in milliseconds.
type LatencySummary struct {
	Samples int
	Mean    float64
	P99     float64
	Max     float64
}

// latencyRecorder keeps the last latencyWindow round trip times.
type latencyRecorder struct {
	mu      sync.Mutex
	samples []float64
	next    int
}

func (r *latencyRecorder) record(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms := float64(d) / float64(time.Millisecond)
	if len(r.samples) < latencyWindow {
		r.samples = append(r.samples, ms)
		return
	}
	r.samples[r.next] = ms
	r.next = (r.next + 1) % latencyWindow
}

func (r *latencyRecorder) summary() LatencySummary {
	r.mu.Lock()
	data := stats.Float64Data(append([]float64(nil), r.samples...))
	r.mu.Unlock()

	if len(data) == 0 {
		return LatencySummary{}
	}
	out := LatencySummary{Samples: len(data)}
	// errors are only returned for empty input
	out.Mean, _ = data.Mean()
	out.P99, _ = data.Percentile(99)
	out.Max, _ = data.Max()
	return out
}

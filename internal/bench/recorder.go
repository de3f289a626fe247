package bench

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds in microseconds: 1µs to 60s, 3 significant figures.
const (
	histogramMin     = 1
	histogramMax     = 60_000_000
	histogramSigFigs = 3
)

// LatencyStats summarises recorded latencies.
type LatencyStats struct {
	Min    time.Duration `json:"min" yaml:"min"`
	Max    time.Duration `json:"max" yaml:"max"`
	Mean   time.Duration `json:"mean" yaml:"mean"`
	StdDev time.Duration `json:"stddev" yaml:"stddev"`
	P50    time.Duration `json:"p50" yaml:"p50"`
	P90    time.Duration `json:"p90" yaml:"p90"`
	P95    time.Duration `json:"p95" yaml:"p95"`
	P99    time.Duration `json:"p99" yaml:"p99"`
	Count  int64         `json:"count" yaml:"count"`
}

// Recorder aggregates results from concurrent workers.
//
// Counters are atomic. The histogram and the per-status and per-error maps
// are guarded by mu because RecordValue is not safe for concurrent use.
type Recorder struct {
	mu          sync.Mutex
	hist        *hdrhistogram.Histogram
	statusCodes map[int]int64
	errors      map[string]int64

	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	bytes     atomic.Int64
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		hist:        hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		statusCodes: make(map[int]int64),
		errors:      make(map[string]int64),
	}
}

// RecordResponse records a completed exchange. Status codes of 400 and above
// count as failures.
func (r *Recorder) RecordResponse(status int, bytes int, latency time.Duration) {
	r.total.Add(1)
	r.bytes.Add(int64(bytes))
	if status >= 400 {
		r.failed.Add(1)
	} else {
		r.succeeded.Add(1)
	}

	r.mu.Lock()
	r.hist.RecordValue(clamp(latency))
	r.statusCodes[status]++
	r.mu.Unlock()
}

// RecordError records an exchange that produced no response.
func (r *Recorder) RecordError(kind string, latency time.Duration) {
	r.total.Add(1)
	r.failed.Add(1)

	r.mu.Lock()
	r.hist.RecordValue(clamp(latency))
	r.errors[kind]++
	r.mu.Unlock()
}

// Latency returns the current latency distribution.
func (r *Recorder) Latency() LatencyStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return LatencyStats{
		Min:    us(r.hist.Min()),
		Max:    us(r.hist.Max()),
		Mean:   time.Duration(r.hist.Mean() * float64(time.Microsecond)),
		StdDev: time.Duration(r.hist.StdDev() * float64(time.Microsecond)),
		P50:    us(r.hist.ValueAtQuantile(50)),
		P90:    us(r.hist.ValueAtQuantile(90)),
		P95:    us(r.hist.ValueAtQuantile(95)),
		P99:    us(r.hist.ValueAtQuantile(99)),
		Count:  r.hist.TotalCount(),
	}
}

// Report builds a point-in-time report for a run that took elapsed.
func (r *Recorder) Report(elapsed time.Duration) *Report {
	report := &Report{
		Requests:  r.total.Load(),
		Succeeded: r.succeeded.Load(),
		Failed:    r.failed.Load(),
		Bytes:     r.bytes.Load(),
		Elapsed:   elapsed,
		Latency:   r.Latency(),
	}
	if elapsed > 0 {
		report.RPS = float64(report.Requests) / elapsed.Seconds()
	}

	r.mu.Lock()
	report.StatusCodes = make(map[int]int64, len(r.statusCodes))
	for code, n := range r.statusCodes {
		report.StatusCodes[code] = n
	}
	report.Errors = make(map[string]int64, len(r.errors))
	for kind, n := range r.errors {
		report.Errors[kind] = n
	}
	r.mu.Unlock()

	return report
}

func clamp(d time.Duration) int64 {
	v := d.Microseconds()
	if v < histogramMin {
		return histogramMin
	}
	if v > histogramMax {
		return histogramMax
	}
	return v
}

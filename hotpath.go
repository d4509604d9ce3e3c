package silo

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// fingerprintStats is the per-fingerprint running statistic the
// hot-path tracker accumulates (spec §4.7).
type fingerprintStats struct {
	Count     uint64
	MeanNanos float64
}

// hotPathTracker records per-fingerprint execution count and a running
// mean execution time, marking a fingerprint hot once its count passes
// a threshold. It does not itself generate specialized code — it only
// exposes the hot set for the engine (or caller) to branch on.
type hotPathTracker struct {
	mu        sync.Mutex
	stats     map[Fingerprint]*fingerprintStats
	threshold int
}

func newHotPathTracker(threshold int) *hotPathTracker {
	if threshold <= 0 {
		threshold = 50
	}
	return &hotPathTracker{stats: make(map[Fingerprint]*fingerprintStats), threshold: threshold}
}

// Record folds one execution's duration into the running mean.
func (t *hotPathTracker) Record(fp Fingerprint, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stats[fp]
	if !ok {
		s = &fingerprintStats{}
		t.stats[fp] = s
	}
	s.Count++
	s.MeanNanos += (float64(d.Nanoseconds()) - s.MeanNanos) / float64(s.Count)
}

// IsHot reports whether fp's execution count has crossed the threshold.
func (t *hotPathTracker) IsHot(fp Fingerprint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stats[fp]
	return ok && s.Count >= uint64(t.threshold)
}

// Snapshot returns a point-in-time copy of every tracked fingerprint's
// statistics.
func (t *hotPathTracker) Snapshot() map[Fingerprint]fingerprintStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[Fingerprint]fingerprintStats, len(t.stats))
	for fp, s := range t.stats {
		out[fp] = *s
	}
	return out
}

// profiler accumulates per-fingerprint timing in a mutex-guarded map
// and, additively, mirrors the same counts into Prometheus collectors
// so a host process can scrape them (spec §4.7 [ADDED]). Neither path
// is required for correctness; both are gated behind
// Config.EnableQueryProfiling.
type profiler struct {
	mu    sync.Mutex
	stats map[Fingerprint]*fingerprintStats

	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newProfiler() *profiler {
	return &profiler{
		stats: make(map[Fingerprint]*fingerprintStats),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "silo_query_executions_total",
			Help: "Total query executions observed by fingerprint.",
		}, []string{"fingerprint"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "silo_query_duration_seconds",
			Help:    "Query execution latency by fingerprint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"fingerprint"}),
	}
}

func (p *profiler) Record(fp Fingerprint, d time.Duration) {
	label := fmt.Sprintf("%x", uint64(fp))

	p.mu.Lock()
	s, ok := p.stats[fp]
	if !ok {
		s = &fingerprintStats{}
		p.stats[fp] = s
	}
	s.Count++
	s.MeanNanos += (float64(d.Nanoseconds()) - s.MeanNanos) / float64(s.Count)
	p.mu.Unlock()

	p.executions.WithLabelValues(label).Inc()
	p.duration.WithLabelValues(label).Observe(d.Seconds())
}

func (p *profiler) Snapshot() map[Fingerprint]fingerprintStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[Fingerprint]fingerprintStats, len(p.stats))
	for fp, s := range p.stats {
		out[fp] = *s
	}
	return out
}

// Collectors exposes the profiler's Prometheus collectors for
// registration by a host process.
func (p *profiler) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.executions, p.duration}
}

// timingToken is a scoped RAII-style timer: Stop records elapsed time
// into whichever of the tracker/profiler are enabled, and is a no-op
// when neither is (spec §9: "RAII timers... a no-op token when
// profiling is disabled").
type timingToken struct {
	start    time.Time
	fp       Fingerprint
	tracker  *hotPathTracker
	profiler *profiler
}

func (w *World) startTiming(fp Fingerprint) timingToken {
	if w.hotPath == nil && w.profiler == nil {
		return timingToken{}
	}
	return timingToken{start: time.Now(), fp: fp, tracker: w.hotPath, profiler: w.profiler}
}

func (t timingToken) Stop() {
	if t.start.IsZero() {
		return
	}
	elapsed := time.Since(t.start)
	if t.tracker != nil {
		t.tracker.Record(t.fp, elapsed)
	}
	if t.profiler != nil {
		t.profiler.Record(t.fp, elapsed)
	}
}

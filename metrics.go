/*
Copyright 2024 The go-netflow Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package netflow

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PacketsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netflow",
		Name:      "parser_decoded_packets_total",
		Help:      "Total number of decoded packets per version",
	}, []string{"version"})
	ErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "netflow",
		Name:      "parser_errors_total",
		Help:      "Total number of errors in the parser",
	})
	DurationMicroseconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "netflow",
		Name:      "parser_duration_microseconds",
		Help:      "Duration of parsing one buffer in microseconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	DecodedFlowSets = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netflow",
		Name:      "parser_decoded_flowsets_total",
		Help:      "Total number of decoded flowsets per kind",
	}, []string{"kind"})
	DecodedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netflow",
		Name:      "parser_decoded_records_total",
		Help:      "Total number of decoded data records per kind",
	}, []string{"kind"})
	TemplateEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netflow",
		Name:      "template_events_total",
		Help:      "Total number of template cache lifecycle events per protocol and kind",
	}, []string{"protocol", "event"})
)

// CacheMetrics counts template cache activity with atomic counters. One
// instance is shared between a cache and the snapshots handed to callers, so
// hooks and operators can read rates while the decoder owns the cache.
type CacheMetrics struct {
	hits       atomic.Uint64
	misses     atomic.Uint64
	evictions  atomic.Uint64
	expired    atomic.Uint64
	insertions atomic.Uint64
	collisions atomic.Uint64
	refreshes  atomic.Uint64
}

func (m *CacheMetrics) recordHit()       { m.hits.Add(1) }
func (m *CacheMetrics) recordMiss()      { m.misses.Add(1) }
func (m *CacheMetrics) recordEviction()  { m.evictions.Add(1) }
func (m *CacheMetrics) recordExpired()   { m.expired.Add(1) }
func (m *CacheMetrics) recordInsertion() { m.insertions.Add(1) }
func (m *CacheMetrics) recordCollision() { m.collisions.Add(1) }
func (m *CacheMetrics) recordRefresh()   { m.refreshes.Add(1) }

// Reset zeroes all counters.
func (m *CacheMetrics) Reset() {
	m.hits.Store(0)
	m.misses.Store(0)
	m.evictions.Store(0)
	m.expired.Store(0)
	m.insertions.Store(0)
	m.collisions.Store(0)
	m.refreshes.Store(0)
}

// Snapshot reads all counters once. The counters are read individually, so a
// snapshot taken during a parse may straddle an operation; for operational
// monitoring that is fine.
func (m *CacheMetrics) Snapshot() CacheMetricsSnapshot {
	return CacheMetricsSnapshot{
		Hits:       m.hits.Load(),
		Misses:     m.misses.Load(),
		Evictions:  m.evictions.Load(),
		Expired:    m.expired.Load(),
		Insertions: m.insertions.Load(),
		Collisions: m.collisions.Load(),
		Refreshes:  m.refreshes.Load(),
	}
}

// CacheMetricsSnapshot is a point-in-time copy of CacheMetrics.
type CacheMetricsSnapshot struct {
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Evictions  uint64 `json:"evictions"`
	Expired    uint64 `json:"expired"`
	Insertions uint64 `json:"insertions"`
	Collisions uint64 `json:"collisions"`
	Refreshes  uint64 `json:"refreshes"`
}

// TotalLookups returns hits plus misses.
func (s CacheMetricsSnapshot) TotalLookups() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns hits/(hits+misses), and false if there were no lookups.
func (s CacheMetricsSnapshot) HitRate() (float64, bool) {
	total := s.TotalLookups()
	if total == 0 {
		return 0, false
	}
	return float64(s.Hits) / float64(total), true
}

// MissRate returns misses/(hits+misses), and false if there were no lookups.
func (s CacheMetricsSnapshot) MissRate() (float64, bool) {
	total := s.TotalLookups()
	if total == 0 {
		return 0, false
	}
	return float64(s.Misses) / float64(total), true
}

// CacheStats describes one template cache: its fill level, configured bounds
// and activity counters.
type CacheStats struct {
	CurrentSize int           `json:"current_size"`
	MaxSize     int           `json:"max_size"`
	Ttl         time.Duration `json:"ttl,omitempty"`

	Metrics CacheMetricsSnapshot `json:"metrics"`
}

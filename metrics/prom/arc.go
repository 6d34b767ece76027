package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/arccache/policy/arc"
)

// ARCCollector exposes the partition sizes, capacities and adaptation
// counters of one or more ARC caches. Stats are read on every scrape.
type ARCCollector struct {
	stats func() arc.Stats

	entries    *prometheus.Desc
	capacity   *prometheus.Desc
	ghosts     *prometheus.Desc
	ghostHits  *prometheus.Desc
	promotions *prometheus.Desc
	hits       *prometheus.Desc
	misses     *prometheus.Desc
	evictions  *prometheus.Desc
}

// NewARCCollector returns a collector reading from stats, which may sum
// several shards (see arc.Stats.Add). Register it with a prometheus.Registerer.
func NewARCCollector(ns, sub string, constLabels prometheus.Labels, stats func() arc.Stats) *ARCCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(ns, sub, name), help, labels, constLabels)
	}
	return &ARCCollector{
		stats:      stats,
		entries:    desc("arc_partition_entries", "Live entries per ARC partition", "partition"),
		capacity:   desc("arc_partition_capacity", "Current capacity per ARC partition", "partition"),
		ghosts:     desc("arc_ghost_entries", "Remembered evicted keys per ARC partition", "partition"),
		ghostHits:  desc("arc_ghost_hits_total", "Requests for recently evicted keys, by partition", "partition"),
		promotions: desc("arc_promotions_total", "Entries moved from the recency to the frequency partition"),
		hits:       desc("arc_hits_total", "ARC hits"),
		misses:     desc("arc_misses_total", "ARC misses"),
		evictions:  desc("arc_evictions_total", "Live entries evicted by either partition"),
	}
}

// Describe implements prometheus.Collector.
func (c *ARCCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.entries, c.capacity, c.ghosts, c.ghostHits,
		c.promotions, c.hits, c.misses, c.evictions,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *ARCCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	gauge := func(d *prometheus.Desc, v int, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v), labels...)
	}
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	gauge(c.entries, s.RecencyLen, "recency")
	gauge(c.entries, s.FrequencyLen, "frequency")
	gauge(c.capacity, s.RecencyCapacity, "recency")
	gauge(c.capacity, s.FrequencyCapacity, "frequency")
	gauge(c.ghosts, s.RecencyGhostLen, "recency")
	gauge(c.ghosts, s.FrequencyGhostLen, "frequency")
	counter(c.ghostHits, s.RecencyGhostHits, "recency")
	counter(c.ghostHits, s.FrequencyGhostHits, "frequency")
	counter(c.promotions, s.Promotions)
	counter(c.hits, s.Hits)
	counter(c.misses, s.Misses)
	counter(c.evictions, s.Evictions)
}

var _ prometheus.Collector = (*ARCCollector)(nil)

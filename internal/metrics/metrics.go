// Package metrics exports Prometheus gauges over the BFC pool's live
// occupancy and the autograd graph's node/value counts.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/csotherden/nova/internal/alloc"
)

// Collector samples an alloc.Pool's Stats() into gauges on demand —
// there is no background poller; callers invoke ObservePool/ObserveGraph at whatever
// cadence suits them (e.g. once per novabench run).
type Collector struct {
	regionCount prometheus.Gauge
	chunkCount  prometheus.Gauge
	liveBytes   prometheus.Gauge
	freeBytes   prometheus.Gauge
	regionBytes prometheus.Gauge

	graphNodes  prometheus.Gauge
	graphValues prometheus.Gauge
}

// NewCollector registers the pool and graph gauges against reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		regionCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nova", Subsystem: "pool", Name: "region_count",
			Help: "Number of memory regions currently held by the BFC pool.",
		}),
		chunkCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nova", Subsystem: "pool", Name: "chunk_count",
			Help: "Number of chunks (free and in-use) tracked by the BFC pool.",
		}),
		liveBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nova", Subsystem: "pool", Name: "live_bytes",
			Help: "Bytes currently allocated to live tensors.",
		}),
		freeBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nova", Subsystem: "pool", Name: "free_bytes",
			Help: "Bytes held by the pool in free chunks, available for reuse.",
		}),
		regionBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nova", Subsystem: "pool", Name: "region_bytes",
			Help: "Total bytes requested from the OS across all regions.",
		}),
		graphNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nova", Subsystem: "autograd", Name: "graph_nodes",
			Help: "Number of operator nodes in the current autograd graph.",
		}),
		graphValues: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nova", Subsystem: "autograd", Name: "graph_values",
			Help: "Number of tracked values in the current autograd graph.",
		}),
	}
}

// ObservePool samples p's current occupancy into the pool gauges.
func (c *Collector) ObservePool(p *alloc.Pool) {
	s := p.Stats()
	c.regionCount.Set(float64(s.RegionCount))
	c.chunkCount.Set(float64(s.ChunkCount))
	c.liveBytes.Set(float64(s.LiveBytes))
	c.freeBytes.Set(float64(s.FreeBytes))
	c.regionBytes.Set(float64(s.RegionBytes))
}

// ObserveGraph records the current node/value counts of an autograd
// graph. Takes plain counts rather than *graph.Graph to avoid a
// dependency from internal/metrics on internal/autograd/graph.
func (c *Collector) ObserveGraph(nodeCount, valueCount int64) {
	c.graphNodes.Set(float64(nodeCount))
	c.graphValues.Set(float64(valueCount))
}

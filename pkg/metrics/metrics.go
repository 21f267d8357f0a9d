// Package metrics exposes the node's Prometheus collectors: a live peer
// count gauge, a frames-processed counter, and a decode-error counter.
// They are updated exclusively from inside the network loop's own
// goroutine and read concurrently by the promhttp handler, which is safe
// because prometheus.Gauge/Counter are themselves safe for concurrent use.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors bundles every metric the network loop updates.
type Collectors struct {
	PeerCount       prometheus.Gauge
	FramesProcessed prometheus.Counter
	DecodeErrors    prometheus.Counter
}

// New registers and returns a fresh set of collectors against reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		PeerCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "p2witter",
			Name:      "peer_count",
			Help:      "Number of live peer connections.",
		}),
		FramesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "p2witter",
			Name:      "frames_processed_total",
			Help:      "Total number of decoded frames dispatched.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "p2witter",
			Name:      "decode_errors_total",
			Help:      "Total number of fatal frame decode errors.",
		}),
	}
	reg.MustRegister(c.PeerCount, c.FramesProcessed, c.DecodeErrors)
	return c
}

// SetPeerCount implements network.Metrics.
func (c *Collectors) SetPeerCount(n int) { c.PeerCount.Set(float64(n)) }

// IncFramesProcessed implements network.Metrics.
func (c *Collectors) IncFramesProcessed() { c.FramesProcessed.Inc() }

// IncDecodeErrors implements network.Metrics.
func (c *Collectors) IncDecodeErrors() { c.DecodeErrors.Inc() }

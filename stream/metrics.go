package stream

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "isosim"

// Collector exports an Orchestrator's statistics as Prometheus metrics.
// Values are read from the atomic counters at scrape time; nothing is
// duplicated on the hot paths.
type Collector struct {
	orch *Orchestrator

	produced    *prometheus.Desc
	consumed    *prometheus.Desc
	overruns    *prometheus.Desc
	underruns   *prometheus.Desc
	capacity    *prometheus.Desc
	occupied    *prometheus.Desc
	timingError *prometheus.Desc
	streaming   *prometheus.Desc
}

// NewCollector creates a collector for orch, labelled with its ID.
func NewCollector(orch *Orchestrator) *Collector {
	labels := prometheus.Labels{"sim": orch.ID()}
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", name), help, variable, labels)
	}
	return &Collector{
		orch:        orch,
		produced:    desc("frames_produced_total", "Microframes committed to the ring buffer by the producer"),
		consumed:    desc("frames_consumed_total", "Microframes drained from the ring buffer by the consumer"),
		overruns:    desc("overruns_total", "Microframes dropped because the ring buffer was full"),
		underruns:   desc("underruns_total", "Consumer ticks that found less than a full microframe"),
		capacity:    desc("buffer_capacity_bytes", "Ring buffer capacity"),
		occupied:    desc("buffer_occupied_bytes", "Ring buffer bytes committed and not yet consumed"),
		timingError: desc("timing_error_seconds", "Absolute consumer pacing error at the last diagnostic and the worst seen", "kind"),
		streaming:   desc("streaming", "1 while either worker is running"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.produced
	ch <- c.consumed
	ch <- c.overruns
	ch <- c.underruns
	ch <- c.capacity
	ch <- c.occupied
	ch <- c.timingError
	ch <- c.streaming
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.orch.Statistics()

	ch <- prometheus.MustNewConstMetric(c.produced, prometheus.CounterValue, float64(s.FramesProduced))
	ch <- prometheus.MustNewConstMetric(c.consumed, prometheus.CounterValue, float64(s.FramesConsumed))
	ch <- prometheus.MustNewConstMetric(c.overruns, prometheus.CounterValue, float64(s.Overruns))
	ch <- prometheus.MustNewConstMetric(c.underruns, prometheus.CounterValue, float64(s.Underruns))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.BufferCapacity))
	ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(s.BufferOccupied))
	ch <- prometheus.MustNewConstMetric(c.timingError, prometheus.GaugeValue, s.LastTimingError.Seconds(), "last")
	ch <- prometheus.MustNewConstMetric(c.timingError, prometheus.GaugeValue, s.MaxTimingError.Seconds(), "max")

	streaming := 0.0
	if c.orch.IsStreaming() {
		streaming = 1
	}
	ch <- prometheus.MustNewConstMetric(c.streaming, prometheus.GaugeValue, streaming)
}

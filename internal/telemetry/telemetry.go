package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector captures telemetry events emitted by the sync engine and
// the HTTP boundary.
//
// Implementations should be inexpensive to call because hooks are
// executed inline with the fetch and serving paths.
type Collector interface {
	IncUpstreamCall(call, outcome string)
	IncUpstreamRetry(call, classification string)
	IncCacheLookup(hit bool)
	IncCoalescedWait()
	ObserveFetch(outcome string, d time.Duration)
	SetPlaying(playing bool)
	IncHTTPRequest(path string, code int)
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) IncUpstreamCall(string, string)     {}
func (noopCollector) IncUpstreamRetry(string, string)    {}
func (noopCollector) IncCacheLookup(bool)                {}
func (noopCollector) IncCoalescedWait()                  {}
func (noopCollector) ObserveFetch(string, time.Duration) {}
func (noopCollector) SetPlaying(bool)                    {}
func (noopCollector) IncHTTPRequest(string, int)         {}

// PrometheusCollector exposes engine telemetry via Prometheus.
type PrometheusCollector struct {
	upstreamCalls   *prometheus.CounterVec
	upstreamRetries *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	coalescedWaits  prometheus.Counter
	fetchDuration   *prometheus.HistogramVec
	playing         prometheus.Gauge
	httpRequests    *prometheus.CounterVec
}

// NewPrometheusCollector registers the required metrics with the provided
// registerer. Metrics that are already registered are reused, so repeated
// construction against the same registerer is safe.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	upstreamCalls, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nowspinning_upstream_calls_total",
		Help: "Number of settled upstream call chains per call type and outcome.",
	}, []string{"call", "outcome"}))
	if err != nil {
		return nil, err
	}

	upstreamRetries, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nowspinning_upstream_retries_total",
		Help: "Number of retries performed per call type and failure classification.",
	}, []string{"call", "classification"}))
	if err != nil {
		return nil, err
	}

	cacheLookups, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nowspinning_cache_lookups_total",
		Help: "Number of snapshot cache lookups by result.",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}

	coalescedWaits, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nowspinning_coalesced_waits_total",
		Help: "Number of callers that joined an already in-flight fetch instead of starting their own.",
	}))
	if err != nil {
		return nil, err
	}

	fetchDuration, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nowspinning_fetch_duration_seconds",
		Help:    "Duration of full fetch cycles (credential refresh, playback read, retries) by outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}

	playing, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nowspinning_playing",
		Help: "Whether the last successful snapshot reported active playback (1) or not (0).",
	}))
	if err != nil {
		return nil, err
	}

	httpRequests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nowspinning_http_requests_total",
		Help: "Number of HTTP requests served, by route and status code.",
	}, []string{"path", "code"}))
	if err != nil {
		return nil, err
	}

	return &PrometheusCollector{
		upstreamCalls:   upstreamCalls,
		upstreamRetries: upstreamRetries,
		cacheLookups:    cacheLookups,
		coalescedWaits:  coalescedWaits,
		fetchDuration:   fetchDuration,
		playing:         playing,
		httpRequests:    httpRequests,
	}, nil
}

// IncUpstreamCall counts one settled call chain.
func (p *PrometheusCollector) IncUpstreamCall(call, outcome string) {
	if p == nil || p.upstreamCalls == nil {
		return
	}
	p.upstreamCalls.WithLabelValues(call, outcome).Inc()
}

// IncUpstreamRetry counts one retry decision.
func (p *PrometheusCollector) IncUpstreamRetry(call, classification string) {
	if p == nil || p.upstreamRetries == nil {
		return
	}
	p.upstreamRetries.WithLabelValues(call, classification).Inc()
}

// IncCacheLookup counts one cache lookup by result.
func (p *PrometheusCollector) IncCacheLookup(hit bool) {
	if p == nil || p.cacheLookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cacheLookups.WithLabelValues(result).Inc()
}

// IncCoalescedWait counts a caller that piggybacked on an in-flight fetch.
func (p *PrometheusCollector) IncCoalescedWait() {
	if p == nil || p.coalescedWaits == nil {
		return
	}
	p.coalescedWaits.Inc()
}

// ObserveFetch records the duration of one fetch cycle.
func (p *PrometheusCollector) ObserveFetch(outcome string, d time.Duration) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	p.fetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// SetPlaying updates the playback state gauge.
func (p *PrometheusCollector) SetPlaying(playing bool) {
	if p == nil || p.playing == nil {
		return
	}
	if playing {
		p.playing.Set(1)
	} else {
		p.playing.Set(0)
	}
}

// IncHTTPRequest counts one served HTTP request.
func (p *PrometheusCollector) IncHTTPRequest(path string, code int) {
	if p == nil || p.httpRequests == nil {
		return
	}
	p.httpRequests.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

// registerCounterVec registers a counter vector, reusing an existing
// collector when one with the same descriptor is already registered.
func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

// registerCounter registers a plain counter, reusing an existing one.
func registerCounter(reg prometheus.Registerer, c prometheus.Counter) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

// registerGauge registers a gauge, reusing an existing one.
func registerGauge(reg prometheus.Registerer, g prometheus.Gauge) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return g, nil
}

// registerHistogramVec registers a histogram vector, reusing an existing one.
func registerHistogramVec(reg prometheus.Registerer, h *prometheus.HistogramVec) (*prometheus.HistogramVec, error) {
	if err := reg.Register(h); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return h, nil
}

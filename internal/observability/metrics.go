package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CatalogueCollector bundles Prometheus metrics for the effect catalogue and
// the correlation-matrix computations the daemon serves.
type CatalogueCollector struct {
	gatherer prometheus.Gatherer

	// EffectsRegistered tracks catalogue size by correlation class
	// (independent, common, structured).
	EffectsRegistered *prometheus.GaugeVec

	// MatrixComputations counts correlation-matrix derivations, labeled by
	// correlation model, matrix kind (cross_element, cross_line), and
	// outcome (ok, rejected, unimplemented, error).
	MatrixComputations *prometheus.CounterVec

	// MatrixDurations records how long successful derivations take.
	MatrixDurations *prometheus.HistogramVec

	// CatalogueBuildTime is the Unix time of the last catalogue build.
	CatalogueBuildTime prometheus.Gauge
}

// NewCatalogueCollector registers catalogue Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewCatalogueCollector(reg prometheus.Registerer) (*CatalogueCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	registered := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fcdr_effects_registered",
		Help: "Number of uncertainty effects in the catalogue, by correlation class.",
	}, []string{"class"})
	registered, err := registerGaugeVec(reg, registered, "fcdr_effects_registered")
	if err != nil {
		return nil, err
	}

	computations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fcdr_matrix_computations_total",
		Help: "Total correlation-matrix derivations, by model, matrix kind, and outcome.",
	}, []string{"model", "kind", "outcome"})
	computations, err = registerCounterVec(reg, computations, "fcdr_matrix_computations_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fcdr_matrix_duration_seconds",
		Help:    "Correlation-matrix derivation latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"model", "kind"})
	durations, err = registerHistogramVec(reg, durations, "fcdr_matrix_duration_seconds")
	if err != nil {
		return nil, err
	}

	buildTime, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fcdr_catalogue_build_timestamp_seconds",
		Help: "Unix time when the effect catalogue was last built.",
	}), "fcdr_catalogue_build_timestamp_seconds")
	if err != nil {
		return nil, err
	}

	return &CatalogueCollector{
		gatherer:           gatherer,
		EffectsRegistered:  registered,
		MatrixComputations: computations,
		MatrixDurations:    durations,
		CatalogueBuildTime: buildTime,
	}, nil
}

// SetCatalogueCounts drives the per-class gauges after a catalogue build.
func (c *CatalogueCollector) SetCatalogueCounts(independent, common, structured int) {
	if c == nil || c.EffectsRegistered == nil {
		return
	}
	c.EffectsRegistered.WithLabelValues("independent").Set(float64(independent))
	c.EffectsRegistered.WithLabelValues("common").Set(float64(common))
	c.EffectsRegistered.WithLabelValues("structured").Set(float64(structured))
	if c.CatalogueBuildTime != nil {
		c.CatalogueBuildTime.SetToCurrentTime()
	}
}

// ObserveComputation records one matrix derivation. Duration is only
// observed for successful outcomes so rejection spikes do not skew latency.
func (c *CatalogueCollector) ObserveComputation(rmodel, kind, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.MatrixComputations != nil {
		c.MatrixComputations.WithLabelValues(rmodel, kind, outcome).Inc()
	}
	if outcome == "ok" && c.MatrixDurations != nil {
		c.MatrixDurations.WithLabelValues(rmodel, kind).Observe(elapsed.Seconds())
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *CatalogueCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

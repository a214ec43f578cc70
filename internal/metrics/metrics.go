// Package metrics records run statistics as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/huangsam/bikebin/schema"
	"github.com/prometheus/client_golang/prometheus"
)

// Stage names used for the duration histogram.
const (
	StageAggregate = "aggregate"
	StageLoad      = "load"
	StageTrain     = "train"
	StageEvaluate  = "evaluate"
	StagePersist   = "persist"
)

// Recorder owns a private registry with all bikebin collectors.
type Recorder struct {
	registry     *prometheus.Registry
	observations *prometheus.CounterVec
	bins         *prometheus.CounterVec
	instances    *prometheus.CounterVec
	accuracy     *prometheus.GaugeVec
	stages       *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikebin_observations_total",
			Help: "Raw observations by ingestion result",
		}, []string{"result"}),
		bins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikebin_bins_total",
			Help: "Bin aggregates by reduce result",
		}, []string{"result"}),
		instances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikebin_instances_total",
			Help: "Evaluation instances by predictor and outcome",
		}, []string{"predictor", "outcome"}),
		accuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bikebin_accuracy",
			Help: "Accuracy of the last evaluation per predictor",
		}, []string{"predictor"}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bikebin_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	r.registry.MustRegister(r.observations, r.bins, r.instances, r.accuracy, r.stages)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveAggregation counts the fate of raw observations and bins.
func (r *Recorder) ObserveAggregation(s schema.AggregateSummary) {
	r.observations.WithLabelValues("accepted").Add(float64(s.Accepted))
	for reason, n := range s.Dropped {
		r.observations.WithLabelValues(string(reason)).Add(float64(n))
	}
	r.bins.WithLabelValues("emitted").Add(float64(s.Bins))
	r.bins.WithLabelValues("dropped_empty_size").Add(float64(s.EmptyBins))
}

// ObserveEvaluation records the instance outcomes and accuracy of one predictor.
func (r *Recorder) ObserveEvaluation(res schema.EvaluationResult) {
	p := string(res.Predictor)
	r.instances.WithLabelValues(p, "counted").Add(float64(res.Instances))
	r.instances.WithLabelValues(p, "no_model").Add(float64(res.NoModel))
	r.instances.WithLabelValues(p, "no_target").Add(float64(res.NoTarget))
	r.accuracy.WithLabelValues(p).Set(res.Accuracy)
}

// ObserveStage records how long a stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stages.WithLabelValues(stage).Observe(d.Seconds())
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

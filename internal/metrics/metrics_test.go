package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/bikebin/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAggregation(t *testing.T) {
	r := NewRecorder()
	r.ObserveAggregation(schema.AggregateSummary{
		Accepted:  9,
		Dropped:   map[schema.DropReason]int{schema.DropMalformed: 2, schema.DropInvalid: 1},
		Bins:      4,
		EmptyBins: 1,
	})

	expected := `
# HELP bikebin_observations_total Raw observations by ingestion result
# TYPE bikebin_observations_total counter
bikebin_observations_total{result="accepted"} 9
bikebin_observations_total{result="invalid"} 1
bikebin_observations_total{result="malformed"} 2
`
	require.NoError(t, testutil.CollectAndCompare(r.observations, strings.NewReader(expected)))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.bins.WithLabelValues("emitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.bins.WithLabelValues("dropped_empty_size")))
}

func TestObserveEvaluation(t *testing.T) {
	r := NewRecorder()
	r.ObserveEvaluation(schema.EvaluationResult{
		Predictor: schema.HistoricMeanPredictor,
		Instances: 94,
		NoModel:   3,
		NoTarget:  1,
		Accuracy:  0.75,
	})

	assert.Equal(t, 94.0, testutil.ToFloat64(r.instances.WithLabelValues("historic-mean", "counted")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.instances.WithLabelValues("historic-mean", "no_model")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.instances.WithLabelValues("historic-mean", "no_target")))
	assert.Equal(t, 0.75, testutil.ToFloat64(r.accuracy.WithLabelValues("historic-mean")))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveStage(StageTrain, 250*time.Millisecond)
	r.ObserveEvaluation(schema.EvaluationResult{Predictor: schema.LastValuePredictor, Accuracy: 0.5})

	path := filepath.Join(t.TempDir(), "bikebin.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `bikebin_accuracy{predictor="last-value"} 0.5`)
	assert.Contains(t, out, `bikebin_stage_duration_seconds_count{stage="train"} 1`)
}

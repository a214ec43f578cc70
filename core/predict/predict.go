// Package predict holds the forecasting strategies evaluated against the
// held-out day. Every strategy answers the same question: given the bin at t0,
// which availability category will the station be in at t0+horizon?
package predict

import (
	"context"
	"fmt"
	"sync"

	"github.com/huangsam/bikebin/core/series"
	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/schema"
)

// NoPrediction is returned by Classify when no usable model exists.
const NoPrediction = -1

// Params are the shared inputs of every strategy.
type Params struct {
	Horizon    int
	BinsPerDay int
	Categories int
	Classifier contract.ClassifierParams
}

// ParamsFromConfig extracts predictor parameters from the validated config.
func ParamsFromConfig(cfg *contract.Config) Params {
	return Params{
		Horizon:    cfg.Horizon,
		BinsPerDay: cfg.BinsPerDay,
		Categories: cfg.Categories,
		Classifier: cfg.Classifier,
	}
}

// StationModel classifies bins of a single station.
type StationModel interface {
	// Classify returns a category in [0, categories-1] or NoPrediction.
	Classify(e series.Entry) int
}

// Strategy is one forecasting rule.
type Strategy interface {
	Kind() schema.PredictorKind
	// Fit builds the model of one station from its training history.
	// A nil model means the history is unusable.
	Fit(history series.Series) StationModel
}

// Untrained is implemented by strategies that need no history at all.
type Untrained interface {
	Shared() StationModel
}

// New creates the strategy for the given kind.
func New(kind schema.PredictorKind, p Params) (Strategy, error) {
	switch kind {
	case schema.OnlinePredictor:
		return NewOnline(p), nil
	case schema.LastValuePredictor:
		return LastValue{}, nil
	case schema.HistoricMeanPredictor:
		return NewHistoricMean(p), nil
	case schema.HistoricTrendPredictor:
		return NewHistoricTrend(p), nil
	default:
		return nil, fmt.Errorf("unknown predictor %q", kind)
	}
}

// Models is the training context of one strategy: it exclusively owns one
// model per station and is read-only once Train returns.
type Models struct {
	kind      schema.PredictorKind
	shared    StationModel
	byStation map[int]StationModel
}

// Kind returns the strategy the models were trained for.
func (m *Models) Kind() schema.PredictorKind { return m.kind }

// Len returns the number of stations with a trained model.
func (m *Models) Len() int { return len(m.byStation) }

// Classify routes a bin to its station's model.
func (m *Models) Classify(station int, e series.Entry) int {
	if m.shared != nil {
		return m.shared.Classify(e)
	}
	model, ok := m.byStation[station]
	if !ok {
		return NoPrediction
	}
	return model.Classify(e)
}

type fitResult struct {
	station int
	model   StationModel
}

// Train fits the strategy on every station's training history using a pool
// of workers. Stations never share a model.
func Train(ctx context.Context, s Strategy, idx *series.Index, workers int) (*Models, error) {
	m := &Models{kind: s.Kind(), byStation: make(map[int]StationModel)}
	if u, ok := s.(Untrained); ok {
		m.shared = u.Shared()
		return m, nil
	}

	stations := idx.TrainStations()
	stationCh := make(chan int, len(stations))
	resultCh := make(chan fitResult, len(stations))
	var wg sync.WaitGroup

	for range max(1, workers) {
		wg.Go(func() {
			for id := range stationCh {
				if ctx.Err() != nil {
					return
				}
				if model := s.Fit(idx.Train[id]); model != nil {
					resultCh <- fitResult{station: id, model: model}
				}
			}
		})
	}

	for _, id := range stations {
		stationCh <- id
	}
	close(stationCh)

	wg.Wait()
	close(resultCh)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("training %s: %w", s.Kind(), err)
	}
	for r := range resultCh {
		m.byStation[r.station] = r.model
	}
	return m, nil
}

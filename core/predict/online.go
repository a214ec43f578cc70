package predict

import (
	"errors"
	"math"

	"github.com/huangsam/bikebin/core/series"
	"github.com/huangsam/bikebin/schema"
	"gonum.org/v1/gonum/floats"
)

const onlineFeatures = 3

// Online trains one linear classifier per station on pairs of
// (features of bin k, label of bin k+horizon).
type Online struct {
	params Params
	// NewClassifier builds an untrained model; tests swap it.
	NewClassifier func(categories, features int) OnlineClassifier
}

var _ Strategy = &Online{} // Compile-time check

// NewOnline creates the strategy backed by LogisticRegression.
func NewOnline(p Params) *Online {
	return &Online{
		params: p,
		NewClassifier: func(categories, features int) OnlineClassifier {
			return NewLogisticRegression(categories, features, p.Classifier.Rate, p.Classifier.Lambda)
		},
	}
}

// Kind returns schema.OnlinePredictor.
func (o *Online) Kind() schema.PredictorKind { return schema.OnlinePredictor }

type trainingPair struct {
	label    int
	features []float64
}

// Fit trains a classifier on the station's (features, future label) pairs.
func (o *Online) Fit(history series.Series) StationModel {
	var pairs []trainingPair
	for k, e := range history {
		target, err := series.Lookahead(history, k, o.params.Horizon)
		if errors.Is(err, series.ErrNotFound) {
			continue
		}
		pairs = append(pairs, trainingPair{label: target.CategoryLabel, features: o.features(e)})
	}
	if len(pairs) == 0 {
		return nil
	}

	scale := make([]float64, onlineFeatures)
	for i := range scale {
		scale[i] = 1
	}
	for _, pr := range pairs {
		for i, f := range pr.features {
			scale[i] = max(scale[i], math.Abs(f))
		}
	}
	for _, pr := range pairs {
		floats.Div(pr.features, scale)
	}

	clf := o.NewClassifier(o.params.Categories, onlineFeatures)
	annealer, anneals := clf.(interface{ SetPass(int) })
	passes := max(1, o.params.Classifier.Passes)
	for pass := range passes {
		if anneals {
			annealer.SetPass(pass)
		}
		for _, pr := range pairs {
			clf.Train(pr.label, pr.features)
		}
	}
	return &onlineModel{online: o, clf: clf, scale: scale}
}

// features extracts [time of day, average, station size].
func (o *Online) features(e series.Entry) []float64 {
	return []float64{
		float64(series.DailyBinID(e.BinID, o.params.BinsPerDay)),
		e.Average,
		float64(e.StationSize),
	}
}

type onlineModel struct {
	online *Online
	clf    OnlineClassifier
	scale  []float64
}

func (m *onlineModel) Classify(e series.Entry) int {
	x := m.online.features(e)
	floats.Div(x, m.scale)
	dist := m.clf.PredictDistribution(x)
	if len(dist) == 0 {
		return NoPrediction
	}
	return floats.MaxIdx(dist)
}

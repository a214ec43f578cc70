package predict

import (
	"github.com/huangsam/bikebin/core/series"
	"github.com/huangsam/bikebin/schema"
)

// LastValue assumes nothing changes over the horizon.
type LastValue struct{}

var (
	_ Strategy  = LastValue{} // Compile-time check
	_ Untrained = LastValue{} // Compile-time check
)

// Kind returns schema.LastValuePredictor.
func (LastValue) Kind() schema.PredictorKind { return schema.LastValuePredictor }

// Fit ignores the history.
func (LastValue) Fit(series.Series) StationModel { return lastValueModel{} }

// Shared returns the single model every station uses.
func (LastValue) Shared() StationModel { return lastValueModel{} }

type lastValueModel struct{}

func (lastValueModel) Classify(e series.Entry) int { return e.CategoryLabel }

package predict

import (
	"math"

	"github.com/huangsam/bikebin/core/agg"
	"github.com/huangsam/bikebin/core/series"
	"github.com/huangsam/bikebin/schema"
)

// MeanTable holds a station's mean bike count per daily bin.
type MeanTable struct {
	Means  []float64
	Counts []int
}

// BuildMeanTable averages every training bin into its daily slot.
func BuildMeanTable(history series.Series, binsPerDay int) *MeanTable {
	t := &MeanTable{Means: make([]float64, binsPerDay), Counts: make([]int, binsPerDay)}
	for _, e := range history {
		slot := series.DailyBinID(e.BinID, binsPerDay)
		t.Means[slot] += e.Average
		t.Counts[slot]++
	}
	for i, n := range t.Counts {
		if n > 0 {
			t.Means[i] /= float64(n)
		}
	}
	return t
}

// At returns the rounded mean of a slot, wrapping around the day.
// ok is false when no training bin fell into the slot.
func (t *MeanTable) At(slot int) (mean float64, ok bool) {
	n := len(t.Means)
	slot = ((slot % n) + n) % n
	if t.Counts[slot] == 0 {
		return 0, false
	}
	return math.Round(t.Means[slot]), true
}

// rule turns a station's mean table into a category for one bin.
type rule interface {
	classify(t *MeanTable, e series.Entry, p Params) int
}

// Historic is the shared base of the mean-table strategies. The table is
// built the same way for all of them; only the rule differs.
type Historic struct {
	kind   schema.PredictorKind
	params Params
	rule   rule
}

var _ Strategy = &Historic{} // Compile-time check

// NewHistoricMean predicts the typical level of the target time of day.
func NewHistoricMean(p Params) *Historic {
	return &Historic{kind: schema.HistoricMeanPredictor, params: p, rule: meanRule{}}
}

// NewHistoricTrend predicts the current level moved by the typical change
// between now and the target time of day.
func NewHistoricTrend(p Params) *Historic {
	return &Historic{kind: schema.HistoricTrendPredictor, params: p, rule: trendRule{}}
}

// Kind returns the mean or trend predictor kind.
func (h *Historic) Kind() schema.PredictorKind { return h.kind }

// Fit builds the station's time-of-day mean table, or nil without history.
func (h *Historic) Fit(history series.Series) StationModel {
	if len(history) == 0 {
		return nil
	}
	return &historicModel{table: BuildMeanTable(history, h.params.BinsPerDay), params: h.params, rule: h.rule}
}

type historicModel struct {
	table  *MeanTable
	params Params
	rule   rule
}

func (m *historicModel) Classify(e series.Entry) int {
	return m.rule.classify(m.table, e, m.params)
}

type meanRule struct{}

func (meanRule) classify(t *MeanTable, e series.Entry, p Params) int {
	mean, ok := t.At(e.DailyBinID + p.Horizon)
	if !ok {
		return NoPrediction
	}
	return agg.Quantize(mean, e.StationSize, p.Categories)
}

type trendRule struct{}

func (trendRule) classify(t *MeanTable, e series.Entry, p Params) int {
	future, ok := t.At(e.DailyBinID + p.Horizon)
	if !ok {
		return NoPrediction
	}
	now, ok := t.At(e.DailyBinID)
	if !ok {
		return NoPrediction
	}
	predicted := e.Average + future - now
	predicted = min(max(predicted, 0), float64(e.StationSize))
	return agg.ClampLabel(agg.Quantize(predicted, e.StationSize, p.Categories), p.Categories)
}

// Package eval scores trained predictors against the held-out test day.
package eval

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/huangsam/bikebin/core/predict"
	"github.com/huangsam/bikebin/core/series"
	"github.com/huangsam/bikebin/schema"
)

// Evaluator replays every station's test day through a trained predictor.
type Evaluator struct {
	Horizon    int
	Categories int
	Workers    int
}

// NewEvaluator creates an Evaluator from predictor parameters.
func NewEvaluator(p predict.Params, workers int) *Evaluator {
	return &Evaluator{Horizon: p.Horizon, Categories: p.Categories, Workers: max(1, workers)}
}

// stationScore is the partial result of one station.
type stationScore struct {
	matrix   *ConfusionMatrix
	noModel  int
	noTarget int
	err      error
}

// Evaluate classifies each test bin k in [0, len-horizon) of every station
// and compares it with the label found horizon bins later. Bins without a
// model or without a target are skipped and counted separately.
func (ev *Evaluator) Evaluate(ctx context.Context, idx *series.Index, models *predict.Models) (schema.EvaluationResult, error) {
	stations := idx.Stations()
	stationCh := make(chan int, len(stations))
	scoreCh := make(chan stationScore, len(stations))
	var wg sync.WaitGroup

	for range max(1, ev.Workers) {
		wg.Go(func() {
			for id := range stationCh {
				if ctx.Err() != nil {
					return
				}
				scoreCh <- ev.scoreStation(id, idx.Test[id], models)
			}
		})
	}

	for _, id := range stations {
		stationCh <- id
	}
	close(stationCh)

	wg.Wait()
	close(scoreCh)

	if err := ctx.Err(); err != nil {
		return schema.EvaluationResult{}, fmt.Errorf("evaluating %s: %w", models.Kind(), err)
	}

	// Merge per-station partial matrices after all station work completes
	total := NewConfusionMatrix(ev.Categories)
	result := schema.EvaluationResult{
		Predictor:  models.Kind(),
		Name:       models.Kind().DisplayName(),
		Categories: ev.Categories,
	}
	var errs []error
	for s := range scoreCh {
		if s.err != nil {
			errs = append(errs, s.err)
			continue
		}
		if err := total.Merge(s.matrix); err != nil {
			errs = append(errs, err)
			continue
		}
		result.NoModel += s.noModel
		result.NoTarget += s.noTarget
	}
	if err := errors.Join(errs...); err != nil {
		return schema.EvaluationResult{}, fmt.Errorf("evaluating %s: %w", models.Kind(), err)
	}

	result.Instances = total.Total()
	result.Correct = total.Correct()
	result.Accuracy = total.Accuracy()
	result.Matrix = total.Rows()
	return result, nil
}

func (ev *Evaluator) scoreStation(station int, test series.Series, models *predict.Models) stationScore {
	score := stationScore{matrix: NewConfusionMatrix(ev.Categories)}
	for k := 0; k < len(test)-ev.Horizon; k++ {
		predicted := models.Classify(station, test[k])
		if predicted == predict.NoPrediction {
			score.noModel++
			continue
		}
		target, err := series.Lookahead(test, k, ev.Horizon)
		if errors.Is(err, series.ErrNotFound) {
			score.noTarget++
			continue
		}
		if err := score.matrix.AddInstance(target.CategoryLabel, predicted); err != nil {
			score.err = fmt.Errorf("station %d bin %d: %w", station, test[k].BinID, err)
			return score
		}
	}
	return score
}

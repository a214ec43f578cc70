package schema

import "time"

// EvaluationResult is the outcome of evaluating one predictor over the test day.
type EvaluationResult struct {
	Predictor  PredictorKind `json:"predictor"`
	Name       string        `json:"name"`
	Categories int           `json:"categories"`
	Instances  int           `json:"instances"`
	Correct    int           `json:"correct"`
	Accuracy   float64       `json:"accuracy"`
	NoModel    int           `json:"no_model"`
	NoTarget   int           `json:"no_target"`
	Matrix     [][]int       `json:"matrix"` // rows = actual, columns = predicted
}

// EvaluationOutput bundles all predictor results of a single evaluation run.
type EvaluationOutput struct {
	RunID    string             `json:"run_id,omitempty"`
	Results  []EvaluationResult `json:"results"`
	Bins     int                `json:"bins"`
	Stations int                `json:"stations"`
	Duration time.Duration      `json:"duration"`
}

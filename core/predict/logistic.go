package predict

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// OnlineClassifier is an incrementally trained multi-class model.
type OnlineClassifier interface {
	Train(label int, features []float64)
	PredictDistribution(features []float64) []float64
}

// LogisticRegression is a multinomial logistic regression with L2
// regularization, trained one example at a time by stochastic gradient
// descent. The first weight column is the bias.
type LogisticRegression struct {
	categories int
	weights    *mat.Dense
	grad       *mat.Dense
	rate       float64
	lambda     float64
	pass       int
}

var _ OnlineClassifier = &LogisticRegression{} // Compile-time check

// NewLogisticRegression creates a zero-initialized model.
func NewLogisticRegression(categories, features int, rate, lambda float64) *LogisticRegression {
	return &LogisticRegression{
		categories: categories,
		weights:    mat.NewDense(categories, features+1, nil),
		grad:       mat.NewDense(categories, features+1, nil),
		rate:       rate,
		lambda:     lambda,
	}
}

// SetPass anneals the learning rate to rate/(1+pass).
func (lr *LogisticRegression) SetPass(pass int) {
	lr.pass = max(0, pass)
}

func (lr *LogisticRegression) currentRate() float64 {
	return lr.rate / float64(1+lr.pass)
}

func (lr *LogisticRegression) input(features []float64) *mat.VecDense {
	x := make([]float64, len(features)+1)
	x[0] = 1
	copy(x[1:], features)
	return mat.NewVecDense(len(x), x)
}

// Train applies one gradient step for a labeled example. Labels outside the
// category range are ignored.
func (lr *LogisticRegression) Train(label int, features []float64) {
	if label < 0 || label >= lr.categories {
		return
	}
	x := lr.input(features)
	p := lr.distribution(x)

	// Cross-entropy gradient: (p - onehot(label)) x^T
	p[label]--
	diff := mat.NewVecDense(lr.categories, p)

	rate := lr.currentRate()
	lr.weights.Scale(1-rate*lr.lambda, lr.weights)
	lr.grad.Outer(-rate, diff, x)
	lr.weights.Add(lr.weights, lr.grad)
}

// PredictDistribution returns the class probabilities for the features.
func (lr *LogisticRegression) PredictDistribution(features []float64) []float64 {
	return lr.distribution(lr.input(features))
}

func (lr *LogisticRegression) distribution(x *mat.VecDense) []float64 {
	var z mat.VecDense
	z.MulVec(lr.weights, x)
	scores := make([]float64, lr.categories)
	for i := range scores {
		scores[i] = z.AtVec(i)
	}
	softmax(scores)
	return scores
}

// softmax normalizes scores in place into a probability distribution.
func softmax(scores []float64) {
	top := floats.Max(scores)
	for i, s := range scores {
		scores[i] = math.Exp(s - top)
	}
	floats.Scale(1/floats.Sum(scores), scores)
}

// Package metrics computes classification metrics from true and predicted
// class indices: the confusion matrix and a per-class precision / recall /
// F1 report.
package metrics

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/vision/internal/tensor"
)

// ErrLabels is returned for mismatched or out-of-range label slices.
var ErrLabels = errors.New("invalid labels")

func checkLabels(yTrue, yPred []int, numClasses int) error {
	if len(yTrue) != len(yPred) {
		return errors.Wrapf(ErrLabels, "y_true has %d samples, y_pred has %d", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return errors.Wrap(ErrLabels, "no samples")
	}
	if numClasses <= 0 {
		return errors.Wrapf(ErrLabels, "need at least one class, got %d", numClasses)
	}
	for i := range yTrue {
		if yTrue[i] < 0 || yTrue[i] >= numClasses || yPred[i] < 0 || yPred[i] >= numClasses {
			return errors.Wrapf(ErrLabels, "sample %d: labels (%d, %d) outside [0, %d)", i, yTrue[i], yPred[i], numClasses)
		}
	}
	return nil
}

// ConfusionMatrix counts samples by (true class, predicted class): rows are
// true labels, columns predicted labels.
func ConfusionMatrix(yTrue, yPred []int, numClasses int) (*mat.Dense, error) {
	if err := checkLabels(yTrue, yPred, numClasses); err != nil {
		return nil, err
	}
	cm := mat.NewDense(numClasses, numClasses, nil)
	for i := range yTrue {
		cm.Set(yTrue[i], yPred[i], cm.At(yTrue[i], yPred[i])+1)
	}
	return cm, nil
}

// Accuracy returns the trace of cm over its sum (0 for an empty matrix).
func Accuracy(cm mat.Matrix) float64 {
	total := mat.Sum(cm)
	if total == 0 {
		return 0
	}
	return mat.Trace(cm) / total
}

// ArgmaxRows returns the index of the largest value of each row of a
// [samples, classes] probability matrix.
func ArgmaxRows(probs mat.Matrix) []int {
	r, c := probs.Dims()
	out := make([]int, r)
	for i := 0; i < r; i++ {
		best := math.Inf(-1)
		for j := 0; j < c; j++ {
			if v := probs.At(i, j); v > best {
				best, out[i] = v, j
			}
		}
	}
	return out
}

// Predict returns the predicted class of every row of a [batch, classes]
// model output.
func Predict(probs *tensor.Tensor) ([]int, error) {
	s := probs.Shape()
	if len(s) != 2 {
		return nil, errors.Wrapf(tensor.ErrShape, "expected [batch, classes] output, got %v", s)
	}
	data := probs.Data()
	m := mat.NewDense(s[0], s[1], nil)
	for i := range s[0] {
		for j := range s[1] {
			m.Set(i, j, float64(data[i*s[1]+j]))
		}
	}
	return ArgmaxRows(m), nil
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// round rounds half to even at the given number of decimals.
func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*p) / p
}

package nn

import (
	"math"

	"github.com/born-ml/vision/internal/tensor"
)

// Keras BatchNormalization defaults.
const (
	DefaultBatchNormEpsilon  = 1e-3
	DefaultBatchNormMomentum = 0.99
)

// BatchNorm normalizes activations per channel (last axis).
//
// At inference it uses the moving statistics:
//
//	y = gamma * (x - moving_mean) / sqrt(moving_variance + eps) + beta
//
// In training mode it normalizes with batch statistics and updates the
// moving averages with the configured momentum. Moving statistics are
// buffers and never count as trainable.
type BatchNorm struct {
	Base
	Gamma          *Parameter
	Beta           *Parameter
	MovingMean     *Parameter
	MovingVariance *Parameter
	Epsilon        float32
	Momentum       float32
	channels       int
	training       bool
	backend        tensor.Backend
}

// NewBatchNorm creates a BatchNorm over the given number of channels.
func NewBatchNorm(channels int, backend tensor.Backend) *BatchNorm {
	shape := tensor.Shape{channels}
	return &BatchNorm{
		Base:           newBase("batch_normalization"),
		Gamma:          NewParameter("gamma", Ones(shape, backend)),
		Beta:           NewParameter("beta", Zeros(shape, backend)),
		MovingMean:     NewBuffer("moving_mean", Zeros(shape, backend)),
		MovingVariance: NewBuffer("moving_variance", Ones(shape, backend)),
		Epsilon:        DefaultBatchNormEpsilon,
		Momentum:       DefaultBatchNormMomentum,
		channels:       channels,
		backend:        backend,
	}
}

// SetTraining switches between batch statistics (true) and moving statistics.
func (l *BatchNorm) SetTraining(training bool) {
	l.training = training
}

// Forward normalizes x per channel.
func (l *BatchNorm) Forward(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) < 2 || shape[len(shape)-1] != l.channels {
		tensor.Panicf("BatchNorm.Forward", "expected %d channels on the last axis, got shape %v", l.channels, shape)
	}

	c := l.channels
	src := x.Data()
	rows := len(src) / c

	mean := l.MovingMean.Tensor().Data()
	variance := l.MovingVariance.Tensor().Data()
	if l.training {
		mean, variance = batchMoments(src, rows, c)
		l.updateMoving(mean, variance)
	}

	gamma, beta := l.Gamma.Tensor().Data(), l.Beta.Tensor().Data()
	scale := make([]float32, c)
	shift := make([]float32, c)
	for ci := 0; ci < c; ci++ {
		scale[ci] = gamma[ci] / float32(math.Sqrt(float64(variance[ci]+l.Epsilon)))
		shift[ci] = beta[ci] - mean[ci]*scale[ci]
	}

	out := make([]float32, len(src))
	for r := 0; r < rows; r++ {
		for ci := 0; ci < c; ci++ {
			out[r*c+ci] = src[r*c+ci]*scale[ci] + shift[ci]
		}
	}
	return tensor.New(out, shape, l.backend)
}

func batchMoments(src []float32, rows, c int) (mean, variance []float32) {
	mean = make([]float32, c)
	variance = make([]float32, c)
	for ci := 0; ci < c; ci++ {
		var sum float64
		for r := 0; r < rows; r++ {
			sum += float64(src[r*c+ci])
		}
		m := sum / float64(rows)
		var sq float64
		for r := 0; r < rows; r++ {
			d := float64(src[r*c+ci]) - m
			sq += d * d
		}
		mean[ci] = float32(m)
		variance[ci] = float32(sq / float64(rows))
	}
	return mean, variance
}

func (l *BatchNorm) updateMoving(mean, variance []float32) {
	mm := l.MovingMean.Tensor().Data()
	mv := l.MovingVariance.Tensor().Data()
	for ci := range mm {
		mm[ci] = mm[ci]*l.Momentum + mean[ci]*(1-l.Momentum)
		mv[ci] = mv[ci]*l.Momentum + variance[ci]*(1-l.Momentum)
	}
}

// Parameters returns [gamma, beta, moving_mean, moving_variance].
func (l *BatchNorm) Parameters() []*Parameter {
	return []*Parameter{l.Gamma, l.Beta, l.MovingMean, l.MovingVariance}
}

// ClassName returns "BatchNormalization".
func (l *BatchNorm) ClassName() string {
	return "BatchNormalization"
}

// Config exports the layer configuration.
func (l *BatchNorm) Config() map[string]any {
	return l.config(map[string]any{
		"epsilon":  l.Epsilon,
		"momentum": l.Momentum,
		"axis":     -1,
	})
}

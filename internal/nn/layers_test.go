package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vision/internal/backend/cpu"
	"github.com/born-ml/vision/internal/random"
	"github.com/born-ml/vision/internal/tensor"
)

func fromSlice(t *testing.T, data []float32, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, cpu.New())
	require.NoError(t, err)
	return x
}

func TestLinear_Forward(t *testing.T) {
	layer := NewLinear(2, 3, cpu.New())
	copy(layer.Kernel().Tensor().Data(), []float32{1, 2, 3, 4, 5, 6})
	copy(layer.Bias().Tensor().Data(), []float32{0.5, 0.5, 0.5})

	out := layer.Forward(fromSlice(t, []float32{1, 2}, tensor.Shape{1, 2}))
	assert.Equal(t, tensor.Shape{1, 3}, out.Shape())
	assert.Equal(t, []float32{9.5, 12.5, 15.5}, out.Data())
}

func TestLinear_ThreeDimensional(t *testing.T) {
	layer := NewLinear(4, 8, cpu.New())
	out := layer.Forward(tensor.Randn(tensor.Shape{2, 5, 4}, cpu.New()))
	assert.Equal(t, tensor.Shape{2, 5, 8}, out.Shape())
}

func TestLinear_WrongFeaturesPanics(t *testing.T) {
	layer := NewLinear(4, 8, cpu.New())
	assert.Panics(t, func() {
		layer.Forward(tensor.Zeros(tensor.Shape{2, 3}, cpu.New()))
	})
}

// TestLayerNorm_Basic checks normalization of [[1, 2, 3], [4, 5, 6]].
func TestLayerNorm_Basic(t *testing.T) {
	ln := NewLayerNorm(3, 1e-5, cpu.New())
	out := ln.Forward(fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}))

	// mean 2, variance 2/3, (x - mean) / sqrt(var) = [-1.2247, 0, 1.2247]
	expected := []float32{-1.2247, 0, 1.2247, -1.2247, 0, 1.2247}
	for i, v := range out.Data() {
		assert.InDelta(t, expected[i], v, 1e-3)
	}
}

func TestLayerNorm_GammaAndBeta(t *testing.T) {
	ln := NewLayerNorm(2, 1e-6, cpu.New())
	copy(ln.Gamma.Tensor().Data(), []float32{2, 2})
	copy(ln.Beta.Tensor().Data(), []float32{1, 1})

	out := ln.Forward(fromSlice(t, []float32{0, 2}, tensor.Shape{1, 2}))
	assert.InDelta(t, -1, out.Data()[0], 1e-3)
	assert.InDelta(t, 3, out.Data()[1], 1e-3)
}

func TestBatchNorm_Inference(t *testing.T) {
	bn := NewBatchNorm(2, cpu.New())
	out := bn.Forward(fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}))

	scale := 1 / math.Sqrt(1+DefaultBatchNormEpsilon)
	for i, v := range []float32{1, 2, 3, 4} {
		assert.InDelta(t, float64(v)*scale, out.Data()[i], 1e-5)
	}
}

func TestBatchNorm_TrainingUpdatesMovingStats(t *testing.T) {
	bn := NewBatchNorm(1, cpu.New())
	bn.SetTraining(true)

	out := bn.Forward(fromSlice(t, []float32{1, 3}, tensor.Shape{2, 1}))
	// batch mean 2, variance 1
	assert.InDelta(t, -1/math.Sqrt(1.001), out.Data()[0], 1e-4)
	assert.InDelta(t, 0.02, bn.MovingMean.Tensor().Data()[0], 1e-6)
	assert.InDelta(t, 1.0, bn.MovingVariance.Tensor().Data()[0], 1e-6)

	assert.False(t, bn.MovingMean.Trainable())
	assert.True(t, bn.Gamma.Trainable())
}

func TestDropout(t *testing.T) {
	d := NewDropout(0.5, cpu.New())
	x := tensor.Ones(tensor.Shape{1000}, cpu.New())

	assert.Same(t, x, d.Forward(x), "inference dropout is the identity")

	random.Seed(1)
	d.SetTraining(true)
	out := d.Forward(x)
	zeros := 0
	for _, v := range out.Data() {
		if v == 0 {
			zeros++
			continue
		}
		assert.Equal(t, float32(2), v)
	}
	assert.InDelta(t, 500, zeros, 80)

	assert.Panics(t, func() { NewDropout(1, cpu.New()) })
}

func TestActivation(t *testing.T) {
	x := fromSlice(t, []float32{-1, 0, 2, 1, 1, 1}, tensor.Shape{2, 3})

	assert.Equal(t, []float32{0, 0, 2, 1, 1, 1}, NewReLU().Forward(x).Data())

	probs := NewSoftmax().Forward(x).Data()
	assert.InDelta(t, 1, probs[0]+probs[1]+probs[2], 1e-6)
	assert.InDelta(t, 1.0/3, probs[4], 1e-6)

	gelu := NewGELU().Forward(x).Data()
	assert.InDelta(t, -0.158655, gelu[0], 1e-5)
	assert.InDelta(t, 1.954500, gelu[2], 1e-5)

	assert.Panics(t, func() { NewActivation("swish") })
}

func TestInputAndFlatten(t *testing.T) {
	in := NewInput(tensor.Shape{4, 4, 3})
	x := tensor.Zeros(tensor.Shape{2, 4, 4, 3}, cpu.New())
	assert.Same(t, x, in.Forward(x))
	assert.Panics(t, func() { in.Forward(tensor.Zeros(tensor.Shape{2, 4, 3}, cpu.New())) })

	assert.Equal(t, tensor.Shape{2, 48}, NewFlatten().Forward(x).Shape())
}

func TestConv2D_Shapes(t *testing.T) {
	backend := cpu.New()
	x := tensor.Randn(tensor.Shape{1, 9, 9, 3}, backend)

	valid := NewConv2D(3, 8, 3, 2, tensor.Valid, false, backend)
	assert.Equal(t, tensor.Shape{1, 4, 4, 8}, valid.Forward(x).Shape())
	assert.Len(t, valid.Parameters(), 1)

	same := NewConv2D(3, 8, 3, 2, tensor.Same, true, backend)
	assert.Equal(t, tensor.Shape{1, 5, 5, 8}, same.Forward(x).Shape())
	assert.Len(t, same.Parameters(), 2)
}

func TestSeparableConv2D(t *testing.T) {
	backend := cpu.New()
	sep := NewSeparableConv2D(4, 6, 3, 1, tensor.Same, false, backend)
	out := sep.Forward(tensor.Randn(tensor.Shape{2, 5, 5, 4}, backend))
	assert.Equal(t, tensor.Shape{2, 5, 5, 6}, out.Shape())

	total, _ := CountParams([]Layer{sep})
	assert.Equal(t, 3*3*4+4*6, total)
}

func TestPooling(t *testing.T) {
	backend := cpu.New()
	x := tensor.Randn(tensor.Shape{1, 7, 7, 2}, backend)

	assert.Equal(t, tensor.Shape{1, 4, 4, 2}, NewMaxPool2D(3, 2, tensor.Same).Forward(x).Shape())
	assert.Equal(t, tensor.Shape{1, 2}, NewGlobalAveragePooling2D().Forward(x).Shape())
}

func TestEmbedding(t *testing.T) {
	e := NewEmbedding(4, 3, cpu.New())
	for _, v := range e.Weight.Tensor().Data() {
		assert.LessOrEqual(t, math.Abs(float64(v)), 0.05)
	}

	out := e.Forward([]int{2, 0})
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, e.Weight.Tensor().Data()[6:9], out.Data()[0:3])

	assert.Panics(t, func() { e.Forward([]int{4}) })
}

func TestScaledDotProductAttention(t *testing.T) {
	backend := cpu.New()
	q := tensor.Randn(tensor.Shape{1, 2, 3, 4}, backend)
	k := tensor.Randn(tensor.Shape{1, 2, 5, 4}, backend)
	v := tensor.Randn(tensor.Shape{1, 2, 5, 4}, backend)

	out, weights := ScaledDotProductAttention(q, k, v, 0, nil)
	assert.Equal(t, tensor.Shape{1, 2, 3, 4}, out.Shape())
	assert.Equal(t, tensor.Shape{1, 2, 3, 5}, weights.Shape())

	row := weights.Data()[:5]
	var sum float32
	for _, w := range row {
		sum += w
	}
	assert.InDelta(t, 1, sum, 1e-5)
}

func TestScaledDotProductAttention_WeightsHook(t *testing.T) {
	backend := cpu.New()
	q := tensor.Randn(tensor.Shape{1, 1, 2, 4}, backend)
	v := tensor.Randn(tensor.Shape{1, 1, 3, 4}, backend)

	out, weights := ScaledDotProductAttention(q, v, v, 0, func(w *tensor.Tensor) *tensor.Tensor {
		return w.MulScalar(0)
	})
	assert.Equal(t, make([]float32, 6), weights.Data())
	assert.Equal(t, make([]float32, 8), out.Data())
}

func TestMultiHeadAttention_DropoutOnWeights(t *testing.T) {
	backend := cpu.New()
	mha := NewMultiHeadAttention(8, 2, 4, 0.5, backend)
	x := tensor.Randn(tensor.Shape{2, 6, 8}, backend)

	_, weights := mha.ForwardWithWeights(x, x)
	assert.NotContains(t, weights.Data(), float32(0))

	mha.SetTraining(true)
	_, weights = mha.ForwardWithWeights(x, x)
	assert.Contains(t, weights.Data(), float32(0))
}

func TestMultiHeadAttention(t *testing.T) {
	backend := cpu.New()
	mha := NewMultiHeadAttention(8, 2, 4, 0.1, backend)
	x := tensor.Randn(tensor.Shape{2, 6, 8}, backend)

	out, weights := mha.ForwardWithWeights(x, x)
	assert.Equal(t, tensor.Shape{2, 6, 8}, out.Shape())
	assert.Equal(t, tensor.Shape{2, 2, 6, 6}, weights.Shape())

	// 3 input projections 8->8 plus output 8->8, each with bias.
	total, trainable := CountParams([]Layer{mha})
	assert.Equal(t, 4*(8*8+8), total)
	assert.Equal(t, total, trainable)

	assert.Panics(t, func() { mha.Forward(tensor.Zeros(tensor.Shape{2, 6, 7}, backend), x) })
}

func TestMultiHeadAttention_KeyDimIndependentOfWidth(t *testing.T) {
	backend := cpu.New()
	mha := NewMultiHeadAttention(6, 4, 16, 0, backend)
	out := mha.Forward(tensor.Randn(tensor.Shape{1, 3, 6}, backend), tensor.Randn(tensor.Shape{1, 3, 6}, backend))
	assert.Equal(t, tensor.Shape{1, 3, 6}, out.Shape())
	assert.Equal(t, tensor.Shape{6, 64}, mha.WQ.Kernel().Tensor().Shape())
}

func TestMLP(t *testing.T) {
	backend := cpu.New()
	mlp := NewMLP(8, []int{16, 4}, 0.1, backend)
	assert.Equal(t, 6, mlp.Len())
	assert.Equal(t, tensor.Shape{3, 4}, mlp.Forward(tensor.Randn(tensor.Shape{3, 8}, backend)).Shape())

	total, _ := CountParams([]Layer{mlp})
	assert.Equal(t, 8*16+16+16*4+4, total)
}

func TestSequential_RejectsNonModule(t *testing.T) {
	assert.Panics(t, func() { NewSequential(NewAdd()) })
}

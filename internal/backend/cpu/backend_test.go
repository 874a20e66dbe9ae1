package cpu

import (
	"testing"

	"github.com/born-ml/vision/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTensor(t *testing.T, data []float32, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, New())
	require.NoError(t, err)
	return x
}

func TestAdd_SameShape(t *testing.T) {
	a := mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := mustTensor(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	out := a.Add(b)
	assert.Equal(t, []float32{11, 22, 33, 44}, out.Data())
}

func TestAdd_Broadcast(t *testing.T) {
	a := mustTensor(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := mustTensor(t, []float32{10, 20, 30}, tensor.Shape{3})

	out := a.Add(bias)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, out.Data())

	col := mustTensor(t, []float32{100, 200}, tensor.Shape{2, 1})
	out = a.Add(col)
	assert.Equal(t, []float32{101, 102, 103, 204, 205, 206}, out.Data())
}

func TestAdd_BroadcastLeadingAxis(t *testing.T) {
	// [1, 2, 2] + [3, 2, 2]: position embeddings broadcast over a batch.
	pos := mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 2, 2})
	x := tensor.Zeros(tensor.Shape{3, 2, 2}, New())

	out := x.Add(pos)
	assert.Equal(t, tensor.Shape{3, 2, 2}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4}, out.Data())
}

func TestAdd_IncompatiblePanics(t *testing.T) {
	a := tensor.Zeros(tensor.Shape{3, 4}, New())
	b := tensor.Zeros(tensor.Shape{3, 5}, New())

	assert.PanicsWithError(t, "Add: shapes not compatible for broadcasting: [3 4] vs [3 5] (dimension 1: 4 vs 5)", func() {
		a.Add(b)
	})
}

func TestMatMul(t *testing.T) {
	a := mustTensor(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := mustTensor(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	out := a.MatMul(b)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, out.Data())
}

func TestMatMul_ShapeMismatchPanics(t *testing.T) {
	a := tensor.Zeros(tensor.Shape{2, 3}, New())
	b := tensor.Zeros(tensor.Shape{2, 3}, New())
	assert.Panics(t, func() { a.MatMul(b) })
}

func TestBatchMatMul(t *testing.T) {
	a := mustTensor(t, []float32{1, 0, 0, 1, 2, 0, 0, 2}, tensor.Shape{2, 2, 2})
	b := mustTensor(t, []float32{1, 2, 3, 4, 1, 2, 3, 4}, tensor.Shape{2, 2, 2})

	out := a.BatchMatMul(b)
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 2, 4, 6, 8}, out.Data())
}

func TestTranspose(t *testing.T) {
	a := mustTensor(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	out := a.Transpose()
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, out.Data())

	// [1, 2, 3, 1] -> [1, 3, 2, 1] via perm (0, 2, 1, 3)
	x := mustTensor(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{1, 2, 3, 1})
	y := x.Transpose(0, 2, 1, 3)
	assert.Equal(t, tensor.Shape{1, 3, 2, 1}, y.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, y.Data())
}

func TestSoftmax_RowsSumToOne(t *testing.T) {
	x := mustTensor(t, []float32{1, 2, 3, 1000, 1000, 1000}, tensor.Shape{2, 3})
	out := x.Softmax(-1)

	d := out.Data()
	assert.InDelta(t, 1.0, d[0]+d[1]+d[2], 1e-6)
	assert.InDelta(t, 1.0, d[3]+d[4]+d[5], 1e-6)
	assert.InDelta(t, 1.0/3, d[4], 1e-6)
	assert.Less(t, d[0], d[1])
}

func TestSoftmax_InnerAxis(t *testing.T) {
	x := mustTensor(t, []float32{0, 0, 0, 0}, tensor.Shape{2, 2})
	out := x.Softmax(0)
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 0.5}, out.Data())
}

func TestMeanAndSumDim(t *testing.T) {
	x := mustTensor(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	mean := x.MeanDim(-1, true)
	assert.Equal(t, tensor.Shape{2, 1}, mean.Shape())
	assert.Equal(t, []float32{2, 5}, mean.Data())

	sum := x.SumDim(0, false)
	assert.Equal(t, tensor.Shape{3}, sum.Shape())
	assert.Equal(t, []float32{5, 7, 9}, sum.Data())
}

func TestArgmax(t *testing.T) {
	x := mustTensor(t, []float32{0.1, 0.7, 0.2, 0.5, 0.3, 0.2}, tensor.Shape{2, 3})
	assert.Equal(t, []int{1, 0}, x.Argmax())
}

func TestActivations(t *testing.T) {
	x := mustTensor(t, []float32{-1, 0, 2}, tensor.Shape{3})

	assert.Equal(t, []float32{0, 0, 2}, x.ReLU().Data())

	gelu := x.GELU().Data()
	assert.InDelta(t, -0.158655, gelu[0], 1e-5)
	assert.InDelta(t, 0, gelu[1], 1e-7)
	assert.InDelta(t, 1.954500, gelu[2], 1e-5)
}

func TestConv2D_Valid(t *testing.T) {
	// 1x3x3x1 input, 2x2 kernel of ones -> window sums.
	x := mustTensor(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 3, 3, 1})
	k := tensor.Ones(tensor.Shape{2, 2, 1, 1}, New())

	out := x.Conv2D(k, 1, tensor.Valid)
	assert.Equal(t, tensor.Shape{1, 2, 2, 1}, out.Shape())
	assert.Equal(t, []float32{12, 16, 24, 28}, out.Data())
}

func TestConv2D_SameStride2(t *testing.T) {
	x := tensor.Ones(tensor.Shape{1, 5, 5, 2}, New())
	k := tensor.Ones(tensor.Shape{3, 3, 2, 4}, New())

	out := x.Conv2D(k, 2, tensor.Same)
	assert.Equal(t, tensor.Shape{1, 3, 3, 4}, out.Shape())
	// Top-left window sees 2x2 valid pixels x 2 channels.
	assert.Equal(t, float32(8), out.At(0, 0, 0, 0))
	// Centre window sees 3x3 x 2 channels.
	assert.Equal(t, float32(18), out.At(0, 1, 1, 3))
}

func TestDepthwiseConv2D(t *testing.T) {
	x := mustTensor(t, []float32{1, 10, 2, 20, 3, 30, 4, 40}, tensor.Shape{1, 2, 2, 2})
	k := mustTensor(t, []float32{1, 0, 1, 0, 1, 0, 1, 0}, tensor.Shape{2, 2, 2})

	out := x.DepthwiseConv2D(k, 1, tensor.Valid)
	assert.Equal(t, tensor.Shape{1, 1, 1, 2}, out.Shape())
	assert.Equal(t, []float32{10, 0}, out.Data())
}

func TestMaxPool2D(t *testing.T) {
	x := mustTensor(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, tensor.Shape{1, 4, 4, 1})

	out := x.MaxPool2D(2, 2, tensor.Valid)
	assert.Equal(t, []float32{6, 8, 14, 16}, out.Data())

	same := x.MaxPool2D(3, 2, tensor.Same)
	assert.Equal(t, tensor.Shape{1, 2, 2, 1}, same.Shape())
	assert.Equal(t, []float32{11, 12, 15, 16}, same.Data())
}

func TestGlobalAvgPool2D(t *testing.T) {
	x := mustTensor(t, []float32{1, 10, 2, 20, 3, 30, 4, 40}, tensor.Shape{1, 2, 2, 2})
	out := x.GlobalAvgPool2D()
	assert.Equal(t, tensor.Shape{1, 2}, out.Shape())
	assert.Equal(t, []float32{2.5, 25}, out.Data())
}

func TestExtractPatches(t *testing.T) {
	// 1x4x4x1 image with values 0..15, patch size 2.
	data := make([]float32, 16)
	for i := range data {
		data[i] = float32(i)
	}
	x := mustTensor(t, data, tensor.Shape{1, 4, 4, 1})

	out := x.ExtractPatches(2)
	assert.Equal(t, tensor.Shape{1, 4, 4}, out.Shape())
	assert.Equal(t, []float32{
		0, 1, 4, 5,
		2, 3, 6, 7,
		8, 9, 12, 13,
		10, 11, 14, 15,
	}, out.Data())
}

func TestExtractPatches_ChannelOrder(t *testing.T) {
	// 1x2x2x2: each patch vector is (row, col, channel) ordered.
	x := mustTensor(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{1, 2, 2, 2})
	out := x.ExtractPatches(2)
	assert.Equal(t, tensor.Shape{1, 1, 8}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, out.Data())
}

func TestExtractPatches_Truncates(t *testing.T) {
	x := tensor.Ones(tensor.Shape{2, 5, 7, 3}, New())
	out := x.ExtractPatches(2)
	// floor(5/2) * floor(7/2) = 2 * 3 patches of 2*2*3 values.
	assert.Equal(t, tensor.Shape{2, 6, 12}, out.Shape())
}

func TestGather(t *testing.T) {
	table := mustTensor(t, []float32{0, 0, 1, 1, 2, 2}, tensor.Shape{3, 2})
	out := table.Gather([]int{2, 0})
	assert.Equal(t, []float32{2, 2, 0, 0}, out.Data())

	assert.Panics(t, func() { table.Gather([]int{3}) })
}

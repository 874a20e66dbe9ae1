package tensor_test

import (
	"errors"
	"testing"

	"github.com/born-ml/vision/internal/backend/cpu"
	"github.com/born-ml/vision/internal/random"
	"github.com/born-ml/vision/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlice(t *testing.T) {
	backend := cpu.New()

	data := []float32{1, 2, 3, 4, 5, 6}
	x, err := tensor.FromSlice(data, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, x.Shape())
	assert.Equal(t, float32(6), x.At(1, 2))

	data[0] = 100
	assert.Equal(t, float32(1), x.Data()[0], "FromSlice must copy its input")

	_, err = tensor.FromSlice(data, tensor.Shape{4, 2}, backend)
	assert.Error(t, err)
}

func TestCreation(t *testing.T) {
	backend := cpu.New()

	assert.Equal(t, []float32{0, 0, 0}, tensor.Zeros(tensor.Shape{3}, backend).Data())
	assert.Equal(t, []float32{1, 1}, tensor.Ones(tensor.Shape{2}, backend).Data())
	assert.Equal(t, []float32{7, 7}, tensor.Full(tensor.Shape{2}, 7, backend).Data())
	assert.Equal(t, []float32{2, 3, 4}, tensor.Arange(2, 5, backend).Data())
}

func TestRandn_Seeded(t *testing.T) {
	backend := cpu.New()

	random.Seed(812)
	a := tensor.Randn(tensor.Shape{4, 4}, backend)
	random.Seed(812)
	b := tensor.Randn(tensor.Shape{4, 4}, backend)

	assert.True(t, a.AllClose(b, 0))
}

func TestUniform_Range(t *testing.T) {
	x := tensor.Uniform(tensor.Shape{1000}, -0.5, 0.5, cpu.New())
	for _, v := range x.Data() {
		assert.GreaterOrEqual(t, v, float32(-0.5))
		assert.Less(t, v, float32(0.5))
	}
}

func TestReshape(t *testing.T) {
	x := tensor.Arange(0, 12, cpu.New())

	y := x.Reshape(3, -1)
	assert.Equal(t, tensor.Shape{3, 4}, y.Shape())

	z := y.Reshape(2, 2, 3)
	assert.Equal(t, tensor.Shape{2, 2, 3}, z.Shape())
	assert.Equal(t, float32(11), z.At(1, 1, 2))

	assert.Panics(t, func() { x.Reshape(5, -1) })
	assert.Panics(t, func() { x.Reshape(5, 5) })
}

func TestUnsqueezeAndFlatten(t *testing.T) {
	x := tensor.Zeros(tensor.Shape{2, 3, 4}, cpu.New())

	assert.Equal(t, tensor.Shape{1, 2, 3, 4}, x.Unsqueeze(0).Shape())
	assert.Equal(t, tensor.Shape{2, 3, 4, 1}, x.Unsqueeze(-1).Shape())
	assert.Equal(t, tensor.Shape{2, 12}, x.Flatten().Shape())
}

func TestBroadcastShapes(t *testing.T) {
	s, err := tensor.BroadcastShapes(tensor.Shape{3, 1}, tensor.Shape{3, 5})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 5}, s)

	s, err = tensor.BroadcastShapes(tensor.Shape{1, 196, 64}, tensor.Shape{2, 196, 64})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 196, 64}, s)

	_, err = tensor.BroadcastShapes(tensor.Shape{3, 4}, tensor.Shape{3, 5})
	assert.Error(t, err)
}

func TestShapeError_IsErrShape(t *testing.T) {
	var err error = &tensor.ShapeError{Op: "Op", Msg: "bad"}
	assert.True(t, errors.Is(err, tensor.ErrShape))
	assert.Equal(t, "Op: bad", err.Error())
}

func TestShape_Strides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, tensor.Shape{2, 3, 4}.Strides())
	assert.Equal(t, 24, tensor.Shape{2, 3, 4}.NumElements())
	assert.Error(t, tensor.Shape{2, 0}.Validate())
	assert.Equal(t, 2, tensor.Shape{2, 3, 4}.Axis(-1))
}

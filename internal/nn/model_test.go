package nn

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vision/internal/backend/cpu"
	"github.com/born-ml/vision/internal/tensor"
)

func smallNetwork() *Network {
	backend := cpu.New()
	input := NewInput(tensor.Shape{4})
	d1 := NewLinear(4, 3, backend)
	drop := NewDropout(0.5, backend)
	d2 := NewLinear(3, 2, backend)
	soft := NewSoftmax()
	layers := []Layer{input, d1, drop, d2, soft}
	return NewNetwork("small", layers, func(x *tensor.Tensor) *tensor.Tensor {
		x = input.Forward(x)
		return soft.Forward(d2.Forward(drop.Forward(d1.Forward(x))))
	})
}

func TestNetwork_UniqueNames(t *testing.T) {
	n := smallNetwork()
	names := make([]string, 0, len(n.Layers()))
	for _, l := range n.Layers() {
		names = append(names, l.Name())
	}
	assert.Equal(t, []string{"input", "dense", "dropout", "dense_1", "softmax"}, names)
	assert.NotNil(t, n.Layer("dense_1"))
	assert.Nil(t, n.Layer("dense_2"))
}

func TestUniqueNames_CompositeScopes(t *testing.T) {
	backend := cpu.New()
	first := NewMultiHeadAttention(4, 1, 4, 0, backend)
	second := NewMultiHeadAttention(4, 1, 4, 0, backend)
	inner := NewNetwork("inner", []Layer{NewLinear(4, 4, backend)}, nil)
	head := NewLinear(4, 2, backend)
	NewNetwork("outer", []Layer{first, second, inner, head}, nil)

	assert.Equal(t, "multi_head_attention_1", second.Name())
	assert.Equal(t, "query", second.WQ.Name())
	assert.Equal(t, "attention_output", second.WO.Name())
	// The nested network's dense claims "dense" before the head does.
	assert.Equal(t, "dense", inner.Layers()[0].Name())
	assert.Equal(t, "dense_1", head.Name())

	weights := WeightMap([]Layer{first, second, inner, head})
	assert.Contains(t, weights, "multi_head_attention/query/kernel")
	assert.Contains(t, weights, "multi_head_attention_1/query/kernel")
	assert.Contains(t, weights, "multi_head_attention_1/key/bias")
	for key := range weights {
		assert.NotContains(t, key, "query_1")
		assert.NotContains(t, key, "key_1")
	}
}

func TestNetwork_ForwardSumsToOne(t *testing.T) {
	n := smallNetwork()
	out := n.Forward(tensor.Randn(tensor.Shape{5, 4}, cpu.New()))
	require.Equal(t, tensor.Shape{5, 2}, out.Shape())
	for i := 0; i < 5; i++ {
		assert.InDelta(t, 1, out.At(i, 0)+out.At(i, 1), 1e-5)
	}
}

func TestCountParams_Frozen(t *testing.T) {
	n := smallNetwork()
	n.Layer("dense").SetTrainable(false)

	total, trainable := CountParams(n.Layers())
	assert.Equal(t, 4*3+3+3*2+2, total)
	assert.Equal(t, 3*2+2, trainable)
}

func TestSummary(t *testing.T) {
	n := smallNetwork()
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, n))

	s := buf.String()
	assert.Contains(t, s, `Model: "small"`)
	assert.Contains(t, s, "dense_1 (Dense)")
	assert.Contains(t, s, "Total params: 23")
	assert.Contains(t, s, "Non-trainable params: 0")
}

func TestModelConfig(t *testing.T) {
	data, err := ModelConfig(smallNetwork())
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: small")
	assert.Contains(t, string(data), "class_name: Dense")
	assert.Contains(t, string(data), "units: 3")
}

func TestSafeForward(t *testing.T) {
	n := smallNetwork()
	_, err := SafeForward(n, tensor.Zeros(tensor.Shape{2, 5}, cpu.New()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tensor.ErrShape))

	out, err := SafeForward(n, tensor.Zeros(tensor.Shape{2, 4}, cpu.New()))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
}

func TestSetTraining(t *testing.T) {
	n := smallNetwork()
	drop := n.Layer("dropout").(*Dropout)

	SetTraining(n, true)
	assert.True(t, drop.training)
	SetTraining(n, false)
	assert.False(t, drop.training)
}

func TestWeights_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.safetensors")
	src := smallNetwork()
	require.NoError(t, SaveWeights(src, path))

	dst := smallNetwork()
	require.NoError(t, LoadWeights(dst, path))

	for key, p := range WeightMap(src.Layers()) {
		assert.Equal(t, p.Tensor().Data(), WeightMap(dst.Layers())[key].Tensor().Data(), key)
	}
	assert.Contains(t, WeightMap(src.Layers()), "dense_1/kernel")
}

func TestLoadWeights_Errors(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "w.safetensors")
	src := NewNetwork("a", []Layer{NewLinear(2, 2, backend)}, nil)
	require.NoError(t, SaveWeights(src, path))

	wrongShape := NewNetwork("b", []Layer{NewLinear(3, 2, backend)}, nil)
	err := LoadWeights(wrongShape, path)
	assert.True(t, errors.Is(err, tensor.ErrShape))

	extra := NewNetwork("c", []Layer{NewLinear(2, 2, backend), NewLinear(2, 2, backend)}, nil)
	err = LoadWeights(extra, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dense_1/kernel")
}

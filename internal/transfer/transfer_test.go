package transfer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vision/internal/backend/cpu"
	"github.com/born-ml/vision/internal/hub"
	"github.com/born-ml/vision/internal/nn"
	"github.com/born-ml/vision/internal/tensor"
)

func smallXception() XceptionConfig {
	cfg := DefaultXceptionConfig()
	cfg.InputShape = [3]int{71, 71, 3}
	cfg.WidthDivisor = 32
	return cfg
}

func TestXceptionBackbone_LayerOrder(t *testing.T) {
	backbone := NewXceptionBackbone([3]int{71, 71, 3}, 32, cpu.New())
	layers := backbone.Layers()
	require.Len(t, layers, XceptionLayers)

	expect := map[int]string{
		0:   "input_1",
		1:   "block1_conv1",
		6:   "block1_conv2_act",
		7:   "block2_sepconv1",
		9:   "block2_sepconv2_act",
		12:  "conv2d",
		13:  "block2_pool",
		14:  "batch_normalization",
		15:  "add",
		16:  "block3_sepconv1_act",
		36:  "block5_sepconv1_act",
		45:  "add_3",
		99:  "block11_sepconv2_act",
		116: "block13_sepconv1_act",
		122: "conv2d_3",
		125: "add_11",
		126: "block14_sepconv1",
		131: "block14_sepconv2_act",
	}
	for i, name := range expect {
		assert.Equal(t, name, layers[i].Name(), "layer %d", i)
	}
}

func TestNewXception_FreezesBeforeFineTuneStart(t *testing.T) {
	model, err := NewXception(context.Background(), smallXception(), nil, cpu.New())
	require.NoError(t, err)

	backbone, ok := model.Layers()[0].(*nn.Network)
	require.True(t, ok)
	for i, l := range backbone.Layers() {
		assert.Equal(t, i >= 100, l.Trainable(), "layer %d (%s)", i, l.Name())
	}
	for _, l := range model.Layers()[1:] {
		assert.True(t, l.Trainable(), l.Name())
	}

	total, trainable := nn.CountParams(model.Layers())
	assert.Greater(t, total, trainable)
	assert.Positive(t, trainable)
}

func TestNewXception_Forward(t *testing.T) {
	backend := cpu.New()
	model, err := NewXception(context.Background(), smallXception(), nil, backend)
	require.NoError(t, err)

	out, err := nn.SafeForward(model, tensor.Uniform(tensor.Shape{2, 71, 71, 3}, 0, 1, backend))
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 5}, out.Shape())
	for i := 0; i < 2; i++ {
		sum := float32(0)
		for j := 0; j < 5; j++ {
			sum += out.At(i, j)
		}
		assert.InDelta(t, 1, sum, 1e-4)
	}

	names := make([]string, 0, 8)
	for _, l := range model.Layers() {
		names = append(names, l.Name())
	}
	assert.Equal(t, []string{"xception", "global_average_pooling2d", "dense", "batch_normalization_4",
		"activation", "dropout", "dense_1", "softmax"}, names)
}

func TestNewXception_Weights(t *testing.T) {
	backend := cpu.New()
	cfg := smallXception()

	src, err := NewXception(context.Background(), cfg, nil, backend)
	require.NoError(t, err)
	backbone := src.Layers()[0].(*nn.Network)
	path := filepath.Join(t.TempDir(), "xception.safetensors")
	require.NoError(t, nn.SaveWeights(backbone, path))

	cfg.Weights = path
	dl := hub.NewDownloader(hub.Config{CacheDir: t.TempDir()})
	loaded, err := NewXception(context.Background(), cfg, dl, backend)
	require.NoError(t, err)

	want := nn.WeightMap(backbone.Layers())
	got := nn.WeightMap(loaded.Layers()[0].(*nn.Network).Layers())
	require.Equal(t, len(want), len(got))
	for key, p := range want {
		assert.Equal(t, p.Tensor().Data(), got[key].Tensor().Data(), key)
	}

	_, err = NewXception(context.Background(), cfg, nil, backend)
	assert.Error(t, err)

	cfg.WidthDivisor = 16
	_, err = NewXception(context.Background(), cfg, dl, backend)
	assert.True(t, errors.Is(err, tensor.ErrShape))
}

func TestXceptionConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultXceptionConfig().Validate())

	cfg := DefaultXceptionConfig()
	cfg.InputShape = [3]int{32, 32, 3}
	assert.Error(t, cfg.Validate())

	cfg = DefaultXceptionConfig()
	cfg.FineTuneStart = XceptionLayers + 1
	assert.Error(t, cfg.Validate())

	cfg = DefaultXceptionConfig()
	cfg.DropoutRate = 1
	assert.Error(t, cfg.Validate())
}

// meanExtractor averages each channel; a stand-in for a pretrained model.
type meanExtractor struct {
	nn.Base
}

func (m *meanExtractor) Forward(x *tensor.Tensor) *tensor.Tensor { return x.GlobalAvgPool2D() }
func (m *meanExtractor) OutputDim() int                          { return 3 }
func (m *meanExtractor) Parameters() []*nn.Parameter             { return nil }
func (m *meanExtractor) ClassName() string                       { return "HubLayer" }
func (m *meanExtractor) Config() map[string]any                  { return m.BaseConfig(nil) }

func TestNewHubClassifier(t *testing.T) {
	backend := cpu.New()
	ext := &meanExtractor{Base: nn.NewBase("vit_feature_extractor")}
	model := NewHubClassifier(ext, [3]int{8, 8, 3}, 4, 0.5, backend)

	names := make([]string, 0, 7)
	for _, l := range model.Layers() {
		names = append(names, l.Name())
	}
	assert.Equal(t, []string{"input", "vit_feature_extractor", "dense", "activation", "dropout", "dense_1", "softmax"}, names)

	out := model.Forward(tensor.Uniform(tensor.Shape{3, 8, 8, 3}, 0, 1, backend))
	require.Equal(t, tensor.Shape{3, 4}, out.Shape())

	total, trainable := nn.CountParams(model.Layers())
	assert.Equal(t, 3*HeadUnits+HeadUnits+HeadUnits*4+4, total)
	assert.Equal(t, total, trainable)
}

func TestHubViTConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultHubViTConfig().Validate())

	cfg := DefaultHubViTConfig()
	cfg.InputShape = [3]int{299, 299, 3}
	assert.Error(t, cfg.Validate())

	cfg = DefaultHubViTConfig()
	cfg.ModelURL = ""
	assert.Error(t, cfg.Validate())
}

func TestNewHubViT_MissingModel(t *testing.T) {
	cfg := DefaultHubViTConfig()
	cfg.ModelURL = filepath.Join(t.TempDir(), "missing.onnx")
	_, err := NewHubViT(context.Background(), cfg, hub.Config{CacheDir: t.TempDir()}, cpu.New())
	assert.Error(t, err)
}

// Package transfer builds transfer-learning classifiers: an Xception
// backbone with a partially frozen feature extractor, and a classifier
// head over a pretrained ONNX vision transformer.
package transfer

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/pkg/errors"

	"github.com/born-ml/vision/internal/hub"
	"github.com/born-ml/vision/internal/nn"
	"github.com/born-ml/vision/internal/tensor"
)

// XceptionLayers is the number of backbone layers, input included.
const XceptionLayers = 132

// HeadUnits is the width of the dense layer of both classifier heads.
const HeadUnits = 512

// XceptionConfig describes the Xception transfer classifier.
type XceptionConfig struct {
	InputShape    [3]int  `yaml:"input_shape"     json:"input_shape"`
	NumClasses    int     `yaml:"num_classes"     json:"num_classes"`
	DropoutRate   float32 `yaml:"dropout_rate"    json:"dropout_rate"`
	FineTuneStart int     `yaml:"fine_tune_start" json:"fine_tune_start"`

	// Weights is a safetensors file or URL with backbone weights keyed
	// "<layer>/<param>". Empty keeps the random initialization.
	Weights string `yaml:"weights" json:"weights"`

	// WidthDivisor divides every channel count; 1 is the full model.
	WidthDivisor int `yaml:"width_divisor" json:"width_divisor"`
}

// DefaultXceptionConfig returns the 299×299, five-class configuration that
// fine-tunes from layer 100 on.
func DefaultXceptionConfig() XceptionConfig {
	return XceptionConfig{
		InputShape:    [3]int{299, 299, 3},
		NumClasses:    5,
		DropoutRate:   0.1,
		FineTuneStart: 100,
		WidthDivisor:  1,
	}
}

// Validate reports the first inconsistency in c.
func (c XceptionConfig) Validate() error {
	switch {
	case c.InputShape[0] < 71 || c.InputShape[1] < 71:
		return errors.Errorf("xception: input must be at least 71x71, got %dx%d", c.InputShape[0], c.InputShape[1])
	case c.InputShape[2] <= 0:
		return errors.Errorf("xception: channels must be positive, got %d", c.InputShape[2])
	case c.NumClasses <= 0:
		return errors.Errorf("xception: num_classes must be positive, got %d", c.NumClasses)
	case c.DropoutRate < 0 || c.DropoutRate >= 1:
		return errors.Errorf("xception: dropout_rate must be in [0, 1), got %v", c.DropoutRate)
	case c.FineTuneStart < 0 || c.FineTuneStart > XceptionLayers:
		return errors.Errorf("xception: fine_tune_start must be in [0, %d], got %d", XceptionLayers, c.FineTuneStart)
	case c.WidthDivisor <= 0:
		return errors.Errorf("xception: width_divisor must be positive, got %d", c.WidthDivisor)
	}
	return nil
}

// NewXception builds the classifier: the Xception backbone (entry, middle
// and exit flow without the top) followed by global average pooling,
// Dense(512), batch normalization, ReLU, dropout and a softmax dense layer.
//
// Backbone layers before FineTuneStart are frozen, the others trainable.
// When cfg.Weights is set the backbone weights are loaded from it,
// downloading through dl if it is a URL.
func NewXception(ctx context.Context, cfg XceptionConfig, dl *hub.Downloader, backend tensor.Backend) (*nn.Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backbone := NewXceptionBackbone(cfg.InputShape, cfg.WidthDivisor, backend)
	if cfg.Weights != "" {
		if dl == nil {
			return nil, errors.New("xception: a downloader is required to resolve weights")
		}
		path, err := dl.Resolve(ctx, cfg.Weights)
		if err != nil {
			return nil, errors.Wrap(err, "xception weights")
		}
		if err := nn.LoadLayerWeights(path, backbone.Layers()); err != nil {
			return nil, errors.Wrap(err, "xception weights")
		}
		slog.Info("Loaded backbone weights", "model", "xception", "path", path)
	}
	FreezeBefore(backbone.Layers(), cfg.FineTuneStart)

	features := width(2048, cfg.WidthDivisor)
	gap := nn.NewGlobalAveragePooling2D()
	dense := nn.NewLinear(features, HeadUnits, backend)
	bn := nn.NewBatchNorm(HeadUnits, backend)
	relu := nn.NewReLU()
	relu.SetName("activation")
	dropout := nn.NewDropout(cfg.DropoutRate, backend)
	logits := nn.NewLinear(HeadUnits, cfg.NumClasses, backend)
	softmax := nn.NewSoftmax()

	layers := []nn.Layer{backbone, gap, dense, bn, relu, dropout, logits, softmax}
	return nn.NewNetwork("xception_transfer", layers, func(x *tensor.Tensor) *tensor.Tensor {
		x = gap.Forward(backbone.Forward(x))
		x = relu.Forward(bn.Forward(dense.Forward(x)))
		return softmax.Forward(logits.Forward(dropout.Forward(x)))
	}), nil
}

// FreezeBefore marks layers[:start] non-trainable and the rest trainable.
func FreezeBefore(layers []nn.Layer, start int) {
	for i, l := range layers {
		l.SetTrainable(i >= start)
	}
}

func width(channels, divisor int) int {
	return max(1, channels/divisor)
}

// xceptionBuilder appends named layers in Keras order.
type xceptionBuilder struct {
	backend tensor.Backend
	divisor int
	layers  []nn.Layer
}

func (b *xceptionBuilder) add(name string, l nn.Layer) {
	if name != "" {
		l.SetName(name)
	}
	b.layers = append(b.layers, l)
}

func (b *xceptionBuilder) conv(name string, in, out, k, stride int, padding tensor.Padding) *nn.Conv2D {
	c := nn.NewConv2D(width(in, b.divisor), width(out, b.divisor), k, stride, padding, false, b.backend)
	b.add(name, c)
	return c
}

func (b *xceptionBuilder) sepconv(name string, in, out int) *nn.SeparableConv2D {
	c := nn.NewSeparableConv2D(width(in, b.divisor), width(out, b.divisor), 3, 1, tensor.Same, false, b.backend)
	b.add(name, c)
	return c
}

func (b *xceptionBuilder) bn(name string, channels int) *nn.BatchNorm {
	l := nn.NewBatchNorm(width(channels, b.divisor), b.backend)
	b.add(name, l)
	return l
}

func (b *xceptionBuilder) relu(name string) *nn.Activation {
	l := nn.NewReLU()
	b.add(name, l)
	return l
}

// sepUnit is [relu ->] separable conv -> batch norm.
type sepUnit struct {
	act  *nn.Activation
	conv *nn.SeparableConv2D
	bn   *nn.BatchNorm
}

func (u sepUnit) forward(x *tensor.Tensor) *tensor.Tensor {
	if u.act != nil {
		x = u.act.Forward(x)
	}
	return u.bn.Forward(u.conv.Forward(x))
}

func (b *xceptionBuilder) sepUnit(prefix string, idx, in, out int, withAct bool) sepUnit {
	var u sepUnit
	name := func(s string) string { return prefix + "_sepconv" + strconv.Itoa(idx) + s }
	if withAct {
		u.act = b.relu(name("_act"))
	}
	u.conv = b.sepconv(name(""), in, out)
	u.bn = b.bn(name("_bn"), out)
	return u
}

// downBlock is an entry/exit flow block: two separable units, max pooling
// and a strided 1×1 convolution shortcut.
type downBlock struct {
	units [2]sepUnit
	resCv *nn.Conv2D
	pool  *nn.MaxPool2D
	resBn *nn.BatchNorm
	add   *nn.Add
}

func (b *xceptionBuilder) downBlock(block string, in, mid, out int, firstAct bool) *downBlock {
	d := &downBlock{}
	d.units[0] = b.sepUnit(block, 1, in, mid, firstAct)
	d.units[1] = b.sepUnit(block, 2, mid, out, true)
	d.resCv = b.conv("", in, out, 1, 2, tensor.Same)
	d.pool = nn.NewMaxPool2D(3, 2, tensor.Same)
	b.add(block+"_pool", d.pool)
	d.resBn = b.bn("", out)
	d.add = nn.NewAdd()
	b.add("", d.add)
	return d
}

func (d *downBlock) forward(x *tensor.Tensor) *tensor.Tensor {
	residual := d.resBn.Forward(d.resCv.Forward(x))
	y := d.units[1].forward(d.units[0].forward(x))
	return d.add.Call(d.pool.Forward(y), residual)
}

// middleBlock is three relu/separable units with an identity shortcut.
type middleBlock struct {
	units [3]sepUnit
	add   *nn.Add
}

func (m *middleBlock) forward(x *tensor.Tensor) *tensor.Tensor {
	y := x
	for _, u := range m.units {
		y = u.forward(y)
	}
	return m.add.Call(y, x)
}

// NewXceptionBackbone builds the 132-layer Xception feature extractor for
// [B, H, W, C] inputs, producing [B, h, w, 2048/divisor] feature maps.
func NewXceptionBackbone(inputShape [3]int, divisor int, backend tensor.Backend) *nn.Network {
	b := &xceptionBuilder{backend: backend, divisor: max(divisor, 1)}
	c := inputShape[2]

	input := nn.NewInput(tensor.Shape{inputShape[0], inputShape[1], c})
	b.add("input_1", input)

	// Entry flow. The input channels are never divided.
	conv1 := nn.NewConv2D(c, width(32, b.divisor), 3, 2, tensor.Valid, false, backend)
	b.add("block1_conv1", conv1)
	bn1 := b.bn("block1_conv1_bn", 32)
	act1 := b.relu("block1_conv1_act")
	conv2 := b.conv("block1_conv2", 32, 64, 3, 1, tensor.Valid)
	bn2 := b.bn("block1_conv2_bn", 64)
	act2 := b.relu("block1_conv2_act")

	entry := []*downBlock{
		b.downBlock("block2", 64, 128, 128, false),
		b.downBlock("block3", 128, 256, 256, true),
		b.downBlock("block4", 256, 728, 728, true),
	}

	// Middle flow.
	middle := make([]*middleBlock, 8)
	for i := range middle {
		block := "block" + strconv.Itoa(5+i)
		m := &middleBlock{}
		for u := range m.units {
			m.units[u] = b.sepUnit(block, u+1, 728, 728, true)
		}
		m.add = nn.NewAdd()
		b.add("", m.add)
		middle[i] = m
	}

	// Exit flow.
	exit := b.downBlock("block13", 728, 728, 1024, true)
	sep1 := b.sepconv("block14_sepconv1", 1024, 1536)
	sep1bn := b.bn("block14_sepconv1_bn", 1536)
	sep1act := b.relu("block14_sepconv1_act")
	sep2 := b.sepconv("block14_sepconv2", 1536, 2048)
	sep2bn := b.bn("block14_sepconv2_bn", 2048)
	sep2act := b.relu("block14_sepconv2_act")

	return nn.NewNetwork("xception", b.layers, func(x *tensor.Tensor) *tensor.Tensor {
		x = input.Forward(x)
		x = act1.Forward(bn1.Forward(conv1.Forward(x)))
		x = act2.Forward(bn2.Forward(conv2.Forward(x)))
		for _, d := range entry {
			x = d.forward(x)
		}
		for _, m := range middle {
			x = m.forward(x)
		}
		x = exit.forward(x)
		x = sep1act.Forward(sep1bn.Forward(sep1.Forward(x)))
		return sep2act.Forward(sep2bn.Forward(sep2.Forward(x)))
	})
}

package vit

import (
	"github.com/born-ml/vision/internal/nn"
	"github.com/born-ml/vision/internal/tensor"
)

// encoderBlock is one pre-norm transformer block. Its layers are listed
// flat in the model so weight keys match a functional Keras model.
type encoderBlock struct {
	norm1     *nn.LayerNorm
	attention *nn.MultiHeadAttention
	add1      *nn.Add
	norm2     *nn.LayerNorm
	mlp       *nn.MLP
	add2      *nn.Add
}

func newEncoderBlock(cfg Config, backend tensor.Backend) *encoderBlock {
	d := cfg.ProjectionDim
	return &encoderBlock{
		norm1:     nn.NewLayerNorm(d, LayerNormEpsilon, backend),
		attention: nn.NewMultiHeadAttention(d, cfg.NumHeads, d, cfg.AttentionDropout, backend),
		add1:      nn.NewAdd(),
		norm2:     nn.NewLayerNorm(d, LayerNormEpsilon, backend),
		mlp:       nn.NewMLP(d, cfg.TransformerUnits, cfg.MLPDropout, backend),
		add2:      nn.NewAdd(),
	}
}

func (b *encoderBlock) layers() []nn.Layer {
	return []nn.Layer{b.norm1, b.attention, b.add1, b.norm2, b.mlp, b.add2}
}

func (b *encoderBlock) forward(encoded *tensor.Tensor) *tensor.Tensor {
	x1 := b.norm1.Forward(encoded)
	x2 := b.add1.Call(b.attention.Forward(x1, x1), encoded)
	x3 := b.mlp.Forward(b.norm2.Forward(x2))
	return b.add2.Call(x3, x2)
}

// Build assembles the classifier described by cfg:
//
//	input -> patches -> patch encoder
//	      -> blocks × [LN -> MHA -> +x -> LN -> MLP -> +x]
//	      -> LN -> flatten -> dropout -> MLP head -> dense -> softmax
//
// The output has one probability per class for each sample.
func Build(cfg Config, backend tensor.Backend) (*nn.Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h, w, c := cfg.InputShape[0], cfg.InputShape[1], cfg.InputShape[2]
	patchDim := cfg.PatchSize * cfg.PatchSize * c

	input := nn.NewInput(tensor.Shape{h, w, c})
	patches := NewPatches(cfg.PatchSize)
	encoder := NewPatchEncoder(cfg.NumPatches, patchDim, cfg.ProjectionDim, backend)
	layers := []nn.Layer{input, patches, encoder}

	blocks := make([]*encoderBlock, cfg.TransformerLayers)
	for i := range blocks {
		blocks[i] = newEncoderBlock(cfg, backend)
		layers = append(layers, blocks[i].layers()...)
	}

	norm := nn.NewLayerNorm(cfg.ProjectionDim, LayerNormEpsilon, backend)
	flatten := nn.NewFlatten()
	dropout := nn.NewDropout(cfg.HeadDropout, backend)
	head := nn.NewMLP(cfg.NumPatches*cfg.ProjectionDim, cfg.MLPHeadUnits, cfg.HeadDropout, backend)
	features := cfg.NumPatches * cfg.ProjectionDim
	if n := len(cfg.MLPHeadUnits); n > 0 {
		features = cfg.MLPHeadUnits[n-1]
	}
	logits := nn.NewLinear(features, cfg.NumClasses, backend)
	softmax := nn.NewSoftmax()
	layers = append(layers, norm, flatten, dropout, head, logits, softmax)

	return nn.NewNetwork("vit", layers, func(x *tensor.Tensor) *tensor.Tensor {
		x = encoder.Forward(patches.Forward(input.Forward(x)))
		for _, b := range blocks {
			x = b.forward(x)
		}
		x = dropout.Forward(flatten.Forward(norm.Forward(x)))
		return softmax.Forward(logits.Forward(head.Forward(x)))
	}), nil
}

package nn

import (
	"github.com/born-ml/vision/internal/tensor"
)

// Composite is a layer made of other layers. Weight files, summaries and
// training-mode switches recurse into sub-layers.
type Composite interface {
	SubLayers() []Layer
}

// Sequential chains layers: each layer's output becomes the next one's input.
//
// Every layer must also be a Module; Add-style merge layers do not fit in a
// Sequential.
//
// Example:
//
//	head := nn.NewSequential(
//	    nn.NewLinear(2048, 512, backend),
//	    nn.NewReLU(),
//	    nn.NewLinear(512, 5, backend),
//	    nn.NewSoftmax(),
//	)
//	probs := head.Forward(features)
type Sequential struct {
	Base
	layers []Layer
}

// NewSequential creates a Sequential container. Panics if a layer has no
// Forward method.
func NewSequential(layers ...Layer) *Sequential {
	s := &Sequential{Base: newBase("sequential")}
	for _, l := range layers {
		s.Add(l)
	}
	return s
}

// Add appends a layer to the sequence.
func (s *Sequential) Add(layer Layer) {
	if _, ok := layer.(Module); !ok {
		tensor.Panicf("Sequential.Add", "layer %s (%s) has no Forward", layer.Name(), layer.ClassName())
	}
	s.layers = append(s.layers, layer)
}

// Forward applies all layers in order.
func (s *Sequential) Forward(input *tensor.Tensor) *tensor.Tensor {
	output := input
	for _, l := range s.layers {
		output = l.(Module).Forward(output)
	}
	return output
}

// Parameters returns the parameters of every layer.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, l := range s.layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

// SubLayers returns the contained layers.
func (s *Sequential) SubLayers() []Layer {
	return s.layers
}

// Len returns the number of layers.
func (s *Sequential) Len() int {
	return len(s.layers)
}

// SetTrainable freezes or unfreezes the container and all its layers.
func (s *Sequential) SetTrainable(trainable bool) {
	s.Base.SetTrainable(trainable)
	for _, l := range s.layers {
		l.SetTrainable(trainable)
	}
}

// ClassName returns "Sequential".
func (s *Sequential) ClassName() string { return "Sequential" }

// Config exports the layer configuration.
func (s *Sequential) Config() map[string]any {
	return s.config(map[string]any{"layers": len(s.layers)})
}

// MLP is a stack of Dense(gelu) + Dropout pairs, one per hidden unit count.
//
// Example:
//
//	// Transformer feed-forward: 64 -> 256 -> 64
//	mlp := nn.NewMLP(64, []int{256, 64}, 0.1, backend)
type MLP struct {
	*Sequential
	units []int
}

// NewMLP creates an MLP over inFeatures inputs.
func NewMLP(inFeatures int, hiddenUnits []int, dropout float32, backend tensor.Backend) *MLP {
	seq := NewSequential()
	seq.SetName("mlp")
	in := inFeatures
	for _, units := range hiddenUnits {
		seq.Add(NewLinear(in, units, backend))
		seq.Add(NewGELU())
		seq.Add(NewDropout(dropout, backend))
		in = units
	}
	return &MLP{Sequential: seq, units: append([]int(nil), hiddenUnits...)}
}

// Units returns the hidden unit counts.
func (m *MLP) Units() []int {
	return m.units
}

// ClassName returns "MLP".
func (m *MLP) ClassName() string { return "MLP" }

// Config exports the layer configuration.
func (m *MLP) Config() map[string]any {
	return m.config(map[string]any{"hidden_units": m.units, "activation": "gelu"})
}

package nn

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"

	"github.com/born-ml/vision/internal/tensor"
)

// Model is a named network with an ordered list of top-level layers.
//
// Layer order is significant: transfer learning freezes layers by index.
type Model interface {
	Module
	Name() string
	Layers() []Layer
}

// Network is a Model whose forward pass is an arbitrary function over its
// layers. Residual architectures (ViT, Xception) express their wiring in
// forward and list every layer in Keras order.
//
// A Network is itself a Layer, so a backbone can be nested inside a larger
// classifier and frozen or unfrozen as a whole.
type Network struct {
	Base
	layers  []Layer
	forward func(x *tensor.Tensor) *tensor.Tensor
}

// NewNetwork creates a network. Duplicate layer names get numeric suffixes
// ("dense", "dense_1", ...) so weight keys stay unique.
func NewNetwork(name string, layers []Layer, forward func(x *tensor.Tensor) *tensor.Tensor) *Network {
	UniqueNames(layers)
	return &Network{Base: newBase(name), layers: layers, forward: forward}
}

// Layers returns the top-level layers in order.
func (n *Network) Layers() []Layer { return n.layers }

// SubLayers returns the top-level layers, making nested networks Composite.
func (n *Network) SubLayers() []Layer { return n.layers }

// Forward runs the network.
func (n *Network) Forward(x *tensor.Tensor) *tensor.Tensor { return n.forward(x) }

// Parameters returns the parameters of every layer.
func (n *Network) Parameters() []*Parameter {
	var params []*Parameter
	for _, l := range n.layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

// Layer returns the layer with the given name, or nil.
func (n *Network) Layer(name string) Layer {
	for _, l := range n.layers {
		if l.Name() == name {
			return l
		}
	}
	return nil
}

// ClassName returns "Functional".
func (n *Network) ClassName() string { return "Functional" }

// Config exports the network name and trainable flag.
func (n *Network) Config() map[string]any { return n.config(nil) }

// UniqueNames renames layers so that no two in the same scope share a name.
// Nested networks share the scope of their parent; any other composite
// layer opens its own scope, so attention projections stay "query",
// "key", ... in every block.
func UniqueNames(layers []Layer) {
	var visit func(ls []Layer, seen map[string]bool)
	visit = func(ls []Layer, seen map[string]bool) {
		for _, l := range ls {
			name := l.Name()
			for k := 1; seen[name]; k++ {
				name = fmt.Sprintf("%s_%d", l.Name(), k)
			}
			seen[name] = true
			l.SetName(name)

			c, ok := l.(Composite)
			if !ok {
				continue
			}
			if _, network := l.(*Network); network {
				visit(c.SubLayers(), seen)
			} else {
				visit(c.SubLayers(), make(map[string]bool))
			}
		}
	}
	visit(layers, make(map[string]bool))
}

// walkParams calls fn for every leaf parameter with its weight key and
// effective trainable state (layer, ancestors and parameter all trainable).
func walkParams(layers []Layer, prefix string, trainable bool, fn func(key string, p *Parameter, trainable bool)) {
	for _, l := range layers {
		t := trainable && l.Trainable()
		if c, ok := l.(Composite); ok {
			walkParams(c.SubLayers(), prefix+l.Name()+"/", t, fn)
			continue
		}
		for _, p := range l.Parameters() {
			fn(prefix+l.Name()+"/"+p.Name(), p, t && p.Trainable())
		}
	}
}

// CountParams returns the total and trainable scalar parameter counts.
func CountParams(layers []Layer) (total, trainable int) {
	walkParams(layers, "", true, func(_ string, p *Parameter, t bool) {
		total += p.Size()
		if t {
			trainable += p.Size()
		}
	})
	return total, trainable
}

// SetTraining switches Dropout, BatchNorm and attention layers between
// training and inference behaviour.
func SetTraining(m Model, training bool) {
	var visit func(ls []Layer)
	visit = func(ls []Layer) {
		for _, l := range ls {
			if tm, ok := l.(trainingMode); ok {
				tm.SetTraining(training)
			}
			if c, ok := l.(Composite); ok {
				visit(c.SubLayers())
			}
		}
	}
	visit(m.Layers())
}

// SafeForward runs m.Forward and converts a shape panic into an error
// matching tensor.ErrShape. Other panics propagate.
func SafeForward(m Module, x *tensor.Tensor) (out *tensor.Tensor, err error) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*tensor.ShapeError)
			if !ok {
				panic(r)
			}
			out, err = nil, errors.WithStack(se)
		}
	}()
	return m.Forward(x), nil
}

// Summary writes a Keras-like table of layers, parameter counts and
// trainable state, followed by totals.
func Summary(w io.Writer, m Model) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rule := strings.Repeat("=", 72)

	fmt.Fprintf(tw, "Model: %q\n", m.Name())
	fmt.Fprintln(tw, rule)
	fmt.Fprintln(tw, "Layer (type)\tParam #\tTrainable")
	fmt.Fprintln(tw, rule)
	for _, l := range m.Layers() {
		total, _ := CountParams([]Layer{l})
		fmt.Fprintf(tw, "%s (%s)\t%d\t%t\n", l.Name(), l.ClassName(), total, l.Trainable())
	}
	total, trainable := CountParams(m.Layers())
	fmt.Fprintln(tw, rule)
	fmt.Fprintf(tw, "Total params: %d\n", total)
	fmt.Fprintf(tw, "Trainable params: %d\n", trainable)
	fmt.Fprintf(tw, "Non-trainable params: %d\n", total-trainable)

	return errors.Wrap(tw.Flush(), "write summary")
}

// LayerConfig is the exported description of one layer.
type LayerConfig struct {
	ClassName string         `yaml:"class_name"`
	Config    map[string]any `yaml:"config"`
	Layers    []LayerConfig  `yaml:"layers,omitempty"`
}

// ModelDescription is the exported description of a model.
type ModelDescription struct {
	Name   string        `yaml:"name"`
	Layers []LayerConfig `yaml:"layers"`
}

// Describe collects the configuration of every layer of m.
func Describe(m Model) ModelDescription {
	return ModelDescription{Name: m.Name(), Layers: describeLayers(m.Layers())}
}

func describeLayers(layers []Layer) []LayerConfig {
	out := make([]LayerConfig, 0, len(layers))
	for _, l := range layers {
		lc := LayerConfig{ClassName: l.ClassName(), Config: l.Config()}
		if c, ok := l.(Composite); ok {
			lc.Layers = describeLayers(c.SubLayers())
		}
		out = append(out, lc)
	}
	return out
}

// ModelConfig exports the layer configurations of m as YAML.
func ModelConfig(m Model) ([]byte, error) {
	data, err := yaml.Marshal(Describe(m))
	if err != nil {
		return nil, errors.Wrap(err, "marshal model config")
	}
	return data, nil
}

package nn

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/vision/internal/serialization"
	"github.com/born-ml/vision/internal/tensor"
)

// WeightMap returns every parameter of layers keyed "<layer>/<param>".
// Parameters of nested layers are keyed "<outer>/<inner>/<param>".
func WeightMap(layers []Layer) map[string]*Parameter {
	out := make(map[string]*Parameter)
	walkParams(layers, "", true, func(key string, p *Parameter, _ bool) {
		out[key] = p
	})
	return out
}

// SaveWeights writes all parameters of m to a SafeTensors file.
func SaveWeights(m Model, path string) error {
	params := WeightMap(m.Layers())
	tensors := make(map[string]serialization.Tensor, len(params))
	for key, p := range params {
		t := p.Tensor()
		tensors[key] = serialization.Tensor{Shape: t.Shape(), Data: t.Data()}
	}
	err := serialization.Write(path, tensors, map[string]string{"model": m.Name()})
	return errors.Wrapf(err, "save weights of %s", m.Name())
}

// LoadWeights fills every parameter of m from a SafeTensors file.
func LoadWeights(m Model, path string) error {
	return errors.Wrapf(LoadLayerWeights(path, m.Layers()), "load weights of %s", m.Name())
}

// LoadLayerWeights fills the parameters of layers from a SafeTensors file.
// Every parameter must be present with a matching shape; extra tensors in
// the file are ignored, so a backbone can load from a full-model export.
func LoadLayerWeights(path string, layers []Layer) error {
	r, err := serialization.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Close()
	}()

	params := WeightMap(layers)
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var missing []string
	for _, key := range keys {
		if _, err := r.Info(key); err != nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("%d weights missing from %s: %s", len(missing), path, strings.Join(missing, ", "))
	}

	for _, key := range keys {
		data, shape, err := r.Float32(key)
		if err != nil {
			return err
		}
		dst := params[key].Tensor()
		if !dst.Shape().Equal(shape) {
			return errors.Wrapf(tensor.ErrShape, "weight %s: file has %v, layer expects %v", key, shape, dst.Shape())
		}
		copy(dst.Data(), data)
	}
	return nil
}

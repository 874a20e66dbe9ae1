package vit

import (
	"github.com/pkg/errors"
)

// Config describes a vision transformer classifier.
type Config struct {
	InputShape        [3]int  `yaml:"input_shape"        json:"input_shape"`
	NumClasses        int     `yaml:"num_classes"        json:"num_classes"`
	PatchSize         int     `yaml:"patch_size"         json:"patch_size"`
	NumPatches        int     `yaml:"num_patches"        json:"num_patches"`
	ProjectionDim     int     `yaml:"projection_dim"     json:"projection_dim"`
	TransformerLayers int     `yaml:"transformer_layers" json:"transformer_layers"`
	NumHeads          int     `yaml:"num_heads"          json:"num_heads"`
	TransformerUnits  []int   `yaml:"transformer_units"  json:"transformer_units"`
	MLPHeadUnits      []int   `yaml:"mlp_head_units"     json:"mlp_head_units"`
	AttentionDropout  float32 `yaml:"attention_dropout"  json:"attention_dropout"`
	MLPDropout        float32 `yaml:"mlp_dropout"        json:"mlp_dropout"`
	HeadDropout       float32 `yaml:"head_dropout"       json:"head_dropout"`
}

// DefaultConfig returns the 224×224 classifier with 16-pixel patches, eight
// encoder blocks of four heads and five output classes.
func DefaultConfig() Config {
	return Config{
		InputShape:        [3]int{224, 224, 3},
		NumClasses:        5,
		PatchSize:         16,
		NumPatches:        196,
		ProjectionDim:     64,
		TransformerLayers: 8,
		NumHeads:          4,
		TransformerUnits:  []int{256, 64},
		MLPHeadUnits:      []int{128, 64},
		AttentionDropout:  0.1,
		MLPDropout:        0.1,
		HeadDropout:       0.5,
	}
}

// LayerNormEpsilon is used by every normalization layer of the model.
const LayerNormEpsilon = 1e-6

// PatchGrid returns the number of patches along height and width.
func (c Config) PatchGrid() (rows, cols int) {
	if c.PatchSize <= 0 {
		return 0, 0
	}
	return c.InputShape[0] / c.PatchSize, c.InputShape[1] / c.PatchSize
}

// Validate reports the first inconsistency in c.
func (c Config) Validate() error {
	for i, d := range c.InputShape {
		if d <= 0 {
			return errors.Errorf("vit: input_shape[%d] must be positive, got %d", i, d)
		}
	}
	switch {
	case c.NumClasses <= 0:
		return errors.Errorf("vit: num_classes must be positive, got %d", c.NumClasses)
	case c.PatchSize <= 0:
		return errors.Errorf("vit: patch_size must be positive, got %d", c.PatchSize)
	case c.PatchSize > c.InputShape[0] || c.PatchSize > c.InputShape[1]:
		return errors.Errorf("vit: patch_size %d larger than image %dx%d", c.PatchSize, c.InputShape[0], c.InputShape[1])
	case c.ProjectionDim <= 0:
		return errors.Errorf("vit: projection_dim must be positive, got %d", c.ProjectionDim)
	case c.TransformerLayers < 0:
		return errors.Errorf("vit: transformer_layers must not be negative, got %d", c.TransformerLayers)
	case c.NumHeads <= 0:
		return errors.Errorf("vit: num_heads must be positive, got %d", c.NumHeads)
	}

	rows, cols := c.PatchGrid()
	if c.NumPatches != rows*cols {
		return errors.Errorf("vit: num_patches is %d but a %dx%d image yields %d patches of size %d",
			c.NumPatches, c.InputShape[0], c.InputShape[1], rows*cols, c.PatchSize)
	}
	if c.TransformerLayers > 0 {
		if len(c.TransformerUnits) == 0 {
			return errors.New("vit: transformer_units must not be empty")
		}
		if last := c.TransformerUnits[len(c.TransformerUnits)-1]; last != c.ProjectionDim {
			return errors.Errorf("vit: last transformer unit %d must equal projection_dim %d for the residual", last, c.ProjectionDim)
		}
	}
	for _, u := range append(append([]int(nil), c.TransformerUnits...), c.MLPHeadUnits...) {
		if u <= 0 {
			return errors.Errorf("vit: hidden units must be positive, got %d", u)
		}
	}
	for name, rate := range map[string]float32{
		"attention_dropout": c.AttentionDropout,
		"mlp_dropout":       c.MLPDropout,
		"head_dropout":      c.HeadDropout,
	} {
		if rate < 0 || rate >= 1 {
			return errors.Errorf("vit: %s must be in [0, 1), got %v", name, rate)
		}
	}
	return nil
}

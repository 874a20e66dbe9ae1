// Package augment builds the random image augmentation applied to training
// images: affine transforms (rotation, shift, shear, zoom), flips, channel
// shift and brightness, followed by rescaling.
package augment

import (
	"github.com/pkg/errors"
)

// FillMode selects how points outside the input are filled.
type FillMode string

// Fill modes.
const (
	FillNearest  FillMode = "nearest"  // aaaa|abcd|dddd
	FillConstant FillMode = "constant" // kkkk|abcd|kkkk
	FillReflect  FillMode = "reflect"  // dcba|abcd|dcba
	FillWrap     FillMode = "wrap"     // abcd|abcd|abcd
)

// ValidationSplit is the fraction of every class held out for validation.
const ValidationSplit = 0.2

// Config holds the augmentation ranges.
//
// Shift ranges below 1 are fractions of the image size, 1 or more are
// pixels. Rotation and shear are in degrees. A zero BrightnessRange
// disables the brightness change.
type Config struct {
	RotationRange     float64    `yaml:"rotation_range"      json:"rotation_range"`
	WidthShiftRange   float64    `yaml:"width_shift_range"   json:"width_shift_range"`
	HeightShiftRange  float64    `yaml:"height_shift_range"  json:"height_shift_range"`
	ShearRange        float64    `yaml:"shear_range"         json:"shear_range"`
	ZoomRange         [2]float64 `yaml:"zoom_range"          json:"zoom_range"`
	HorizontalFlip    bool       `yaml:"horizontal_flip"     json:"horizontal_flip"`
	VerticalFlip      bool       `yaml:"vertical_flip"       json:"vertical_flip"`
	BrightnessRange   [2]float64 `yaml:"brightness_range"    json:"brightness_range"`
	ChannelShiftRange float64    `yaml:"channel_shift_range" json:"channel_shift_range"`
	Rescale           float64    `yaml:"rescale"             json:"rescale"`
	FillMode          FillMode   `yaml:"fill_mode"           json:"fill_mode"`
	Cval              float64    `yaml:"cval"                json:"cval"`
}

// DefaultConfig returns the fixed augmentation used by the experiment:
// rotation 20°, shifts 0.25, shear 0.25°, zoom 0.75..1.25, both flips,
// brightness 0.9..1.1, channel shift 0.1, rescale 1/255, nearest fill.
func DefaultConfig() Config {
	return Config{
		RotationRange:     20,
		WidthShiftRange:   0.25,
		HeightShiftRange:  0.25,
		ShearRange:        0.25,
		ZoomRange:         ZoomRange(0.25),
		HorizontalFlip:    true,
		VerticalFlip:      true,
		BrightnessRange:   [2]float64{0.9, 1.1},
		ChannelShiftRange: 0.1,
		Rescale:           1.0 / 255,
		FillMode:          FillNearest,
	}
}

// ZoomRange converts a single zoom amount z into [1-z, 1+z].
func ZoomRange(z float64) [2]float64 {
	return [2]float64{1 - z, 1 + z}
}

// Validate checks the ranges.
func (c Config) Validate() error {
	switch {
	case c.RotationRange < 0, c.WidthShiftRange < 0, c.HeightShiftRange < 0, c.ShearRange < 0, c.ChannelShiftRange < 0:
		return errors.New("augment: ranges must be non-negative")
	case c.ZoomRange[0] <= 0 || c.ZoomRange[0] > c.ZoomRange[1]:
		return errors.Errorf("augment: invalid zoom range %v", c.ZoomRange)
	case c.BrightnessRange != [2]float64{} && (c.BrightnessRange[0] < 0 || c.BrightnessRange[0] > c.BrightnessRange[1]):
		return errors.Errorf("augment: invalid brightness range %v", c.BrightnessRange)
	}
	switch c.FillMode {
	case FillNearest, FillConstant, FillReflect, FillWrap:
	default:
		return errors.Errorf("augment: unknown fill mode %q", c.FillMode)
	}
	return nil
}

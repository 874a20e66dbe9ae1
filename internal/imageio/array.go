package imageio

import (
	"image"
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/vision/internal/tensor"
)

// Array is an HWC float32 image. Values are in 0..255 until rescaled.
type Array struct {
	Height   int
	Width    int
	Channels int
	Pix      []float32
}

// NewArray allocates a zeroed array.
func NewArray(height, width, channels int) *Array {
	return &Array{Height: height, Width: width, Channels: channels, Pix: make([]float32, height*width*channels)}
}

// Shape returns (height, width, channels).
func (a *Array) Shape() [3]int {
	return [3]int{a.Height, a.Width, a.Channels}
}

// At returns the value at (y, x, c).
func (a *Array) At(y, x, c int) float32 {
	return a.Pix[(y*a.Width+x)*a.Channels+c]
}

// Set stores v at (y, x, c).
func (a *Array) Set(y, x, c int, v float32) {
	a.Pix[(y*a.Width+x)*a.Channels+c] = v
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	out := *a
	out.Pix = append([]float32(nil), a.Pix...)
	return &out
}

// Tensor wraps a copy of the pixels as a [H, W, C] tensor.
func (a *Array) Tensor(b tensor.Backend) *tensor.Tensor {
	return tensor.New(append([]float32(nil), a.Pix...), tensor.Shape{a.Height, a.Width, a.Channels}, b)
}

// ToArray converts an RGBA image to a [H, W, 3] array with values 0..255.
func ToArray(img *image.RGBA) *Array {
	b := img.Bounds()
	a := NewArray(b.Dy(), b.Dx(), 3)
	for y := 0; y < a.Height; y++ {
		row := img.Pix[(y)*img.Stride:]
		for x := 0; x < a.Width; x++ {
			for c := 0; c < 3; c++ {
				a.Pix[(y*a.Width+x)*3+c] = float32(row[x*4+c])
			}
		}
	}
	return a
}

// ToTensor converts an image to a [H, W, 3] tensor with values 0..255.
func ToTensor(img *image.RGBA, b tensor.Backend) *tensor.Tensor {
	return ToArray(img).Tensor(b)
}

// FromArray converts an array back to an image. Values are rounded and
// clamped to 0..255; scale multiplies values first (use 255 for arrays
// rescaled to 0..1). Single-channel arrays become grey.
func FromArray(a *Array, scale float32) (*image.RGBA, error) {
	if a.Channels != 1 && a.Channels != 3 {
		return nil, errors.Errorf("cannot convert %d-channel array to an image", a.Channels)
	}
	img := image.NewRGBA(image.Rect(0, 0, a.Width, a.Height))
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			o := y*img.Stride + x*4
			for c := 0; c < 3; c++ {
				src := c
				if a.Channels == 1 {
					src = 0
				}
				img.Pix[o+c] = clampByte(a.At(y, x, src) * scale)
			}
			img.Pix[o+3] = 0xff
		}
	}
	return img, nil
}

// FromTensor converts a [H, W, C] or [1, H, W, C] tensor with values
// 0..255 to an image.
func FromTensor(t *tensor.Tensor) (*image.RGBA, error) {
	s := t.Shape()
	if len(s) == 4 && s[0] == 1 {
		s = s[1:]
	}
	if len(s) != 3 {
		return nil, errors.Wrapf(tensor.ErrShape, "expected [H, W, C] tensor, got %v", t.Shape())
	}
	return FromArray(&Array{Height: s[0], Width: s[1], Channels: s[2], Pix: t.Data()}, 1)
}

func clampByte(v float32) uint8 {
	switch {
	case v <= 0 || math.IsNaN(float64(v)):
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

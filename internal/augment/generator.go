package augment

import (
	"math"
	"math/rand"

	"github.com/born-ml/vision/internal/imageio"
	"github.com/born-ml/vision/internal/random"
)

// Image is an HWC float32 image with values in 0..255 before rescaling.
type Image = imageio.Array

// TransformParams are the random draws for one image.
type TransformParams struct {
	Theta                 float64 // rotation, degrees
	Tx                    float64 // shift along rows, pixels
	Ty                    float64 // shift along columns, pixels
	Shear                 float64 // degrees
	Zx                    float64 // zoom along rows
	Zy                    float64 // zoom along columns
	FlipHorizontal        bool
	FlipVertical          bool
	ChannelShiftIntensity float64
	Brightness            float64 // 0 means unchanged
}

// ImageGenerator applies random augmentation. The validation split is
// always ValidationSplit.
type ImageGenerator struct {
	cfg Config
}

// NewImageGenerator returns the generator with DefaultConfig.
func NewImageGenerator() *ImageGenerator {
	return &ImageGenerator{cfg: DefaultConfig()}
}

// New returns a generator with custom ranges.
func New(cfg Config) (*ImageGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ImageGenerator{cfg: cfg}, nil
}

// Config returns the generator ranges.
func (g *ImageGenerator) Config() Config {
	return g.cfg
}

// ValidationSplit returns the held-out fraction (always 0.2).
func (g *ImageGenerator) ValidationSplit() float64 {
	return ValidationSplit
}

// RandomTransformParams draws transform parameters for an image of the given
// size. Draw order is fixed so that a seeded r yields the same parameters.
func (g *ImageGenerator) RandomTransformParams(r *rand.Rand, height, width int) TransformParams {
	c := g.cfg
	uniform := func(lo, hi float64) float64 { return lo + r.Float64()*(hi-lo) }

	var p TransformParams
	if c.RotationRange > 0 {
		p.Theta = uniform(-c.RotationRange, c.RotationRange)
	}
	if c.HeightShiftRange > 0 {
		p.Tx = uniform(-c.HeightShiftRange, c.HeightShiftRange)
		if c.HeightShiftRange < 1 {
			p.Tx *= float64(height)
		}
	}
	if c.WidthShiftRange > 0 {
		p.Ty = uniform(-c.WidthShiftRange, c.WidthShiftRange)
		if c.WidthShiftRange < 1 {
			p.Ty *= float64(width)
		}
	}
	if c.ShearRange > 0 {
		p.Shear = uniform(-c.ShearRange, c.ShearRange)
	}
	p.Zx, p.Zy = 1, 1
	if c.ZoomRange != [2]float64{1, 1} {
		p.Zx = uniform(c.ZoomRange[0], c.ZoomRange[1])
		p.Zy = uniform(c.ZoomRange[0], c.ZoomRange[1])
	}
	p.FlipHorizontal = r.Float64() < 0.5 && c.HorizontalFlip
	p.FlipVertical = r.Float64() < 0.5 && c.VerticalFlip
	if c.ChannelShiftRange > 0 {
		p.ChannelShiftIntensity = uniform(-c.ChannelShiftRange, c.ChannelShiftRange)
	}
	if c.BrightnessRange != [2]float64{} {
		p.Brightness = uniform(c.BrightnessRange[0], c.BrightnessRange[1])
	}
	return p
}

// RandomTransform augments img with parameters drawn from the shared
// random source. img is not modified.
func (g *ImageGenerator) RandomTransform(img *Image) *Image {
	var p TransformParams
	random.With(func(r *rand.Rand) {
		p = g.RandomTransformParams(r, img.Height, img.Width)
	})
	return g.ApplyTransform(img, p)
}

// ApplyTransform applies p to img: affine warp, channel shift, flips, then
// brightness. img is not modified.
func (g *ImageGenerator) ApplyTransform(img *Image, p TransformParams) *Image {
	out := affine(img, p, g.cfg.FillMode, float32(g.cfg.Cval))
	if p.ChannelShiftIntensity != 0 {
		channelShift(out, float32(p.ChannelShiftIntensity))
	}
	if p.FlipHorizontal {
		flipColumns(out)
	}
	if p.FlipVertical {
		flipRows(out)
	}
	if p.Brightness != 0 {
		brightness(out, p.Brightness)
	}
	return out
}

// Standardize rescales img in place.
func (g *ImageGenerator) Standardize(img *Image) {
	if g.cfg.Rescale == 0 {
		return
	}
	s := float32(g.cfg.Rescale)
	for i := range img.Pix {
		img.Pix[i] *= s
	}
}

// Apply is RandomTransform followed by Standardize.
func (g *ImageGenerator) Apply(img *Image) *Image {
	out := g.RandomTransform(img)
	g.Standardize(out)
	return out
}

func isIdentity(p TransformParams) bool {
	return p.Theta == 0 && p.Tx == 0 && p.Ty == 0 && p.Shear == 0 && p.Zx == 1 && p.Zy == 1
}

// affine warps img. The matrix maps output (row, col) to input (row, col),
// built as rotation @ shift @ shear @ zoom about the image centre, and is
// sampled bilinearly.
func affine(img *Image, p TransformParams, mode FillMode, cval float32) *Image {
	if isIdentity(p) {
		return img.Clone()
	}

	theta := p.Theta * math.Pi / 180
	shear := p.Shear * math.Pi / 180
	m := mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	if theta != 0 {
		m = m.mul(mat3{{math.Cos(theta), -math.Sin(theta), 0}, {math.Sin(theta), math.Cos(theta), 0}, {0, 0, 1}})
	}
	if p.Tx != 0 || p.Ty != 0 {
		m = m.mul(mat3{{1, 0, p.Tx}, {0, 1, p.Ty}, {0, 0, 1}})
	}
	if shear != 0 {
		m = m.mul(mat3{{1, -math.Sin(shear), 0}, {0, math.Cos(shear), 0}, {0, 0, 1}})
	}
	if p.Zx != 1 || p.Zy != 1 {
		m = m.mul(mat3{{p.Zx, 0, 0}, {0, p.Zy, 0}, {0, 0, 1}})
	}
	oy := float64(img.Height)/2 + 0.5
	ox := float64(img.Width)/2 + 0.5
	m = mat3{{1, 0, oy}, {0, 1, ox}, {0, 0, 1}}.mul(m).mul(mat3{{1, 0, -oy}, {0, 1, -ox}, {0, 0, 1}})

	out := imageio.NewArray(img.Height, img.Width, img.Channels)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			sy := m[0][0]*float64(y) + m[0][1]*float64(x) + m[0][2]
			sx := m[1][0]*float64(y) + m[1][1]*float64(x) + m[1][2]
			for c := 0; c < img.Channels; c++ {
				out.Set(y, x, c, bilinear(img, sy, sx, c, mode, cval))
			}
		}
	}
	return out
}

type mat3 [3][3]float64

func (a mat3) mul(b mat3) mat3 {
	var out mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return out
}

func bilinear(img *Image, y, x float64, c int, mode FillMode, cval float32) float32 {
	y0, x0 := math.Floor(y), math.Floor(x)
	fy, fx := float32(y-y0), float32(x-x0)
	iy, ix := int(y0), int(x0)

	sample := func(yy, xx int) float32 {
		ry, okY := mapIndex(yy, img.Height, mode)
		rx, okX := mapIndex(xx, img.Width, mode)
		if !okY || !okX {
			return cval
		}
		return img.At(ry, rx, c)
	}

	top := sample(iy, ix)*(1-fx) + sample(iy, ix+1)*fx
	bottom := sample(iy+1, ix)*(1-fx) + sample(iy+1, ix+1)*fx
	return top*(1-fy) + bottom*fy
}

// mapIndex maps i into [0, n) according to mode. ok is false when the
// constant fill value must be used.
func mapIndex(i, n int, mode FillMode) (int, bool) {
	if i >= 0 && i < n {
		return i, true
	}
	switch mode {
	case FillNearest:
		return min(max(i, 0), n-1), true
	case FillReflect:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i, true
	case FillWrap:
		i %= n
		if i < 0 {
			i += n
		}
		return i, true
	default:
		return 0, false
	}
}

// channelShift adds intensity to every value, clipped to the image range.
func channelShift(img *Image, intensity float32) {
	lo, hi := img.Pix[0], img.Pix[0]
	for _, v := range img.Pix {
		lo, hi = min(lo, v), max(hi, v)
	}
	for i, v := range img.Pix {
		img.Pix[i] = min(max(v+intensity, lo), hi)
	}
}

func flipColumns(img *Image) {
	c := img.Channels
	for y := 0; y < img.Height; y++ {
		for l, r := 0, img.Width-1; l < r; l, r = l+1, r-1 {
			for ch := 0; ch < c; ch++ {
				a, b := (y*img.Width+l)*c+ch, (y*img.Width+r)*c+ch
				img.Pix[a], img.Pix[b] = img.Pix[b], img.Pix[a]
			}
		}
	}
}

func flipRows(img *Image) {
	row := img.Width * img.Channels
	tmp := make([]float32, row)
	for t, b := 0, img.Height-1; t < b; t, b = t+1, b-1 {
		copy(tmp, img.Pix[t*row:(t+1)*row])
		copy(img.Pix[t*row:(t+1)*row], img.Pix[b*row:(b+1)*row])
		copy(img.Pix[b*row:(b+1)*row], tmp)
	}
}

// brightness stretches img to 0..255, quantises it to bytes, scales by
// factor and clips, the way an 8-bit enhancement would.
func brightness(img *Image, factor float64) {
	lo, hi := img.Pix[0], img.Pix[0]
	for _, v := range img.Pix {
		lo, hi = min(lo, v), max(hi, v)
	}
	scale := float32(1)
	if hi > lo {
		scale = 255 / (hi - lo)
	}
	for i, v := range img.Pix {
		q := math.Floor(float64((v - lo) * scale))
		img.Pix[i] = float32(min(max(math.Round(q*factor), 0), 255))
	}
}

package augment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vision/internal/imageio"
	"github.com/born-ml/vision/internal/random"
)

func column(values ...float32) *Image {
	img := imageio.NewArray(len(values), 1, 1)
	copy(img.Pix, values)
	return img
}

func TestDefaultConfig(t *testing.T) {
	g := NewImageGenerator()
	cfg := g.Config()

	assert.Equal(t, 0.2, g.ValidationSplit())
	assert.Equal(t, 20.0, cfg.RotationRange)
	assert.Equal(t, [2]float64{0.75, 1.25}, cfg.ZoomRange)
	assert.Equal(t, [2]float64{0.9, 1.1}, cfg.BrightnessRange)
	assert.Equal(t, FillNearest, cfg.FillMode)
	assert.InDelta(t, 1.0/255, cfg.Rescale, 1e-12)
	assert.True(t, cfg.HorizontalFlip)
	assert.True(t, cfg.VerticalFlip)
	require.NoError(t, cfg.Validate())
}

func TestValidationSplitIndependentOfConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RotationRange = 0
	g, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.2, g.ValidationSplit())
}

func TestConfig_Validate(t *testing.T) {
	bad := DefaultConfig()
	bad.ZoomRange = [2]float64{1.2, 0.8}
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.FillMode = "mirror"
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.RotationRange = -1
	_, err := New(bad)
	assert.Error(t, err)
}

func TestRandomTransformParams_Ranges(t *testing.T) {
	g := NewImageGenerator()
	r := random.New(3)
	for i := 0; i < 200; i++ {
		p := g.RandomTransformParams(r, 100, 40)
		assert.LessOrEqual(t, p.Theta, 20.0)
		assert.GreaterOrEqual(t, p.Theta, -20.0)
		assert.LessOrEqual(t, p.Tx, 25.0)
		assert.GreaterOrEqual(t, p.Tx, -25.0)
		assert.LessOrEqual(t, p.Ty, 10.0)
		assert.GreaterOrEqual(t, p.Ty, -10.0)
		assert.GreaterOrEqual(t, p.Zx, 0.75)
		assert.Less(t, p.Zy, 1.25)
		assert.GreaterOrEqual(t, p.Brightness, 0.9)
		assert.Less(t, p.Brightness, 1.1)
		assert.LessOrEqual(t, p.ChannelShiftIntensity, 0.1)
	}
}

func TestApplyTransform_Identity(t *testing.T) {
	g := NewImageGenerator()
	img := column(1, 2, 3)
	out := g.ApplyTransform(img, TransformParams{Zx: 1, Zy: 1})
	assert.Equal(t, img.Pix, out.Pix)
	out.Pix[0] = 9
	assert.Equal(t, float32(1), img.Pix[0], "input must not be modified")
}

func TestApplyTransform_ShiftNearestFill(t *testing.T) {
	g := NewImageGenerator()
	out := g.ApplyTransform(column(0, 10, 20), TransformParams{Tx: 1, Zx: 1, Zy: 1})
	assert.Equal(t, []float32{10, 20, 20}, out.Pix)
}

func TestApplyTransform_ShiftConstantFill(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FillMode = FillConstant
	cfg.Cval = 7
	g, err := New(cfg)
	require.NoError(t, err)

	out := g.ApplyTransform(column(0, 10, 20), TransformParams{Tx: -1, Zx: 1, Zy: 1})
	assert.Equal(t, []float32{7, 0, 10}, out.Pix)
}

func TestApplyTransform_HalfPixelShiftIsBilinear(t *testing.T) {
	g := NewImageGenerator()
	out := g.ApplyTransform(column(0, 10, 20), TransformParams{Tx: 0.5, Zx: 1, Zy: 1})
	assert.InDeltaSlice(t, []float32{5, 15, 20}, out.Pix, 1e-4)
}

func TestApplyTransform_Flips(t *testing.T) {
	g := NewImageGenerator()
	img := imageio.NewArray(2, 3, 1)
	copy(img.Pix, []float32{1, 2, 3, 4, 5, 6})

	h := g.ApplyTransform(img, TransformParams{Zx: 1, Zy: 1, FlipHorizontal: true})
	assert.Equal(t, []float32{3, 2, 1, 6, 5, 4}, h.Pix)

	v := g.ApplyTransform(img, TransformParams{Zx: 1, Zy: 1, FlipVertical: true})
	assert.Equal(t, []float32{4, 5, 6, 1, 2, 3}, v.Pix)
}

func TestApplyTransform_ChannelShiftClipsToImageRange(t *testing.T) {
	g := NewImageGenerator()
	out := g.ApplyTransform(column(0, 5, 10), TransformParams{Zx: 1, Zy: 1, ChannelShiftIntensity: 3})
	assert.Equal(t, []float32{3, 8, 10}, out.Pix)
}

func TestApplyTransform_Brightness(t *testing.T) {
	g := NewImageGenerator()
	out := g.ApplyTransform(column(0, 100, 200), TransformParams{Zx: 1, Zy: 1, Brightness: 1})
	assert.Equal(t, []float32{0, 127, 255}, out.Pix)

	dark := g.ApplyTransform(column(0, 255), TransformParams{Zx: 1, Zy: 1, Brightness: 0.5})
	assert.Equal(t, []float32{0, 128}, dark.Pix)
}

func TestStandardize(t *testing.T) {
	g := NewImageGenerator()
	img := column(0, 255)
	g.Standardize(img)
	assert.InDeltaSlice(t, []float32{0, 1}, img.Pix, 1e-6)
}

func TestRandomTransform_Seeded(t *testing.T) {
	g := NewImageGenerator()
	img := imageio.NewArray(8, 8, 3)
	for i := range img.Pix {
		img.Pix[i] = float32(i % 256)
	}

	random.Seed(812)
	a := g.Apply(img)
	random.Seed(812)
	b := g.Apply(img)
	assert.Equal(t, a.Pix, b.Pix)

	for _, v := range a.Pix {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestMapIndex(t *testing.T) {
	i, ok := mapIndex(-2, 4, FillReflect)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	i, _ = mapIndex(5, 4, FillReflect)
	assert.Equal(t, 2, i)

	i, _ = mapIndex(-1, 4, FillWrap)
	assert.Equal(t, 3, i)

	i, _ = mapIndex(9, 4, FillNearest)
	assert.Equal(t, 3, i)

	_, ok = mapIndex(-1, 4, FillConstant)
	assert.False(t, ok)
}

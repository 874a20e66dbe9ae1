package dataset

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vision/internal/augment"
	"github.com/born-ml/vision/internal/imageio"
	"github.com/born-ml/vision/internal/tensor"
)

var smallSize = imageio.Size{Height: 8, Width: 8}

func writePNG(t *testing.T, path string, shade uint8) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 12, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 12; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x * 20), B: uint8(y * 20), A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// makeTree creates cats (5), dogs (5) and fish (2) plus a stray text file.
func makeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for class, n := range map[string]int{"cats": 5, "dogs": 5, "fish": 2} {
		dir := filepath.Join(root, class)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for i := 0; i < n; i++ {
			writePNG(t, filepath.Join(dir, fmt.Sprintf("img_%d.png", i)), uint8(40*i))
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "cats", "notes.txt"), []byte("x"), 0o600))
	return root
}

func TestNewGenerators_Split(t *testing.T) {
	root := makeTree(t)
	train, val, err := NewGenerators(augment.NewImageGenerator(), root, smallSize, 4)
	require.NoError(t, err)

	assert.Equal(t, []string{"cats", "dogs", "fish"}, train.ClassNames())
	assert.Equal(t, 2, train.ClassIndices()["fish"])
	assert.Equal(t, 10, train.Samples())
	assert.Equal(t, 2, val.Samples())
	assert.Equal(t, 3, train.Len())
	assert.Equal(t, 1, val.Len())

	assert.Equal(t, []string{filepath.Join("cats", "img_0.png"), filepath.Join("dogs", "img_0.png")}, val.Filenames())
	assert.Equal(t, []int{0, 1}, val.Classes())
	assert.NotContains(t, train.Filenames(), filepath.Join("cats", "img_0.png"))
}

func TestBatch_ShapesAndLabels(t *testing.T) {
	root := makeTree(t)
	_, val, err := NewGenerators(augment.NewImageGenerator(), root, smallSize, 4)
	require.NoError(t, err)

	b, err := val.Batch(0)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 8, 8, 3}, b.Images.Shape())
	assert.Equal(t, tensor.Shape{2, 3}, b.Labels.Shape())
	assert.Equal(t, []float32{1, 0, 0, 0, 1, 0}, b.Labels.Data())

	for _, v := range b.Images.Data() {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}

	_, err = val.Batch(1)
	assert.Error(t, err)
}

func TestEpoch_CoversTrainingOnce(t *testing.T) {
	root := makeTree(t)
	train, _, err := NewGenerators(augment.NewImageGenerator(), root, smallSize, 4)
	require.NoError(t, err)

	var seen []string
	var sizes []int
	for b, err := range train.Epoch(context.Background()) {
		require.NoError(t, err)
		seen = append(seen, b.Filenames...)
		sizes = append(sizes, len(b.Classes))
	}
	assert.Equal(t, []int{4, 4, 2}, sizes)

	want := append([]string(nil), train.Filenames()...)
	sort.Strings(want)
	sort.Strings(seen)
	assert.Equal(t, want, seen)
}

func TestShuffle_ReproducibleAndReseededPerEpoch(t *testing.T) {
	root := makeTree(t)
	gen := augment.NewImageGenerator()
	a, _, err := NewGenerators(gen, root, smallSize, 4)
	require.NoError(t, err)
	b, _, err := NewGenerators(gen, root, smallSize, 4)
	require.NoError(t, err)

	order := func(it *DirectoryIterator) []string {
		var out []string
		for batch, err := range it.Epoch(context.Background()) {
			require.NoError(t, err)
			out = append(out, batch.Filenames...)
		}
		return out
	}

	first := order(a)
	assert.Equal(t, first, order(b))

	second := order(a)
	assert.ElementsMatch(t, first, second)
	assert.Equal(t, 3, a.Len())
}

func TestNewSeededGenerators_SeedSelectsOrder(t *testing.T) {
	root := makeTree(t)
	gen := augment.NewImageGenerator()
	order := func(seed int64) []string {
		train, _, err := NewSeededGenerators(gen, root, smallSize, 4, seed)
		require.NoError(t, err)
		var out []string
		for batch, err := range train.Epoch(context.Background()) {
			require.NoError(t, err)
			out = append(out, batch.Filenames...)
		}
		return out
	}

	def, _, err := NewGenerators(gen, root, smallSize, 4)
	require.NoError(t, err)
	var want []string
	for batch, err := range def.Epoch(context.Background()) {
		require.NoError(t, err)
		want = append(want, batch.Filenames...)
	}

	assert.Equal(t, want, order(DefaultSeed))
	other := order(7)
	assert.NotEqual(t, want, other)
	assert.ElementsMatch(t, want, other)
}

func TestValidation_KeepsFileOrder(t *testing.T) {
	root := makeTree(t)
	_, val, err := NewGenerators(augment.NewImageGenerator(), root, smallSize, 1)
	require.NoError(t, err)

	b1, err := val.Next()
	require.NoError(t, err)
	b2, err := val.Next()
	require.NoError(t, err)
	assert.Equal(t, val.Filenames(), append(b1.Filenames, b2.Filenames...))
}

func TestEpoch_Cancelled(t *testing.T) {
	root := makeTree(t)
	train, _, err := NewGenerators(augment.NewImageGenerator(), root, smallSize, 4)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, err := range train.Epoch(ctx) {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestFlowFromDirectory_Errors(t *testing.T) {
	gen := augment.NewImageGenerator()

	_, _, err := NewGenerators(gen, filepath.Join(t.TempDir(), "missing"), smallSize, 4)
	assert.Error(t, err)

	_, _, err = NewGenerators(gen, t.TempDir(), smallSize, 4)
	assert.True(t, errors.Is(err, ErrNoClasses))
}

func TestBatch_CorruptImage(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "broken.png"), []byte("not a png"), 0o600))

	it, err := FlowFromDirectory(augment.NewImageGenerator(), root, Options{TargetSize: smallSize, BatchSize: 2})
	require.NoError(t, err)
	_, err = it.Next()
	assert.Error(t, err)
}

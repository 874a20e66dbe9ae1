package config

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/vision/internal/augment"
	"github.com/born-ml/vision/internal/dataset"
	"github.com/born-ml/vision/internal/envvar"
	"github.com/born-ml/vision/internal/imageio"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, int64(812), cfg.Seed)
	assert.Equal(t, 16, cfg.Data.BatchSize)
	assert.Equal(t, 196, cfg.ViT.NumPatches)
	assert.Equal(t, 100, cfg.Xception.FineTuneStart)
}

func TestParse_MergesOverDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
seed: 7
data:
  dir: flowers
  batch_size: 8
augment:
  fill_mode: reflect
hub:
  retry_delay: 500ms
vit:
  transformer_layers: 2
`))
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, "flowers", cfg.Data.Dir)
	assert.Equal(t, 8, cfg.Data.BatchSize)
	assert.Equal(t, 224, cfg.Data.TargetSize.Height)
	assert.Equal(t, augment.FillReflect, cfg.Augment.FillMode)
	assert.InDelta(t, 20, cfg.Augment.RotationRange, 1e-12)
	assert.Equal(t, 500*time.Millisecond, cfg.Hub.RetryDelay)
	assert.Equal(t, 2, cfg.ViT.TransformerLayers)
	assert.Equal(t, 4, cfg.ViT.NumHeads)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_SchemaErrors(t *testing.T) {
	tests := map[string]string{
		"unknown key":   "colour: red\n",
		"wrong type":    "data:\n  batch_size: many\n",
		"bad fill mode": "augment:\n  fill_mode: mirror\n",
		"dropout range": "vit:\n  head_dropout: 1.5\n",
		"bad duration":  "hub:\n  timeout: soon\n",
		"short shape":   "vit:\n  input_shape: [224, 224]\n",
		"hub model url": "hub:\n  vit_url: https://example.com/m.onnx\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_SemanticErrors(t *testing.T) {
	_, err := Parse([]byte("vit:\n  num_patches: 100\n"))
	assert.Error(t, err)
}

func TestLoadAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vision.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plots:\n  model_name: ViT\n"), 0o600))

	cfg, err := LoadAndValidate(path)
	require.NoError(t, err)
	assert.Equal(t, "ViT", cfg.Plots.ModelName)

	_, err = LoadAndValidate(filepath.Join(t.TempDir(), "other.yaml"))
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv(envvar.VisionConfig, "")
	assert.Equal(t, DefaultPath, Path(""))
	assert.Equal(t, "x.yaml", Path("x.yaml"))

	t.Setenv(envvar.VisionConfig, "/etc/vision.yaml")
	assert.Equal(t, "/etc/vision.yaml", Path(""))
}

func TestMarshal_RoundTrip(t *testing.T) {
	data, err := Marshal(Default())
	require.NoError(t, err)

	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func writeImages(t *testing.T, root string, perClass int) {
	t.Helper()
	for _, class := range []string{"daisy", "rose"} {
		dir := filepath.Join(root, class)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for i := range perClass {
			img := image.NewRGBA(image.Rect(0, 0, 4, 4))
			img.Set(0, 0, color.RGBA{R: uint8(i * 10), A: 255})
			f, err := os.Create(filepath.Join(dir, fmt.Sprintf("%02d.png", i)))
			require.NoError(t, err)
			require.NoError(t, png.Encode(f, img))
			require.NoError(t, f.Close())
		}
	}
}

func TestDataSeed_DrivesShuffle(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, 10)

	order := func(doc string) []string {
		cfg, err := Parse([]byte(doc))
		require.NoError(t, err)
		gen, err := augment.New(cfg.Augment)
		require.NoError(t, err)
		train, _, err := dataset.NewSeededGenerators(gen, root, imageio.Size{Height: 4, Width: 4}, 4, cfg.Data.Seed)
		require.NoError(t, err)

		var out []string
		for batch, err := range train.Epoch(t.Context()) {
			require.NoError(t, err)
			out = append(out, batch.Filenames...)
		}
		return out
	}

	def := order("")
	seeded := order("data:\n  seed: 1234\n")
	assert.Len(t, seeded, 16)
	assert.NotEqual(t, def, seeded)
	assert.ElementsMatch(t, def, seeded)
	assert.Equal(t, seeded, order("data:\n  seed: 1234\n"))
}

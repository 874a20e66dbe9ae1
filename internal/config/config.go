// Package config loads the experiment configuration: a YAML file validated
// against an embedded JSON schema and merged over Default.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/born-ml/vision/internal/augment"
	"github.com/born-ml/vision/internal/dataset"
	"github.com/born-ml/vision/internal/hub"
	"github.com/born-ml/vision/internal/imageio"
	"github.com/born-ml/vision/internal/random"
	"github.com/born-ml/vision/internal/transfer"
	"github.com/born-ml/vision/internal/vit"
)

// Config is the full experiment configuration.
type Config struct {
	Seed     int64                   `yaml:"seed"     json:"seed"`
	Log      LogConfig               `yaml:"log"      json:"log"`
	Data     DataConfig              `yaml:"data"     json:"data"`
	Augment  augment.Config          `yaml:"augment"  json:"augment"`
	ViT      vit.Config              `yaml:"vit"      json:"vit"`
	Xception transfer.XceptionConfig `yaml:"xception" json:"xception"`
	HubViT   transfer.HubViTConfig   `yaml:"hub_vit"  json:"hub_vit"`
	Hub      hub.Config              `yaml:"hub"      json:"hub"`
	Plots    PlotsConfig             `yaml:"plots"    json:"plots"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"   json:"level"`
	ToFile bool   `yaml:"to_file" json:"to_file"`
	File   string `yaml:"file"    json:"file"`
}

// DataConfig locates the image directory and sizes the batches.
type DataConfig struct {
	Dir        string       `yaml:"dir"         json:"dir"`
	TargetSize imageio.Size `yaml:"target_size" json:"target_size"`
	BatchSize  int          `yaml:"batch_size"  json:"batch_size"`
	Seed       int64        `yaml:"seed"        json:"seed"`
}

// PlotsConfig controls rendered figures.
type PlotsConfig struct {
	Dir       string `yaml:"dir"        json:"dir"`
	Format    string `yaml:"format"     json:"format"`
	ModelName string `yaml:"model_name" json:"model_name"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	h := hub.DefaultConfig()
	h.CacheDir = DefaultCachePath()
	return &Config{
		Seed: random.DefaultSeed,
		Log:  LogConfig{Level: "info", File: "logs/vision.log"},
		Data: DataConfig{
			Dir:        "data",
			TargetSize: dataset.DefaultTargetSize,
			BatchSize:  dataset.DefaultBatchSize,
			Seed:       dataset.DefaultSeed,
		},
		Augment:  augment.DefaultConfig(),
		ViT:      vit.DefaultConfig(),
		Xception: transfer.DefaultXceptionConfig(),
		HubViT:   transfer.DefaultHubViTConfig(),
		Hub:      h,
		Plots:    PlotsConfig{Dir: "plots", Format: "png", ModelName: "Model"},
	}
}

// DefaultCachePath returns the per-user cache directory for downloaded
// artifacts.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return hub.DefaultCacheDir
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "vision", "cache")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "vision")
	default:
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "vision")
		}
		return filepath.Join(home, ".cache", "vision")
	}
}

// Validate runs the semantic checks of every section.
func (c *Config) Validate() error {
	if err := c.Augment.Validate(); err != nil {
		return err
	}
	if err := c.ViT.Validate(); err != nil {
		return err
	}
	if err := c.Xception.Validate(); err != nil {
		return err
	}
	return c.HubViT.Validate()
}

// Package hub fetches pretrained artifacts (ONNX feature extractors,
// safetensors weight files) over HTTP into a local cache and runs ONNX
// feature extractors as layers.
package hub

import (
	"time"
)

// Default locations and retry policy.
const (
	DefaultCacheDir   = ".cache/vision"
	DefaultViTURL     = "https://huggingface.co/Xenova/vit-base-patch16-224-in21k/resolve/main/onnx/model.onnx"
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
	DefaultTimeout    = 5 * time.Minute

	markerFilename = ".vision-downloaded"
)

// Config controls where artifacts are cached and how they are fetched.
type Config struct {
	CacheDir   string        `yaml:"cache_dir"   json:"cache_dir"`
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout"     json:"timeout"`

	// ONNXRuntimeLibrary is the path of the onnxruntime shared library.
	// Empty uses the platform default search.
	ONNXRuntimeLibrary string `yaml:"onnxruntime_library" json:"onnxruntime_library"`
}

// DefaultConfig returns the default cache and retry settings.
func DefaultConfig() Config {
	return Config{
		CacheDir:   DefaultCacheDir,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		Timeout:    DefaultTimeout,
	}
}

package config

import (
	"bytes"
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"

	"github.com/born-ml/vision/internal/envvar"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "mem://vision/config.schema.json"

// DefaultPath is read when neither a flag nor VISION_CONFIG names a file.
const DefaultPath = "vision.yaml"

// Path returns explicit if set, else $VISION_CONFIG, else DefaultPath.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(envvar.VisionConfig); p != "" {
		return p
	}
	return DefaultPath
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, errors.Wrap(err, "config: add schema")
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, errors.Wrap(err, "config: compile schema")
	}
	return schema, nil
}

// Parse validates data against the schema and decodes it over Default.
func Parse(data []byte) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "config: invalid YAML")
	}
	if raw == nil {
		raw = map[string]any{}
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(raw); err != nil {
		return nil, errors.Wrap(err, "config: validation failed")
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "config: decode")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAndValidate reads the file at path. A missing file at the default
// location yields Default.
func LoadAndValidate(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is provided by the user
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			return Default(), nil
		}
		return nil, errors.Wrap(err, "config: read")
	}
	return Parse(data)
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	return data, errors.Wrap(err, "config: encode")
}

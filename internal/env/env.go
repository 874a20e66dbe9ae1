// Package env identifies the runtime environment of the tools.
package env

import (
	"os"
	"strings"

	"github.com/born-ml/vision/internal/envvar"
)

// Environment selects logging format and verbosity.
type Environment string

const (
	// Development logs colourised text at debug level.
	Development Environment = "development"
	// Production logs JSON at info level.
	Production Environment = "production"
)

// FromEnv reads VISION_ENV. Anything other than "production" is development.
func FromEnv() Environment {
	return Parse(os.Getenv(envvar.VisionEnv))
}

// Parse maps a string to an Environment.
func Parse(s string) Environment {
	if strings.EqualFold(strings.TrimSpace(s), string(Production)) {
		return Production
	}
	return Development
}

// IsProduction reports whether e is Production.
func (e Environment) IsProduction() bool {
	return e == Production
}

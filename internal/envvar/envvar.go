package envvar

const (
	// VisionEnv is the environment variable used to determine the environment
	VisionEnv = "VISION_ENV"

	// VisionConfig is the environment variable that overrides the config file path
	VisionConfig = "VISION_CONFIG"
)

package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// dotEnvFile is loaded, when present, before the environment is parsed.
// Variables already set in the process environment win over the file.
var dotEnvFile = ".env"

// parseEnv overlays AUTHKEEPER_* environment variables. Unset variables keep
// the current values.
func parseEnv(config *Config) {
	_ = godotenv.Load(dotEnvFile)

	if err := env.Parse(config); err != nil {
		panic(err)
	}
}

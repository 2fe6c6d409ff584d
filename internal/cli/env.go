package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment keys read for flag defaults.
const (
	EnvFile      = "RCPGRID_ENV_FILE"
	EnvLogLevel  = "RCPGRID_LOG_LEVEL"
	EnvLogFormat = "RCPGRID_LOG_FORMAT"
	EnvKindsPath = "RCPGRID_KINDS_PATH"
)

// envDefaults resolves flag defaults from the process environment first and
// from a .env file second.
type envDefaults map[string]string

// loadEnvDefaults reads the file named by RCPGRID_ENV_FILE, or ./.env. A
// missing file is not an error.
func loadEnvDefaults() (envDefaults, error) {
	path := os.Getenv(EnvFile)
	if path == "" {
		path = ".env"
	}

	vals, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return envDefaults{}, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return envDefaults(vals), nil
}

func (e envDefaults) get(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	if v, ok := e[key]; ok && v != "" {
		return v
	}
	return def
}

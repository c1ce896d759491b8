package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvOrganism = "KEGGNET_ORGANISM"
	EnvDataDir  = "KEGGNET_DATA_DIR"
	EnvOutput   = "KEGGNET_OUTPUT"
	EnvDatabase = "KEGGNET_DATABASE"
	EnvTimeout  = "KEGGNET_HTTP_TIMEOUT"
)

// Loader resolves the configuration from defaults, an optional YAML file
// and the environment, in increasing precedence.
type Loader struct {
	Path string
	// EnvFile is a dotenv file loaded into the process environment. Values
	// already set in the environment are not overwritten. A missing file
	// is not an error.
	EnvFile string
}

// Load reads all configuration sources and validates the result
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.Path != "" {
		fileCfg, err := LoadFile(l.Path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = fileCfg
	}

	if l.EnvFile != "" {
		if err := godotenv.Load(l.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvOrganism); ok {
		cfg.Organism = v
	}
	if v, ok := os.LookupEnv(EnvDataDir); ok {
		cfg.DataDir = v
	}
	if v, ok := os.LookupEnv(EnvOutput); ok {
		cfg.Output = v
	}
	if v, ok := os.LookupEnv(EnvDatabase); ok {
		cfg.Database = v
	}
	if v, ok := os.LookupEnv(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvTimeout, err)
		}
		cfg.HTTPTimeout = d
	}
	return nil
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/keggnet/pkg/keggnet/entry"
	"github.com/cognicore/keggnet/pkg/keggnet/internalerr"
	"github.com/cognicore/keggnet/pkg/keggnet/output"
)

// Resource names of the two catalogs, also their file names in DataDir.
const (
	Compound = "compound"
	Enzyme   = "enzyme"
)

// Config holds everything a build run needs
type Config struct {
	Organism    string            `yaml:"organism"`
	DataDir     string            `yaml:"data_dir"`
	Output      string            `yaml:"output"`
	Database    string            `yaml:"database"`
	Sources     map[string]string `yaml:"sources"`
	HTTPTimeout time.Duration     `yaml:"http_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Organism: entry.DefaultOrganism,
		DataDir:  "data",
		Output:   output.DefaultPath,
		Sources: map[string]string{
			Compound: "https://www.genome.jp/ftp/pub/kegg/ligand/compound/",
			Enzyme:   "https://www.genome.jp/ftp/pub/kegg/ligand/enzyme/",
		},
		HTTPTimeout: 5 * time.Minute,
	}
}

// LoadFile reads a YAML config file on top of the defaults
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes the organism code and checks required fields
func (c *Config) Validate() error {
	c.Organism = strings.ToUpper(strings.TrimSpace(c.Organism))
	if c.Organism == "" {
		return fmt.Errorf("%w: organism is required", internalerr.ErrInvalidConfig)
	}
	for _, r := range c.Organism {
		if !unicode.IsLetter(r) {
			return fmt.Errorf("%w: organism %q must be a KEGG organism code", internalerr.ErrInvalidConfig, c.Organism)
		}
	}

	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("%w: data_dir is required", internalerr.ErrInvalidConfig)
	}

	for name, raw := range c.Sources {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%w: source %s: %v", internalerr.ErrInvalidConfig, name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%w: source %s: unsupported scheme %q", internalerr.ErrInvalidConfig, name, u.Scheme)
		}
	}

	if c.HTTPTimeout < 0 {
		return fmt.Errorf("%w: http_timeout must not be negative", internalerr.ErrInvalidConfig)
	}
	return nil
}

// CatalogPath returns the local path of a catalog resource.
func (c *Config) CatalogPath(name string) string {
	return filepath.Join(c.DataDir, name)
}

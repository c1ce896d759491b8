package config

import (
	"errors"
	"testing"
	"time"

	"github.com/cognicore/keggnet/pkg/keggnet/internalerr"
)

func TestLoaderAllEmpty(t *testing.T) {
	clearEnv(t)

	loader := Loader{}
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}
	if cfg.Organism != "HSA" {
		t.Errorf("Organism = %q, want HSA", cfg.Organism)
	}
}

func TestLoaderNonExistentConfig(t *testing.T) {
	clearEnv(t)

	loader := Loader{Path: "/nonexistent/keggnet.yaml"}
	if _, err := loader.Load(); err == nil {
		t.Error("Should error on nonexistent config file")
	}
}

func TestLoaderMissingEnvFileIgnored(t *testing.T) {
	clearEnv(t)

	loader := Loader{EnvFile: "/nonexistent/.env"}
	if _, err := loader.Load(); err != nil {
		t.Errorf("missing env file should be ignored: %v", err)
	}
}

func TestLoaderEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "keggnet.yaml", "organism: mmu\ndata_dir: from-file\n")
	t.Setenv(EnvOrganism, "eco")
	t.Setenv(EnvTimeout, "45s")

	loader := Loader{Path: path}
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Organism != "ECO" {
		t.Errorf("Organism = %q, want ECO", cfg.Organism)
	}
	if cfg.DataDir != "from-file" {
		t.Errorf("DataDir = %q, want from-file", cfg.DataDir)
	}
	if cfg.HTTPTimeout != 45*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
}

func TestLoaderEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, ".env", "KEGGNET_DATA_DIR=/srv/kegg\nKEGGNET_DATABASE=/srv/kegg/net.db\n")

	loader := Loader{EnvFile: envFile}
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/srv/kegg" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Database != "/srv/kegg/net.db" {
		t.Errorf("Database = %q", cfg.Database)
	}
}

func TestLoaderEnvFileDoesNotOverrideProcessEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDataDir, "/from/process")
	envFile := writeFile(t, ".env", "KEGGNET_DATA_DIR=/from/file\n")

	cfg, err := (&Loader{EnvFile: envFile}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/from/process" {
		t.Errorf("DataDir = %q, want /from/process", cfg.DataDir)
	}
}

func TestLoaderBadTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvTimeout, "soon")

	if _, err := (&Loader{}).Load(); err == nil {
		t.Error("expected error for unparsable timeout")
	}
}

func TestLoaderInvalidOrganism(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvOrganism, "12")

	_, err := (&Loader{}).Load()
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

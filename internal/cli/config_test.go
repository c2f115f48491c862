package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigExplicitMissingFails(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")
	_, err := LoadConfig(missing)
	if err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadConfigExplicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"xmldb_dir":"/data/xmldb"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	assert.Equal(t, "/data/xmldb", cfg.XMLDBDir)
}

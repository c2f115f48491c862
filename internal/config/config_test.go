package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"s3":{"host":"minio.local","bucket":"thumbs"}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	assert.Equal(t, "xmldb", cfg.XMLDBDir)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, "https://raw.githubusercontent.com/libretro-thumbnails", cfg.Thumb.BaseURL)
	if err := cfg.ValidateS3(); err != nil {
		t.Fatalf("ValidateS3 returned error: %v", err)
	}
}

func TestDefaultThumbCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	cfg := Default()
	assert.NotEmpty(t, cfg.Thumb.CacheDir)
	assert.Equal(t, "thumbs", filepath.Base(cfg.Thumb.CacheDir))
	assert.Equal(t, "romdex", filepath.Base(filepath.Dir(cfg.Thumb.CacheDir)))
}

func TestLoadFirstSkipsMissing(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.json")
	present := filepath.Join(dir, "config.json")
	if err := os.WriteFile(present, []byte(`{"xmldb_dir":"/data/xmldb"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFirst(missing, present)
	if err != nil {
		t.Fatalf("LoadFirst returned error: %v", err)
	}
	assert.Equal(t, "/data/xmldb", cfg.XMLDBDir)
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestValidateS3(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateS3(); err == nil {
		t.Fatalf("expected error for empty s3 config")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	yml := "port: \":9090\"\ndata_dir: /srv/insee\nstats_ttl: 1m\nrate_burst: 3\nsurvey_path: /tmp/normalized.csv\n"
	if err := os.WriteFile(file, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", file)
	t.Setenv("PORT", ":7070")
	t.Setenv("GEOCODER_ENABLED", "true")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://mobilite.example.fr")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != ":7070" {
		t.Errorf("env should override file, port = %q", cfg.Port)
	}
	if cfg.StatsTTL != time.Minute || cfg.RateBurst != 3 {
		t.Errorf("file values not applied: ttl=%v burst=%d", cfg.StatsTTL, cfg.RateBurst)
	}
	if cfg.SurveyPath != "/tmp/normalized.csv" {
		t.Errorf("survey path = %q", cfg.SurveyPath)
	}
	if want := filepath.Join("/srv/insee", "communes.csv"); cfg.CommunesPath != want {
		t.Errorf("communes path = %q, want %q", cfg.CommunesPath, want)
	}
	if !cfg.GeocoderEnabled || len(cfg.CORSOrigins) != 2 {
		t.Errorf("geocoder=%v origins=%v", cfg.GeocoderEnabled, cfg.CORSOrigins)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STATS_TTL", "five minutes")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an invalid duration")
	}
}

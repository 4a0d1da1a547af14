package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/mohammed-shakir/geohash-cache/pkg/geocache"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Precision != 5 || cfg.Policy != geocache.Append || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9090" || cfg.Metrics.Path != "/metrics" {
		t.Fatalf("unexpected metrics defaults: %+v", cfg.Metrics)
	}
	if cfg.CoveringCacheSize != 256 || cfg.HotBucketLogSample != 0.01 || cfg.HotHalfLife != time.Minute {
		t.Fatalf("unexpected cache defaults: %+v", cfg)
	}
}

func TestLoad_LayersFileEnvFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "geohash.yaml")
	yaml := "precision: 7\npolicy: replace\nlog_level: debug\nmetrics_path: prom\n"
	if err := os.WriteFile(file, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(file, nil)
	if err != nil {
		t.Fatalf("Load file: %v", err)
	}
	if cfg.Precision != 7 || cfg.Policy != geocache.Replace || cfg.LogLevel != "debug" || cfg.Metrics.Path != "/prom" {
		t.Fatalf("file layer not applied: %+v", cfg)
	}

	t.Setenv("GEOHASH_PRECISION", "8")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("HOTNESS_HALF_LIFE", "90s")
	cfg, err = Load(file, nil)
	if err != nil {
		t.Fatalf("Load env: %v", err)
	}
	if cfg.Precision != 8 || !cfg.Metrics.Enabled || cfg.HotHalfLife != 90*time.Second {
		t.Fatalf("env should override file: %+v", cfg)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("precision", 5, "")
	fs.String("policy", "append", "")
	if err := fs.Parse([]string{"--precision=9"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err = Load(file, fs)
	if err != nil {
		t.Fatalf("Load flags: %v", err)
	}
	if cfg.Precision != 9 {
		t.Fatalf("changed flag should win, got %d", cfg.Precision)
	}
	if cfg.Policy != geocache.Replace {
		t.Fatalf("unchanged flag must not override file, got %v", cfg.Policy)
	}
}

func TestLoad_ClampsAndRejects(t *testing.T) {
	t.Setenv("GEOHASH_PRECISION", "0")
	t.Setenv("LOG_SAMPLE_N", "-3")
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Precision != 1 || cfg.LogSampleN != 0 {
		t.Fatalf("expected clamping: %+v", cfg)
	}

	t.Setenv("GEOHASH_PRECISION", "99")
	if cfg, _ = Load("", nil); cfg.Precision != MaxPrecision {
		t.Fatalf("precision=%d want %d", cfg.Precision, MaxPrecision)
	}

	t.Setenv("CACHE_POLICY", "merge")
	if _, err := Load("", nil); err == nil {
		t.Fatalf("expected error for unknown policy")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, "absent.env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CACHE_POLICY=replace\nGEOHASH_PRECISION=4\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("GEOHASH_PRECISION", "6")
	t.Setenv("CACHE_POLICY", "")
	os.Unsetenv("CACHE_POLICY")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Policy != geocache.Replace {
		t.Fatalf(".env value should apply, got %v", cfg.Policy)
	}
	if cfg.Precision != 6 {
		t.Fatalf("existing env must win over .env, got %d", cfg.Precision)
	}
}

// Package config resolves settings from defaults, an optional config file,
// the environment and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mohammed-shakir/geohash-cache/pkg/geocache"
	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

// MaxPrecision bounds configured precisions; finer cells are below float64
// resolution.
const MaxPrecision = 20

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type Config struct {
	LogLevel           string
	LogConsole         bool
	LogSampleN         int
	Precision          int
	Policy             geocache.Policy
	CoveringCacheSize  int
	HotBucketSize      int
	HotBucketLogSample float64
	HotHalfLife        time.Duration
	Metrics            MetricsCfg
}

// key -> environment variable
var envBindings = map[string]string{
	"log_level":             "LOG_LEVEL",
	"log_console":           "LOG_CONSOLE",
	"log_sample_n":          "LOG_SAMPLE_N",
	"precision":             "GEOHASH_PRECISION",
	"policy":                "CACHE_POLICY",
	"covering_cache_size":   "COVERING_CACHE_SIZE",
	"hot_bucket_size":       "HOT_BUCKET_SIZE",
	"hot_bucket_log_sample": "LOG_HOT_BUCKET_SAMPLE",
	"hot_half_life":         "HOTNESS_HALF_LIFE",
	"metrics_enabled":       "METRICS_ENABLED",
	"metrics_addr":          "METRICS_ADDR",
	"metrics_path":          "METRICS_PATH",
}

// flag name -> key
var flagBindings = map[string]string{
	"log-level":    "log_level",
	"log-console":  "log_console",
	"precision":    "precision",
	"policy":       "policy",
	"metrics":      "metrics_enabled",
	"metrics-addr": "metrics_addr",
}

func defaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_console", false)
	v.SetDefault("log_sample_n", 0)
	v.SetDefault("precision", geohash.DefaultPrecision)
	v.SetDefault("policy", "append")
	v.SetDefault("covering_cache_size", 256)
	v.SetDefault("hot_bucket_size", 0)
	v.SetDefault("hot_bucket_log_sample", 0.01)
	v.SetDefault("hot_half_life", time.Minute)
	v.SetDefault("metrics_enabled", false)
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("metrics_path", "/metrics")
}

// Load resolves the configuration. file may be empty; flags may be nil. Only
// flags the user actually set override lower layers.
func Load(file string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	defaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	if flags != nil {
		for name, key := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	policy, err := geocache.ParsePolicy(v.GetString("policy"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		LogLevel:           strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogConsole:         v.GetBool("log_console"),
		LogSampleN:         v.GetInt("log_sample_n"),
		Precision:          clampPrecision(v.GetInt("precision")),
		Policy:             policy,
		CoveringCacheSize:  v.GetInt("covering_cache_size"),
		HotBucketSize:      v.GetInt("hot_bucket_size"),
		HotBucketLogSample: v.GetFloat64("hot_bucket_log_sample"),
		HotHalfLife:        v.GetDuration("hot_half_life"),
		Metrics: MetricsCfg{
			Enabled: v.GetBool("metrics_enabled"),
			Addr:    v.GetString("metrics_addr"),
			Path:    v.GetString("metrics_path"),
		},
	}
	if cfg.LogSampleN < 0 {
		cfg.LogSampleN = 0
	}
	if cfg.HotBucketSize < 0 {
		cfg.HotBucketSize = 0
	}
	if cfg.HotHalfLife <= 0 {
		cfg.HotHalfLife = time.Minute
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		cfg.Metrics.Path = "/" + cfg.Metrics.Path
	}
	return cfg, nil
}

func clampPrecision(p int) int {
	if p < 1 {
		return 1
	}
	if p > MaxPrecision {
		return MaxPrecision
	}
	return p
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

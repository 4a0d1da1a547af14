// Package cli implements the geohash command-line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/mohammed-shakir/geohash-cache/internal/config"
	"github.com/mohammed-shakir/geohash-cache/internal/logger"
	"github.com/mohammed-shakir/geohash-cache/internal/metrics"
	"github.com/mohammed-shakir/geohash-cache/internal/observability"
	"github.com/mohammed-shakir/geohash-cache/pkg/geohash"
)

const (
	ExitOK    = 0
	ExitFail  = 1
	ExitUsage = 2
)

// Version is reported in build info metrics.
var Version = "dev"

type env struct {
	stdout  io.Writer
	stderr  io.Writer
	log     zerolog.Logger
	cfg     config.Config
	metrics *observability.CacheMetrics
}

type command struct {
	name    string
	summary string
	flags   func(fs *pflag.FlagSet)
	run     func(ctx context.Context, e *env, fs *pflag.FlagSet, args []string) error
}

var commands = []command{
	{"encode", "encode a coordinate (--lat/--lon or lat,lon)", encodeFlags, runEncode},
	{"decode", "print the box of one or more geohashes", noFlags, runDecode},
	{"neighbors", "print the eight neighbours of a geohash", noFlags, runNeighbors},
	{"cover", "list the cells covering a region", coverFlags, runCover},
	{"bucket", "load points from CSV and group them by cell", bucketFlags, runBucket},
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, a ...any) error {
	return usageError{msg: fmt.Sprintf(format, a...)}
}

func noFlags(*pflag.FlagSet) {}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: geohash <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
}

// Run executes one command and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return ExitUsage
	}
	switch args[0] {
	case "help", "-h", "--help":
		printUsage(stdout)
		return ExitOK
	case "version", "--version":
		fmt.Fprintln(stdout, Version)
		return ExitOK
	}
	cmd, ok := lookup(args[0])
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return ExitUsage
	}

	fs := pflag.NewFlagSet(cmd.name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "config file (yaml, json or toml)")
	fs.String("log-level", "info", "debug|info|warn|error|off")
	fs.Bool("log-console", false, "human readable logs")
	fs.Int("precision", geohash.DefaultPrecision, fmt.Sprintf("geohash precision (1..%d)", config.MaxPrecision))
	fs.String("policy", "append", "bucket policy: append|replace")
	fs.Bool("metrics", false, "serve Prometheus metrics while the command runs")
	fs.String("metrics-addr", ":9090", "metrics listen address")
	hold := fs.Duration("metrics-hold", 0, "keep serving metrics this long after the command finishes")
	cmd.flags(fs)

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	cfg, err := config.Load(*configFile, fs)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return ExitUsage
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "geohash",
		Command:   cmd.name,
	}, stderr)
	ctx = logger.WithRunID(ctx, "")
	ctx = logger.WithOperation(ctx, cmd.name)
	ctx = logger.WithPrecision(ctx, cfg.Precision)
	log := *logger.FromContext(ctx, &zl)
	appLog := logger.NewSlog(&log)

	prov := metrics.Init(metrics.Config{
		Enabled: cfg.Metrics.Enabled,
		Addr:    cfg.Metrics.Addr,
		Path:    cfg.Metrics.Path,
		Build:   metrics.BuildInfo{Version: Version},
	})
	stop, err := startMetrics(ctx, prov, cfg.Metrics, log)
	if err != nil {
		appLog.Error("metrics unavailable", "err", err)
		return ExitFail
	}

	e := &env{
		stdout:  stdout,
		stderr:  stderr,
		log:     log,
		cfg:     cfg,
		metrics: observability.NewCacheMetrics(prov.Registerer()),
	}

	start := time.Now()
	err = cmd.run(ctx, e, fs, fs.Args())
	stop(*hold)

	var ue usageError
	switch {
	case errors.As(err, &ue):
		fmt.Fprintf(stderr, "%s: %v\n", cmd.name, err)
		fs.PrintDefaults()
		return ExitUsage
	case err != nil:
		appLog.Error("command failed", "err", err, "took", time.Since(start))
		fmt.Fprintf(stderr, "%s: %v\n", cmd.name, err)
		return ExitFail
	}
	appLog.Debug("command finished", "took", time.Since(start))
	return ExitOK
}

// startMetrics serves the registry when enabled. The returned func keeps the
// endpoint up for hold (or until ctx ends) and then shuts it down.
func startMetrics(ctx context.Context, p *metrics.Provider, cfg config.MetricsCfg, log zerolog.Logger) (func(time.Duration), error) {
	if !cfg.Enabled {
		return func(time.Duration) {}, nil
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	srvCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Serve(srvCtx, ln, log); err != nil {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	return func(hold time.Duration) {
		if hold > 0 {
			t := time.NewTimer(hold)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
			}
		}
		cancel()
		<-done
	}, nil
}

func precisionFlag(fs *pflag.FlagSet, name string) (int, error) {
	p, err := fs.GetInt(name)
	if err != nil {
		return 0, err
	}
	if p < 1 || p > config.MaxPrecision {
		return 0, usagef("--%s must be in 1..%d", name, config.MaxPrecision)
	}
	return p, nil
}

func sortedIDs[T any](xs []T, id func(T) string) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = id(x)
	}
	sort.Strings(out)
	return out
}

func joinOrDash(xs []string) string {
	if len(xs) == 0 {
		return "-"
	}
	return strings.Join(xs, ",")
}

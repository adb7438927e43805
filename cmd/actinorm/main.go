package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/epochtools/actinorm"
	"github.com/epochtools/actinorm/internal/config"
	"github.com/epochtools/actinorm/internal/logging"
	"github.com/epochtools/actinorm/pipeline"
	"github.com/epochtools/actinorm/store"
)

func main() {
	cfg := config.Load()

	var (
		outDir       = flag.String("out-dir", cfg.OutDir, "Output directory for per-file artifacts")
		format       = flag.String("format", "both", "Series artifact format: csv|parquet|both")
		metric       = flag.String("metric", cfg.Metric, "Metric column to extract (e.g. PIM, ZCM, heart_rate)")
		source       = flag.String("source", "auto", "Input kind: auto|count|fit")
		tsFormat     = flag.String("ts-format", cfg.TimestampPattern, "strptime timestamp pattern (default %Y-%m-%d %H:%M:%S)")
		tz           = flag.String("tz", cfg.Timezone, "IANA timezone for naive timestamps")
		epoch        = flag.Duration("epoch", cfg.Epoch, "Epoch duration override; 0 infers it from the data")
		policy       = flag.String("policy", cfg.Policy, "Tolerance policy: fill-missing|strict")
		computations = flag.String("computations", "", "Comma-separated downstream computations (default: all the mode supports)")
		workers      = flag.Int("workers", cfg.Workers, "Maximum parallel file conversions")
		storePath    = flag.String("store", cfg.StorePath, "DuckDB file to append normalized epochs to (optional)")
		delimiter    = flag.String("delimiter", "", "Column delimiter (default: sniffed from the header)")
		encoding     = flag.String("encoding", "", "Input text encoding: utf-8|latin1")
		logLevel     = flag.String("log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <count-or-fit-file|directory>...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	logging.Init(logging.ParseLevel(*logLevel))

	var requested []string
	if strings.TrimSpace(*computations) != "" {
		requested = strings.Split(*computations, ",")
	}

	// The session gate runs before any input file is touched; an incompatible
	// configuration must never cost a partial batch.
	plan, err := actinorm.ReconcileSession(actinorm.SessionConfig{
		Metric:           *metric,
		TimestampPattern: *tsFormat,
		Timezone:         *tz,
		EpochOverride:    *epoch,
		Policy:           actinorm.TolerancePolicy(*policy),
		Computations:     requested,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "session rejected: %v\n", err)
		os.Exit(1)
	}
	if len(plan.Disabled) > 0 {
		fmt.Fprintf(os.Stderr, "derived mode disables: %s\n", strings.Join(plan.Disabled, ", "))
	}

	paths, err := expandPaths(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "actinorm failed: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "\nreceived %v, finishing in-flight files...\n", sig)
		cancel()
	}()

	var st *store.Store
	if strings.TrimSpace(*storePath) != "" {
		st, err = store.Open(*storePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open store failed: %v\n", err)
			os.Exit(1)
		}
	}

	res, runErr := pipeline.Run(ctx, pipeline.Options{
		Paths:     paths,
		OutDir:    *outDir,
		Format:    *format,
		Source:    *source,
		Plan:      plan,
		Workers:   *workers,
		Store:     st,
		Delimiter: delimiterRune(*delimiter),
		Encoding:  *encoding,
	})
	if st != nil {
		if err := st.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close store failed: %v\n", err)
		}
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "actinorm failed: %v\n", runErr)
		os.Exit(1)
	}

	fmt.Printf("actinorm complete\n")
	fmt.Printf("Run ID:      %s\n", res.RunID)
	fmt.Printf("Output dir:  %s\n", *outDir)
	fmt.Printf("Converted:   %d of %d files in %s\n", len(res.Files), len(paths), res.Elapsed.Round(time.Millisecond))
	for _, fr := range res.Files {
		fmt.Printf(
			"- %s: epoch %gs, %d slots, %d missing, quality %s\n",
			fr.Path,
			fr.Report.EpochSeconds,
			fr.Report.SeriesLength,
			fr.Series.MissingCount(),
			fr.Report.Quality(),
		)
	}
	for _, f := range res.Failures {
		fmt.Printf("failed:      %s: %v\n", f.Path, f.Err)
	}
	for _, p := range res.Skipped {
		fmt.Printf("skipped:     %s\n", p)
	}

	if len(res.Files) == 0 && len(res.Failures) > 0 {
		os.Exit(1)
	}
}

// expandPaths turns directory arguments into their immediate files. Paths
// that cannot be stat'ed pass through so the batch reports them as per-file
// failures instead of aborting.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			paths = append(paths, filepath.Join(arg, entry.Name()))
		}
	}
	return paths, nil
}

func delimiterRune(s string) rune {
	switch s {
	case "":
		return 0
	case "\\t", "tab":
		return '\t'
	default:
		return []rune(s)[0]
	}
}

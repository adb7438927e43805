package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/epochtools/actinorm"
	"github.com/epochtools/actinorm/countfile"
	"github.com/epochtools/actinorm/fitsource"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Run converts every input file into a normalized epoch series, bounded to
// Options.Workers parallel conversions. Per-file failures land in the result
// and never abort the batch; cancelling ctx lets in-flight files finish and
// skips the rest.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Plan == nil {
		return nil, &actinorm.ConversionError{
			Kind: actinorm.ErrIncompatibleConfiguration,
			Msg:  "no reconciled session plan",
		}
	}
	if len(opts.Paths) == 0 {
		return nil, fmt.Errorf("at least one input file is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "both"
	}
	if format != "csv" && format != "parquet" && format != "both" {
		return nil, fmt.Errorf("unsupported format %q (expected csv|parquet|both)", format)
	}
	source := strings.ToLower(strings.TrimSpace(opts.Source))
	if source == "" {
		source = "auto"
	}
	if source != "auto" && source != "count" && source != "fit" {
		return nil, fmt.Errorf("unsupported source %q (expected auto|count|fit)", source)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "pipeline")

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	res := &Result{RunID: uuid.NewString()}
	started := time.Now()
	logger.Info("starting batch", "run_id", res.RunID, "files", len(opts.Paths), "workers", workers)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range opts.Paths {
		if gctx.Err() != nil {
			mu.Lock()
			res.Skipped = append(res.Skipped, path)
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				mu.Lock()
				res.Skipped = append(res.Skipped, path)
				mu.Unlock()
				return nil
			}
			fr, err := convertFile(gctx, path, opts, format, source, res.RunID, logger)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("conversion failed", "file", path, "error", err)
				res.Failures = append(res.Failures, FileFailure{Path: path, Err: err})
				return nil
			}
			res.Files = append(res.Files, *fr)
			return nil
		})
	}
	// Workers never return errors; per-file failures are collected above.
	_ = g.Wait()

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].Path < res.Files[j].Path })
	sort.Slice(res.Failures, func(i, j int) bool { return res.Failures[i].Path < res.Failures[j].Path })
	sort.Strings(res.Skipped)
	res.Elapsed = time.Since(started)
	logger.Info("batch finished",
		"run_id", res.RunID,
		"converted", len(res.Files),
		"failed", len(res.Failures),
		"skipped", len(res.Skipped),
		"elapsed", res.Elapsed,
	)
	return res, nil
}

func convertFile(ctx context.Context, path string, opts Options, format, source, runID string, logger *slog.Logger) (*FileResult, error) {
	plan := opts.Plan

	var (
		report *actinorm.InferenceReport
		obs    []actinorm.Observation
		err    error
	)
	if source == "fit" || (source == "auto" && strings.EqualFold(filepath.Ext(path), ".fit")) {
		report, obs, err = readFitObservations(path, plan)
	} else {
		report, obs, err = readCountObservations(path, plan, opts)
	}
	if err != nil {
		return nil, err
	}

	epoch := plan.EpochOverride
	if epoch <= 0 {
		instants := make([]actinorm.ParsedInstant, len(obs))
		for i, o := range obs {
			instants[i] = actinorm.ParsedInstant{Time: o.Instant, Row: o.Row}
		}
		inf, err := actinorm.InferEpoch(instants)
		if err != nil {
			return nil, err
		}
		epoch = inf.Duration
		report.EpochInferred = true
		report.OrderViolations = inf.OrderViolations
		report.AmbiguousEpoch = inf.Ambiguous
		if inf.Ambiguous {
			report.Warnings = append(report.Warnings, actinorm.ErrAmbiguousEpochDuration.Error()+": smaller duration selected")
			logger.Warn("ambiguous epoch duration", "file", path, "epoch", epoch)
		}
	}
	report.EpochSeconds = epoch.Seconds()

	series, stats, err := actinorm.Normalize(obs, epoch, actinorm.NormalizeOptions{DriftTolerance: plan.DriftTolerance})
	if err != nil {
		return nil, err
	}
	report.FilledGaps = stats.FilledGaps
	report.Collisions = stats.Collisions
	report.DriftAnomalies = stats.DriftAnomalies
	report.SeriesLength = series.Len()
	report.StartTime = series.Start.Format(time.RFC3339)
	report.EndTime = series.End.Format(time.RFC3339)

	if plan.Policy == actinorm.PolicyStrict {
		if err := report.StrictViolation(); err != nil {
			return nil, err
		}
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fr := &FileResult{Path: path, Report: report, Series: series}

	fr.ReportPath = filepath.Join(opts.OutDir, base+".report.json")
	if err := writeJSON(fr.ReportPath, report); err != nil {
		return nil, fmt.Errorf("write report json: %w", err)
	}
	if format == "csv" || format == "both" {
		fr.CSVPath = filepath.Join(opts.OutDir, base+".series.csv")
		if err := writeSeriesCSV(fr.CSVPath, series); err != nil {
			return nil, fmt.Errorf("write series csv: %w", err)
		}
	}
	if format == "parquet" || format == "both" {
		fr.ParquetPath = filepath.Join(opts.OutDir, base+".series.parquet")
		if err := writeSeriesParquet(fr.ParquetPath, series); err != nil {
			return nil, fmt.Errorf("write series parquet: %w", err)
		}
	}

	if opts.Store != nil {
		// In-flight files always finish, including their store append.
		if err := opts.Store.AppendSeries(context.WithoutCancel(ctx), base, runID, series, report); err != nil {
			return nil, fmt.Errorf("store append: %w", err)
		}
		fr.Stored = true
	}

	logger.Info("converted file",
		"file", path,
		"epoch_seconds", report.EpochSeconds,
		"slots", report.SeriesLength,
		"missing", series.MissingCount(),
		"quality", report.Quality(),
	)
	return fr, nil
}

func readCountObservations(path string, plan *actinorm.SessionPlan, opts Options) (*actinorm.InferenceReport, []actinorm.Observation, error) {
	cf, err := countfile.Read(path, countfile.ReadOptions{Delimiter: opts.Delimiter, Encoding: opts.Encoding})
	if err != nil {
		return nil, nil, err
	}
	schema, err := actinorm.DetectSchema(cf.Columns, plan.ActiveMetric)
	if err != nil {
		return nil, nil, err
	}

	report := &actinorm.InferenceReport{
		SourceFile:      path,
		TimestampColumn: schema.TimestampColumn,
		MetricColumn:    schema.MetricColumn,
		Rows:            len(cf.Rows),
	}
	obs := make([]actinorm.Observation, 0, len(cf.Rows))
	for _, row := range cf.Rows {
		t, err := plan.Parser.Parse(row.Values[schema.TimestampColumn])
		if err != nil {
			report.ParseFailures++
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row.Values[schema.MetricColumn]), 64)
		if err != nil {
			report.ParseFailures++
			continue
		}
		obs = append(obs, actinorm.Observation{Instant: t, Row: row.Index, Value: v})
	}
	return report, obs, nil
}

func readFitObservations(path string, plan *actinorm.SessionPlan) (*actinorm.InferenceReport, []actinorm.Observation, error) {
	metric := strings.ToLower(strings.TrimSpace(plan.ActiveMetric))
	obs, skipped, err := fitsource.Observations(path, metric)
	if err != nil {
		return nil, nil, err
	}
	report := &actinorm.InferenceReport{
		SourceFile:      path,
		TimestampColumn: "timestamp",
		MetricColumn:    metric,
		Rows:            len(obs) + skipped,
		ParseFailures:   skipped,
	}
	return report, obs, nil
}

package pipeline

import (
	"log/slog"
	"time"

	"github.com/epochtools/actinorm"
	"github.com/epochtools/actinorm/store"
)

// Options configures one batch conversion run.
type Options struct {
	Paths   []string
	OutDir  string
	Format  string // csv|parquet|both
	Source  string // auto|count|fit
	Plan    *actinorm.SessionPlan
	Workers int
	Store   *store.Store
	Logger  *slog.Logger

	// Delimiter and Encoding pass through to the count-file reader.
	Delimiter rune
	Encoding  string
}

// FileResult describes one successfully converted input file.
type FileResult struct {
	Path        string
	Report      *actinorm.InferenceReport
	Series      *actinorm.EpochSeries
	ReportPath  string
	CSVPath     string
	ParquetPath string
	Stored      bool
}

// FileFailure records one input file that could not be converted.
type FileFailure struct {
	Path string
	Err  error
}

// Result summarizes a batch run. The run ID and elapsed time live only here,
// never in per-file artifacts, so converting the same file twice writes the
// same bytes.
type Result struct {
	RunID    string
	Files    []FileResult
	Failures []FileFailure
	Skipped  []string
	Elapsed  time.Duration
}

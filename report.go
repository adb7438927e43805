package actinorm

import (
	"fmt"
	"strings"
)

// Quality grades for a converted file.
const (
	QualityGood     = "good"
	QualityDegraded = "degraded"
	QualityPoor     = "poor"
)

// InferenceReport captures what detection and normalization decided for one
// source file. All fields derive from file content only, so converting the
// same file twice produces the same report.
type InferenceReport struct {
	SourceFile      string   `json:"source_file"`
	TimestampColumn string   `json:"timestamp_column"`
	MetricColumn    string   `json:"metric_column"`
	EpochSeconds    float64  `json:"epoch_seconds"`
	EpochInferred   bool     `json:"epoch_inferred"`
	Rows            int      `json:"rows"`
	ParseFailures   int      `json:"parse_failures"`
	FilledGaps      int      `json:"filled_gaps"`
	Collisions      int      `json:"collisions"`
	DriftAnomalies  int      `json:"drift_anomalies"`
	OrderViolations int      `json:"order_violations"`
	AmbiguousEpoch  bool     `json:"ambiguous_epoch"`
	SeriesLength    int      `json:"series_length"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Defects returns the total count of quality defects recorded for the file.
func (r *InferenceReport) Defects() int {
	return r.ParseFailures + r.FilledGaps + r.Collisions + r.DriftAnomalies + r.OrderViolations
}

// Quality grades the conversion: good with zero defects, degraded when
// defects stay within 5% of the row count, poor beyond that.
func (r *InferenceReport) Quality() string {
	defects := r.Defects()
	if defects == 0 {
		return QualityGood
	}
	if r.Rows > 0 && float64(defects)/float64(r.Rows) <= 0.05 {
		return QualityDegraded
	}
	return QualityPoor
}

// StrictViolation returns the strict-policy error for the report, or nil
// when the conversion had no quality defects. Order violations alone do not
// fail a file; they are already reflected in the emitted series.
func (r *InferenceReport) StrictViolation() error {
	defects := r.ParseFailures + r.FilledGaps + r.Collisions + r.DriftAnomalies
	if defects == 0 {
		return nil
	}
	return qualityErrorf(
		"strict policy: %d parse failures, %d filled gaps, %d collisions, %d drift anomalies in %s",
		r.ParseFailures,
		r.FilledGaps,
		r.Collisions,
		r.DriftAnomalies,
		r.SourceFile,
	)
}

// BuildReportNotes renders a conversion report as a short human-readable
// block for review on stderr or in QC logs.
func BuildReportNotes(r *InferenceReport) string {
	if r == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Source: %s\n", r.SourceFile)
	fmt.Fprintf(&b, "Columns: timestamp=%q metric=%q\n", r.TimestampColumn, r.MetricColumn)
	epochOrigin := "configured"
	if r.EpochInferred {
		epochOrigin = "inferred"
	}
	fmt.Fprintf(&b, "Epoch: %gs (%s)\n", r.EpochSeconds, epochOrigin)
	fmt.Fprintf(
		&b,
		"Series: %d slots from %s to %s, %d missing\n",
		r.SeriesLength,
		r.StartTime,
		r.EndTime,
		r.FilledGaps,
	)
	fmt.Fprintf(
		&b,
		"Rows: %d read, %d parse failures, %d collisions, %d drift anomalies, %d order violations\n",
		r.Rows,
		r.ParseFailures,
		r.Collisions,
		r.DriftAnomalies,
		r.OrderViolations,
	)
	if r.AmbiguousEpoch {
		b.WriteString("Note: multiple deltas tied for most frequent; the smaller epoch was chosen.\n")
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}
	fmt.Fprintf(&b, "Quality: %s\n", r.Quality())

	return strings.TrimSpace(b.String())
}

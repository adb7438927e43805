package actinorm

import (
	"errors"
	"strings"
	"testing"
)

func TestReportQuality(t *testing.T) {
	tests := []struct {
		name   string
		report InferenceReport
		want   string
	}{
		{name: "clean file", report: InferenceReport{Rows: 120}, want: QualityGood},
		{name: "few defects", report: InferenceReport{Rows: 120, FilledGaps: 2}, want: QualityDegraded},
		{name: "many defects", report: InferenceReport{Rows: 120, ParseFailures: 30, FilledGaps: 30}, want: QualityPoor},
		{name: "defects without rows", report: InferenceReport{FilledGaps: 1}, want: QualityPoor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.Quality(); got != tt.want {
				t.Errorf("Quality() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStrictViolation(t *testing.T) {
	clean := InferenceReport{Rows: 120}
	if err := clean.StrictViolation(); err != nil {
		t.Fatalf("clean report violates strict policy: %v", err)
	}

	gappy := InferenceReport{Rows: 120, FilledGaps: 1, SourceFile: "subj01.csv"}
	err := gappy.StrictViolation()
	if !errors.Is(err, ErrSeriesQuality) {
		t.Fatalf("error = %v, want ErrSeriesQuality", err)
	}

	// Order violations alone are informational.
	unordered := InferenceReport{Rows: 120, OrderViolations: 2}
	if err := unordered.StrictViolation(); err != nil {
		t.Fatalf("order violations alone should pass strict policy, got %v", err)
	}
}

func TestBuildReportNotes(t *testing.T) {
	r := &InferenceReport{
		SourceFile:      "subj01.csv",
		TimestampColumn: "Time",
		MetricColumn:    "PIM",
		EpochSeconds:    15,
		EpochInferred:   true,
		Rows:            120,
		FilledGaps:      1,
		SeriesLength:    120,
		StartTime:       "2024-01-15T08:00:00Z",
		EndTime:         "2024-01-15T08:29:45Z",
		AmbiguousEpoch:  true,
		Warnings:        []string{"ambiguous epoch duration: 15s and 30s equally frequent"},
	}

	notes := BuildReportNotes(r)
	for _, want := range []string{
		"subj01.csv",
		`timestamp="Time" metric="PIM"`,
		"Epoch: 15s (inferred)",
		"120 slots",
		"Quality: degraded",
		"Warning: ambiguous epoch duration",
	} {
		if !strings.Contains(notes, want) {
			t.Errorf("notes missing %q:\n%s", want, notes)
		}
	}

	if BuildReportNotes(nil) != "" {
		t.Error("nil report should render empty notes")
	}
}

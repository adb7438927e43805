package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/epochtools/actinorm"
	"github.com/epochtools/actinorm/countfile"
)

const defaultSampleRows = 5

// Options control a single-file inspection.
type Options struct {
	Metric     string
	Pattern    string
	Timezone   string
	SampleRows int
	Delimiter  rune
	Encoding   string
}

// DeltaBucket is one bar of the consecutive-delta histogram, in seconds.
type DeltaBucket struct {
	Seconds float64 `json:"seconds"`
	Count   int     `json:"count"`
}

// Summary is the reviewable outcome of inspecting one count file. Detection
// or inference problems become warnings so a reviewer still sees the raw
// shape of a file that would fail conversion.
type Summary struct {
	Path                  string        `json:"path"`
	Columns               []string      `json:"columns"`
	TimestampColumn       string        `json:"timestamp_column,omitempty"`
	MetricColumn          string        `json:"metric_column,omitempty"`
	Rows                  int           `json:"rows"`
	SampleRows            [][]string    `json:"sample_rows,omitempty"`
	ParseFailures         int           `json:"parse_failures"`
	DeltaHistogram        []DeltaBucket `json:"delta_histogram,omitempty"`
	SuggestedEpochSeconds float64       `json:"suggested_epoch_seconds,omitempty"`
	AmbiguousEpoch        bool          `json:"ambiguous_epoch,omitempty"`
	Warnings              []string      `json:"warnings,omitempty"`
}

// File inspects one count file: columns, detected schema, sample rows and
// the delta histogram with a suggested epoch. Only unreadable files fail.
func File(path string, opts Options) (*Summary, error) {
	metric := opts.Metric
	if metric == "" {
		metric = "PIM"
	}
	sampleRows := opts.SampleRows
	if sampleRows <= 0 {
		sampleRows = defaultSampleRows
	}

	cf, err := countfile.Read(path, countfile.ReadOptions{Delimiter: opts.Delimiter, Encoding: opts.Encoding})
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Path:    path,
		Columns: cf.Columns,
		Rows:    len(cf.Rows),
	}
	if cf.Ragged > 0 {
		s.Warnings = append(s.Warnings, fmt.Sprintf("%d rows did not match the header width", cf.Ragged))
	}
	for _, row := range cf.Rows {
		if row.Index >= sampleRows {
			break
		}
		sample := make([]string, len(cf.Columns))
		for i, col := range cf.Columns {
			sample[i] = row.Values[col]
		}
		s.SampleRows = append(s.SampleRows, sample)
	}

	schema, err := actinorm.DetectSchema(cf.Columns, metric)
	if err != nil {
		s.Warnings = append(s.Warnings, err.Error())
		return s, nil
	}
	s.TimestampColumn = schema.TimestampColumn
	s.MetricColumn = schema.MetricColumn

	parser, err := actinorm.NewTimestampParser(opts.Pattern, opts.Timezone)
	if err != nil {
		s.Warnings = append(s.Warnings, err.Error())
		return s, nil
	}

	instants := make([]actinorm.ParsedInstant, 0, len(cf.Rows))
	for _, row := range cf.Rows {
		t, err := parser.Parse(row.Values[schema.TimestampColumn])
		if err != nil {
			s.ParseFailures++
			continue
		}
		instants = append(instants, actinorm.ParsedInstant{Time: t, Row: row.Index})
	}

	inf, err := actinorm.InferEpoch(instants)
	if err != nil {
		s.Warnings = append(s.Warnings, err.Error())
		return s, nil
	}
	s.SuggestedEpochSeconds = inf.Duration.Seconds()
	s.AmbiguousEpoch = inf.Ambiguous
	for _, bucket := range inf.Histogram {
		s.DeltaHistogram = append(s.DeltaHistogram, DeltaBucket{Seconds: bucket.Delta.Seconds(), Count: bucket.Count})
	}
	if inf.Ambiguous {
		s.Warnings = append(s.Warnings, actinorm.ErrAmbiguousEpochDuration.Error()+": review the delta histogram")
	}
	if inf.OrderViolations > 0 {
		s.Warnings = append(s.Warnings, fmt.Sprintf("%d timestamps step backwards", inf.OrderViolations))
	}
	return s, nil
}

// WriteJSON renders the summary as indented JSON.
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Notes renders a short readable block for terminal review.
func (s *Summary) Notes() string {
	var b strings.Builder

	fmt.Fprintf(&b, "File: %s (%d rows, %d columns)\n", s.Path, s.Rows, len(s.Columns))
	if s.TimestampColumn != "" {
		fmt.Fprintf(&b, "Detected: timestamp=%q metric=%q\n", s.TimestampColumn, s.MetricColumn)
	}
	if s.SuggestedEpochSeconds > 0 {
		fmt.Fprintf(&b, "Suggested epoch: %gs", s.SuggestedEpochSeconds)
		if s.AmbiguousEpoch {
			b.WriteString(" (ambiguous)")
		}
		b.WriteByte('\n')
	}
	if s.ParseFailures > 0 {
		fmt.Fprintf(&b, "Parse failures: %d\n", s.ParseFailures)
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}
	return strings.TrimSpace(b.String())
}

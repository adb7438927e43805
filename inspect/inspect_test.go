package inspect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeCountFile(t *testing.T, rows int, spacing time.Duration) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Time,PIM\n")
	start := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%s,%d\n", start.Add(time.Duration(i)*spacing).Format("2006-01-02 15:04:05"), i%40)
	}
	path := filepath.Join(t.TempDir(), "subj01.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestFileSummarizesCleanInput(t *testing.T) {
	path := writeCountFile(t, 60, 30*time.Second)

	s, err := File(path, Options{Metric: "PIM"})
	if err != nil {
		t.Fatalf("File() error: %v", err)
	}
	if s.TimestampColumn != "Time" || s.MetricColumn != "PIM" {
		t.Errorf("schema = %q/%q, want Time/PIM", s.TimestampColumn, s.MetricColumn)
	}
	if s.Rows != 60 {
		t.Errorf("rows = %d, want 60", s.Rows)
	}
	if s.SuggestedEpochSeconds != 30 {
		t.Errorf("suggested epoch = %g, want 30", s.SuggestedEpochSeconds)
	}
	if len(s.SampleRows) != 5 {
		t.Errorf("sample rows = %d, want default 5", len(s.SampleRows))
	}
	if s.ParseFailures != 0 || len(s.Warnings) != 0 {
		t.Errorf("clean file reported defects: failures=%d warnings=%v", s.ParseFailures, s.Warnings)
	}
	if len(s.DeltaHistogram) != 1 || s.DeltaHistogram[0].Count != 59 {
		t.Errorf("delta histogram = %v, want one 30s bucket with 59 deltas", s.DeltaHistogram)
	}
}

func TestFileTurnsDetectionFailureIntoWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.csv")
	if err := os.WriteFile(path, []byte("Time,ZCM\n2024-01-15 08:00:00,3\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	s, err := File(path, Options{Metric: "PIM"})
	if err != nil {
		t.Fatalf("File() error: %v", err)
	}
	if s.TimestampColumn != "" {
		t.Errorf("schema should stay empty on detection failure, got %q", s.TimestampColumn)
	}
	if len(s.Warnings) == 0 || !strings.Contains(s.Warnings[0], "schema not found") {
		t.Errorf("warnings = %v, want a schema not found entry", s.Warnings)
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	path := writeCountFile(t, 10, 15*time.Second)

	s, err := File(path, Options{Metric: "PIM", SampleRows: 2})
	if err != nil {
		t.Fatalf("File() error: %v", err)
	}

	var buf bytes.Buffer
	if err := s.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	var decoded Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("summary JSON does not parse: %v", err)
	}
	if decoded.SuggestedEpochSeconds != 15 {
		t.Errorf("decoded epoch = %g, want 15", decoded.SuggestedEpochSeconds)
	}
	if len(decoded.SampleRows) != 2 {
		t.Errorf("decoded sample rows = %d, want 2", len(decoded.SampleRows))
	}
}

func TestNotesMentionSuggestion(t *testing.T) {
	path := writeCountFile(t, 10, 15*time.Second)

	s, err := File(path, Options{Metric: "PIM"})
	if err != nil {
		t.Fatalf("File() error: %v", err)
	}
	notes := s.Notes()
	if !strings.Contains(notes, "Suggested epoch: 15s") {
		t.Errorf("notes missing epoch suggestion:\n%s", notes)
	}
	if !strings.Contains(notes, "timestamp=\"Time\"") {
		t.Errorf("notes missing detected schema:\n%s", notes)
	}
}

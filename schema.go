package actinorm

import "strings"

// timestampHints mark a column as timestamp-bearing when its name contains
// one of them, case-insensitively.
var timestampHints = []string{"time", "timestamp", "date"}

// ColumnSchema names the resolved column roles of a count file.
type ColumnSchema struct {
	TimestampColumn string `json:"timestamp_column"`
	MetricColumn    string `json:"metric_column"`
}

// DetectSchema resolves the timestamp and metric columns from an ordered
// header. The timestamp column is the first whose name matches a hint, or
// the first column of the file when none does. The metric column is the
// first remaining column whose name contains metric as a case-insensitive
// substring.
func DetectSchema(header []string, metric string) (ColumnSchema, error) {
	if len(header) < 2 {
		return ColumnSchema{}, schemaErrorf("need at least 2 columns, header has %d", len(header))
	}
	needle := strings.ToLower(strings.TrimSpace(metric))
	if needle == "" {
		return ColumnSchema{}, schemaErrorf("no metric name configured")
	}

	tsColumn := header[0]
	for _, name := range header {
		if isTimestampName(name) {
			tsColumn = name
			break
		}
	}

	for _, name := range header {
		if name == tsColumn {
			continue
		}
		if strings.Contains(strings.ToLower(name), needle) {
			return ColumnSchema{TimestampColumn: tsColumn, MetricColumn: name}, nil
		}
	}
	return ColumnSchema{}, schemaErrorf("no column matches metric %q in header %v", metric, header)
}

func isTimestampName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, hint := range timestampHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

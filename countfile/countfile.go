package countfile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Row is one data record keyed by column name, with its zero-based position
// among the data rows of its source file.
type Row struct {
	Index  int
	Values map[string]string
}

// File is a fully read count file: the ordered header plus every data row.
// Columns beyond the timestamp and metric pass through untouched for
// multi-column consumers.
type File struct {
	Path    string
	Columns []string
	Rows    []Row
	// Ragged counts rows that were padded or truncated to the header width.
	Ragged int
}

// ReadOptions control delimiter and charset handling.
type ReadOptions struct {
	// Delimiter overrides sniffing. Zero sniffs comma, semicolon and tab
	// from the header line.
	Delimiter rune
	// Encoding is "" or "utf-8" for UTF-8 input, "latin1" for ISO 8859-1
	// as produced by older device export software.
	Encoding string
}

// Read loads a delimited count file with a header row.
func Read(path string, opts ReadOptions) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open count file: %w", err)
	}
	defer f.Close()

	file, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	file.Path = path
	return file, nil
}

// Parse reads a delimited stream with a header row. Ragged rows are fitted
// to the header width and counted rather than rejected.
func Parse(r io.Reader, opts ReadOptions) (*File, error) {
	decoded, err := decodeReader(r, opts.Encoding)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(decoded)

	headerLine, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if strings.TrimSpace(headerLine) == "" {
		return nil, fmt.Errorf("empty header row")
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(headerLine)
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(headerLine), br))
	cr.Comma = delim
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	file := &File{Columns: header}
	for rowIdx := 0; ; rowIdx++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowIdx, err)
		}
		if len(record) != len(header) {
			file.Ragged++
			record = fitWidth(record, len(header))
		}
		values := make(map[string]string, len(header))
		for i, name := range header {
			values[name] = record[i]
		}
		file.Rows = append(file.Rows, Row{Index: rowIdx, Values: values})
	}
	return file, nil
}

func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// sniffDelimiter picks the candidate with the highest count in the header
// line. Comma wins ties.
func sniffDelimiter(header string) rune {
	best := ','
	bestCount := strings.Count(header, ",")
	for _, c := range []rune{';', '\t'} {
		if n := strings.Count(header, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func fitWidth(record []string, width int) []string {
	if len(record) > width {
		return record[:width]
	}
	out := make([]string, width)
	copy(out, record)
	return out
}

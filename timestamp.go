package actinorm

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTimestampPattern is used when no pattern is configured.
const DefaultTimestampPattern = "%Y-%m-%d %H:%M:%S"

// patternDirectives maps strptime directives to Go reference layout
// fragments. %f must follow '.' or ',' so the fraction attaches to seconds.
var patternDirectives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'b': "Jan",
	'B': "January",
	'd': "02",
	'e': "_2",
	'j': "002",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'f': "999999",
	'p': "PM",
	'a': "Mon",
	'A': "Monday",
	'z': "-0700",
	'Z': "MST",
}

// ParsedInstant is one successfully parsed row timestamp.
type ParsedInstant struct {
	Time time.Time
	Row  int
}

// TimestampParser parses row timestamps against a single compiled pattern in
// a fixed target zone. No fallback formats are ever attempted: a row either
// matches the pattern or is a counted failure.
type TimestampParser struct {
	pattern string
	layout  string
	loc     *time.Location
}

// NewTimestampParser compiles a strptime-style pattern and resolves the IANA
// target zone. An empty pattern means DefaultTimestampPattern, an empty zone
// means UTC.
func NewTimestampParser(pattern, timezone string) (*TimestampParser, error) {
	if pattern == "" {
		pattern = DefaultTimestampPattern
	}
	layout, err := compileLayout(pattern)
	if err != nil {
		return nil, err
	}
	loc := time.UTC
	if timezone != "" && timezone != "UTC" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, patternErrorf("unknown timezone %q", timezone)
		}
	}
	return &TimestampParser{pattern: pattern, layout: layout, loc: loc}, nil
}

// Pattern returns the source pattern the parser was compiled from.
func (p *TimestampParser) Pattern() string {
	return p.pattern
}

// Location returns the target zone parsed instants are expressed in.
func (p *TimestampParser) Location() *time.Location {
	return p.loc
}

// Parse converts one raw timestamp string into an instant in the target
// zone.
func (p *TimestampParser) Parse(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(p.layout, strings.TrimSpace(raw), p.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q against pattern %q: %w", raw, p.pattern, err)
	}
	return t, nil
}

func compileLayout(pattern string) (string, error) {
	var b strings.Builder
	directives := 0
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(pattern) {
			return "", patternErrorf("pattern %q ends with a bare %%", pattern)
		}
		i++
		d := pattern[i]
		if d == '%' {
			b.WriteByte('%')
			continue
		}
		frag, ok := patternDirectives[d]
		if !ok {
			return "", patternErrorf("pattern %q: unsupported directive %%%c", pattern, d)
		}
		if d == 'f' {
			prefix := b.String()
			if !strings.HasSuffix(prefix, ".") && !strings.HasSuffix(prefix, ",") {
				return "", patternErrorf("pattern %q: %%f must follow '.' or ','", pattern)
			}
		}
		b.WriteString(frag)
		directives++
	}
	if directives == 0 {
		return "", patternErrorf("pattern %q has no %% directives", pattern)
	}
	return b.String(), nil
}

package fitsource

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/epochtools/actinorm"
	"github.com/tormoder/fit"
)

// extractors maps a metric name to the record field that carries it, with
// the device invalid-value sentinels filtered out.
var extractors = map[string]func(*fit.RecordMsg) (float64, bool){
	"heart_rate": extractHeartRate,
	"cadence":    extractCadence,
	"power":      extractPower,
}

// SupportedMetrics lists the metric names Observations accepts, sorted.
func SupportedMetrics() []string {
	out := make([]string, 0, len(extractors))
	for name := range extractors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Observations decodes a FIT activity export and returns one observation per
// record carrying a valid timestamp and metric value, in record order. The
// second result counts records skipped for missing either, so callers can
// report them as parse failures.
func Observations(path, metric string) ([]actinorm.Observation, int, error) {
	extract, ok := extractors[strings.ToLower(strings.TrimSpace(metric))]
	if !ok {
		return nil, 0, &actinorm.ConversionError{
			Kind: actinorm.ErrSchemaNotFound,
			Msg:  fmt.Sprintf("fit files carry no %q field (supported: %s)", metric, strings.Join(SupportedMetrics(), ", ")),
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open fit file: %w", err)
	}
	defer f.Close()

	decoded, err := fit.Decode(f)
	if err != nil {
		return nil, 0, fmt.Errorf("decode fit file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, 0, fmt.Errorf("fit file is not an activity: %w", err)
	}

	obs := make([]actinorm.Observation, 0, len(activity.Records))
	skipped := 0
	for i, rec := range activity.Records {
		if rec == nil || !validTime(rec.Timestamp) {
			skipped++
			continue
		}
		v, ok := extract(rec)
		if !ok {
			skipped++
			continue
		}
		obs = append(obs, actinorm.Observation{Instant: rec.Timestamp, Row: i, Value: v})
	}
	return obs, skipped, nil
}

func extractPower(rec *fit.RecordMsg) (float64, bool) {
	if rec.Power == math.MaxUint16 {
		return 0, false
	}
	return float64(rec.Power), true
}

func extractHeartRate(rec *fit.RecordMsg) (float64, bool) {
	if rec.HeartRate == math.MaxUint8 {
		return 0, false
	}
	return float64(rec.HeartRate), true
}

func extractCadence(rec *fit.RecordMsg) (float64, bool) {
	if rec.Cadence == math.MaxUint8 {
		return 0, false
	}
	return float64(rec.Cadence), true
}

func validTime(t time.Time) bool {
	return !t.IsZero() && !fit.IsBaseTime(t)
}

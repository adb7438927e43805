package actinorm

import (
	"math"
	"time"
)

// DefaultDriftTolerance is the accepted distance from the nearest slot
// boundary, as a fraction of the epoch duration.
const DefaultDriftTolerance = 0.5

// Observation is a parsed instant joined with its metric value.
type Observation struct {
	Instant time.Time
	Row     int
	Value   float64
}

// EpochRecord is one slot of a normalized series. Missing marks a slot with
// no surviving observation; a stored zero is a real zero-activity reading.
type EpochRecord struct {
	Timestamp time.Time
	Value     float64
	Missing   bool
}

// EpochSeries is a uniformly spaced activity series with exactly one record
// per epoch slot between Start and End.
type EpochSeries struct {
	Start   time.Time
	End     time.Time
	Epoch   time.Duration
	Records []EpochRecord
}

// Len returns the number of epoch slots.
func (s *EpochSeries) Len() int {
	return len(s.Records)
}

// MissingCount returns the number of slots without an observation.
func (s *EpochSeries) MissingCount() int {
	n := 0
	for _, rec := range s.Records {
		if rec.Missing {
			n++
		}
	}
	return n
}

// NormalizeOptions tune series assembly.
type NormalizeOptions struct {
	// DriftTolerance is the maximum distance from the nearest slot
	// boundary, as a fraction of the epoch, before an observation is
	// discarded as a clock anomaly. Zero means DefaultDriftTolerance.
	DriftTolerance float64
}

// NormalizeStats counts what happened while assembling a series.
type NormalizeStats struct {
	Observed       int
	FilledGaps     int
	Collisions     int
	DriftAnomalies int
}

// Normalize assembles observations into an epoch series at fixed spacing.
// Every observation maps to slot round((instant-start)/epoch); the first
// observation in row order wins a contested slot. Unobserved slots become
// explicit missing records, never silent zeros.
func Normalize(obs []Observation, epoch time.Duration, opts NormalizeOptions) (*EpochSeries, NormalizeStats, error) {
	var stats NormalizeStats
	if len(obs) == 0 {
		return nil, stats, emptyErrorf("no observations survived parsing")
	}
	if epoch <= 0 {
		return nil, stats, dataErrorf("epoch duration must be positive, got %s", epoch)
	}
	tolerance := opts.DriftTolerance
	if tolerance <= 0 {
		tolerance = DefaultDriftTolerance
	}

	start := obs[0].Instant
	for _, o := range obs[1:] {
		if o.Instant.Before(start) {
			start = o.Instant
		}
	}

	values := make(map[int]float64)
	maxSlot := 0
	for _, o := range obs {
		offset := o.Instant.Sub(start)
		slot := int(math.Round(float64(offset) / float64(epoch)))
		drift := float64(offset - time.Duration(slot)*epoch)
		if math.Abs(drift) > tolerance*float64(epoch) {
			stats.DriftAnomalies++
			continue
		}
		if _, taken := values[slot]; taken {
			stats.Collisions++
			continue
		}
		values[slot] = o.Value
		if slot > maxSlot {
			maxSlot = slot
		}
		stats.Observed++
	}
	if stats.Observed == 0 {
		return nil, stats, emptyErrorf("all %d observations were drift anomalies", len(obs))
	}

	records := make([]EpochRecord, maxSlot+1)
	for slot := range records {
		ts := start.Add(time.Duration(slot) * epoch)
		if v, ok := values[slot]; ok {
			records[slot] = EpochRecord{Timestamp: ts, Value: v}
		} else {
			records[slot] = EpochRecord{Timestamp: ts, Missing: true}
			stats.FilledGaps++
		}
	}

	return &EpochSeries{
		Start:   start,
		End:     start.Add(time.Duration(maxSlot) * epoch),
		Epoch:   epoch,
		Records: records,
	}, stats, nil
}

package actinorm

import (
	"sort"
	"time"
)

// DeltaCount is one bucket of the consecutive-delta histogram.
type DeltaCount struct {
	Delta time.Duration
	Count int
}

// EpochInference is the outcome of epoch-duration inference.
type EpochInference struct {
	// Duration is the canonical epoch length: the mode of consecutive
	// deltas, ties resolved toward the smaller value.
	Duration time.Duration
	// Histogram lists every observed delta, most frequent first; equal
	// counts order by ascending delta.
	Histogram []DeltaCount
	// OrderViolations counts backwards steps in the instant sequence.
	OrderViolations int
	// Ambiguous is set when more than one delta shares the top frequency.
	Ambiguous bool
}

// InferEpoch derives the epoch duration from the distribution of consecutive
// deltas between parsed instants, in row order. The mode is robust to a
// single irregular gap that would bias a first-difference approach.
// Backwards steps are counted and excluded; duplicate instants are excluded.
func InferEpoch(instants []ParsedInstant) (EpochInference, error) {
	if len(instants) < 2 {
		return EpochInference{}, dataErrorf("need at least 2 parsed timestamps, have %d", len(instants))
	}

	counts := make(map[time.Duration]int)
	violations := 0
	for i := 1; i < len(instants); i++ {
		delta := instants[i].Time.Sub(instants[i-1].Time)
		if delta <= 0 {
			if delta < 0 {
				violations++
			}
			continue
		}
		counts[delta]++
	}
	if len(counts) == 0 {
		return EpochInference{}, dataErrorf("no positive deltas among %d timestamps", len(instants))
	}

	hist := make([]DeltaCount, 0, len(counts))
	for delta, n := range counts {
		hist = append(hist, DeltaCount{Delta: delta, Count: n})
	}
	sort.Slice(hist, func(i, j int) bool {
		if hist[i].Count != hist[j].Count {
			return hist[i].Count > hist[j].Count
		}
		return hist[i].Delta < hist[j].Delta
	})

	return EpochInference{
		Duration:        hist[0].Delta,
		Histogram:       hist,
		OrderViolations: violations,
		Ambiguous:       len(hist) > 1 && hist[1].Count == hist[0].Count,
	}, nil
}

package actinorm

import (
	"strings"
	"time"
)

// IngestMode selects the signal class a processing session runs on.
type IngestMode string

const (
	// ModeRaw means raw tri-axial acceleration is available.
	ModeRaw IngestMode = "raw"
	// ModeDerived means the device only exports a pre-aggregated metric.
	ModeDerived IngestMode = "derived"
)

// TolerancePolicy decides how quality defects in a normalized series are
// handled.
type TolerancePolicy string

const (
	// PolicyFillMissing emits explicit missing records and keeps going.
	PolicyFillMissing TolerancePolicy = "fill-missing"
	// PolicyStrict fails a file on any quality defect.
	PolicyStrict TolerancePolicy = "strict"
)

// Computation is one downstream processing stage the reconciler can gate.
type Computation struct {
	Name     string
	NeedsRaw bool
}

// Computations is the catalog of gateable downstream stages.
var Computations = []Computation{
	{Name: "enmo", NeedsRaw: true},
	{Name: "anglez", NeedsRaw: true},
	{Name: "mad", NeedsRaw: true},
	{Name: "counts", NeedsRaw: false},
	{Name: "nonwear", NeedsRaw: false},
	{Name: "m10l5", NeedsRaw: false},
	{Name: "daysummary", NeedsRaw: false},
}

// SessionConfig is the caller-assembled input to ReconcileSession.
type SessionConfig struct {
	Mode             IngestMode
	Metric           string
	TimestampPattern string
	Timezone         string
	EpochOverride    time.Duration
	DriftTolerance   float64
	Policy           TolerancePolicy
	// Computations lists explicitly requested downstream stages. Empty
	// means every stage the mode supports.
	Computations []string
}

// SessionPlan is the reconciled session configuration. Build it once with
// ReconcileSession before starting conversion workers; it is never mutated
// afterwards and is safe to share across them.
type SessionPlan struct {
	Mode           IngestMode
	ActiveMetric   string
	Parser         *TimestampParser
	EpochOverride  time.Duration
	DriftTolerance float64
	Policy         TolerancePolicy
	Enabled        []string
	Disabled       []string
}

// ReconcileSession validates the session configuration exactly once, selects
// the active metric and disables every computation the ingest mode cannot
// support. An explicitly requested raw-dependent computation in derived mode
// is rejected here, before any file is opened.
func ReconcileSession(cfg SessionConfig) (*SessionPlan, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeDerived
	}
	if mode != ModeRaw && mode != ModeDerived {
		return nil, configErrorf("unknown ingest mode %q", cfg.Mode)
	}

	policy := cfg.Policy
	if policy == "" {
		policy = PolicyFillMissing
	}
	if policy != PolicyStrict && policy != PolicyFillMissing {
		return nil, configErrorf("unknown tolerance policy %q", cfg.Policy)
	}

	metric := strings.TrimSpace(cfg.Metric)
	if mode == ModeDerived && metric == "" {
		return nil, configErrorf("derived mode requires a metric name")
	}
	if cfg.EpochOverride < 0 {
		return nil, configErrorf("epoch override must not be negative, got %s", cfg.EpochOverride)
	}
	if cfg.DriftTolerance < 0 || cfg.DriftTolerance > 1 {
		return nil, configErrorf("drift tolerance must be in [0, 1], got %g", cfg.DriftTolerance)
	}

	parser, err := NewTimestampParser(cfg.TimestampPattern, cfg.Timezone)
	if err != nil {
		return nil, err
	}

	catalog := make(map[string]Computation, len(Computations))
	for _, c := range Computations {
		catalog[c.Name] = c
	}

	explicit := len(cfg.Computations) > 0
	requested := make(map[string]bool, len(cfg.Computations))
	for _, name := range cfg.Computations {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := catalog[name]; !ok {
			return nil, configErrorf("unknown computation %q", name)
		}
		requested[name] = true
	}

	plan := &SessionPlan{
		Mode:           mode,
		ActiveMetric:   metric,
		Parser:         parser,
		EpochOverride:  cfg.EpochOverride,
		DriftTolerance: cfg.DriftTolerance,
		Policy:         policy,
	}
	for _, c := range Computations {
		if explicit && !requested[c.Name] {
			continue
		}
		if c.NeedsRaw && mode == ModeDerived {
			if explicit {
				return nil, configErrorf("computation %q requires raw acceleration but ingest mode is derived", c.Name)
			}
			plan.Disabled = append(plan.Disabled, c.Name)
			continue
		}
		plan.Enabled = append(plan.Enabled, c.Name)
	}
	return plan, nil
}

// Enables reports whether the reconciled plan allows a downstream stage.
func (p *SessionPlan) Enables(name string) bool {
	for _, n := range p.Enabled {
		if n == name {
			return true
		}
	}
	return false
}

// Package detector evaluates the operational snapshot against a fixed
// catalogue of inefficiency rules. Detection is deterministic: rules run
// in a fixed order over entities, then work items, then processes, then
// cross-entity patterns.
package detector

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog"

	"github.com/aoia/engine/internal/types"
)

// Thresholds are the tunable rule cutoffs. Values are exposed to rule
// conditions under the "t" key of the evaluation environment.
type Thresholds struct {
	OverloadPercent         float64
	UnderutilizationPercent float64
	LoadImbalanceVariance   float64
	IdleMinutes             float64
	WaitMinutes             float64
	HandoverCount           float64
	ReworkCount             float64
	BounceCount             float64
	EscalationCount         float64
	QueueSize               float64
	SLARemainingPercent     float64
	ThroughputDropPercent   float64
}

// DefaultThresholds returns the standard rule cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		OverloadPercent:         90,
		UnderutilizationPercent: 40,
		LoadImbalanceVariance:   20,
		IdleMinutes:             15,
		WaitMinutes:             30,
		HandoverCount:           3,
		ReworkCount:             2,
		BounceCount:             2,
		EscalationCount:         2,
		QueueSize:               10,
		SLARemainingPercent:     20,
		ThroughputDropPercent:   20,
	}
}

func (t Thresholds) env() map[string]interface{} {
	return map[string]interface{}{
		"overload_percent":         t.OverloadPercent,
		"underutilization_percent": t.UnderutilizationPercent,
		"load_imbalance_variance":  t.LoadImbalanceVariance,
		"idle_time_minutes":        t.IdleMinutes,
		"wait_time_minutes":        t.WaitMinutes,
		"handover_count":           t.HandoverCount,
		"rework_count":             t.ReworkCount,
		"bounce_count":             t.BounceCount,
		"escalation_count":         t.EscalationCount,
		"queue_size":               t.QueueSize,
		"sla_remaining_percent":    t.SLARemainingPercent,
		"throughput_drop_percent":  t.ThroughputDropPercent,
	}
}

type entityRule struct {
	name    string
	program *vm.Program
	build   func(e types.Entity, baseline float64) []types.Detection
}

type itemRule struct {
	name    string
	program *vm.Program
	build   func(w types.WorkItem) []types.Detection
}

// Detector evaluates the rule catalogue. Safe for concurrent use; it
// holds no per-run state.
type Detector struct {
	thresholds Thresholds
	entity     []entityRule
	item       []itemRule
	logger     zerolog.Logger
}

// New compiles the rule catalogue with default thresholds.
func New(logger zerolog.Logger) (*Detector, error) {
	return NewWithThresholds(DefaultThresholds(), logger)
}

// NewWithThresholds compiles the rule catalogue with custom thresholds.
func NewWithThresholds(t Thresholds, logger zerolog.Logger) (*Detector, error) {
	d := &Detector{
		thresholds: t,
		logger:     logger.With().Str("component", "detector").Logger(),
	}

	for _, spec := range entityRuleSpecs {
		prog, err := expr.Compile(spec.condition)
		if err != nil {
			return nil, fmt.Errorf("compile entity rule %s: %w", spec.name, err)
		}
		d.entity = append(d.entity, entityRule{name: spec.name, program: prog, build: spec.build})
	}
	for _, spec := range itemRuleSpecs {
		prog, err := expr.Compile(spec.condition)
		if err != nil {
			return nil, fmt.Errorf("compile item rule %s: %w", spec.name, err)
		}
		d.item = append(d.item, itemRule{name: spec.name, program: prog, build: spec.build})
	}
	return d, nil
}

// Detect evaluates all rules against the snapshot and returns detections
// in catalogue order: entities, work items, processes, patterns.
func (d *Detector) Detect(snap types.Snapshot) ([]types.Detection, error) {
	baseline := snap.Business.BaselineThroughput
	tEnv := d.thresholds.env()

	var detections []types.Detection

	for _, e := range snap.Entities {
		env := entityEnv(e, tEnv, baseline)
		for _, r := range d.entity {
			ok, err := evalBool(r.program, env)
			if err != nil {
				return detections, fmt.Errorf("entity rule %s: %w", r.name, err)
			}
			if ok {
				detections = append(detections, r.build(e, baseline)...)
			}
		}
	}

	for _, w := range snap.WorkItems {
		env := itemEnv(w, tEnv)
		for _, r := range d.item {
			ok, err := evalBool(r.program, env)
			if err != nil {
				return detections, fmt.Errorf("item rule %s: %w", r.name, err)
			}
			if ok {
				detections = append(detections, r.build(w)...)
			}
		}
	}

	for _, p := range snap.Processes {
		detections = append(detections, detectProcessIssues(p)...)
	}

	if len(snap.Entities) > 1 {
		detections = append(detections, d.detectPatterns(snap.Entities)...)
	}

	d.logger.Debug().Int("detections", len(detections)).Msg("detection pass complete")
	return detections, nil
}

func entityEnv(e types.Entity, thresholds map[string]interface{}, baseline float64) map[string]interface{} {
	return map[string]interface{}{
		"state":             e.State,
		"load_percent":      e.LoadPercent,
		"throughput":        e.Throughput,
		"queue_size":        e.QueueSize,
		"idle_time_minutes": e.IdleMinutes,
		"baseline":          baseline,
		"t":                 thresholds,
	}
}

func itemEnv(w types.WorkItem, thresholds map[string]interface{}) map[string]interface{} {
	hasSLA := w.SLARemainingMinutes != nil && w.SLATargetMinutes > 0
	pct := 0.0
	if hasSLA {
		pct = *w.SLARemainingMinutes / w.SLATargetMinutes * 100
	}
	return map[string]interface{}{
		"status":                w.Status,
		"handover_count":        w.HandoverCount,
		"rework_count":          w.ReworkCount,
		"bounce_count":          w.BounceCount,
		"escalation_count":      w.EscalationCount,
		"wait_time_minutes":     w.WaitMinutes,
		"has_sla":               hasSLA,
		"sla_percent_remaining": pct,
		"t":                     thresholds,
	}
}

func evalBool(program *vm.Program, env map[string]interface{}) (bool, error) {
	out, err := vm.Run(program, env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition did not evaluate to a boolean, got %T", out)
	}
	return b, nil
}

func (d *Detector) detectPatterns(entities []types.Entity) []types.Detection {
	var loads []float64
	for _, e := range entities {
		if e.LoadPercent > 0 {
			loads = append(loads, e.LoadPercent)
		}
	}
	if len(loads) < 2 {
		return nil
	}

	maxLoad, minLoad := loads[0], loads[0]
	for _, l := range loads[1:] {
		if l > maxLoad {
			maxLoad = l
		}
		if l < minLoad {
			minLoad = l
		}
	}
	variance := maxLoad - minLoad
	if variance < d.thresholds.LoadImbalanceVariance {
		return nil
	}

	return []types.Detection{newDetection(
		types.TypeLoadImbalance,
		"all_entities", "system", "Workload Distribution",
		variance/50,
		variance,
		f(variance), f(10),
		fmt.Sprintf("Load imbalance detected: %.0f%% difference (max:%g%%, min:%g%%)", variance, maxLoad, minLoad),
	)}
}

func detectProcessIssues(p types.Process) []types.Detection {
	if p.BottleneckStage == "" {
		return nil
	}
	return []types.Detection{newDetection(
		types.TypeBottleneck,
		p.ID, "process", p.Name,
		0.7,
		30,
		nil, nil,
		fmt.Sprintf("Process '%s' has bottleneck at stage: %s", p.Name, p.BottleneckStage),
	)}
}

// newDetection clamps severity before bucketing and stamps identity.
func newDetection(ineffType, locID, locType, locName string, severity, deviation float64, current, expected *float64, description string) types.Detection {
	severity = types.ClampSeverity(severity)
	return types.Detection{
		ID:               types.NewDetectionID(),
		Type:             ineffType,
		LocationID:       locID,
		LocationType:     locType,
		LocationName:     locName,
		SeverityScore:    severity,
		SeverityLevel:    types.SeverityFromScore(severity),
		DeviationPercent: deviation,
		CurrentValue:     current,
		ExpectedValue:    expected,
		Description:      description,
		Timestamp:        time.Now(),
	}
}

func f(v float64) *float64 { return &v }

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Package optimizer turns detections into ranked corrective
// recommendations, executes approved actions through a pluggable policy,
// and simulates actions before they run.
package optimizer

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/aoia/engine/internal/types"
)

//go:embed strategies.yaml
var strategiesYAML []byte

// Strategy is one corrective option for an inefficiency type.
type Strategy struct {
	Action     string  `yaml:"action"`
	Title      string  `yaml:"title"`
	Impact     float64 `yaml:"impact"`
	Confidence float64 `yaml:"confidence"`
}

type strategyTables struct {
	Strategies    map[string][]Strategy `yaml:"strategies"`
	Default       []Strategy            `yaml:"default"`
	SuccessRates  map[string]float64    `yaml:"success_rates"`
	SimBaseImpact map[string]float64    `yaml:"simulation_base_impact"`
}

// Result is the full recommendation output before the orchestrator picks
// actions from it.
type Result struct {
	Recommendations       []types.Recommendation `json:"recommendations"`
	TotalPotentialSavings float64                `json:"total_potential_savings"`
	OptimizationScore     float64                `json:"optimization_score"`
}

// Optimizer generates and executes recommendations. Safe for concurrent
// use as long as the policy is.
type Optimizer struct {
	tables strategyTables
	policy ExecutionPolicy
	logger zerolog.Logger
}

// New loads the embedded strategy tables. A nil policy defaults to the
// deterministic one.
func New(policy ExecutionPolicy, logger zerolog.Logger) (*Optimizer, error) {
	var tables strategyTables
	if err := yaml.Unmarshal(strategiesYAML, &tables); err != nil {
		return nil, fmt.Errorf("parse strategy tables: %w", err)
	}
	if len(tables.Strategies) == 0 || len(tables.SuccessRates) == 0 {
		return nil, fmt.Errorf("strategy tables incomplete")
	}
	if policy == nil {
		policy = DeterministicPolicy{}
	}
	return &Optimizer{
		tables: tables,
		policy: policy,
		logger: logger.With().Str("component", "optimizer").Logger(),
	}, nil
}

var priorityByLevel = map[types.SeverityLevel]string{
	types.SeverityCritical: "URGENT",
	types.SeverityHigh:     "HIGH",
	types.SeverityMedium:   "MEDIUM",
	types.SeverityLow:      "LOW",
}

var priorityRank = map[string]int{"URGENT": 0, "HIGH": 1, "MEDIUM": 2, "LOW": 3}

// Recommend builds ranked recommendations for the detections. lossByID
// supplies per-detection loss figures; detections without an entry fall
// back to a deviation-based estimate. efficiency is the operation's
// current efficiency percentage, 0 meaning unknown.
//
// The optimization score reflects every generated recommendation; the
// returned list is capped at the top ten.
func (o *Optimizer) Recommend(detections []types.Detection, lossByID map[string]float64, efficiency float64) Result {
	var recs []types.Recommendation
	var totalSavings float64

	for _, d := range detections {
		strategies, ok := o.tables.Strategies[d.Type]
		if !ok {
			strategies = o.tables.Default
		}

		baseLoss, priced := lossByID[d.ID]
		if !priced {
			baseLoss = math.Abs(d.DeviationPercent) * 10 * 75
		}

		for _, s := range strategies {
			impact := baseLoss * s.Impact
			totalSavings += impact

			confidence := s.Confidence
			switch d.SeverityLevel {
			case types.SeverityCritical:
				confidence = math.Min(0.98, confidence+0.05)
			case types.SeverityLow:
				confidence = math.Max(0.5, confidence-0.1)
			}

			priority, ok := priorityByLevel[d.SeverityLevel]
			if !ok {
				priority = "MEDIUM"
			}

			recs = append(recs, types.Recommendation{
				Title:           fmt.Sprintf("%s: %s", s.Title, locationLabel(d)),
				Description:     d.Description,
				ActionType:      s.Action,
				Priority:        priority,
				EstimatedImpact: round2(impact),
				Confidence:      round2(confidence),
				Reasoning:       reasoning(s, d),
				Payload: map[string]interface{}{
					"detection_id":      d.ID,
					"inefficiency_type": d.Type,
					"target_id":         d.LocationID,
					"parameters":        actionParameters(s.Action, d),
				},
			})
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := priorityRank[recs[i].Priority], priorityRank[recs[j].Priority]
		if ri != rj {
			return ri < rj
		}
		return recs[i].EstimatedImpact > recs[j].EstimatedImpact
	})

	score := optimizationScore(len(detections), len(recs), efficiency)

	if len(recs) > 10 {
		recs = recs[:10]
	}

	o.logger.Debug().
		Int("recommendations", len(recs)).
		Float64("score", score).
		Msg("recommendations generated")

	return Result{
		Recommendations:       recs,
		TotalPotentialSavings: round2(totalSavings),
		OptimizationScore:     score,
	}
}

func locationLabel(d types.Detection) string {
	if d.LocationName != "" {
		return d.LocationName
	}
	return d.LocationID
}

func reasoning(s Strategy, d types.Detection) string {
	source := locationLabel(d)
	pct := s.Impact * 100
	switch s.Action {
	case "REBALANCE_WORKLOAD":
		return fmt.Sprintf("Analysis shows %s has uneven workload distribution. Rebalancing could reduce inefficiency by %.0f%% based on similar past optimizations.", source, pct)
	case "SCHEDULE_MAINTENANCE":
		return fmt.Sprintf("%s is showing signs of degradation. Preventive maintenance now can avoid %.0f%% of potential downtime costs.", source, pct)
	case "ADJUST_ROUTING":
		return fmt.Sprintf("Current routing logic causes delays at %s. Optimization would improve flow efficiency by approximately %.0f%%.", source, pct)
	case "TRAINING_NEEDED":
		return fmt.Sprintf("Performance patterns on %s suggest skill gaps. Targeted training typically yields %.0f%% improvement.", source, pct)
	case "RESOURCE_ALLOCATION":
		return fmt.Sprintf("Demand analysis shows %s needs additional capacity. Temporary allocation can capture %.0f%% of lost opportunity.", source, pct)
	case "ALERT_SUPERVISOR":
		return fmt.Sprintf("Situation at %s requires human judgment. Supervisor intervention addresses %.0f%% of similar cases.", source, pct)
	case "MODIFY_PROCESS":
		return fmt.Sprintf("Process parameters at %s have drifted %.1f%% from expected. Adjustment can recover %.0f%% efficiency.", source, math.Abs(d.DeviationPercent), pct)
	default:
		return fmt.Sprintf("Based on %.1f%% deviation detected at %s, this action can recover approximately %.0f%% of the impact.", math.Abs(d.DeviationPercent), source, pct)
	}
}

func actionParameters(actionType string, d types.Detection) map[string]interface{} {
	params := map[string]interface{}{
		"severity":  string(d.SeverityLevel),
		"deviation": d.DeviationPercent,
	}
	switch actionType {
	case "SCHEDULE_MAINTENANCE":
		params["maintenance_type"] = "preventive"
		if d.SeverityLevel == types.SeverityCritical {
			params["urgency"] = "within_24h"
		} else {
			params["urgency"] = "within_week"
		}
	case "REBALANCE_WORKLOAD":
		params["rebalance_target"] = 0.85
	case "ADJUST_ROUTING":
		params["optimization_goal"] = "minimize_wait_time"
	}
	return params
}

// optimizationScore blends an anomaly-penalized health figure with the
// reported efficiency, bounded [0, 100].
func optimizationScore(numDetections, numRecommendations int, efficiency float64) float64 {
	score := 100.0
	score -= math.Min(30, float64(numDetections)*3)
	if numRecommendations > 0 {
		score += math.Min(10, float64(numRecommendations)*2)
	}
	if efficiency <= 0 {
		efficiency = 85
	}
	score = (score + efficiency) / 2
	return math.Round(math.Max(0, math.Min(100, score))*10) / 10
}

// ExecResult is the outcome of executing one action.
type ExecResult struct {
	Success      bool    `json:"success"`
	Message      string  `json:"message"`
	ActualImpact float64 `json:"actual_impact,omitempty"`
}

// Execute carries out one action type through the execution policy and
// reports the realized impact.
func (o *Optimizer) Execute(actionType string, estimatedImpact float64) ExecResult {
	rate, ok := o.tables.SuccessRates[actionType]
	if !ok {
		rate = 0.85
	}

	verb := strings.ToLower(strings.ReplaceAll(actionType, "_", " "))
	if !o.policy.Succeeds(rate) {
		return ExecResult{
			Success: false,
			Message: fmt.Sprintf("Failed to execute %s action. Manual intervention required.", verb),
		}
	}
	return ExecResult{
		Success:      true,
		Message:      fmt.Sprintf("Successfully executed %s action", verb),
		ActualImpact: round2(estimatedImpact * o.policy.ImpactMultiplier()),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

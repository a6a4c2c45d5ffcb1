package orchestrator

import (
	"fmt"
	"math"
	"time"

	"github.com/aoia/engine/internal/graph"
	"github.com/aoia/engine/internal/types"
)

var explanationByType = map[string]string{
	types.TypeIdleTime:           "'%s' is experiencing excessive idle time, likely due to waiting for work, unclear assignments, or upstream delays.",
	types.TypeWaitTime:           "Work item at '%s' has been waiting too long, indicating queue buildup or resource unavailability.",
	types.TypeBottleneck:         "Stage '%s' is a bottleneck causing upstream backup. Work is arriving faster than it can be processed.",
	types.TypeOverload:           "'%s' is overloaded and at risk of burnout, errors, or delays. Immediate load redistribution recommended.",
	types.TypeUnderutilization:   "'%s' is underutilized. Consider reassigning work to improve efficiency.",
	types.TypeLoadImbalance:      "Significant load imbalance detected across '%s'. Some resources are overworked while others are idle.",
	types.TypeExcessiveHandovers: "Work at '%s' has too many handoffs between people or teams, causing delays and potential communication gaps.",
	types.TypeRework:             "Work at '%s' is requiring multiple revisions, indicating quality issues or unclear requirements.",
	types.TypeEscalation:         "Work at '%s' has been escalated multiple times, suggesting complexity or skill gaps.",
	types.TypeBounce:             "Work at '%s' keeps bouncing back, indicating process or assignment issues.",
	types.TypeSLARisk:            "Work at '%s' is at risk of breaching SLA. Immediate attention required to meet commitment.",
	types.TypeSLABreach:          "SLA has been BREACHED at '%s'. This may result in penalties and customer dissatisfaction.",
	types.TypeLowThroughput:      "'%s' has below-expected output, indicating efficiency issues.",
	types.TypeQueueOverflow:      "Queue at '%s' is overflowing. Capacity increase or redistribution needed.",
	types.TypeBlocked:            "'%s' is blocked and cannot proceed. Investigation required.",
	types.TypeOffline:            "'%s' is offline or unavailable, impacting capacity.",
}

var causalChains = map[string][]types.CausalStep{
	types.TypeOverload: {
		{StepNumber: 1, Cause: "High work assignment", Effect: "Resource at capacity", Confidence: 0.9},
		{StepNumber: 2, Cause: "Over-capacity operation", Effect: "Quality/speed degradation", Confidence: 0.85},
		{StepNumber: 3, Cause: "Degraded performance", Effect: "SLA risk and potential burnout", Confidence: 0.8},
	},
	types.TypeIdleTime: {
		{StepNumber: 1, Cause: "No work assigned or waiting for input", Effect: "Resource idle", Confidence: 0.85},
		{StepNumber: 2, Cause: "Idle time", Effect: "Wasted capacity and cost", Confidence: 0.9},
	},
	types.TypeRework: {
		{StepNumber: 1, Cause: "Quality issue or unclear requirements", Effect: "Work rejected/returned", Confidence: 0.85},
		{StepNumber: 2, Cause: "Rework required", Effect: "Time and cost increase", Confidence: 0.9},
		{StepNumber: 3, Cause: "Repeated rework", Effect: "SLA risk and frustration", Confidence: 0.8},
	},
	types.TypeSLABreach: {
		{StepNumber: 1, Cause: "Delayed processing or insufficient capacity", Effect: "SLA deadline missed", Confidence: 0.95},
		{StepNumber: 2, Cause: "SLA breach", Effect: "Penalty and customer dissatisfaction", Confidence: 0.9},
	},
	types.TypeBottleneck: {
		{StepNumber: 1, Cause: "Stage capacity insufficient", Effect: "Work queues up", Confidence: 0.9},
		{StepNumber: 2, Cause: "Queue buildup", Effect: "Overall flow slows down", Confidence: 0.85},
		{StepNumber: 3, Cause: "Slow flow", Effect: "End-to-end delays", Confidence: 0.8},
	},
}

var rootCauseCategories = map[string]string{
	types.TypeOverload:           "capacity",
	types.TypeUnderutilization:   "capacity",
	types.TypeLoadImbalance:      "capacity",
	types.TypeIdleTime:           "resource",
	types.TypeOffline:            "resource",
	types.TypeWaitTime:           "process",
	types.TypeBottleneck:         "process",
	types.TypeExcessiveHandovers: "process",
	types.TypeBounce:             "process",
	types.TypeRework:             "quality",
	types.TypeEscalation:         "complexity",
	types.TypeSLARisk:            "time",
	types.TypeSLABreach:          "time",
	types.TypeBlocked:            "dependency",
}

// explainDetection builds the root cause explanation for one detection,
// attributing downstream impact from the dependency graph.
func explainDetection(d types.Detection, impact graph.ImpactResult) types.RootCauseExplanation {
	location := d.LocationID
	if d.LocationName != "" {
		location = d.LocationName
	}

	explanation, ok := explanationByType[d.Type]
	if ok {
		explanation = fmt.Sprintf(explanation, location)
	} else {
		explanation = fmt.Sprintf("Inefficiency detected at %s '%s': %s. Investigation recommended.", d.LocationType, location, d.Type)
	}

	chain, ok := causalChains[d.Type]
	if !ok {
		chain = []types.CausalStep{
			{StepNumber: 1, Cause: "Inefficiency detected", Effect: "Operational deviation", Confidence: 0.7},
		}
	}

	category, ok := rootCauseCategories[d.Type]
	if !ok {
		category = "general"
	}

	return types.RootCauseExplanation{
		ID:                types.NewExplanationID(),
		DetectionID:       d.ID,
		Explanation:       explanation,
		Summary:           fmt.Sprintf("%s at %s", d.Type, d.LocationID),
		CausalChain:       chain,
		Category:          category,
		ImpactedEntities:  impact.AffectedEntities,
		ImpactedWorkItems: impact.AffectedWorkItems,
		ImpactedProcesses: impact.AffectedProcesses,
		Probability:       rootCauseProbability(d),
		Evidence:          gatherEvidence(d),
		Timestamp:         time.Now(),
	}
}

// rootCauseProbability grows with severity and deviation, capped at 0.95.
func rootCauseProbability(d types.Detection) float64 {
	prob := 0.7 + d.SeverityScore*0.15 + math.Min(math.Abs(d.DeviationPercent)/100, 0.1)
	return math.Min(prob, 0.95)
}

func gatherEvidence(d types.Detection) []string {
	evidence := []string{fmt.Sprintf("Detected %s at %s", d.Type, d.LocationID)}
	if d.CurrentValue != nil && d.ExpectedValue != nil {
		evidence = append(evidence, fmt.Sprintf("Current: %g, Expected: %g", *d.CurrentValue, *d.ExpectedValue))
	}
	if d.DeviationPercent != 0 {
		evidence = append(evidence, fmt.Sprintf("Deviation: %.1f%%", d.DeviationPercent))
	}
	return evidence
}

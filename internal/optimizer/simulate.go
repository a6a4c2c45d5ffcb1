package optimizer

import "math"

// SimulationResult is the projected effect of running one action.
type SimulationResult struct {
	Impact     float64  `json:"impact"`
	Risks      []string `json:"risks"`
	Confidence float64  `json:"confidence"`
	Verdict    string   `json:"recommendation"`
}

// Simulation verdicts.
const (
	VerdictProceed = "PROCEED"
	VerdictReview  = "REVIEW"
)

var actionRisks = map[string][]string{
	"SCHEDULE_MAINTENANCE": {
		"Temporary production interruption during maintenance",
		"Spare parts availability uncertainty",
	},
	"REBALANCE_WORKLOAD": {
		"Temporary efficiency dip during transition",
		"Potential operator adjustment period",
	},
	"RESOURCE_ALLOCATION": {
		"Additional cost for temporary resources",
		"Training time for new resources",
	},
	"MODIFY_PROCESS": {
		"Quality verification needed post-change",
		"Rollback plan required",
	},
}

// Simulate projects the effect of an action before it runs. The severity
// multiplier scales the baseline impact; values above 1.5 add a
// monitoring risk. PROCEED requires confidence above 0.7 and fewer than
// three risks.
func (o *Optimizer) Simulate(actionType, target string, severityMultiplier float64) SimulationResult {
	base, ok := o.tables.SimBaseImpact[actionType]
	if !ok {
		base = 20000
	}
	if severityMultiplier <= 0 {
		severityMultiplier = 1.0
	}

	var risks []string
	if severityMultiplier > 1.5 {
		risks = append(risks, "High severity requires careful monitoring")
	}
	specific := actionRisks[actionType]
	if len(specific) > 2 {
		specific = specific[:2]
	}
	risks = append(risks, specific...)

	confidence := 0.85 - float64(len(risks))*0.05
	if confidence < 0.5 {
		confidence = 0.5
	}

	verdict := VerdictReview
	if confidence > 0.7 && len(risks) < 3 {
		verdict = VerdictProceed
	}

	o.logger.Debug().
		Str("action_type", actionType).
		Str("target", target).
		Str("verdict", verdict).
		Msg("action simulated")

	return SimulationResult{
		Impact:     math.Round(base*severityMultiplier*100) / 100,
		Risks:      risks,
		Confidence: math.Round(confidence*100) / 100,
		Verdict:    verdict,
	}
}

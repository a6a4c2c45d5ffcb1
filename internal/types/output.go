package types

import "time"

// CausalStep is one cause → effect link in a root-cause chain.
type CausalStep struct {
	StepNumber int     `json:"step_number"`
	Cause      string  `json:"cause"`
	Effect     string  `json:"effect"`
	Confidence float64 `json:"confidence"`
}

// RootCauseExplanation explains one detection.
type RootCauseExplanation struct {
	ID                string       `json:"explanation_id"`
	DetectionID       string       `json:"detection_id"`
	Explanation       string       `json:"explanation"`
	Summary           string       `json:"summary,omitempty"`
	CausalChain       []CausalStep `json:"causal_chain"`
	Category          string       `json:"root_cause_category"`
	ImpactedEntities  []string     `json:"impacted_entities"`
	ImpactedWorkItems []string     `json:"impacted_work_items"`
	ImpactedProcesses []string     `json:"impacted_processes"`
	Probability       float64      `json:"probability_of_correctness"`
	Evidence          []string     `json:"evidence"`
	Timestamp         time.Time    `json:"timestamp"`
}

// LossBreakdown decomposes a loss figure. The components are not
// guaranteed to sum to the aggregate total on every derivation path;
// per-detection figures do sum exactly (see loss package tests).
type LossBreakdown struct {
	BaseLoss           float64 `json:"base_loss"`
	IndustryAdjustment float64 `json:"industry_adjustment"`
	SeverityAdjustment float64 `json:"severity_adjustment"`
}

// FinancialLoss is the aggregated monetary impact of one run's detections.
type FinancialLoss struct {
	TotalLoss       float64            `json:"total_loss"`
	Currency        string             `json:"currency"`
	LossPerHour     float64            `json:"loss_per_hour"`
	LossPerDay      float64            `json:"loss_per_day"`
	Projected24h    float64            `json:"projected_24h_loss"`
	SavingsIfFixed  float64            `json:"savings_if_fixed"`
	Breakdown       LossBreakdown      `json:"breakdown"`
	ByType          map[string]float64 `json:"by_type"`
	ByLocation      map[string]float64 `json:"by_location"`
	Confidence      float64            `json:"confidence"`
	Methodology     string             `json:"methodology"`
	Timestamp       time.Time          `json:"timestamp"`
}

// Recommendation is one ranked corrective suggestion.
type Recommendation struct {
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	ActionType      string                 `json:"action_type"`
	Priority        string                 `json:"priority"`
	EstimatedImpact float64                `json:"estimated_impact"`
	Confidence      float64                `json:"confidence"`
	Reasoning       string                 `json:"reasoning"`
	Payload         map[string]interface{} `json:"action_payload"`
}

// PlanAction is one category slot of an optimization plan.
type PlanAction struct {
	Action      string   `json:"action"`
	Targets     []string `json:"targets"`
	Reason      string   `json:"reason,omitempty"`
	NewPriority string   `json:"new_priority,omitempty"`
	Urgency     string   `json:"urgency,omitempty"`
}

// OptimizationPlan holds at most one recommended action per category.
type OptimizationPlan struct {
	ID                   string                 `json:"plan_id"`
	LoadRebalancing      *PlanAction            `json:"load_rebalancing,omitempty"`
	Reassignments        *PlanAction            `json:"reassignments,omitempty"`
	PriorityChanges      *PlanAction            `json:"priority_changes,omitempty"`
	CapacityAdjustments  *PlanAction            `json:"capacity_adjustments,omitempty"`
	ProcessOptimizations *PlanAction            `json:"process_optimizations,omitempty"`
	Alerts               *PlanAction            `json:"alerts,omitempty"`
	EstimatedImpact      map[string]interface{} `json:"estimated_impact"`
	ImplementationSteps  []string               `json:"implementation_steps"`
	Timestamp            time.Time              `json:"timestamp"`
}

// ActionStatus is the lifecycle state of an execution action.
type ActionStatus string

const (
	ActionPending   ActionStatus = "pending"
	ActionApproved  ActionStatus = "approved"
	ActionExecuting ActionStatus = "executing"
	ActionCompleted ActionStatus = "completed"
	ActionFailed    ActionStatus = "failed"
	ActionSkipped   ActionStatus = "skipped"
)

// CanTransition reports whether moving from s to next is a legal forward
// transition. Transitions are monotonic; nothing returns to pending and
// terminal states never change.
func (s ActionStatus) CanTransition(next ActionStatus) bool {
	switch s {
	case ActionPending:
		return next == ActionApproved || next == ActionExecuting ||
			next == ActionCompleted || next == ActionFailed || next == ActionSkipped
	case ActionApproved:
		return next == ActionExecuting || next == ActionCompleted ||
			next == ActionFailed || next == ActionSkipped
	case ActionExecuting:
		return next == ActionCompleted || next == ActionFailed
	default:
		return false
	}
}

// ExecutionAction is a concrete corrective action, staged or executed
// depending on the autonomy mode.
type ExecutionAction struct {
	ID               string                 `json:"action_id"`
	ActionType       string                 `json:"action_type"`
	TargetID         string                 `json:"target_id"`
	TargetType       string                 `json:"target_type"`
	Parameters       map[string]interface{} `json:"parameters,omitempty"`
	Reason           string                 `json:"reason,omitempty"`
	Status           ActionStatus           `json:"status"`
	Result           string                 `json:"result,omitempty"`
	Error            string                 `json:"error,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	ExecutedAt       *time.Time             `json:"executed_at,omitempty"`
	CompletedAt      *time.Time             `json:"completed_at,omitempty"`
	RequiresApproval bool                   `json:"requires_approval"`
}

// UpdatedBaselines reports learning output of a run. Numeric baseline
// adjustment is an extension point; currently only counts are recorded.
type UpdatedBaselines struct {
	BaselineUpdates  map[string]float64 `json:"baseline_updates"`
	ThresholdUpdates map[string]float64 `json:"threshold_updates"`
	LearningNotes    []string           `json:"learning_notes"`
}

// Run statuses reported on PipelineOutput.
const (
	RunCompleted           = "completed"
	RunCompletedWithErrors = "completed_with_errors"
	RunFailed              = "failed"
)

// PipelineOutput is the unified result of one pipeline run.
type PipelineOutput struct {
	PipelineID       string                 `json:"pipeline_id"`
	AutonomyMode     string                 `json:"autonomy_mode"`
	Industry         string                 `json:"industry"`
	ProcessingTimeMS float64                `json:"processing_time_ms"`
	Status           string                 `json:"status"`
	Errors           []string               `json:"errors"`
	Inefficiencies   []Detection            `json:"inefficiencies"`
	RootCauses       []RootCauseExplanation `json:"root_causes"`
	Recommendations  []Recommendation       `json:"recommendations"`
	FinancialLoss    *FinancialLoss         `json:"financial_loss,omitempty"`
	OptimizationPlan *OptimizationPlan      `json:"optimization_plan,omitempty"`
	ActionsExecuted  []ExecutionAction      `json:"actions_executed"`
	UpdatedBaselines *UpdatedBaselines      `json:"updated_baselines,omitempty"`
	Timestamp        time.Time              `json:"timestamp"`
}

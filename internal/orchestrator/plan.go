package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/aoia/engine/internal/types"
)

// buildPlan maps detections onto the plan's category slots. Each slot
// accumulates the distinct locations that triggered it.
func buildPlan(detections []types.Detection, totalLoss float64) *types.OptimizationPlan {
	plan := &types.OptimizationPlan{
		ID:        types.NewPlanID(),
		Timestamp: time.Now(),
	}

	var steps []string

	for _, d := range detections {
		location := d.LocationID

		switch d.Type {
		case types.TypeOverload, types.TypeUnderutilization, types.TypeLoadImbalance:
			plan.LoadRebalancing = addTarget(plan.LoadRebalancing, "REBALANCE_LOAD", location)
			plan.LoadRebalancing.Reason = fmt.Sprintf("Address %s", d.Type)
			steps = append(steps, fmt.Sprintf("Rebalance workload at %s", location))

		case types.TypeSLARisk, types.TypeSLABreach:
			plan.PriorityChanges = addTarget(plan.PriorityChanges, "PRIORITIZE", location)
			plan.PriorityChanges.NewPriority = "urgent"
			plan.PriorityChanges.Reason = "SLA at risk"

			plan.Alerts = addTarget(plan.Alerts, "ALERT_SUPERVISOR", location)
			if d.Type == types.TypeSLABreach {
				plan.Alerts.Urgency = "high"
			} else if plan.Alerts.Urgency == "" {
				plan.Alerts.Urgency = "medium"
			}
			steps = append(steps, fmt.Sprintf("Prioritize and expedite %s", location))

		case types.TypeExcessiveHandovers, types.TypeBounce, types.TypeRework:
			plan.ProcessOptimizations = addTarget(plan.ProcessOptimizations, "REROUTE", location)
			plan.ProcessOptimizations.Reason = fmt.Sprintf("Reduce %s", strings.ToLower(strings.ReplaceAll(d.Type, "_", " ")))
			steps = append(steps, fmt.Sprintf("Optimize workflow for %s", location))

		case types.TypeBottleneck:
			plan.CapacityAdjustments = addTarget(plan.CapacityAdjustments, "ADD_CAPACITY", location)
			plan.CapacityAdjustments.Reason = "Address bottleneck"
			steps = append(steps, fmt.Sprintf("Add capacity at bottleneck %s", location))

		case types.TypeIdleTime, types.TypeBlocked:
			plan.Reassignments = addTarget(plan.Reassignments, "REASSIGN", location)
			plan.Reassignments.Reason = fmt.Sprintf("Resource is %s", strings.ToLower(strings.ReplaceAll(d.Type, "_", " ")))
			direction := "from"
			if d.Type == types.TypeIdleTime {
				direction = "to"
			}
			steps = append(steps, fmt.Sprintf("Reassign work %s %s", direction, location))
		}
	}

	plan.EstimatedImpact = map[string]interface{}{
		"potential_savings":              totalLoss * 0.65,
		"efficiency_improvement_percent": 15,
		"implementation_time_hours":      2,
	}

	if len(steps) == 0 {
		steps = []string{"Review detected issues and take appropriate action"}
	}
	plan.ImplementationSteps = steps

	return plan
}

// addTarget creates the slot if needed and appends the location once.
func addTarget(slot *types.PlanAction, action, location string) *types.PlanAction {
	if slot == nil {
		slot = &types.PlanAction{Action: action}
	}
	for _, t := range slot.Targets {
		if t == location {
			return slot
		}
	}
	slot.Targets = append(slot.Targets, location)
	return slot
}

// planSlot pairs a plan slot with its execution shape.
type planSlot struct {
	action     *types.PlanAction
	actionType string
	targetType string
	reason     string
	successMsg string
	// optimizerAction names the strategy table row used when executing.
	optimizerAction string
}

// slots lists the non-nil plan slots in a fixed order.
func slots(plan *types.OptimizationPlan) []planSlot {
	candidates := []planSlot{
		{plan.LoadRebalancing, "REBALANCE_LOAD", "entity", "Address load imbalance", "Workload rebalanced", "REBALANCE_WORKLOAD"},
		{plan.Reassignments, "REASSIGN", "entity", "Reassign stalled work", "Work reassigned", "REBALANCE_WORKLOAD"},
		{plan.PriorityChanges, "PRIORITIZE", "work_item", "SLA at risk", "Priority changed to urgent", "ADJUST_ROUTING"},
		{plan.CapacityAdjustments, "ADD_CAPACITY", "entity", "Add capacity at bottleneck", "Capacity adjusted", "RESOURCE_ALLOCATION"},
		{plan.ProcessOptimizations, "REROUTE", "work_item", "Optimize workflow", "Workflow routing optimized", "ADJUST_ROUTING"},
		{plan.Alerts, "ALERT_SUPERVISOR", "entity", "Issue requires supervisor attention", "Alert sent to supervisor", "ALERT_SUPERVISOR"},
	}
	var out []planSlot
	for _, c := range candidates {
		if c.action != nil {
			out = append(out, c)
		}
	}
	return out
}

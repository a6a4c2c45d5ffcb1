// Package ingestion resolves the loosely-typed, alias-heavy input format
// into the canonical snapshot in one explicit pass at ingress.
package ingestion

import (
	"github.com/aoia/engine/internal/types"
)

// RawEntity accepts both canonical and legacy entity fields.
type RawEntity struct {
	EntityID        string   `json:"entity_id,omitempty"`
	MachineID       string   `json:"machine_id,omitempty"`
	OperatorID      string   `json:"operator_id,omitempty"`
	EntityType      string   `json:"entity_type,omitempty"`
	EntityName      string   `json:"entity_name,omitempty"`
	State           string   `json:"state,omitempty"`
	MachineState    string   `json:"machine_state,omitempty"`
	LoadPercent     float64  `json:"load_percent,omitempty"`
	OperatorLoad    float64  `json:"operator_load,omitempty"`
	Throughput      float64  `json:"throughput,omitempty"`
	OutputPerMin    float64  `json:"output_per_min,omitempty"`
	QueueSize       int      `json:"queue_size,omitempty"`
	IdleMinutes     float64  `json:"idle_time_minutes,omitempty"`
	IdleTime        float64  `json:"idle_time,omitempty"`
	ActiveMinutes   float64  `json:"active_time_minutes,omitempty"`
	WaitMinutes     float64  `json:"wait_time_minutes,omitempty"`
	AssignedItems   []string `json:"assigned_items,omitempty"`
	TaskAssignments []string `json:"task_assignments,omitempty"`
}

// RawWorkItem accepts both canonical and legacy work-item fields.
type RawWorkItem struct {
	ItemID              string   `json:"item_id,omitempty"`
	TaskID              string   `json:"task_id,omitempty"`
	ItemType            string   `json:"item_type,omitempty"`
	ItemName            string   `json:"item_name,omitempty"`
	Status              string   `json:"status,omitempty"`
	Priority            string   `json:"priority,omitempty"`
	ProcessID           string   `json:"process_id,omitempty"`
	AssignedTo          string   `json:"assigned_to,omitempty"`
	DurationMinutes     float64  `json:"duration_minutes,omitempty"`
	TaskDuration        float64  `json:"task_duration,omitempty"`
	WaitMinutes         float64  `json:"wait_time_minutes,omitempty"`
	SLATargetMinutes    float64  `json:"sla_target_minutes,omitempty"`
	SLARemainingMinutes *float64 `json:"sla_remaining_minutes,omitempty"`
	HandoverCount       int      `json:"handover_count,omitempty"`
	TaskTransfers       int      `json:"task_transfers,omitempty"`
	ReworkCount         int      `json:"rework_count,omitempty"`
	ReworkLoops         int      `json:"rework_loops,omitempty"`
	BounceCount         int      `json:"bounce_count,omitempty"`
	EscalationCount     int      `json:"escalation_count,omitempty"`
	Value               float64  `json:"value,omitempty"`
	CostPerMinute       float64  `json:"cost_per_minute,omitempty"`
}

// RawProcess accepts canonical stages or a legacy process sequence.
type RawProcess struct {
	ProcessID       string   `json:"process_id,omitempty"`
	ProcessName     string   `json:"process_name,omitempty"`
	Stages          []string `json:"stages,omitempty"`
	ProcessSequence []string `json:"process_sequence,omitempty"`
	BottleneckStage string   `json:"bottleneck_stage,omitempty"`
}

// RawBusiness accepts canonical business parameters plus per-minute
// legacy variants.
type RawBusiness struct {
	Industry                  string  `json:"industry,omitempty"`
	Currency                  string  `json:"currency,omitempty"`
	CostPerHour               float64 `json:"cost_per_hour,omitempty"`
	CostPerMin                float64 `json:"cost_per_min,omitempty"`
	BaselineThroughput        float64 `json:"baseline_throughput,omitempty"`
	BaselineOutputPerMin      float64 `json:"baseline_output_per_min,omitempty"`
	BaselineResolutionMinutes float64 `json:"baseline_resolution_time_minutes,omitempty"`
	PenaltyPerSLABreach       float64 `json:"penalty_per_sla_breach,omitempty"`
	Efficiency                float64 `json:"efficiency,omitempty"`
}

// RawSnapshot is the wire-format pipeline input. The legacy machines,
// shifts and workflows collections are folded into entities/work_items.
type RawSnapshot struct {
	Entities     []RawEntity   `json:"entities,omitempty"`
	Machines     []RawEntity   `json:"machines,omitempty"`
	Shifts       []RawEntity   `json:"shifts,omitempty"`
	WorkItems    []RawWorkItem `json:"work_items,omitempty"`
	Workflows    []RawWorkItem `json:"workflows,omitempty"`
	Processes    []RawProcess  `json:"processes,omitempty"`
	Events       []types.Event `json:"events,omitempty"`
	Business     RawBusiness   `json:"business,omitempty"`
	AutonomyMode string        `json:"autonomy_mode,omitempty"`
	DryRun       bool          `json:"dry_run,omitempty"`
}

// Normalize resolves every legacy alias and returns the canonical snapshot.
func Normalize(raw RawSnapshot) types.Snapshot {
	snap := types.Snapshot{
		Events:   raw.Events,
		Business: normalizeBusiness(raw.Business),
	}

	for _, e := range raw.Entities {
		snap.Entities = append(snap.Entities, normalizeEntity(e, ""))
	}
	for _, m := range raw.Machines {
		snap.Entities = append(snap.Entities, normalizeEntity(m, "machine"))
	}
	for _, s := range raw.Shifts {
		snap.Entities = append(snap.Entities, normalizeEntity(s, "operator"))
	}

	for _, w := range raw.WorkItems {
		snap.WorkItems = append(snap.WorkItems, normalizeWorkItem(w, ""))
	}
	for _, w := range raw.Workflows {
		snap.WorkItems = append(snap.WorkItems, normalizeWorkItem(w, "task"))
	}

	for _, p := range raw.Processes {
		snap.Processes = append(snap.Processes, normalizeProcess(p))
	}

	return snap
}

func normalizeEntity(raw RawEntity, fallbackType string) types.Entity {
	e := types.Entity{
		ID:            raw.EntityID,
		Type:          raw.EntityType,
		Name:          raw.EntityName,
		State:         raw.State,
		LoadPercent:   raw.LoadPercent,
		Throughput:    raw.Throughput,
		QueueSize:     raw.QueueSize,
		IdleMinutes:   raw.IdleMinutes,
		ActiveMinutes: raw.ActiveMinutes,
		WaitMinutes:   raw.WaitMinutes,
		AssignedItems: raw.AssignedItems,
	}

	if e.ID == "" && raw.MachineID != "" {
		e.ID = raw.MachineID
		if e.Type == "" {
			e.Type = "machine"
		}
	}
	if e.ID == "" && raw.OperatorID != "" {
		e.ID = raw.OperatorID
		if e.Type == "" {
			e.Type = "operator"
		}
	}
	if e.ID == "" {
		e.ID = "unknown"
	}
	if e.Type == "" {
		if fallbackType != "" {
			e.Type = fallbackType
		} else {
			e.Type = "entity"
		}
	}
	if e.Name == "" {
		e.Name = e.ID
	}
	if e.State == "" && raw.MachineState != "" {
		e.State = raw.MachineState
	}
	if e.Throughput == 0 && raw.OutputPerMin != 0 {
		e.Throughput = raw.OutputPerMin
	}
	if e.LoadPercent == 0 && raw.OperatorLoad != 0 {
		e.LoadPercent = raw.OperatorLoad
	}
	if e.IdleMinutes == 0 && raw.IdleTime != 0 {
		e.IdleMinutes = raw.IdleTime
	}
	if len(e.AssignedItems) == 0 && len(raw.TaskAssignments) > 0 {
		e.AssignedItems = raw.TaskAssignments
	}
	return e
}

func normalizeWorkItem(raw RawWorkItem, fallbackType string) types.WorkItem {
	w := types.WorkItem{
		ID:                  raw.ItemID,
		Type:                raw.ItemType,
		Name:                raw.ItemName,
		Status:              raw.Status,
		Priority:            raw.Priority,
		ProcessID:           raw.ProcessID,
		AssignedTo:          raw.AssignedTo,
		DurationMinutes:     raw.DurationMinutes,
		WaitMinutes:         raw.WaitMinutes,
		SLATargetMinutes:    raw.SLATargetMinutes,
		SLARemainingMinutes: raw.SLARemainingMinutes,
		HandoverCount:       raw.HandoverCount,
		ReworkCount:         raw.ReworkCount,
		BounceCount:         raw.BounceCount,
		EscalationCount:     raw.EscalationCount,
		Value:               raw.Value,
		CostPerMinute:       raw.CostPerMinute,
	}

	if w.ID == "" && raw.TaskID != "" {
		w.ID = raw.TaskID
		if w.Type == "" {
			w.Type = "task"
		}
	}
	if w.ID == "" {
		w.ID = "unknown"
	}
	if w.Type == "" {
		if fallbackType != "" {
			w.Type = fallbackType
		} else {
			w.Type = "work_item"
		}
	}
	if w.Name == "" {
		w.Name = w.ID
	}
	if w.DurationMinutes == 0 && raw.TaskDuration != 0 {
		w.DurationMinutes = raw.TaskDuration
	}
	if w.ReworkCount == 0 && raw.ReworkLoops != 0 {
		w.ReworkCount = raw.ReworkLoops
	}
	if w.HandoverCount == 0 && raw.TaskTransfers != 0 {
		w.HandoverCount = raw.TaskTransfers
	}
	return w
}

func normalizeProcess(raw RawProcess) types.Process {
	p := types.Process{
		ID:              raw.ProcessID,
		Name:            raw.ProcessName,
		Stages:          raw.Stages,
		BottleneckStage: raw.BottleneckStage,
	}
	if p.ID == "" {
		p.ID = "unknown"
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	if len(p.Stages) == 0 && len(raw.ProcessSequence) > 0 {
		p.Stages = raw.ProcessSequence
	}
	return p
}

func normalizeBusiness(raw RawBusiness) types.BusinessParams {
	b := types.BusinessParams{
		Industry:                  raw.Industry,
		Currency:                  raw.Currency,
		CostPerHour:               raw.CostPerHour,
		BaselineThroughput:        raw.BaselineThroughput,
		BaselineResolutionMinutes: raw.BaselineResolutionMinutes,
		PenaltyPerSLABreach:       raw.PenaltyPerSLABreach,
		Efficiency:                raw.Efficiency,
	}
	if b.Industry == "" {
		b.Industry = "GENERAL"
	}
	if b.BaselineThroughput == 0 && raw.BaselineOutputPerMin != 0 {
		b.BaselineThroughput = raw.BaselineOutputPerMin * 60
	}
	if b.CostPerHour == 0 && raw.CostPerMin != 0 {
		b.CostPerHour = raw.CostPerMin * 60
	}
	return b
}

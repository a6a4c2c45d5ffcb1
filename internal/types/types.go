package types

// Snapshot is the canonical input to a single pipeline run. All legacy
// field aliases are resolved by the ingestion package before a Snapshot
// is constructed; nothing downstream branches on legacy names.
type Snapshot struct {
	Entities  []Entity       `json:"entities"`
	WorkItems []WorkItem     `json:"work_items"`
	Processes []Process      `json:"processes"`
	Events    []Event        `json:"events"`
	Business  BusinessParams `json:"business"`
}

// Entity is an operational actor: a person, system, station or team.
type Entity struct {
	ID            string   `json:"entity_id"`
	Type          string   `json:"entity_type,omitempty"`
	Name          string   `json:"entity_name,omitempty"`
	State         string   `json:"state,omitempty"`
	LoadPercent   float64  `json:"load_percent,omitempty"`
	Throughput    float64  `json:"throughput,omitempty"`
	QueueSize     int      `json:"queue_size,omitempty"`
	IdleMinutes   float64  `json:"idle_time_minutes,omitempty"`
	ActiveMinutes float64  `json:"active_time_minutes,omitempty"`
	WaitMinutes   float64  `json:"wait_time_minutes,omitempty"`
	AssignedItems []string `json:"assigned_items,omitempty"`
}

// Entity states that indicate the entity is not producing.
const (
	StateActive    = "active"
	StateIdle      = "idle"
	StateBusy      = "busy"
	StatePaused    = "paused"
	StateBlocked   = "blocked"
	StateOffline   = "offline"
	StateDown      = "down"
	StateAvailable = "available"
)

// WorkItem is a unit of work flowing through the operation: a ticket,
// order, task or case. SLARemainingMinutes is a pointer because zero is
// meaningful (the breach boundary) and must be distinguishable from absent.
type WorkItem struct {
	ID                  string   `json:"item_id"`
	Type                string   `json:"item_type,omitempty"`
	Name                string   `json:"item_name,omitempty"`
	Status              string   `json:"status,omitempty"`
	Priority            string   `json:"priority,omitempty"`
	ProcessID           string   `json:"process_id,omitempty"`
	AssignedTo          string   `json:"assigned_to,omitempty"`
	DurationMinutes     float64  `json:"duration_minutes,omitempty"`
	WaitMinutes         float64  `json:"wait_time_minutes,omitempty"`
	SLATargetMinutes    float64  `json:"sla_target_minutes,omitempty"`
	SLARemainingMinutes *float64 `json:"sla_remaining_minutes,omitempty"`
	HandoverCount       int      `json:"handover_count,omitempty"`
	ReworkCount         int      `json:"rework_count,omitempty"`
	BounceCount         int      `json:"bounce_count,omitempty"`
	EscalationCount     int      `json:"escalation_count,omitempty"`
	Value               float64  `json:"value,omitempty"`
	CostPerMinute       float64  `json:"cost_per_minute,omitempty"`
}

// Process is a named workflow with ordered stages.
type Process struct {
	ID              string   `json:"process_id"`
	Name            string   `json:"process_name,omitempty"`
	Stages          []string `json:"stages,omitempty"`
	BottleneckStage string   `json:"bottleneck_stage,omitempty"`
}

// Event is an operational event carried through the snapshot. Events are
// recorded for context; the current rule catalogue does not evaluate them.
type Event struct {
	Type      string                 `json:"event_type,omitempty"`
	Source    string                 `json:"source,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// BusinessParams carries cost and baseline context for a run.
type BusinessParams struct {
	Industry                  string  `json:"industry,omitempty"`
	Currency                  string  `json:"currency,omitempty"`
	CostPerHour               float64 `json:"cost_per_hour,omitempty"`
	BaselineThroughput        float64 `json:"baseline_throughput,omitempty"`
	BaselineResolutionMinutes float64 `json:"baseline_resolution_time_minutes,omitempty"`
	PenaltyPerSLABreach       float64 `json:"penalty_per_sla_breach,omitempty"`
	Efficiency                float64 `json:"efficiency,omitempty"`
}

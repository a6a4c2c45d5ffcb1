package types

import "time"

// SeverityLevel buckets a continuous severity score.
type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "low"
	SeverityMedium   SeverityLevel = "medium"
	SeverityHigh     SeverityLevel = "high"
	SeverityCritical SeverityLevel = "critical"
)

// Universal inefficiency types. The detector only emits these; unknown
// strings coming in over the wire are carried through untouched.
const (
	TypeIdleTime           = "IDLE_TIME"
	TypeWaitTime           = "WAIT_TIME"
	TypeBottleneck         = "BOTTLENECK"
	TypeOverload           = "OVERLOAD"
	TypeUnderutilization   = "UNDERUTILIZATION"
	TypeLoadImbalance      = "LOAD_IMBALANCE"
	TypeExcessiveHandovers = "EXCESSIVE_HANDOVERS"
	TypeRework             = "REWORK"
	TypeEscalation         = "ESCALATION"
	TypeBounce             = "BOUNCE"
	TypeSLARisk            = "SLA_RISK"
	TypeSLABreach          = "SLA_BREACH"
	TypeLowThroughput      = "LOW_THROUGHPUT"
	TypeQueueOverflow      = "QUEUE_OVERFLOW"
	TypeBlocked            = "BLOCKED"
	TypeOffline            = "OFFLINE"
	TypeDowntime           = "DOWNTIME"
	TypePatternBreak       = "PATTERN_BREAK"
)

// ClampSeverity bounds a raw severity score to [0,1].
func ClampSeverity(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// SeverityFromScore maps a clamped score to its level.
// Cutoffs: <0.3 low, <0.6 medium, <0.85 high, else critical.
func SeverityFromScore(score float64) SeverityLevel {
	score = ClampSeverity(score)
	switch {
	case score < 0.3:
		return SeverityLow
	case score < 0.6:
		return SeverityMedium
	case score < 0.85:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// Detection is a flagged inefficiency at a location in the operation.
type Detection struct {
	ID               string        `json:"detection_id"`
	Type             string        `json:"inefficiency_type"`
	LocationID       string        `json:"location_id"`
	LocationType     string        `json:"location_type"`
	LocationName     string        `json:"location_name,omitempty"`
	SeverityScore    float64       `json:"severity_score"`
	SeverityLevel    SeverityLevel `json:"severity_level"`
	DeviationPercent float64       `json:"deviation_percent"`
	CurrentValue     *float64      `json:"current_value,omitempty"`
	ExpectedValue    *float64      `json:"expected_value,omitempty"`
	Description      string        `json:"description"`
	Timestamp        time.Time     `json:"timestamp"`
}

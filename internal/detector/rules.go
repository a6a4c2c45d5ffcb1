package detector

import (
	"fmt"
	"strings"

	"github.com/aoia/engine/internal/types"
)

// stateSeverity maps a non-working entity state to its inefficiency type
// and base severity.
var stateSeverity = map[string]struct {
	ineffType string
	severity  float64
}{
	types.StateIdle:    {types.TypeIdleTime, 0.4},
	types.StateBlocked: {types.TypeBlocked, 0.7},
	types.StateOffline: {types.TypeOffline, 0.8},
	types.StateDown:    {types.TypeDowntime, 0.9},
}

var entityRuleSpecs = []struct {
	name      string
	condition string
	build     func(e types.Entity, baseline float64) []types.Detection
}{
	{
		name:      "idle_time",
		condition: `idle_time_minutes >= t.idle_time_minutes`,
		build: func(e types.Entity, _ float64) []types.Detection {
			return []types.Detection{newDetection(
				types.TypeIdleTime,
				e.ID, e.Type, e.Name,
				minF(e.IdleMinutes/60, 1.0),
				e.IdleMinutes,
				f(e.IdleMinutes), f(0),
				fmt.Sprintf("%s has been idle for %.0f minutes", e.Name, e.IdleMinutes),
			)}
		},
	},
	{
		name:      "non_working_state",
		condition: `state in ["idle", "blocked", "offline", "down"]`,
		build: func(e types.Entity, _ float64) []types.Detection {
			m := stateSeverity[e.State]
			return []types.Detection{newDetection(
				m.ineffType,
				e.ID, e.Type, e.Name,
				m.severity,
				100,
				nil, nil,
				fmt.Sprintf("%s is in '%s' state", e.Name, e.State),
			)}
		},
	},
	{
		name:      "overload",
		condition: `load_percent >= t.overload_percent`,
		build: func(e types.Entity, _ float64) []types.Detection {
			return []types.Detection{newDetection(
				types.TypeOverload,
				e.ID, e.Type, e.Name,
				minF((e.LoadPercent-80)/20, 1.0),
				e.LoadPercent-80,
				f(e.LoadPercent), f(80),
				fmt.Sprintf("%s is at %g%% load - risk of burnout/errors/delays", e.Name, e.LoadPercent),
			)}
		},
	},
	{
		name:      "underutilization",
		condition: `load_percent > 0 and load_percent < t.underutilization_percent`,
		build: func(e types.Entity, _ float64) []types.Detection {
			return []types.Detection{newDetection(
				types.TypeUnderutilization,
				e.ID, e.Type, e.Name,
				minF((40-e.LoadPercent)/40, 0.7),
				40-e.LoadPercent,
				f(e.LoadPercent), f(40),
				fmt.Sprintf("%s is only at %g%% load - underutilized", e.Name, e.LoadPercent),
			)}
		},
	},
	{
		name:      "queue_overflow",
		condition: `queue_size >= t.queue_size`,
		build: func(e types.Entity, _ float64) []types.Detection {
			return []types.Detection{newDetection(
				types.TypeQueueOverflow,
				e.ID, e.Type, e.Name,
				minF(float64(e.QueueSize)/20, 1.0),
				float64(e.QueueSize)-10,
				f(float64(e.QueueSize)), f(10),
				fmt.Sprintf("%s has %d items in queue - overflow risk", e.Name, e.QueueSize),
			)}
		},
	},
	{
		name:      "low_throughput",
		condition: `throughput > 0 and baseline > 0 and throughput < baseline * (1 - t.throughput_drop_percent / 100)`,
		build: func(e types.Entity, baseline float64) []types.Detection {
			drop := (baseline - e.Throughput) / baseline * 100
			return []types.Detection{newDetection(
				types.TypeLowThroughput,
				e.ID, e.Type, e.Name,
				minF(drop/50, 1.0),
				drop,
				f(e.Throughput), f(baseline),
				fmt.Sprintf("%s throughput is %.1f%% below baseline", e.Name, drop),
			)}
		},
	},
}

var itemRuleSpecs = []struct {
	name      string
	condition string
	build     func(w types.WorkItem) []types.Detection
}{
	{
		name:      "excessive_handovers",
		condition: `handover_count >= t.handover_count`,
		build: func(w types.WorkItem) []types.Detection {
			return []types.Detection{newDetection(
				types.TypeExcessiveHandovers,
				w.ID, w.Type, itemName(w),
				minF(float64(w.HandoverCount)/8, 1.0),
				float64(w.HandoverCount)*15,
				f(float64(w.HandoverCount)), f(2),
				fmt.Sprintf("%s %s has %d handovers - workflow inefficiency", title(w.Type), w.ID, w.HandoverCount),
			)}
		},
	},
	{
		name:      "rework",
		condition: `rework_count >= t.rework_count`,
		build: func(w types.WorkItem) []types.Detection {
			return []types.Detection{newDetection(
				types.TypeRework,
				w.ID, w.Type, itemName(w),
				minF(float64(w.ReworkCount)/5, 1.0),
				float64(w.ReworkCount)*25,
				f(float64(w.ReworkCount)), f(0),
				fmt.Sprintf("%s %s reworked %d times - quality issue", title(w.Type), w.ID, w.ReworkCount),
			)}
		},
	},
	{
		name:      "bounce",
		condition: `bounce_count >= t.bounce_count`,
		build: func(w types.WorkItem) []types.Detection {
			return []types.Detection{newDetection(
				types.TypeBounce,
				w.ID, w.Type, itemName(w),
				minF(float64(w.BounceCount)/5, 1.0),
				float64(w.BounceCount)*20,
				f(float64(w.BounceCount)), f(0),
				fmt.Sprintf("%s %s bounced between teams %d times", title(w.Type), w.ID, w.BounceCount),
			)}
		},
	},
	{
		name:      "escalation",
		condition: `escalation_count >= t.escalation_count`,
		build: func(w types.WorkItem) []types.Detection {
			return []types.Detection{newDetection(
				types.TypeEscalation,
				w.ID, w.Type, itemName(w),
				minF(float64(w.EscalationCount)/4, 1.0),
				float64(w.EscalationCount)*20,
				f(float64(w.EscalationCount)), f(1),
				fmt.Sprintf("%s %s escalated %d times", title(w.Type), w.ID, w.EscalationCount),
			)}
		},
	},
	{
		name:      "wait_time",
		condition: `wait_time_minutes >= t.wait_time_minutes`,
		build: func(w types.WorkItem) []types.Detection {
			return []types.Detection{newDetection(
				types.TypeWaitTime,
				w.ID, w.Type, itemName(w),
				minF(w.WaitMinutes/120, 1.0),
				w.WaitMinutes,
				f(w.WaitMinutes), f(0),
				fmt.Sprintf("%s %s waiting for %.0f minutes", title(w.Type), w.ID, w.WaitMinutes),
			)}
		},
	},
	{
		name:      "sla_breach",
		condition: `has_sla and sla_percent_remaining <= 0.0`,
		build: func(w types.WorkItem) []types.Detection {
			remaining := *w.SLARemainingMinutes
			return []types.Detection{newDetection(
				types.TypeSLABreach,
				w.ID, w.Type, itemName(w),
				1.0,
				absF(remaining),
				f(remaining), f(w.SLATargetMinutes),
				fmt.Sprintf("%s %s breached SLA by %.0f minutes", title(w.Type), w.ID, absF(remaining)),
			)}
		},
	},
	{
		name:      "sla_risk",
		condition: `has_sla and sla_percent_remaining > 0.0 and sla_percent_remaining <= t.sla_remaining_percent`,
		build: func(w types.WorkItem) []types.Detection {
			remaining := *w.SLARemainingMinutes
			pct := remaining / w.SLATargetMinutes * 100
			return []types.Detection{newDetection(
				types.TypeSLARisk,
				w.ID, w.Type, itemName(w),
				minF((20-pct)/20+0.5, 1.0),
				20-pct,
				f(remaining), f(w.SLATargetMinutes),
				fmt.Sprintf("%s %s at SLA risk - %.0f minutes remaining", title(w.Type), w.ID, remaining),
			)}
		},
	},
	{
		name:      "blocked_status",
		condition: `status in ["blocked", "stuck", "on_hold"]`,
		build: func(w types.WorkItem) []types.Detection {
			return []types.Detection{newDetection(
				types.TypeBlocked,
				w.ID, w.Type, itemName(w),
				0.7,
				100,
				nil, nil,
				fmt.Sprintf("%s %s is %s", title(w.Type), w.ID, w.Status),
			)}
		},
	},
}

func itemName(w types.WorkItem) string {
	if w.Name != "" {
		return w.Name
	}
	return fmt.Sprintf("%s %s", title(w.Type), w.ID)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

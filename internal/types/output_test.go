package types

import "testing"

func TestSeverityFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  SeverityLevel
	}{
		{0.0, SeverityLow},
		{0.29, SeverityLow},
		{0.3, SeverityMedium},
		{0.59, SeverityMedium},
		{0.6, SeverityHigh},
		{0.84, SeverityHigh},
		{0.85, SeverityCritical},
		{1.0, SeverityCritical},
		{-0.5, SeverityLow},  // clamped
		{1.7, SeverityCritical}, // clamped
	}

	for _, tt := range tests {
		if got := SeverityFromScore(tt.score); got != tt.want {
			t.Errorf("SeverityFromScore(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestClampSeverity(t *testing.T) {
	if got := ClampSeverity(-1); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := ClampSeverity(2); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	if got := ClampSeverity(0.42); got != 0.42 {
		t.Errorf("expected 0.42, got %v", got)
	}
}

func TestActionStatusTransitions(t *testing.T) {
	tests := []struct {
		from ActionStatus
		to   ActionStatus
		want bool
	}{
		{ActionPending, ActionApproved, true},
		{ActionPending, ActionExecuting, true},
		{ActionPending, ActionCompleted, true},
		{ActionPending, ActionFailed, true},
		{ActionPending, ActionSkipped, true},
		{ActionApproved, ActionPending, false},
		{ActionApproved, ActionExecuting, true},
		{ActionExecuting, ActionCompleted, true},
		{ActionExecuting, ActionFailed, true},
		{ActionExecuting, ActionPending, false},
		{ActionExecuting, ActionApproved, false},
		{ActionCompleted, ActionPending, false},
		{ActionCompleted, ActionFailed, false},
		{ActionFailed, ActionCompleted, false},
		{ActionSkipped, ActionExecuting, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIDPrefixes(t *testing.T) {
	tests := []struct {
		id     string
		prefix string
		length int
	}{
		{NewDetectionID(), "det-", len("det-") + 12},
		{NewExplanationID(), "rca-", len("rca-") + 8},
		{NewPlanID(), "plan-", len("plan-") + 8},
		{NewActionID(), "act-", len("act-") + 8},
		{NewPipelineID(), "pipeline-", len("pipeline-") + 12},
	}

	for _, tt := range tests {
		if len(tt.id) != tt.length {
			t.Errorf("id %q: expected length %d, got %d", tt.id, tt.length, len(tt.id))
		}
		if tt.id[:len(tt.prefix)] != tt.prefix {
			t.Errorf("id %q: expected prefix %q", tt.id, tt.prefix)
		}
	}

	if NewDetectionID() == NewDetectionID() {
		t.Error("expected unique ids")
	}
}

package orchestrator

import "strings"

// AutonomyMode controls how far a pipeline run is allowed to go.
//
//	ASSIST: detect, explain and recommend only
//	COPILOT: stage actions and wait for human approval
//	FULL_AUTO: execute corrective actions autonomously
type AutonomyMode string

const (
	ModeAssist   AutonomyMode = "ASSIST"
	ModeCopilot  AutonomyMode = "COPILOT"
	ModeFullAuto AutonomyMode = "FULL_AUTO"
)

// ParseMode normalizes a mode string. Unknown values fall back to
// FULL_AUTO.
func ParseMode(s string) AutonomyMode {
	switch AutonomyMode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeAssist:
		return ModeAssist
	case ModeCopilot:
		return ModeCopilot
	case ModeFullAuto:
		return ModeFullAuto
	default:
		return ModeFullAuto
	}
}

// ModeConfig describes what a mode permits.
type ModeConfig struct {
	CanExecute       bool   `json:"can_execute"`
	RequiresApproval bool   `json:"requires_approval"`
	Description      string `json:"description"`
}

var modeConfigs = map[AutonomyMode]ModeConfig{
	ModeAssist: {
		CanExecute:       false,
		RequiresApproval: false,
		Description:      "Detection and recommendations only - no automatic execution",
	},
	ModeCopilot: {
		CanExecute:       true,
		RequiresApproval: true,
		Description:      "Full analysis with execution after human approval",
	},
	ModeFullAuto: {
		CanExecute:       true,
		RequiresApproval: false,
		Description:      "Complete autonomous operation - detect, reason, plan, execute",
	},
}

// Config returns the permissions for the mode.
func (m AutonomyMode) Config() ModeConfig {
	if cfg, ok := modeConfigs[m]; ok {
		return cfg
	}
	return modeConfigs[ModeFullAuto]
}

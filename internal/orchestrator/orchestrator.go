// Package orchestrator runs the full analysis pipeline: normalize,
// detect, map dependencies, explain, price, plan, execute, learn. How far
// a run goes is governed by the autonomy mode.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aoia/engine/internal/detector"
	"github.com/aoia/engine/internal/graph"
	"github.com/aoia/engine/internal/ingestion"
	"github.com/aoia/engine/internal/loss"
	"github.com/aoia/engine/internal/metrics"
	"github.com/aoia/engine/internal/optimizer"
	"github.com/aoia/engine/internal/types"
)

// Options configures a new Orchestrator.
type Options struct {
	Mode       AutonomyMode
	Policy     optimizer.ExecutionPolicy
	Thresholds *detector.Thresholds
}

// Orchestrator owns the agents and coordinates pipeline runs. Safe for
// concurrent use.
type Orchestrator struct {
	mu      sync.RWMutex
	mode    AutonomyMode
	actions map[string]*types.ExecutionAction

	detector  *detector.Detector
	graph     *graph.Engine
	estimator *loss.Estimator
	optimizer *optimizer.Optimizer
	history   *lossHistory

	logger zerolog.Logger
}

// New wires up all agents.
func New(opts Options, logger zerolog.Logger) (*Orchestrator, error) {
	log := logger.With().Str("component", "orchestrator").Logger()

	thresholds := detector.DefaultThresholds()
	if opts.Thresholds != nil {
		thresholds = *opts.Thresholds
	}
	det, err := detector.NewWithThresholds(thresholds, logger)
	if err != nil {
		return nil, fmt.Errorf("init detector: %w", err)
	}

	est, err := loss.NewEstimator(logger)
	if err != nil {
		return nil, fmt.Errorf("init loss estimator: %w", err)
	}

	opt, err := optimizer.New(opts.Policy, logger)
	if err != nil {
		return nil, fmt.Errorf("init optimizer: %w", err)
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeFullAuto
	}

	return &Orchestrator{
		mode:      mode,
		actions:   make(map[string]*types.ExecutionAction),
		detector:  det,
		graph:     graph.New(logger),
		estimator: est,
		optimizer: opt,
		history:   &lossHistory{},
		logger:    log,
	}, nil
}

// Mode returns the current autonomy mode.
func (o *Orchestrator) Mode() AutonomyMode {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.mode
}

// SetMode switches the autonomy mode and returns its configuration.
func (o *Orchestrator) SetMode(s string) (AutonomyMode, ModeConfig) {
	mode := ParseMode(s)
	o.mu.Lock()
	o.mode = mode
	o.mu.Unlock()
	o.logger.Info().Str("mode", string(mode)).Msg("autonomy mode changed")
	return mode, mode.Config()
}

// RunPipeline executes one full analysis over the raw snapshot. Stage
// failures are collected rather than aborting the run; a panic anywhere
// yields a failed output with empty payload.
func (o *Orchestrator) RunPipeline(ctx context.Context, raw ingestion.RawSnapshot) (out types.PipelineOutput) {
	start := time.Now()
	pipelineID := types.NewPipelineID()

	mode := o.Mode()
	if raw.AutonomyMode != "" {
		mode, _ = o.SetMode(raw.AutonomyMode)
	}

	snap := ingestion.Normalize(raw)
	industry := snap.Business.Industry

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Interface("panic", r).Str("pipeline_id", pipelineID).Msg("pipeline panicked")
			out = types.PipelineOutput{
				PipelineID:   pipelineID,
				AutonomyMode: string(mode),
				Industry:     industry,
				Status:       types.RunFailed,
				Errors:       []string{fmt.Sprintf("pipeline panic: %v", r)},
				Timestamp:    time.Now(),
			}
			out.ProcessingTimeMS = float64(time.Since(start).Microseconds()) / 1000
			metrics.Get().RecordPipelineRun(types.RunFailed, time.Since(start), 0, 0)
		}
	}()

	o.logger.Info().
		Str("pipeline_id", pipelineID).
		Str("industry", industry).
		Str("mode", string(mode)).
		Msg("pipeline started")

	var errs []string

	detections, err := o.detector.Detect(snap)
	if err != nil {
		errs = append(errs, "Detection: "+err.Error())
	}
	for _, d := range detections {
		metrics.Get().RecordDetection(d.Type)
	}

	o.graph.Ingest(snap)
	impact := o.graph.Impact(detectionSeeds(detections), 3)

	rootCauses := make([]types.RootCauseExplanation, 0, len(detections))
	for _, d := range detections {
		rootCauses = append(rootCauses, explainDetection(d, impact))
	}

	financialLoss := o.estimator.Estimate(detections, snap.Business)
	o.history.record(financialLoss.TotalLoss)

	lossByID := make(map[string]float64, len(detections))
	for _, d := range detections {
		lossByID[d.ID] = o.estimator.Calculate(d, snap.Business).Loss
	}
	recommendations := o.optimizer.Recommend(detections, lossByID, snap.Business.Efficiency)

	plan := buildPlan(detections, financialLoss.TotalLoss)
	plan.EstimatedImpact["optimization_score"] = recommendations.OptimizationScore
	plan.EstimatedImpact["total_potential_savings"] = recommendations.TotalPotentialSavings

	var actions []types.ExecutionAction
	cfg := mode.Config()
	if cfg.CanExecute && !raw.DryRun {
		if err := ctx.Err(); err != nil {
			errs = append(errs, "Execution: "+err.Error())
		} else if cfg.RequiresApproval {
			actions = o.stageActions(plan)
		} else {
			actions = o.executeActions(plan)
		}
	}

	baselines := o.learn(detections, actions)

	status := types.RunCompleted
	if len(errs) > 0 {
		status = types.RunCompletedWithErrors
	}

	elapsed := time.Since(start)
	metrics.Get().RecordPipelineRun(status, elapsed, len(detections), len(actions))

	o.logger.Info().
		Str("pipeline_id", pipelineID).
		Int("detections", len(detections)).
		Int("actions", len(actions)).
		Str("status", status).
		Dur("elapsed", elapsed).
		Msg("pipeline finished")

	if errs == nil {
		errs = []string{}
	}

	return types.PipelineOutput{
		PipelineID:       pipelineID,
		AutonomyMode:     string(mode),
		Industry:         industry,
		ProcessingTimeMS: float64(elapsed.Microseconds()) / 1000,
		Status:           status,
		Errors:           errs,
		Inefficiencies:   detections,
		RootCauses:       rootCauses,
		Recommendations:  recommendations.Recommendations,
		FinancialLoss:    &financialLoss,
		OptimizationPlan: plan,
		ActionsExecuted:  actions,
		UpdatedBaselines: baselines,
		Timestamp:        time.Now(),
	}
}

// detectionSeeds collects concrete node ids from detections; system-wide
// detections have no single seed location.
func detectionSeeds(detections []types.Detection) []string {
	var seeds []string
	seen := make(map[string]bool)
	for _, d := range detections {
		if d.LocationID == "" || d.LocationID == "all_entities" || seen[d.LocationID] {
			continue
		}
		seen[d.LocationID] = true
		seeds = append(seeds, d.LocationID)
	}
	return seeds
}

// stageActions creates pending actions awaiting approval.
func (o *Orchestrator) stageActions(plan *types.OptimizationPlan) []types.ExecutionAction {
	var actions []types.ExecutionAction
	for _, s := range slots(plan) {
		action := types.ExecutionAction{
			ID:               types.NewActionID(),
			ActionType:       s.actionType,
			TargetID:         strings.Join(s.action.Targets, ", "),
			TargetType:       s.targetType,
			Parameters:       slotParameters(s),
			Reason:           s.reason,
			Status:           types.ActionPending,
			CreatedAt:        time.Now(),
			RequiresApproval: true,
		}
		o.registerAction(action)
		actions = append(actions, action)
	}
	return actions
}

// executeActions runs every plan slot through the optimizer.
func (o *Orchestrator) executeActions(plan *types.OptimizationPlan) []types.ExecutionAction {
	var actions []types.ExecutionAction

	savings, _ := plan.EstimatedImpact["potential_savings"].(float64)
	active := slots(plan)
	perSlot := 10000.0
	if len(active) > 0 && savings > 0 {
		perSlot = savings / float64(len(active))
	}

	for _, s := range active {
		result := o.optimizer.Execute(s.optimizerAction, perSlot)
		now := time.Now()

		action := types.ExecutionAction{
			ID:          types.NewActionID(),
			ActionType:  s.actionType,
			TargetID:    strings.Join(s.action.Targets, ", "),
			TargetType:  s.targetType,
			Parameters:  slotParameters(s),
			Reason:      s.reason,
			CreatedAt:   now,
			ExecutedAt:  &now,
			CompletedAt: &now,
		}
		if result.Success {
			action.Status = types.ActionCompleted
			action.Result = s.successMsg
		} else {
			action.Status = types.ActionFailed
			action.Error = result.Message
			metrics.Get().RecordActionFailure()
		}
		o.registerAction(action)
		actions = append(actions, action)
	}
	return actions
}

func slotParameters(s planSlot) map[string]interface{} {
	params := map[string]interface{}{
		"action":  s.action.Action,
		"targets": s.action.Targets,
	}
	if s.action.NewPriority != "" {
		params["new_priority"] = s.action.NewPriority
	}
	if s.action.Urgency != "" {
		params["urgency"] = s.action.Urgency
	}
	return params
}

func (o *Orchestrator) registerAction(action types.ExecutionAction) {
	copied := action
	o.mu.Lock()
	o.actions[action.ID] = &copied
	o.mu.Unlock()
}

// ApproveAction executes a previously staged action. Only actions in the
// pending state can be approved.
func (o *Orchestrator) ApproveAction(actionID string) (types.ExecutionAction, error) {
	o.mu.Lock()
	action, ok := o.actions[actionID]
	if !ok {
		o.mu.Unlock()
		return types.ExecutionAction{}, fmt.Errorf("action %s not found", actionID)
	}
	if !action.Status.CanTransition(types.ActionApproved) {
		o.mu.Unlock()
		return *action, fmt.Errorf("action %s is %s, cannot approve", actionID, action.Status)
	}
	action.Status = types.ActionExecuting
	o.mu.Unlock()

	opt := optimizerActionFor(action.ActionType)
	result := o.optimizer.Execute(opt, 10000)

	now := time.Now()
	o.mu.Lock()
	defer o.mu.Unlock()
	action.ExecutedAt = &now
	action.CompletedAt = &now
	if result.Success {
		action.Status = types.ActionCompleted
		action.Result = result.Message
	} else {
		action.Status = types.ActionFailed
		action.Error = result.Message
		metrics.Get().RecordActionFailure()
	}
	return *action, nil
}

// GetAction returns a staged or executed action by id.
func (o *Orchestrator) GetAction(actionID string) (types.ExecutionAction, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if a, ok := o.actions[actionID]; ok {
		return *a, true
	}
	return types.ExecutionAction{}, false
}

func optimizerActionFor(actionType string) string {
	switch actionType {
	case "REBALANCE_LOAD", "REASSIGN":
		return "REBALANCE_WORKLOAD"
	case "PRIORITIZE", "REROUTE":
		return "ADJUST_ROUTING"
	case "ADD_CAPACITY":
		return "RESOURCE_ALLOCATION"
	default:
		return "ALERT_SUPERVISOR"
	}
}

// Simulate projects the effect of an action without executing it.
func (o *Orchestrator) Simulate(actionType, target string, severityMultiplier float64) optimizer.SimulationResult {
	return o.optimizer.Simulate(actionType, target, severityMultiplier)
}

// learn records run outcomes. Numeric baseline adjustment is an
// extension point; notes capture what happened.
func (o *Orchestrator) learn(detections []types.Detection, actions []types.ExecutionAction) *types.UpdatedBaselines {
	var notes []string

	successful := 0
	for _, a := range actions {
		if a.Status == types.ActionCompleted {
			successful++
		}
	}
	if successful > 0 {
		notes = append(notes, fmt.Sprintf("Successfully executed %d corrective actions", successful))
	}

	if report := o.history.trend(); report.DataPoints > 1 && report.Trend != "stable" {
		notes = append(notes, fmt.Sprintf("Loss trend %s across %d runs", report.Trend, report.DataPoints))
	}

	return &types.UpdatedBaselines{
		BaselineUpdates:  map[string]float64{},
		ThresholdUpdates: map[string]float64{},
		LearningNotes:    notes,
	}
}

// StatusReport is the engine's operational snapshot.
type StatusReport struct {
	Mode           AutonomyMode `json:"mode"`
	ModeConfig     ModeConfig   `json:"mode_config"`
	Graph          graph.Stats  `json:"graph"`
	LossTrend      TrendReport  `json:"loss_trend"`
	PendingActions int          `json:"pending_actions"`
}

// Status reports the current mode, graph size, loss trend and pending
// approvals.
func (o *Orchestrator) Status() StatusReport {
	o.mu.RLock()
	pending := 0
	for _, a := range o.actions {
		if a.Status == types.ActionPending {
			pending++
		}
	}
	mode := o.mode
	o.mu.RUnlock()

	return StatusReport{
		Mode:           mode,
		ModeConfig:     mode.Config(),
		Graph:          o.graph.Stats(),
		LossTrend:      o.history.trend(),
		PendingActions: pending,
	}
}

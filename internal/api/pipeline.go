package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aoia/engine/internal/ingestion"
	"github.com/aoia/engine/internal/metrics"
	"github.com/aoia/engine/internal/orchestrator"
	"github.com/aoia/engine/internal/websocket"
)

// PipelineHandler exposes the analysis engine over HTTP
type PipelineHandler struct {
	orch    *orchestrator.Orchestrator
	hub     *websocket.Hub
	timeout time.Duration
	logger  zerolog.Logger
}

// NewPipelineHandler creates a new PipelineHandler
func NewPipelineHandler(orch *orchestrator.Orchestrator, hub *websocket.Hub, timeout time.Duration, logger zerolog.Logger) *PipelineHandler {
	return &PipelineHandler{
		orch:    orch,
		hub:     hub,
		timeout: timeout,
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// HandleRun handles POST /api/pipeline/run
func (h *PipelineHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var raw ingestion.RawSnapshot
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	out := h.orch.RunPipeline(ctx, raw)

	// Push the result to all live subscribers
	if h.hub != nil {
		if data, err := json.Marshal(out); err == nil {
			h.hub.Broadcast(data)
		} else {
			h.logger.Error().Err(err).Msg("failed to marshal pipeline output for broadcast")
		}
	}

	h.logger.Info().
		Str("pipeline_id", out.PipelineID).
		Str("status", out.Status).
		Int("detections", len(out.Inefficiencies)).
		Msg("pipeline run served")

	metrics.Get().RecordHTTPRequest("/api/pipeline/run", http.StatusOK, time.Since(start))
	writeJSON(w, http.StatusOK, out)
}

// HandleGetMode handles GET /api/pipeline/mode
func (h *PipelineHandler) HandleGetMode(w http.ResponseWriter, r *http.Request) {
	mode := h.orch.Mode()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mode":   mode,
		"config": mode.Config(),
	})
}

// HandleSetMode handles POST /api/pipeline/mode
func (h *PipelineHandler) HandleSetMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Mode == "" {
		http.Error(w, "invalid JSON: mode required", http.StatusBadRequest)
		return
	}

	mode, cfg := h.orch.SetMode(body.Mode)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mode":    mode,
		"config":  cfg,
		"message": "Mode set to " + string(mode) + ": " + cfg.Description,
	})
}

// HandleStatus handles GET /api/pipeline/status
func (h *PipelineHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Status())
}

// HandleApproveAction handles POST /api/pipeline/actions/{actionID}/approve
func (h *PipelineHandler) HandleApproveAction(w http.ResponseWriter, r *http.Request) {
	actionID := chi.URLParam(r, "actionID")

	action, err := h.orch.ApproveAction(actionID)
	if err != nil {
		if _, ok := h.orch.GetAction(actionID); !ok {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	h.logger.Info().
		Str("action_id", actionID).
		Str("status", string(action.Status)).
		Msg("action approved")

	writeJSON(w, http.StatusOK, action)
}

// HandleSimulate handles POST /api/pipeline/simulate
func (h *PipelineHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ActionType         string  `json:"action_type"`
		Target             string  `json:"target"`
		SeverityMultiplier float64 `json:"severity_multiplier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ActionType == "" {
		http.Error(w, "invalid JSON: action_type required", http.StatusBadRequest)
		return
	}

	result := h.orch.Simulate(body.ActionType, body.Target, body.SeverityMultiplier)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aoia/engine/internal/orchestrator"
	"github.com/aoia/engine/internal/types"
)

const snapshotBody = `{
	"entities": [
		{"entity_id": "Agent_23", "entity_name": "Agent 23", "entity_type": "agent", "state": "busy", "load_percent": 92, "queue_size": 8}
	],
	"work_items": [
		{"item_id": "TCK-1042", "item_type": "ticket", "status": "in_progress", "assigned_to": "Agent_23", "sla_target_minutes": 45, "sla_remaining_minutes": -2}
	],
	"business": {"industry": "BPO", "cost_per_hour": 720}
}`

func newTestHandler(t *testing.T, mode orchestrator.AutonomyMode) *PipelineHandler {
	t.Helper()
	orch, err := orchestrator.New(orchestrator.Options{Mode: mode}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	return NewPipelineHandler(orch, nil, 5*time.Second, zerolog.Nop())
}

func newTestRouter(h *PipelineHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/api/pipeline/run", h.HandleRun)
	r.Get("/api/pipeline/mode", h.HandleGetMode)
	r.Post("/api/pipeline/mode", h.HandleSetMode)
	r.Get("/api/pipeline/status", h.HandleStatus)
	r.Post("/api/pipeline/actions/{actionID}/approve", h.HandleApproveAction)
	r.Post("/api/pipeline/simulate", h.HandleSimulate)
	return r
}

func TestHandleRun(t *testing.T) {
	h := newTestHandler(t, orchestrator.ModeFullAuto)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/pipeline/run", strings.NewReader(snapshotBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var out types.PipelineOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if out.Status != types.RunCompleted {
		t.Errorf("expected status %s, got %s", types.RunCompleted, out.Status)
	}
	if len(out.Inefficiencies) == 0 {
		t.Error("expected detections for a stressed snapshot")
	}
	if out.PipelineID == "" {
		t.Error("expected non-empty pipeline id")
	}
}

func TestHandleRunInvalidJSON(t *testing.T) {
	h := newTestHandler(t, orchestrator.ModeFullAuto)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/pipeline/run", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleGetMode(t *testing.T) {
	h := newTestHandler(t, orchestrator.ModeCopilot)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/pipeline/mode", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["mode"] != string(orchestrator.ModeCopilot) {
		t.Errorf("expected mode COPILOT, got %v", resp["mode"])
	}
}

func TestHandleSetMode(t *testing.T) {
	h := newTestHandler(t, orchestrator.ModeFullAuto)
	router := newTestRouter(h)

	body := `{"mode": "assist"}`
	req := httptest.NewRequest(http.MethodPost, "/api/pipeline/mode", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["mode"] != string(orchestrator.ModeAssist) {
		t.Errorf("expected mode ASSIST, got %v", resp["mode"])
	}
	if h.orch.Mode() != orchestrator.ModeAssist {
		t.Errorf("expected orchestrator mode to change, got %s", h.orch.Mode())
	}
}

func TestHandleSetModeMissingBody(t *testing.T) {
	h := newTestHandler(t, orchestrator.ModeFullAuto)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/pipeline/mode", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	h := newTestHandler(t, orchestrator.ModeFullAuto)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/pipeline/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["mode"] != string(orchestrator.ModeFullAuto) {
		t.Errorf("expected mode FULL_AUTO, got %v", resp["mode"])
	}
}

func TestHandleApproveActionFlow(t *testing.T) {
	h := newTestHandler(t, orchestrator.ModeCopilot)
	router := newTestRouter(h)

	// Seed pending actions via a pipeline run in copilot mode
	req := httptest.NewRequest(http.MethodPost, "/api/pipeline/run", strings.NewReader(snapshotBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("pipeline run failed: %d", rec.Code)
	}

	var out types.PipelineOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse run response: %v", err)
	}
	if len(out.ActionsExecuted) == 0 {
		t.Fatal("expected staged actions in copilot mode")
	}
	actionID := out.ActionsExecuted[0].ID

	req = httptest.NewRequest(http.MethodPost, "/api/pipeline/actions/"+actionID+"/approve", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var action types.ExecutionAction
	if err := json.Unmarshal(rec.Body.Bytes(), &action); err != nil {
		t.Fatalf("failed to parse approve response: %v", err)
	}
	if action.Status != types.ActionCompleted {
		t.Errorf("expected action status completed, got %s", action.Status)
	}

	// Approving again conflicts
	req = httptest.NewRequest(http.MethodPost, "/api/pipeline/actions/"+actionID+"/approve", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected status 409 on re-approval, got %d", rec.Code)
	}
}

func TestHandleApproveActionUnknown(t *testing.T) {
	h := newTestHandler(t, orchestrator.ModeCopilot)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/pipeline/actions/nope/approve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleSimulate(t *testing.T) {
	h := newTestHandler(t, orchestrator.ModeFullAuto)
	router := newTestRouter(h)

	body := `{"action_type": "REBALANCE_WORKLOAD", "target": "Agent_23", "severity_multiplier": 1.0}`
	req := httptest.NewRequest(http.MethodPost, "/api/pipeline/simulate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["recommendation"] == nil {
		t.Error("expected a recommendation in the simulation result")
	}
}

func TestHandleSimulateMissingActionType(t *testing.T) {
	h := newTestHandler(t, orchestrator.ModeFullAuto)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/pipeline/simulate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

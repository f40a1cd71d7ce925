package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/services"
)

// RunDispatcher hands a pending run to the extraction worker pool.
type RunDispatcher interface {
	Dispatch(ctx context.Context, run *models.ExtractionRun)
}

// RunsHandler exposes extraction runs and their audit trail over HTTP.
type RunsHandler struct {
	lifecycle  services.ExtractionLifecycle
	trail      services.AuditTrail
	dispatcher RunDispatcher
	logger     *zap.Logger
}

// NewRunsHandler creates a new runs handler. dispatcher may be nil, in which
// case manually triggered runs stay pending until picked up elsewhere.
func NewRunsHandler(lifecycle services.ExtractionLifecycle, trail services.AuditTrail, dispatcher RunDispatcher, logger *zap.Logger) *RunsHandler {
	return &RunsHandler{
		lifecycle:  lifecycle,
		trail:      trail,
		dispatcher: dispatcher,
		logger:     logger.Named("runs-handler"),
	}
}

// RegisterRoutes registers run and audit trail routes.
func (h *RunsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/runs/{id}", h.handleGetRun)
	mux.HandleFunc("GET /api/runs/{id}/audit", h.handleRunAudit)
	mux.HandleFunc("POST /api/contracts/{id}/runs", h.handleTrigger)
	mux.HandleFunc("GET /api/contracts/{id}/runs", h.handleListRuns)
	mux.HandleFunc("GET /api/contracts/{id}/audit", h.handleContractAudit)
}

func (h *RunsHandler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	run, err := h.lifecycle.GetRun(r.Context(), id)
	if err != nil {
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, run)
}

func (h *RunsHandler) handleRunAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	entries, err := h.trail.FindByRun(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load run audit trail", zap.Error(err))
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (h *RunsHandler) handleTrigger(w http.ResponseWriter, r *http.Request) {
	contractID, ok := parseID(w, r)
	if !ok {
		return
	}

	var req struct {
		RequestedBy string            `json:"requested_by,omitempty"`
		Mode        models.ReviewMode `json:"mode,omitempty"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
			return
		}
	}

	requestedBy := uuid.Nil
	if req.RequestedBy != "" {
		parsed, err := uuid.Parse(req.RequestedBy)
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid requested_by")
			return
		}
		requestedBy = parsed
	}

	ctx := models.WithAPIActor(r.Context(), requestedBy)
	run, err := h.lifecycle.Trigger(ctx, contractID, requestedBy, req.Mode)
	if err != nil {
		_ = WriteDomainError(w, err)
		return
	}

	if h.dispatcher != nil {
		// Processing outlives the request; only the cancellation is detached,
		// actor provenance stays on the context.
		h.dispatcher.Dispatch(context.WithoutCancel(ctx), run)
	}

	_ = WriteJSON(w, http.StatusCreated, run)
}

func (h *RunsHandler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	contractID, ok := parseID(w, r)
	if !ok {
		return
	}

	runs, err := h.lifecycle.ListRuns(r.Context(), contractID)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (h *RunsHandler) handleContractAudit(w http.ResponseWriter, r *http.Request) {
	contractID, ok := parseID(w, r)
	if !ok {
		return
	}

	entries, err := h.trail.FindByContract(r.Context(), contractID)
	if err != nil {
		h.logger.Error("Failed to load contract audit trail", zap.Error(err))
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

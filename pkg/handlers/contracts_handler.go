package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/services"
)

// ContractsHandler exposes contract management over HTTP.
type ContractsHandler struct {
	contracts services.ContractService
	logger    *zap.Logger
}

// NewContractsHandler creates a new contracts handler.
func NewContractsHandler(contracts services.ContractService, logger *zap.Logger) *ContractsHandler {
	return &ContractsHandler{
		contracts: contracts,
		logger:    logger.Named("contracts-handler"),
	}
}

// RegisterRoutes registers contract routes.
func (h *ContractsHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/contracts"
	mux.HandleFunc("GET "+base, h.handleList)
	mux.HandleFunc("POST "+base, h.handleCreate)
	mux.HandleFunc("GET "+base+"/{id}", h.handleGet)
	mux.HandleFunc("PUT "+base+"/{id}", h.handleUpdate)
	mux.HandleFunc("PUT "+base+"/{id}/status", h.handleUpdateStatus)
	mux.HandleFunc("DELETE "+base+"/{id}", h.handleDelete)
}

type contractRequest struct {
	Name         string  `json:"name"`
	ContractType string  `json:"contract_type"`
	AttachmentID *string `json:"attachment_id,omitempty"`
	CreatedBy    string  `json:"created_by,omitempty"`
}

func (h *ContractsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid limit")
			return
		}
		limit = parsed
	}

	contracts, err := h.contracts.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list contracts", zap.Error(err))
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]interface{}{"contracts": contracts})
}

func (h *ContractsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req contractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	createdBy := uuid.Nil
	if req.CreatedBy != "" {
		parsed, err := uuid.Parse(req.CreatedBy)
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid created_by")
			return
		}
		createdBy = parsed
	}

	ctx := models.WithAPIActor(r.Context(), createdBy)
	contract, err := h.contracts.Create(ctx, req.Name, req.ContractType, req.AttachmentID, createdBy)
	if err != nil {
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, contract)
}

func (h *ContractsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	contract, err := h.contracts.Get(r.Context(), id)
	if err != nil {
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, contract)
}

func (h *ContractsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req contractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	contract, err := h.contracts.Update(r.Context(), id, req.Name, req.ContractType, req.AttachmentID)
	if err != nil {
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, contract)
}

func (h *ContractsHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req struct {
		Status models.ContractStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	contract, err := h.contracts.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, contract)
}

func (h *ContractsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.contracts.Delete(r.Context(), id); err != nil {
		_ = WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

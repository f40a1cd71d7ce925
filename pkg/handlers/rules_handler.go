package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clausewise/clausewise-engine/pkg/models"
	"github.com/clausewise/clausewise-engine/pkg/services"
)

// RulesHandler exposes the review rule catalog over HTTP.
type RulesHandler struct {
	rules  services.RuleService
	logger *zap.Logger
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(rules services.RuleService, logger *zap.Logger) *RulesHandler {
	return &RulesHandler{
		rules:  rules,
		logger: logger.Named("rules-handler"),
	}
}

// RegisterRoutes registers rule catalog routes.
func (h *RulesHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/rules"
	mux.HandleFunc("GET "+base, h.handleList)
	mux.HandleFunc("POST "+base, h.handleCreate)
	mux.HandleFunc("GET "+base+"/{id}", h.handleGet)
	mux.HandleFunc("PUT "+base+"/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE "+base+"/{id}", h.handleDelete)
	mux.HandleFunc("POST "+base+"/{id}/enable", h.handleEnable)
	mux.HandleFunc("POST "+base+"/{id}/disable", h.handleDisable)
}

type ruleRequest struct {
	Name          string            `json:"name"`
	RuleType      models.RuleType   `json:"rule_type"`
	ContractTypes models.TypeSet    `json:"contract_types"`
	ClauseTypes   models.TypeSet    `json:"clause_types"`
	Content       string            `json:"content"`
	Mode          models.ReviewMode `json:"mode"`
	Remark        *string           `json:"remark,omitempty"`
}

func (h *RulesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list rules", zap.Error(err))
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]interface{}{"rules": rules})
}

func (h *RulesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	rule, err := h.rules.Create(r.Context(), req.Name, req.RuleType, req.ContractTypes, req.ClauseTypes, req.Content, req.Mode, req.Remark)
	if err != nil {
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, rule)
}

func (h *RulesHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	rule, err := h.rules.Get(r.Context(), id)
	if err != nil {
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, rule)
}

func (h *RulesHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	rule, err := h.rules.Update(r.Context(), id, req.Name, req.RuleType, req.ContractTypes, req.ClauseTypes, req.Content, req.Mode, req.Remark)
	if err != nil {
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, rule)
}

func (h *RulesHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.rules.Delete(r.Context(), id); err != nil {
		_ = WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RulesHandler) handleEnable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true)
}

func (h *RulesHandler) handleDisable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false)
}

func (h *RulesHandler) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var (
		rule *models.ReviewRule
		err  error
	)
	if enabled {
		rule, err = h.rules.Enable(r.Context(), id)
	} else {
		rule, err = h.rules.Disable(r.Context(), id)
	}
	if err != nil {
		_ = WriteDomainError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, rule)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

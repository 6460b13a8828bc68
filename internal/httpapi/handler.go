// Package httpapi exposes the chat, application and health endpoints.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/headlamp-app/headlamp/internal/domain"
	"github.com/headlamp-app/headlamp/internal/intake"
)

// ChatRequest is the inbound chat payload. Field names match the frontend's
// UserMessagePayload.
type ChatRequest struct {
	UserID           *uuid.UUID               `json:"user_id,omitempty"`
	Message          string                   `json:"message"`
	ClickedOrgIDs    []int                    `json:"clickedOrgIds,omitempty"`
	SubmitOrgIDs     []int                    `json:"doApply,omitempty"`
	ApplicationDraft *domain.ApplicationDraft `json:"applicationDraft,omitempty"`
}

// ChatResponse is the outbound chat payload, matching the frontend's
// AgentMessageResponse.
type ChatResponse struct {
	UserID           uuid.UUID                `json:"user_id"`
	Message          string                   `json:"message"`
	Orgs             []domain.OrgSummary      `json:"orgs,omitempty"`
	ApplicationDraft *domain.ApplicationDraft `json:"applicationDraft,omitempty"`
}

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Handler serves the HTTP API.
type Handler struct {
	orchestrator *intake.Orchestrator
	apps         *intake.Applications
	serviceName  string
	logger       *slog.Logger
}

// NewHandler constructs the API handler.
func NewHandler(orchestrator *intake.Orchestrator, apps *intake.Applications, serviceName string, logger *slog.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, apps: apps, serviceName: serviceName, logger: logger}
}

// Register mounts the API routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/chat", h.HandleChat)
	r.Get("/api/applications", h.HandleUserApplications)
	r.Get("/api/applications/{organizationID}", h.HandleOrganizationApplications)
	r.Get("/api/health", h.HandleHealth)
}

// HandleChat processes one chat turn.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	params := intake.ChatParams{
		Message:       req.Message,
		ClickedOrgIDs: req.ClickedOrgIDs,
		SubmitOrgIDs:  req.SubmitOrgIDs,
		Draft:         req.ApplicationDraft,
	}
	if req.UserID != nil {
		params.UserID = *req.UserID
	}

	result, err := h.orchestrator.Chat(r.Context(), params)
	if err != nil {
		h.writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		UserID:           result.UserID,
		Message:          result.Message,
		Orgs:             result.Orgs,
		ApplicationDraft: result.Draft,
	})
}

func (h *Handler) writeChatError(w http.ResponseWriter, err error) {
	h.logger.Error("chat turn failed",
		slog.String("error", err.Error()))

	if domain.IsValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

// HandleUserApplications lists applications for the user_id query parameter.
func (h *Handler) HandleUserApplications(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "user_id must be a valid UUID")
		return
	}

	apps, err := h.apps.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list user applications", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}

	writeJSON(w, http.StatusOK, apps)
}

// HandleOrganizationApplications lists applications received by an
// organization.
func (h *Handler) HandleOrganizationApplications(w http.ResponseWriter, r *http.Request) {
	organizationID, err := strconv.Atoi(chi.URLParam(r, "organizationID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "organization id must be an integer")
		return
	}

	apps, err := h.apps.ListByOrganization(r.Context(), organizationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "organization not found")
			return
		}
		h.logger.Error("failed to list organization applications", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}

	writeJSON(w, http.StatusOK, apps)
}

// HandleHealth reports basic service health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{Status: "ok", Service: h.serviceName})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

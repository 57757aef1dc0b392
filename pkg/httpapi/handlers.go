package httpapi

import (
	"encoding/json"
	"net/http"

	"supervisor-console/pkg/engine"
	"supervisor-console/pkg/errors"
	"supervisor-console/pkg/version"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Handler serves the engine's materialized state and delegates mutations to
// the action gateway.
type Handler struct {
	engine *engine.Engine
	logger *logrus.Logger
}

// NewHandler creates a read-surface handler
func NewHandler(eng *engine.Engine, logger *logrus.Logger) *Handler {
	return &Handler{
		engine: eng,
		logger: logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// Calls returns the active-calls collection
func (h *Handler) Calls(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Store().ActiveCalls())
}

// CallDetail returns one active call
func (h *Handler) CallDetail(w http.ResponseWriter, r *http.Request) {
	callID := mux.Vars(r)["id"]
	call, ok := h.engine.Store().Call(callID)
	if !ok {
		errors.WriteError(w, errors.NewCallNotFound(callID))
		return
	}
	writeJSON(w, http.StatusOK, call)
}

// Alerts returns the active-alerts collection
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Store().ActiveAlerts())
}

// Metrics returns the metrics snapshot
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Store().Metrics())
}

// Connection reports the push-channel state
func (h *Handler) Connection(w http.ResponseWriter, r *http.Request) {
	state := h.engine.ConnectionState()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":     state.String(),
		"connected": state.String() == "connected",
	})
}

// AcknowledgeAlert acknowledges an alert via the action gateway
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	alertID := mux.Vars(r)["id"]
	if err := h.engine.Gateway().AcknowledgeAlert(r.Context(), alertID); err != nil {
		errors.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Alert acknowledged"})
}

// ResolveAlert resolves an alert via the action gateway. Notes come from the
// notes query parameter, matching the backend contract.
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	alertID := mux.Vars(r)["id"]
	notes := r.URL.Query().Get("notes")
	if err := h.engine.Gateway().ResolveAlert(r.Context(), alertID, notes); err != nil {
		errors.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Alert resolved"})
}

// PerformAction records a supervisor action against a call
func (h *Handler) PerformAction(w http.ResponseWriter, r *http.Request) {
	callID := mux.Vars(r)["id"]

	var request struct {
		Action  string `json:"action"`
		Details string `json:"details"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		errors.WriteError(w, errors.NewInvalidInput("invalid request body"))
		return
	}
	if request.Action == "" {
		errors.WriteError(w, errors.NewInvalidInput("action is required"))
		return
	}

	if err := h.engine.Gateway().PerformAction(r.Context(), callID, request.Action, request.Details); err != nil {
		errors.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Action recorded"})
}

// Health is a liveness endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"version":    version.Version,
		"connection": h.engine.ConnectionState().String(),
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxRequestBody = 64 << 10

// DashboardRequest is the body of POST /dashboard-ai.
type DashboardRequest struct {
	Query string `json:"query" example:"Montre-moi les courriers en retard"`
}

// @Summary Build an AI dashboard
// @Description Classifies the query, reads the mail KPIs and returns a widget layout with a comment. A missing or invalid body is treated as an empty query.
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param request body DashboardRequest false "Dashboard query"
// @Success 200 {object} dashboard.Response
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /dashboard-ai [post]
func (h *Handlers) DashboardAI(w http.ResponseWriter, r *http.Request) {
	var req DashboardRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.Logger.Warnf("Rejecting dashboard request body over %d bytes", tooLarge.Limit)
		respondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.Logger.Debugf("Ignoring invalid dashboard request body: %v", err)
			req = DashboardRequest{}
		}
	}

	resp, err := h.Dashboard.Analyze(r.Context(), req.Query)
	if err != nil {
		h.Logger.Errorf("Dashboard generation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

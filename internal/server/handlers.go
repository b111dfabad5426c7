package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/models"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/player"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/safety"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/service"
)

type searchRequest struct {
	Query   string                `json:"query"`
	Context *models.SearchContext `json:"context,omitempty"`
	TopK    int                   `json:"top_k,omitempty"`
}

type searchResponse struct {
	Results []models.SearchResult `json:"results"`
	Safety  *models.SafetyVerdict `json:"safety,omitempty"`
}

type nextStepRequest struct {
	SessionID  string `json:"session_id,omitempty"`
	ProtocolID string `json:"protocol_id"`
	// CurrentStep is the step the caller just completed. Omitted means the
	// walk has not started yet, so the response carries the first step.
	CurrentStep *int   `json:"current_step,omitempty"`
	Feedback    string `json:"feedback,omitempty"`
}

type nextStepResponse struct {
	SessionID string `json:"session_id"`
	models.StepResponse
}

type sessionResetRequest struct {
	SessionID string `json:"session_id"`
}

type protocolResponse struct {
	*models.Protocol
	Disclaimer string `json:"disclaimer,omitempty"`
}

type healthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Protocols      int    `json:"protocols"`
	ActiveSessions int    `json:"active_sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "ok",
		Version:        s.version,
		Protocols:      s.svc.ProtocolCount(),
		ActiveSessions: s.svc.ActiveSessions(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = 5
	}

	// Blocked queries get the guardrail response instead of results.
	verdict := s.svc.Guardrails().Check(safety.CheckPayload{Query: req.Query})
	if !verdict.Allowed {
		writeJSON(w, http.StatusOK, searchResponse{Results: []models.SearchResult{}, Safety: &verdict})
		return
	}

	results := s.svc.Search(r.Context(), req.Query, req.Context, req.TopK)
	if results == nil {
		results = []models.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

func (s *Server) handleTriage(w http.ResponseWriter, r *http.Request) {
	var signals models.TriageSignals
	if !decodeJSON(w, r, &signals) {
		return
	}

	verdict := s.svc.Guardrails().Check(safety.CheckPayload{Intent: signals.Intent})
	if !verdict.Allowed && verdict.Violation == models.ViolationDiagnostic {
		writeJSON(w, http.StatusOK, searchResponse{Results: []models.SearchResult{}, Safety: &verdict})
		return
	}

	writeJSON(w, http.StatusOK, s.svc.Triage(r.Context(), signals))
}

func (s *Server) handleNextStep(w http.ResponseWriter, r *http.Request) {
	var req nextStepRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProtocolID == "" {
		writeError(w, http.StatusBadRequest, "protocol_id is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	current := -1
	if req.CurrentStep != nil {
		current = *req.CurrentStep
	}

	resp := s.svc.NextStep(player.NextRequest{
		SessionID:   req.SessionID,
		ProtocolID:  req.ProtocolID,
		CurrentStep: current,
		Feedback:    req.Feedback,
	})
	writeJSON(w, http.StatusOK, nextStepResponse{SessionID: req.SessionID, StepResponse: resp})
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	var req sessionResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	s.svc.ResetSession(req.SessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "session_id": req.SessionID})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.SessionStatus(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleProtocols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"protocols":  s.svc.ListProtocols(),
		"disclaimer": s.svc.Guardrails().GeneralDisclaimer(),
	})
}

func (s *Server) handleProtocol(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetProtocol(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrProtocolNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, protocolResponse{
		Protocol:   p,
		Disclaimer: s.svc.Guardrails().GeneralDisclaimer(),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Reload(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "reloaded",
		"protocols": s.svc.ProtocolCount(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

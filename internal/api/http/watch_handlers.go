package httpapi

import (
	"net/http"
	"strings"

	"github.com/market-hub/market-hub/internal/domain/watch"
)

type watchRuleCreateRequest struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Severity   string `json:"severity"`
}

func (s *Server) createWatchRule(w http.ResponseWriter, r *http.Request) {
	var req watchRuleCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	severity := watch.Severity(strings.ToUpper(req.Severity))
	switch severity {
	case watch.SeverityLow, watch.SeverityMedium, watch.SeverityHigh:
	default:
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "severity must be LOW, MEDIUM or HIGH")
		return
	}
	rule, err := watch.NewRule(req.Name, req.Expression, severity)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", err.Error())
		return
	}
	if err := s.watchRepo.Create(r.Context(), rule); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rule)
}

func (s *Server) listWatchRules(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50, 200)
	rules, err := s.watchRepo.List(r.Context(), limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"rules": rules})
}

func (s *Server) activateWatchRule(w http.ResponseWriter, r *http.Request) {
	s.setWatchRuleStatus(w, r, watch.StatusActive)
}

func (s *Server) deactivateWatchRule(w http.ResponseWriter, r *http.Request) {
	s.setWatchRuleStatus(w, r, watch.StatusInactive)
}

func (s *Server) setWatchRuleStatus(w http.ResponseWriter, r *http.Request, status watch.Status) {
	id, err := parseUUIDParam(r, "ruleId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid ruleId")
		return
	}
	if err := s.watchRepo.UpdateStatus(r.Context(), id, status); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

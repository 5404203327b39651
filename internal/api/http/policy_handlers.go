package httpapi

import (
	"net/http"
)

func (s *Server) getTrust(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	res, err := s.policySvc.Trust(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) getRestriction(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	res, err := s.policySvc.Restriction(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) getFraud(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid userId")
		return
	}
	report, err := s.policySvc.Fraud(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// listAudit serves the per-entity audit trail shared by the entity routes.
func (s *Server) listAudit(w http.ResponseWriter, r *http.Request, entityType, param string) {
	id, err := parseUUIDParam(r, param)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid "+param)
		return
	}
	limit, _ := parseLimitOffset(r, 50, 200)
	entries, err := s.auditSvc.ListByEntity(r.Context(), entityType, id, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

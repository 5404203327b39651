package httpapi

import (
	"net/http"

	appRequest "github.com/market-hub/market-hub/internal/application/request"
	"github.com/market-hub/market-hub/internal/domain/request"
)

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	var req appRequest.CreateInput
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	created, err := s.requestSvc.Create(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) getRequest(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "requestId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid requestId")
		return
	}
	req, err := s.requestSvc.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 20, 100)
	var status *request.Status
	if v := r.URL.Query().Get("status"); v != "" {
		st := request.Status(v)
		status = &st
	}
	requests, err := s.requestSvc.List(r.Context(), status, limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

func (s *Server) applyRequestEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "requestId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid requestId")
		return
	}
	event := eventParam(r)
	res, err := s.requestSvc.Apply(r.Context(), id, event, actorFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) scheduleRequest(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "requestId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid requestId")
		return
	}
	var req appRequest.ScheduleInput
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	res, err := s.requestSvc.Schedule(r.Context(), id, actorFromContext(r.Context()), req)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) listRequestAudit(w http.ResponseWriter, r *http.Request) {
	s.listAudit(w, r, "request", "requestId")
}

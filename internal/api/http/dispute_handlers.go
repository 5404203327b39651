package httpapi

import (
	"net/http"
	"strings"

	appDispute "github.com/market-hub/market-hub/internal/application/dispute"
	"github.com/market-hub/market-hub/internal/domain/dispute"
	"github.com/market-hub/market-hub/internal/domain/fsm"
)

func (s *Server) openDispute(w http.ResponseWriter, r *http.Request) {
	var req appDispute.OpenInput
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	d, err := s.disputeSvc.Open(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

func (s *Server) getDispute(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "disputeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid disputeId")
		return
	}
	d, err := s.disputeSvc.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) listDisputes(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 20, 100)
	var status *dispute.Status
	if v := r.URL.Query().Get("status"); v != "" {
		st := dispute.Status(strings.ToUpper(v))
		status = &st
	}
	disputes, err := s.disputeSvc.List(r.Context(), status, limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"disputes": disputes})
}

func (s *Server) applyDisputeEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "disputeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid disputeId")
		return
	}
	event := eventParam(r)
	res, err := s.disputeSvc.Apply(r.Context(), id, event, actorFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type disputeCloseRequest struct {
	Event      string `json:"event"`
	Resolution string `json:"resolution"`
}

func (s *Server) closeDispute(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "disputeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid disputeId")
		return
	}
	var req disputeCloseRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	event := fsm.Event(strings.ToUpper(strings.ReplaceAll(req.Event, "-", "_")))
	if event != dispute.EventResolve && event != dispute.EventReject {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "event must be RESOLVE or REJECT")
		return
	}
	res, err := s.disputeSvc.Close(r.Context(), id, event, actorFromContext(r.Context()),
		appDispute.ResolveInput{Resolution: req.Resolution})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) listDisputeAudit(w http.ResponseWriter, r *http.Request) {
	s.listAudit(w, r, "dispute", "disputeId")
}

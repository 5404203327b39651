package httpapi

import (
	"net/http"

	appListing "github.com/market-hub/market-hub/internal/application/listing"
	"github.com/market-hub/market-hub/internal/domain/listing"
)

func (s *Server) createListing(w http.ResponseWriter, r *http.Request) {
	var req appListing.CreateInput
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	l, err := s.listingSvc.Create(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

func (s *Server) getListing(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "listingId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid listingId")
		return
	}
	l, err := s.listingSvc.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) listListings(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 20, 100)
	var status *listing.Status
	if v := r.URL.Query().Get("status"); v != "" {
		st := listing.Status(v)
		status = &st
	}
	listings, err := s.listingSvc.List(r.Context(), status, limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"listings": listings})
}

func (s *Server) applyListingEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "listingId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid listingId")
		return
	}
	event := eventParam(r)
	res, err := s.listingSvc.Apply(r.Context(), id, event, actorFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) listListingAudit(w http.ResponseWriter, r *http.Request) {
	s.listAudit(w, r, "listing", "listingId")
}

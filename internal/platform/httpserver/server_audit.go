package httpserver

import (
	"errors"
	"net/http"

	auditerrors "resupply/contexts/exchange-core/audit-recorder/domain/errors"
)

func (s *Server) handleAuditByEntity(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.resolveIdentity(w, r)
	if !ok {
		return
	}

	limit, _, ok := paginationParams(w, r)
	if !ok {
		return
	}
	resp, err := s.audit.Handler.ListByEntityHandler(
		r.Context(),
		auditIdentity(identity),
		r.PathValue("entity"),
		r.PathValue("entity_id"),
		limit,
	)
	if err != nil {
		writeAuditError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuditByActor(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.resolveIdentity(w, r)
	if !ok {
		return
	}

	limit, _, ok := paginationParams(w, r)
	if !ok {
		return
	}
	resp, err := s.audit.Handler.ListByActorHandler(
		r.Context(),
		auditIdentity(identity),
		r.PathValue("actor_id"),
		limit,
	)
	if err != nil {
		writeAuditError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuditByTimeRange(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.resolveIdentity(w, r)
	if !ok {
		return
	}

	limit, _, ok := paginationParams(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	resp, err := s.audit.Handler.ListByTimeRangeHandler(
		r.Context(),
		auditIdentity(identity),
		query.Get("organization_id"),
		query.Get("from"),
		query.Get("to"),
		limit,
	)
	if err != nil {
		writeAuditError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeAuditError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auditerrors.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "audit_entry_not_found", err.Error())
	case errors.Is(err, auditerrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, auditerrors.ErrInvalidEntry),
		errors.Is(err, auditerrors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

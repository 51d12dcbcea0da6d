package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	ledgererrors "resupply/contexts/exchange-core/inventory-ledger/domain/errors"
	ledgerhttp "resupply/contexts/exchange-core/inventory-ledger/transport/http"
)

func (s *Server) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.resolveIdentity(w, r)
	if !ok {
		return
	}

	var req ledgerhttp.CreateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.CreateMaterialHandler(r.Context(), ledgerIdentity(identity), req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetMaterial(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.resolveIdentity(w, r)
	if !ok {
		return
	}

	resp, err := s.ledger.Handler.GetMaterialHandler(r.Context(), ledgerIdentity(identity), r.PathValue("material_id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSurplus(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.resolveIdentity(w, r)
	if !ok {
		return
	}

	limit, offset, ok := paginationParams(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.ListSurplusHandler(r.Context(), ledgerIdentity(identity), limit, offset)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateMaterial(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.resolveIdentity(w, r)
	if !ok {
		return
	}

	var req ledgerhttp.UpdateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.UpdateMaterialHandler(r.Context(), ledgerIdentity(identity), r.PathValue("material_id"), req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArchiveMaterial(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.resolveIdentity(w, r)
	if !ok {
		return
	}

	resp, err := s.ledger.Handler.ArchiveMaterialHandler(r.Context(), ledgerIdentity(identity), r.PathValue("material_id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func paginationParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	query := r.URL.Query()
	limit := 0
	offset := 0
	if raw := query.Get("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return 0, 0, false
		}
		limit = value
	}
	if raw := query.Get("offset"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
			return 0, 0, false
		}
		offset = value
	}
	return limit, offset, true
}

func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrMaterialNotFound):
		writeError(w, http.StatusNotFound, "material_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrAttachmentNotFound):
		writeError(w, http.StatusNotFound, "attachment_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrAllocationNotFound):
		writeError(w, http.StatusNotFound, "allocation_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrMaterialUnavailable):
		writeError(w, http.StatusConflict, "material_unavailable", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientQuantity):
		writeError(w, http.StatusConflict, "insufficient_quantity", err.Error())
	case errors.Is(err, ledgererrors.ErrActiveReservation):
		writeError(w, http.StatusConflict, "active_reservation", err.Error())
	case errors.Is(err, ledgererrors.ErrMaterialExists):
		writeError(w, http.StatusConflict, "material_exists", err.Error())
	case errors.Is(err, ledgererrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, ledgererrors.ErrNonPositiveQuantity),
		errors.Is(err, ledgererrors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

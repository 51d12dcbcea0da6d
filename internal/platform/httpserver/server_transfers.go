package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	transfererrors "resupply/contexts/exchange-core/transfer-workflow/domain/errors"
	transferports "resupply/contexts/exchange-core/transfer-workflow/ports"
	transferhttp "resupply/contexts/exchange-core/transfer-workflow/transport/http"
)

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.resolveIdentity(w, r)
	if !ok {
		return
	}

	var req transferhttp.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.transfers.Handler.CreateHandler(r.Context(), transferIdentity(identity), req)
	if err != nil {
		writeTransferError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.resolveIdentity(w, r)
	if !ok {
		return
	}

	limit, offset, ok := paginationParams(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	resp, err := s.transfers.Handler.ListHandler(
		r.Context(),
		transferIdentity(identity),
		query.Get("organization_id"),
		query.Get("status"),
		limit,
		offset,
	)
	if err != nil {
		writeTransferError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.resolveIdentity(w, r)
	if !ok {
		return
	}

	resp, err := s.transfers.Handler.GetHandler(r.Context(), transferIdentity(identity), r.PathValue("request_id"))
	if err != nil {
		writeTransferError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApproveTransfer(w http.ResponseWriter, r *http.Request) {
	s.handleTransferReview(w, r, s.transfers.Handler.ApproveHandler)
}

func (s *Server) handleRejectTransfer(w http.ResponseWriter, r *http.Request) {
	s.handleTransferReview(w, r, s.transfers.Handler.RejectHandler)
}

func (s *Server) handleCancelTransfer(w http.ResponseWriter, r *http.Request) {
	s.handleTransferReview(w, r, s.transfers.Handler.CancelHandler)
}

func (s *Server) handleCompleteTransfer(w http.ResponseWriter, r *http.Request) {
	s.handleTransferReview(w, r, s.transfers.Handler.CompleteHandler)
}

func (s *Server) handleTransferReview(
	w http.ResponseWriter,
	r *http.Request,
	review func(context.Context, transferports.Identity, string, transferhttp.ReviewTransferRequest) (transferhttp.TransferResponse, error),
) {
	identity, ok := s.resolveIdentity(w, r)
	if !ok {
		return
	}

	var req transferhttp.ReviewTransferRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	resp, err := review(r.Context(), transferIdentity(identity), r.PathValue("request_id"), req)
	if err != nil {
		writeTransferError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeTransferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transfererrors.ErrTransferNotFound):
		writeError(w, http.StatusNotFound, "transfer_not_found", err.Error())
	case errors.Is(err, transfererrors.ErrInvalidTransferStatus):
		writeError(w, http.StatusConflict, "invalid_transfer_status", err.Error())
	case errors.Is(err, transfererrors.ErrStatusConflict):
		writeError(w, http.StatusConflict, "concurrent_update", err.Error())
	case errors.Is(err, transfererrors.ErrMaterialUnavailable):
		writeError(w, http.StatusConflict, "material_unavailable", err.Error())
	case errors.Is(err, transfererrors.ErrInsufficientQuantity):
		writeError(w, http.StatusConflict, "insufficient_quantity", err.Error())
	case errors.Is(err, transfererrors.ErrSameOrganization):
		writeError(w, http.StatusUnprocessableEntity, "same_organization", err.Error())
	case errors.Is(err, transfererrors.ErrRejectionCommentRequired):
		writeError(w, http.StatusBadRequest, "rejection_comment_required", err.Error())
	case errors.Is(err, transfererrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, transfererrors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

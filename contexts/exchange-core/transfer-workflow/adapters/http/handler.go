package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"resupply/contexts/exchange-core/transfer-workflow/application/commands"
	"resupply/contexts/exchange-core/transfer-workflow/application/queries"
	"resupply/contexts/exchange-core/transfer-workflow/domain/entities"
	domainerrors "resupply/contexts/exchange-core/transfer-workflow/domain/errors"
	"resupply/contexts/exchange-core/transfer-workflow/ports"
	httptransport "resupply/contexts/exchange-core/transfer-workflow/transport/http"
)

type Handler struct {
	Create   commands.CreateTransferRequestUseCase
	Approve  commands.ApproveTransferRequestUseCase
	Reject   commands.RejectTransferRequestUseCase
	Cancel   commands.CancelTransferRequestUseCase
	Complete commands.CompleteTransferRequestUseCase
	Get      queries.GetTransferRequestUseCase
	List     queries.ListTransferRequestsUseCase
	Logger   *slog.Logger
}

func (h Handler) CreateHandler(ctx context.Context, identity ports.Identity, req httptransport.CreateTransferRequest) (httptransport.TransferResponse, error) {
	quantity, err := decimal.NewFromString(strings.TrimSpace(req.Quantity))
	if err != nil {
		return httptransport.TransferResponse{}, domainerrors.ErrInvalidInput
	}
	request, err := h.Create.Execute(ctx, identity, commands.CreateTransferRequestCommand{
		MaterialID: req.MaterialID,
		Quantity:   quantity,
		Comment:    req.Comment,
	})
	if err != nil {
		return httptransport.TransferResponse{}, err
	}
	return httptransport.TransferResponse{Status: "success", Data: toPayload(request)}, nil
}

func (h Handler) ApproveHandler(ctx context.Context, identity ports.Identity, requestID string, req httptransport.ReviewTransferRequest) (httptransport.TransferResponse, error) {
	request, err := h.Approve.Execute(ctx, identity, commands.ApproveTransferRequestCommand{
		RequestID: requestID,
		Comment:   req.Comment,
	})
	if err != nil {
		return httptransport.TransferResponse{}, err
	}
	return httptransport.TransferResponse{Status: "success", Data: toPayload(request)}, nil
}

func (h Handler) RejectHandler(ctx context.Context, identity ports.Identity, requestID string, req httptransport.ReviewTransferRequest) (httptransport.TransferResponse, error) {
	request, err := h.Reject.Execute(ctx, identity, commands.RejectTransferRequestCommand{
		RequestID: requestID,
		Comment:   req.Comment,
	})
	if err != nil {
		return httptransport.TransferResponse{}, err
	}
	return httptransport.TransferResponse{Status: "success", Data: toPayload(request)}, nil
}

func (h Handler) CancelHandler(ctx context.Context, identity ports.Identity, requestID string, req httptransport.ReviewTransferRequest) (httptransport.TransferResponse, error) {
	request, err := h.Cancel.Execute(ctx, identity, commands.CancelTransferRequestCommand{
		RequestID: requestID,
		Comment:   req.Comment,
	})
	if err != nil {
		return httptransport.TransferResponse{}, err
	}
	return httptransport.TransferResponse{Status: "success", Data: toPayload(request)}, nil
}

func (h Handler) CompleteHandler(ctx context.Context, identity ports.Identity, requestID string, req httptransport.ReviewTransferRequest) (httptransport.TransferResponse, error) {
	request, err := h.Complete.Execute(ctx, identity, commands.CompleteTransferRequestCommand{
		RequestID: requestID,
		Comment:   req.Comment,
	})
	if err != nil {
		return httptransport.TransferResponse{}, err
	}
	return httptransport.TransferResponse{Status: "success", Data: toPayload(request)}, nil
}

func (h Handler) GetHandler(ctx context.Context, identity ports.Identity, requestID string) (httptransport.TransferResponse, error) {
	request, err := h.Get.Execute(ctx, identity, requestID)
	if err != nil {
		return httptransport.TransferResponse{}, err
	}
	return httptransport.TransferResponse{Status: "success", Data: toPayload(request)}, nil
}

func (h Handler) ListHandler(ctx context.Context, identity ports.Identity, organizationID string, status string, limit int, offset int) (httptransport.TransferListResponse, error) {
	requests, err := h.List.Execute(ctx, identity, queries.ListTransferRequestsQuery{
		OrganizationID: organizationID,
		Status:         entities.TransferStatus(status),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		return httptransport.TransferListResponse{}, err
	}
	resp := httptransport.TransferListResponse{Status: "success", Data: make([]httptransport.TransferRequestPayload, 0, len(requests))}
	for _, request := range requests {
		resp.Data = append(resp.Data, toPayload(request))
	}
	return resp, nil
}

func toPayload(request entities.TransferRequest) httptransport.TransferRequestPayload {
	payload := httptransport.TransferRequestPayload{
		RequestID:          request.RequestID,
		MaterialID:         request.MaterialID,
		FromOrganizationID: request.FromOrganizationID,
		ToOrganizationID:   request.ToOrganizationID,
		RequestedBy:        request.RequestedBy,
		Quantity:           request.Quantity.String(),
		Unit:               request.Unit,
		Status:             string(request.Status),
		DecidedBy:          request.DecidedBy,
		CreatedAt:          request.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          request.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if request.DecidedAt != nil {
		payload.DecidedAt = request.DecidedAt.UTC().Format(time.RFC3339)
	}
	if request.CompletedAt != nil {
		payload.CompletedAt = request.CompletedAt.UTC().Format(time.RFC3339)
	}
	for _, comment := range request.Comments {
		payload.Comments = append(payload.Comments, httptransport.CommentPayload{
			CommentID: comment.CommentID,
			Type:      string(comment.Type),
			AuthorID:  comment.AuthorID,
			Body:      comment.Body,
			CreatedAt: comment.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return payload
}

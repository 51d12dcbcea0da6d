package queries

import (
	"context"
	"log/slog"
	"strings"

	"resupply/contexts/exchange-core/transfer-workflow/domain/entities"
	"resupply/contexts/exchange-core/transfer-workflow/ports"
)

type ListTransferRequestsQuery struct {
	// OrganizationID narrows the scope; only platform admins may name
	// an organization other than their own.
	OrganizationID string
	Status         entities.TransferStatus
	Limit          int
	Offset         int
}

type ListTransferRequestsUseCase struct {
	Requests ports.Repository
	Logger   *slog.Logger
}

// Execute lists requests where the scoped organization is either party.
// Scope is pinned to the caller's organization for everyone except
// platform admins, so cross-tenant listings cannot leak.
func (uc ListTransferRequestsUseCase) Execute(ctx context.Context, identity ports.Identity, query ListTransferRequestsQuery) ([]entities.TransferRequest, error) {
	scope := identity.OrganizationID
	if identity.Role == "platform_admin" && strings.TrimSpace(query.OrganizationID) != "" {
		scope = strings.TrimSpace(query.OrganizationID)
	}

	limit := query.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	return uc.Requests.ListRequests(ctx, ports.TransferFilter{
		OrganizationID: scope,
		Status:         query.Status,
		Limit:          limit,
		Offset:         offset,
	})
}

package bootstrap

import (
	"context"

	auditports "resupply/contexts/exchange-core/audit-recorder/ports"
	ledgerports "resupply/contexts/exchange-core/inventory-ledger/ports"
	transferports "resupply/contexts/exchange-core/transfer-workflow/ports"
	gatequeries "resupply/contexts/identity-access/authorization-gate/application/queries"
	gateentities "resupply/contexts/identity-access/authorization-gate/domain/entities"
)

// The gate adapters translate each module's local identity/resource
// types into the authorization-gate vocabulary. Every call evaluates the
// rule set fresh; decisions are never cached.

type ledgerGate struct {
	decide gatequeries.DecideAccessUseCase
}

func (g ledgerGate) Decide(ctx context.Context, identity ledgerports.Identity, action string, resource ledgerports.GateResource) (bool, string, error) {
	return evaluateGate(ctx, g.decide,
		gateentities.Identity{
			UserID:               identity.UserID,
			OrganizationID:       identity.OrganizationID,
			OrganizationCategory: identity.OrganizationCategory,
			Role:                 gateentities.Role(identity.Role),
		},
		action,
		gateentities.Resource{
			OwnerOrganizationID: resource.OwnerOrganizationID,
			Category:            resource.Category,
		},
	)
}

type transferGate struct {
	decide gatequeries.DecideAccessUseCase
}

func (g transferGate) Decide(ctx context.Context, identity transferports.Identity, action string, resource transferports.GateResource) (bool, string, error) {
	return evaluateGate(ctx, g.decide,
		gateentities.Identity{
			UserID:               identity.UserID,
			OrganizationID:       identity.OrganizationID,
			OrganizationCategory: identity.OrganizationCategory,
			Role:                 gateentities.Role(identity.Role),
		},
		action,
		gateentities.Resource{
			OwnerOrganizationID: resource.OwnerOrganizationID,
			Category:            resource.Category,
			FromOrganizationID:  resource.FromOrganizationID,
			ToOrganizationID:    resource.ToOrganizationID,
			RequestedBy:         resource.RequestedBy,
		},
	)
}

type auditGate struct {
	decide gatequeries.DecideAccessUseCase
}

func (g auditGate) Decide(ctx context.Context, identity auditports.Identity, action string, resource auditports.GateResource) (bool, string, error) {
	return evaluateGate(ctx, g.decide,
		gateentities.Identity{
			UserID:         identity.UserID,
			OrganizationID: identity.OrganizationID,
			Role:           gateentities.Role(identity.Role),
		},
		action,
		gateentities.Resource{
			OwnerOrganizationID: resource.OwnerOrganizationID,
		},
	)
}

func evaluateGate(
	ctx context.Context,
	decide gatequeries.DecideAccessUseCase,
	identity gateentities.Identity,
	action string,
	resource gateentities.Resource,
) (bool, string, error) {
	decision, err := decide.Execute(ctx, gatequeries.DecideAccessQuery{
		Identity: identity,
		Action:   gateentities.Action(action),
		Resource: resource,
	})
	if err != nil {
		return false, "", err
	}
	return decision.Allowed, decision.Reason, nil
}

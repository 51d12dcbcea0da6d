package queries

import (
	"context"
	"log/slog"
	"strings"

	application "resupply/contexts/identity-access/authorization-gate/application"
	"resupply/contexts/identity-access/authorization-gate/domain/entities"
	domainerrors "resupply/contexts/identity-access/authorization-gate/domain/errors"
	"resupply/contexts/identity-access/authorization-gate/domain/services"
)

// DecideAccessQuery is the request model for a single gate evaluation.
type DecideAccessQuery struct {
	Identity entities.Identity
	Action   entities.Action
	Resource entities.Resource
}

// DecideAccessUseCase wraps the pure rule set with decision logging.
type DecideAccessUseCase struct {
	Logger *slog.Logger
}

func (u DecideAccessUseCase) Execute(_ context.Context, query DecideAccessQuery) (entities.Decision, error) {
	if strings.TrimSpace(query.Identity.UserID) == "" {
		return entities.Decision{}, domainerrors.ErrInvalidIdentity
	}
	if strings.TrimSpace(string(query.Action)) == "" {
		return entities.Decision{}, domainerrors.ErrInvalidAction
	}

	decision := services.Decide(query.Identity, query.Action, query.Resource)

	logger := application.ResolveLogger(u.Logger)
	if decision.Allowed {
		logger.Debug("gate allowed action",
			"event", "gate_decision_allowed",
			"module", "identity-access/authorization-gate",
			"layer", "application",
			"user_id", query.Identity.UserID,
			"organization_id", query.Identity.OrganizationID,
			"action", string(query.Action),
			"reason", decision.Reason,
		)
	} else {
		logger.Warn("gate denied action",
			"event", "gate_decision_denied",
			"module", "identity-access/authorization-gate",
			"layer", "application",
			"user_id", query.Identity.UserID,
			"organization_id", query.Identity.OrganizationID,
			"action", string(query.Action),
			"reason", decision.Reason,
		)
	}
	return decision, nil
}

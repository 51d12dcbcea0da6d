package authorizationgate

import (
	"log/slog"

	"resupply/contexts/identity-access/authorization-gate/application/queries"
)

// Module is the authorization-gate composition root exposed to runtime wiring.
type Module struct {
	Decide queries.DecideAccessUseCase
}

// Dependencies captures runtime config required by NewModule.
type Dependencies struct {
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Decide: queries.DecideAccessUseCase{Logger: deps.Logger},
	}
}

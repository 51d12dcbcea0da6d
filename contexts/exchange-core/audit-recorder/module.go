package auditrecorder

import (
	"log/slog"

	httpadapter "resupply/contexts/exchange-core/audit-recorder/adapters/http"
	"resupply/contexts/exchange-core/audit-recorder/application"
	"resupply/contexts/exchange-core/audit-recorder/ports"
)

// Module is the audit-recorder composition root exposed to runtime wiring.
type Module struct {
	Service application.Service
	Handler httpadapter.Handler
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Store  ports.EntryStore
	Gate   ports.AccessGate
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Store:  deps.Store,
		Gate:   deps.Gate,
		Logger: deps.Logger,
	}
	return Module{
		Service: service,
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
	}
}

package inventoryledger

import (
	"log/slog"

	httpadapter "resupply/contexts/exchange-core/inventory-ledger/adapters/http"
	"resupply/contexts/exchange-core/inventory-ledger/application"
	"resupply/contexts/exchange-core/inventory-ledger/ports"
)

// Module is the inventory-ledger composition root exposed to runtime wiring.
type Module struct {
	Service application.Service
	Handler httpadapter.Handler
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository  ports.Repository
	Gate        ports.AccessGate
	Attachments ports.AttachmentChecker
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:        deps.Repository,
		Gate:        deps.Gate,
		Attachments: deps.Attachments,
		Clock:       deps.Clock,
		IDGen:       deps.IDGenerator,
		Logger:      deps.Logger,
	}
	return Module{
		Service: service,
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
	}
}

package transferworkflow

import (
	"log/slog"

	httpadapter "resupply/contexts/exchange-core/transfer-workflow/adapters/http"
	"resupply/contexts/exchange-core/transfer-workflow/application/commands"
	"resupply/contexts/exchange-core/transfer-workflow/application/queries"
	"resupply/contexts/exchange-core/transfer-workflow/application/workers"
	"resupply/contexts/exchange-core/transfer-workflow/ports"
)

// Module is the transfer-workflow composition root exposed to runtime wiring.
type Module struct {
	Create      commands.CreateTransferRequestUseCase
	Approve     commands.ApproveTransferRequestUseCase
	Reject      commands.RejectTransferRequestUseCase
	Cancel      commands.CancelTransferRequestUseCase
	Complete    commands.CompleteTransferRequestUseCase
	Get         queries.GetTransferRequestUseCase
	List        queries.ListTransferRequestsUseCase
	OutboxRelay workers.OutboxRelay
	Handler     httpadapter.Handler
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository  ports.Repository
	Outbox      ports.OutboxRepository
	Publisher   ports.EventPublisher
	Inventory   ports.InventoryService
	Gate        ports.AccessGate
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	BatchSize   int
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	create := commands.CreateTransferRequestUseCase{
		Requests:  deps.Repository,
		Inventory: deps.Inventory,
		Gate:      deps.Gate,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Logger:    deps.Logger,
	}
	approve := commands.ApproveTransferRequestUseCase{
		Requests:  deps.Repository,
		Inventory: deps.Inventory,
		Gate:      deps.Gate,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Logger:    deps.Logger,
	}
	reject := commands.RejectTransferRequestUseCase{
		Requests: deps.Repository,
		Gate:     deps.Gate,
		Clock:    deps.Clock,
		IDGen:    deps.IDGenerator,
		Logger:   deps.Logger,
	}
	cancel := commands.CancelTransferRequestUseCase{
		Requests:  deps.Repository,
		Inventory: deps.Inventory,
		Gate:      deps.Gate,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Logger:    deps.Logger,
	}
	complete := commands.CompleteTransferRequestUseCase{
		Requests:  deps.Repository,
		Inventory: deps.Inventory,
		Gate:      deps.Gate,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Logger:    deps.Logger,
	}
	get := queries.GetTransferRequestUseCase{Requests: deps.Repository, Gate: deps.Gate, Logger: deps.Logger}
	list := queries.ListTransferRequestsUseCase{Requests: deps.Repository, Logger: deps.Logger}

	return Module{
		Create:   create,
		Approve:  approve,
		Reject:   reject,
		Cancel:   cancel,
		Complete: complete,
		Get:      get,
		List:     list,
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
		Handler: httpadapter.Handler{
			Create:   create,
			Approve:  approve,
			Reject:   reject,
			Cancel:   cancel,
			Complete: complete,
			Get:      get,
			List:     list,
			Logger:   deps.Logger,
		},
	}
}

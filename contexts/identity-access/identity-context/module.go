package identitycontext

import (
	"log/slog"
	"time"

	httpadapter "resupply/contexts/identity-access/identity-context/adapters/http"
	"resupply/contexts/identity-access/identity-context/application"
	"resupply/contexts/identity-access/identity-context/ports"
)

// Module is the identity-context composition root exposed to runtime wiring.
type Module struct {
	Service application.Service
	Handler httpadapter.Handler
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Directory ports.SubjectDirectory
	Codec     ports.TokenCodec
	Clock     ports.Clock
	TokenTTL  time.Duration
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Directory: deps.Directory,
		Codec:     deps.Codec,
		Clock:     deps.Clock,
		TokenTTL:  deps.TokenTTL,
		Logger:    deps.Logger,
	}
	return Module{
		Service: service,
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
	}
}

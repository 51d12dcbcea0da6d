package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	auditrecorder "resupply/contexts/exchange-core/audit-recorder"
	auditpostgres "resupply/contexts/exchange-core/audit-recorder/adapters/postgres"
	inventoryledger "resupply/contexts/exchange-core/inventory-ledger"
	ledgerpostgres "resupply/contexts/exchange-core/inventory-ledger/adapters/postgres"
	transferworkflow "resupply/contexts/exchange-core/transfer-workflow"
	"resupply/contexts/exchange-core/transfer-workflow/adapters/notify"
	workflowpostgres "resupply/contexts/exchange-core/transfer-workflow/adapters/postgres"
	transferworkers "resupply/contexts/exchange-core/transfer-workflow/application/workers"
	authorizationgate "resupply/contexts/identity-access/authorization-gate"
	identitycontext "resupply/contexts/identity-access/identity-context"
	"resupply/contexts/identity-access/identity-context/adapters/jwtcodec"
	identitypostgres "resupply/contexts/identity-access/identity-context/adapters/postgres"
	"resupply/internal/platform/config"
	"resupply/internal/platform/db"
	"resupply/internal/platform/httpserver"
	"resupply/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	outboxRelay   transferworkers.OutboxRelay
	notifications transferworkers.TransferNotificationConsumer
	pollInterval  time.Duration
	relayEnabled  bool
	logger        *slog.Logger
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	codec, err := jwtcodec.New([]byte(cfg.JWTSigningSecret))
	if err != nil {
		return nil, err
	}

	identityModule := identitycontext.NewModule(identitycontext.Dependencies{
		Directory: identitypostgres.NewRepository(pg.DB, logger),
		Codec:     codec,
		Clock:     identitypostgres.SystemClock{},
		TokenTTL:  cfg.TokenTTL,
		Logger:    logger,
	})

	gateModule := authorizationgate.NewModule(authorizationgate.Dependencies{Logger: logger})

	// The audit store owns the shared audit_log_entries table and its
	// dedup index; the ledger and workflow repositories write into it
	// inside their own transactions.
	auditRepo := auditpostgres.NewRepository(pg.DB)
	if err := auditRepo.AutoMigrate(); err != nil {
		return nil, err
	}
	auditModule := auditrecorder.NewModule(auditrecorder.Dependencies{
		Store:  auditRepo,
		Gate:   auditGate{decide: gateModule.Decide},
		Logger: logger,
	})

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	ledgerModule := inventoryledger.NewModule(inventoryledger.Dependencies{
		Repository:  ledgerRepo,
		Gate:        ledgerGate{decide: gateModule.Decide},
		Clock:       ledgerpostgres.SystemClock{},
		IDGenerator: ledgerpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	transferRepo := workflowpostgres.NewRepository(pg.DB, logger)
	transferModule := transferworkflow.NewModule(transferworkflow.Dependencies{
		Repository:  transferRepo,
		Outbox:      transferRepo,
		Publisher:   kafka,
		Inventory:   inventoryBridge{materials: ledgerRepo, ledger: ledgerModule.Service},
		Gate:        transferGate{decide: gateModule.Decide},
		Clock:       workflowpostgres.SystemClock{},
		IDGenerator: workflowpostgres.UUIDGenerator{},
		BatchSize:   cfg.OutboxBatchSize,
		Logger:      logger,
	})

	server := httpserver.New(identityModule, ledgerModule, transferModule, auditModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := workflowpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: transferworkers.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     workflowpostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		notifications: transferworkers.TransferNotificationConsumer{
			Subscriber: kafka,
			Sender:     notify.LogSender{Logger: logger},
			Logger:     logger,
		},
		pollInterval: cfg.OutboxPollInterval,
		relayEnabled: cfg.EnableOutboxRelay,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.notifications.Start(ctx); err != nil {
		return err
	}

	if !w.relayEnabled {
		w.logger.Info("outbox relay disabled",
			"event", "bootstrap_worker_idle",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

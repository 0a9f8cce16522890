package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowbit/intake-triage/internal/config"
	"github.com/flowbit/intake-triage/internal/core/classify"
	"github.com/flowbit/intake-triage/internal/core/extract"
	"github.com/flowbit/intake-triage/internal/core/ports"
	"github.com/flowbit/intake-triage/internal/core/route"
	"github.com/flowbit/intake-triage/internal/core/rules"
	"github.com/flowbit/intake-triage/internal/core/usecase"
	"github.com/flowbit/intake-triage/internal/infrastructure/actionsink"
	"github.com/flowbit/intake-triage/internal/infrastructure/doctext/pdftext"
	"github.com/flowbit/intake-triage/internal/infrastructure/queue/nats"
	"github.com/flowbit/intake-triage/internal/infrastructure/repository/postgres"
	"github.com/flowbit/intake-triage/internal/infrastructure/resilience"
	"github.com/flowbit/intake-triage/internal/infrastructure/storage/localfs"
	"github.com/flowbit/intake-triage/internal/infrastructure/tabular/xlsx"
	"github.com/flowbit/intake-triage/internal/observability/logging"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.IntakeQueue

	TriageUC  ports.IntakeTriager
	IngestUC  ports.IntakeIngestor
	ProcessUC ports.IntakeProcessor
	HistoryUC ports.ConversationReader

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	conversationLog := postgres.NewConversationLog(db)
	if err := conversationLog.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	classifier := classify.New(classify.DefaultTaxonomy())
	records := extract.NewRecordExtractor(extract.DefaultRecordSchema())
	correspondence := extract.NewCorrespondenceExtractor()
	documents := extract.NewDocumentExtractor(pdftext.New()).
		WithHighValueLimit(cfg.HighValueThreshold)

	router := route.New(classifier, records, correspondence, documents, xlsx.New(), conversationLog, logger)

	engine := rules.NewEngine(logger)
	alerts := rules.NewAlertEvaluator(logger)

	var sink ports.ActionSink
	if cfg.SimulatedActions {
		sink = actionsink.NewSimulated()
	} else {
		sink = actionsink.NewHTTPSink(cfg.ActionSinkURL, executor)
	}
	if err := usecase.RegisterDefaultActions(engine, sink); err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("register actions: %w", err)
	}

	chains, err := config.LoadChains(cfg.ChainsConfigPath)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("load chains config: %w", err)
	}
	for _, spec := range chains.Chains {
		if err := engine.DefineChain(spec); err != nil {
			queue.Close()
			_ = db.Close()
			return nil, fmt.Errorf("define chain %q: %w", spec.ID, err)
		}
	}
	for _, spec := range chains.AlertRules {
		if err := alerts.AddRule(spec); err != nil {
			queue.Close()
			_ = db.Close()
			return nil, fmt.Errorf("add alert rule %q: %w", spec.ID, err)
		}
	}

	triageUC := usecase.NewTriageUseCase(router, engine, alerts, conversationLog, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue: queue,

		TriageUC:  triageUC,
		IngestUC:  usecase.NewIngestUseCase(storage, conversationLog, queue),
		ProcessUC: usecase.NewProcessUseCase(storage, triageUC),
		HistoryUC: usecase.NewHistoryUseCase(conversationLog),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grovelight/leafsense/internal/config"
	"github.com/grovelight/leafsense/internal/core/domain"
	"github.com/grovelight/leafsense/internal/core/ports"
	"github.com/grovelight/leafsense/internal/core/usecase"
	"github.com/grovelight/leafsense/internal/infrastructure/classifier/plantvision"
	natsevents "github.com/grovelight/leafsense/internal/infrastructure/events/nats"
	"github.com/grovelight/leafsense/internal/infrastructure/export/excel"
	"github.com/grovelight/leafsense/internal/infrastructure/history/postgres"
	"github.com/grovelight/leafsense/internal/infrastructure/resilience"
	"github.com/grovelight/leafsense/internal/infrastructure/snapshots/localfs"
)

type App struct {
	Config config.Config
	Policy domain.DecisionPolicy

	Classifier ports.ClassifierGateway
	History    ports.HistoryStore
	Events     ports.AnalysisEvents
	Snapshots  ports.SnapshotStore

	AnalyzeUC ports.PlantAnalyzer
	StatusUC  ports.StatusReporter
	CatalogUC ports.CatalogProvider
	HistoryUC ports.HistoryBrowser
	Exporter  ports.ReportExporter

	closeFn func()
}

type Options struct {
	// OnRetry observes every retried upstream call.
	OnRetry func(operation string, attempt int, err error)
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	return NewWithOptions(ctx, cfg, Options{})
}

func NewWithOptions(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	policyFile, err := config.LoadPolicyFile(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("load policy file: %w", err)
	}
	cfg, policy := policyFile.Apply(cfg)

	classifyCfg := resilience.FixedDelay(
		cfg.ClassifyMaxAttempts,
		time.Duration(cfg.ClassifyRetryDelaySeconds)*time.Second,
	)
	classifyCfg.OnRetry = opts.OnRetry

	classifier, err := plantvision.New(
		cfg.PlantAPIURL,
		time.Duration(cfg.PlantAPITimeoutSeconds)*time.Second,
		resilience.NewExecutor(classifyCfg),
	)
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// History and events are optional: without a DSN the app keeps no
	// history, without a NATS URL nothing is published. Analyze works
	// either way.
	var history ports.HistoryStore
	if cfg.HistoryDSN != "" {
		db, err := postgres.OpenDB(cfg.HistoryDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })

		repo := postgres.NewHistoryRepository(db, cfg.HistoryLimit)
		if err := repo.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		history = repo
	}

	var events ports.AnalysisEvents
	if cfg.NATSURL != "" {
		bus, err := natsevents.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsevents.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.PublisherConfig()),
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init event bus: %w", err)
		}
		closers = append(closers, bus.Close)
		events = bus
	}

	snapshots, err := localfs.New(cfg.SnapshotPath)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init snapshot storage: %w", err)
	}

	catalogUC := usecase.NewMetadataRefreshUseCase(classifier)
	analyzeUC := usecase.NewAnalyzePlantUseCase(classifier, catalogUC, history, snapshots, events, policy)
	statusUC := usecase.NewServiceStatusUseCase(classifier)
	historyUC := usecase.NewHistoryBrowseUseCase(history, cfg.HistoryLimit)

	warmUp(ctx, classifier, catalogUC)

	return &App{
		Config: cfg,
		Policy: policy,

		Classifier: classifier,
		History:    history,
		Events:     events,
		Snapshots:  snapshots,

		AnalyzeUC: analyzeUC,
		StatusUC:  statusUC,
		CatalogUC: catalogUC,
		HistoryUC: historyUC,
		Exporter:  excel.NewExporter(),

		closeFn: closeAll,
	}, nil
}

// warmUp probes the upstream and fetches the label catalog concurrently.
// Neither failure is fatal: the registry refreshes on demand and analyze
// calls surface their own failures.
func warmUp(ctx context.Context, classifier ports.ClassifierGateway, catalog ports.CatalogProvider) {
	if classifier.Offline() {
		slog.Warn("classifier_offline_mode")
		return
	}

	warmCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	g, gctx := errgroup.WithContext(warmCtx)
	g.Go(func() error {
		slog.Info("classifier_probe", "state", string(classifier.Probe(gctx)))
		return nil
	})
	g.Go(func() error {
		if err := catalog.Refresh(gctx); err != nil {
			slog.Warn("metadata_refresh_failed", "error", err)
		}
		return nil
	})
	_ = g.Wait()
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

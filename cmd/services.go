package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	systemclock "github.com/neonlead/leadscraper/internal/clock/system"
	"github.com/neonlead/leadscraper/internal/config"
	"github.com/neonlead/leadscraper/internal/fetcher/headless"
	"github.com/neonlead/leadscraper/internal/fetcher/static"
	"github.com/neonlead/leadscraper/internal/jobs"
	"github.com/neonlead/leadscraper/internal/logging"
	"github.com/neonlead/leadscraper/internal/metrics"
	"github.com/neonlead/leadscraper/internal/proxy"
	queuememory "github.com/neonlead/leadscraper/internal/queue/memory"
	queuepubsub "github.com/neonlead/leadscraper/internal/queue/pubsub"
	"github.com/neonlead/leadscraper/internal/scraper"
	storememory "github.com/neonlead/leadscraper/internal/store/memory"
	storepostgres "github.com/neonlead/leadscraper/internal/store/postgres"
)

// services holds the long-lived components shared by the serve and work
// commands.
type services struct {
	cfg    config.Config
	logger *zap.Logger
	orch   *scraper.Orchestrator
	store  scraper.JobStore
	runner *jobs.Runner

	memQueue *queuememory.Queue
	psQueue  *queuepubsub.Queue
}

// buildServices initializes every shared dependency from configuration. It
// fails fast when a required downstream cannot be reached.
func buildServices(ctx context.Context, configPath string) (*services, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics.Init()

	proxies := proxy.NewPicker(cfg.Scraper.ProxyList)
	staticFetcher := static.New(static.Config{
		UserAgent: cfg.Scraper.UserAgent,
		Proxies:   proxies,
	})
	renderedFetcher := headless.New(headless.Config{
		UserAgent: cfg.Scraper.UserAgent,
		Proxies:   proxies,
	})
	robots := scraper.NewRobotsGate(cfg.Scraper.UserAgent, logger)
	orch := scraper.NewOrchestrator(staticFetcher, renderedFetcher, robots, logger)

	var store scraper.JobStore
	if cfg.DB.DSN != "" {
		logger.Info("connecting to postgres")
		store, err = storepostgres.New(ctx, storepostgres.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("init job store: %w", err)
		}
	} else {
		logger.Info("using in-memory job store; jobs will not survive restarts")
		store = storememory.New()
	}

	svc := &services{
		cfg:    cfg,
		logger: logger,
		orch:   orch,
		store:  store,
	}

	switch cfg.Queue.Provider {
	case "memory":
		svc.memQueue = queuememory.New(cfg.Scraper.InProcessWorkerQueue, logger)
	case "pubsub":
		logger.Info("connecting to pubsub", zap.String("topic", cfg.Queue.TopicID))
		svc.psQueue, err = queuepubsub.New(ctx, queuepubsub.Config{
			ProjectID:      cfg.Queue.ProjectID,
			TopicID:        cfg.Queue.TopicID,
			SubscriptionID: cfg.Queue.SubscriptionID,
		}, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("init queue: %w", err)
		}
	}

	svc.runner = jobs.NewRunner(store, orch, systemclock.New(), logger)
	return svc, nil
}

// queue returns the configured enqueue side, or nil when jobs are disabled.
func (s *services) queue() scraper.Queue {
	switch {
	case s.memQueue != nil:
		return s.memQueue
	case s.psQueue != nil:
		return s.psQueue
	default:
		return nil
	}
}

// consumer returns the configured dequeue side, or nil.
func (s *services) consumer() scraper.Consumer {
	switch {
	case s.memQueue != nil:
		return s.memQueue
	case s.psQueue != nil:
		return s.psQueue
	default:
		return nil
	}
}

func (s *services) close() {
	if s.memQueue != nil {
		if err := s.memQueue.Close(); err != nil {
			s.logger.Warn("close queue", zap.Error(err))
		}
	}
	if s.psQueue != nil {
		if err := s.psQueue.Close(); err != nil {
			s.logger.Warn("close queue", zap.Error(err))
		}
	}
	s.store.Close()
	_ = s.logger.Sync()
}

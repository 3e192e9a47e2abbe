package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm"
	mrcmmetrics "github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/metrics"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/handler"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/ports"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/store/concept"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/store/member"
	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/config"
	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/kafka"
	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/postgres"
	"github.com/WestCoastInformatics/snowstorm-1/internal/platform/redis"
	"github.com/WestCoastInformatics/snowstorm-1/internal/versioning"
	"github.com/WestCoastInformatics/snowstorm-1/internal/versioning/store/branch"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/audit/outbox"
	auditmemory "github.com/WestCoastInformatics/snowstorm-1/pkg/platform/audit/store/memory"
	auditpostgres "github.com/WestCoastInformatics/snowstorm-1/pkg/platform/audit/store/postgres"
	"github.com/WestCoastInformatics/snowstorm-1/pkg/platform/sentinel"
)

// app holds the wired process dependencies. Optional backends are nil when not configured.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *sql.DB
	redis      *redis.Client
	producer   *kafka.Producer
	auditStore *auditpostgres.Store
	versioning *versioning.Service
	module     *mrcm.Module
	checks     map[string]handler.HealthCheck
}

// newApp wires storage, versioning and the MRCM module. Without DATABASE_URL everything
// runs in memory, which is only useful for local experiments.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, checks: map[string]handler.HealthCheck{}}

	var (
		branches   versioning.BranchStore
		members    ports.MemberStore
		concepts   ports.ConceptStore
		auditStore ports.AuditStore
		vsOpts     = []versioning.Option{versioning.WithLogger(logger)}
	)

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := postgres.Migrate(ctx, db); err != nil {
			a.close()
			return nil, err
		}
		a.checks["database"] = db.PingContext
		a.auditStore = auditpostgres.New(db)

		branches = branch.NewPostgres(db)
		members = member.NewPostgres(db)
		concepts = concept.NewPostgres(db)
		auditStore = a.auditStore
		vsOpts = append(vsOpts, versioning.WithDB(db))
	} else {
		logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
		branches = branch.NewInMemory()
		members = member.NewInMemory()
		concepts = concept.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.close()
		return nil, err
	}
	if rc != nil {
		a.redis = rc
		a.checks["redis"] = rc.Health
		if err := prometheus.Register(rc.Collector()); err != nil {
			logger.WarnContext(ctx, "register redis pool metrics", "error", err)
		}
		concepts = concept.NewRedisCache(rc.Client, concepts, cfg.TermCacheTTL, logger)
	}

	vs, err := versioning.New(branches, vsOpts...)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create versioning service: %w", err)
	}
	a.versioning = vs

	module, err := mrcm.New(vs, members, concepts,
		mrcm.WithLogger(logger),
		mrcm.WithMetrics(mrcmmetrics.New()),
		mrcm.WithAuditStore(auditStore),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	a.module = module
	return a, nil
}

// newRelay connects the audit outbox to Kafka. It returns nil when either side is missing.
func (a *app) newRelay(ctx context.Context) (*outbox.Relay, error) {
	if a.auditStore == nil || len(a.cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := kafka.NewProducer(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic, kafka.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.producer = producer
	a.checks["kafka"] = producer.Health
	if err := producer.EnsureTopic(ctx, a.cfg.Kafka.Partitions, a.cfg.Kafka.ReplicationFactor); err != nil {
		return nil, err
	}
	return outbox.NewRelay(a.auditStore, producer,
		outbox.WithBatchSize(a.cfg.Outbox.BatchSize),
		outbox.WithLogger(a.logger),
	)
}

// ensureBranch creates path when it does not exist yet.
func (a *app) ensureBranch(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	_, err := a.versioning.Branch(ctx, path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("look up branch %s: %w", path, err)
	}
	_, err = a.versioning.CreateBranch(ctx, path)
	return err
}

func (a *app) close() {
	if a.producer != nil {
		a.producer.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
	}
}

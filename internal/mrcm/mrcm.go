// Package mrcm wires the MRCM derivation pipeline onto a versioned branch store: the
// model loader, the change orchestrator registered as a commit listener, and the admin
// HTTP handler.
package mrcm

import (
	"fmt"
	"log/slog"

	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/handler"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/loader"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/metrics"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/models"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/ports"
	"github.com/WestCoastInformatics/snowstorm-1/internal/mrcm/service"
	"github.com/WestCoastInformatics/snowstorm-1/internal/versioning"
)

type (
	Result    = service.Result
	ChangeSet = models.ChangeSet
	Member    = models.Member
)

// Module is the assembled pipeline.
type Module struct {
	Loader  *loader.Loader
	Service *service.Service
	Handler *handler.Handler
}

type config struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   ports.AuditStore
}

type Option func(*config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

func WithAuditStore(store ports.AuditStore) Option {
	return func(c *config) { c.audit = store }
}

// New builds the pipeline and registers it on the versioning service: the orchestrator as
// a commit listener, and the member store as a rollback handler when it keeps versions
// outside the commit transaction.
func New(vs *versioning.Service, members ports.MemberStore, concepts ports.ConceptStore, opts ...Option) (*Module, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	ld, err := loader.New(members, concepts, loader.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("create model loader: %w", err)
	}

	svcOpts := []service.Option{service.WithLogger(cfg.logger), service.WithMetrics(cfg.metrics)}
	if cfg.audit != nil {
		svcOpts = append(svcOpts, service.WithAuditStore(cfg.audit))
	}
	svc, err := service.New(vs, ld, members, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("create change orchestrator: %w", err)
	}

	vs.RegisterListener(svc)
	if rh, ok := members.(versioning.RollbackHandler); ok {
		vs.RegisterRollbackHandler(rh)
	}

	return &Module{
		Loader:  ld,
		Service: svc,
		Handler: handler.New(svc, cfg.logger),
	}, nil
}

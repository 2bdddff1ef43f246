package agent

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/monify-labs/linuxmon/internal/config"
	"github.com/monify-labs/linuxmon/internal/filesystems"
	"github.com/monify-labs/linuxmon/internal/logging"
	"github.com/monify-labs/linuxmon/internal/rules"
	"github.com/monify-labs/linuxmon/pkg/models"
	"github.com/sirupsen/logrus"
)

// Agent runs one collection pass and assembles the snapshot
type Agent struct {
	cfg    config.Config
	logger logrus.FieldLogger
	now    func() time.Time

	rules      *rules.Cache
	enumerator *filesystems.Enumerator
	usage      *filesystems.UsageCollector
	operations []namedOperation
}

// Option overrides one of the agent's host-facing dependencies
type Option func(*deps)

type deps struct {
	fetcher rules.Fetcher
	lister  filesystems.PartitionLister
	reader  filesystems.UsageReader
	now     func() time.Time
}

// WithFetcher replaces the HTTP rule fetcher
func WithFetcher(f rules.Fetcher) Option {
	return func(d *deps) { d.fetcher = f }
}

// WithPartitionLister replaces the host mount table reader
func WithPartitionLister(l filesystems.PartitionLister) Option {
	return func(d *deps) { d.lister = l }
}

// WithUsageReader replaces the host usage reader
func WithUsageReader(r filesystems.UsageReader) Option {
	return func(d *deps) { d.reader = r }
}

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// NewAgent creates an agent for cfg. Every configured metric must name a known
// collection operation.
func NewAgent(cfg config.Config, logger logrus.FieldLogger, opts ...Option) (*Agent, error) {
	d := &deps{
		fetcher: rules.NewHTTPFetcher(cfg.Settings.FetchTimeout),
		lister:  filesystems.HostPartitions{},
		reader:  filesystems.HostUsage{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	a := &Agent{
		cfg:        cfg,
		logger:     logger,
		now:        d.now,
		rules:      rules.NewCache(d.fetcher, logging.Component(logger, "rules"), rules.WithClock(d.now)),
		enumerator: filesystems.NewEnumerator(d.lister, logging.Component(logger, "filesystems")),
		usage:      filesystems.NewUsageCollector(d.reader, logging.Component(logger, "filesystems")),
	}

	ops, err := a.resolveOperations(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	a.operations = ops
	return a, nil
}

// Run collects every configured metric in order. Degraded collections are
// logged and leave gaps in the snapshot; a fatal error aborts the run and no
// snapshot is returned.
func (a *Agent) Run(ctx context.Context) (*models.Snapshot, error) {
	a.logger.Info("Starting metrics collection")

	hostname, err := os.Hostname()
	if err != nil {
		a.logger.WithError(err).Warn("Could not determine hostname")
	}
	snapshot := models.NewSnapshot(hostname, a.now())

	for _, op := range a.operations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := op.run(ctx, snapshot); err != nil {
			return nil, fmt.Errorf("%s: %w", op.name, err)
		}
	}
	return snapshot, nil
}

// FilteredFilesystems obtains and compiles the ignore rules and returns the
// filesystems that pass them. Unusable rules are a fatal error.
func (a *Agent) FilteredFilesystems(ctx context.Context) (filesystems.Set, error) {
	s := a.cfg.Settings
	doc, err := a.rules.Obtain(ctx, s.RulesURL(), s.RulesFilePath(), s.RulesMaxAge())
	if err != nil {
		return nil, err
	}

	matchers, err := rules.Compile(doc)
	if err != nil {
		return nil, err
	}

	return a.enumerator.Enumerate(ctx, matchers.Mountpoint, matchers.Device), nil
}

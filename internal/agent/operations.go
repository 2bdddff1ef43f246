package agent

import (
	"context"
	"fmt"

	"github.com/monify-labs/linuxmon/internal/config"
	"github.com/monify-labs/linuxmon/internal/metrics/system"
	"github.com/monify-labs/linuxmon/pkg/models"
)

// operation fills its part of the snapshot. Only unrecoverable failures are
// returned; anything else is logged and leaves its section empty.
type operation func(ctx context.Context, snapshot *models.Snapshot) error

type namedOperation struct {
	name string
	run  operation
}

func (a *Agent) resolveOperations(names []string) ([]namedOperation, error) {
	known := map[string]operation{
		config.MetricLoadAvg:     a.collectLoadAvg,
		config.MetricUptime:      a.collectUptime,
		config.MetricCPU:         a.collectCPU,
		config.MetricMemory:      a.collectMemory,
		config.MetricSwap:        a.collectSwap,
		config.MetricFilesystems: a.collectFilesystems,
	}

	ops := make([]namedOperation, 0, len(names))
	for _, name := range names {
		op, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", config.ErrUnknownMetric, name)
		}
		ops = append(ops, namedOperation{name: name, run: op})
	}
	return ops, nil
}

func (a *Agent) collectLoadAvg(ctx context.Context, snapshot *models.Snapshot) error {
	a.logger.Info("Collecting system load metrics")
	metrics, err := system.CollectLoadAvg(ctx)
	if err != nil {
		a.logger.WithError(err).Error("Could not collect system load metrics")
		return nil
	}
	snapshot.LoadAvg = metrics
	return nil
}

func (a *Agent) collectUptime(ctx context.Context, snapshot *models.Snapshot) error {
	a.logger.Info("Getting system uptime")
	uptime, err := system.CollectUptime(ctx, a.now())
	if err != nil {
		a.logger.WithError(err).Error("Could not collect system uptime")
		return nil
	}
	snapshot.Uptime = &uptime
	return nil
}

func (a *Agent) collectCPU(ctx context.Context, snapshot *models.Snapshot) error {
	a.logger.Info("Collecting CPU metrics")
	metrics, err := system.CollectCPU(ctx, a.cfg.Settings.CPUSampleInterval)
	if err != nil {
		a.logger.WithError(err).Error("Could not collect CPU metrics")
		return nil
	}
	snapshot.CPU = metrics
	return nil
}

func (a *Agent) collectMemory(ctx context.Context, snapshot *models.Snapshot) error {
	a.logger.Info("Collecting memory metrics")
	metrics, err := system.CollectMemory(ctx)
	if err != nil {
		a.logger.WithError(err).Error("Could not collect memory metrics")
		return nil
	}
	snapshot.Memory = metrics
	return nil
}

func (a *Agent) collectSwap(ctx context.Context, snapshot *models.Snapshot) error {
	a.logger.Info("Collecting swap space metrics")
	metrics, err := system.CollectSwap(ctx)
	if err != nil {
		a.logger.WithError(err).Error("Could not collect swap space metrics")
		return nil
	}
	snapshot.Swap = metrics
	return nil
}

func (a *Agent) collectFilesystems(ctx context.Context, snapshot *models.Snapshot) error {
	set, err := a.FilteredFilesystems(ctx)
	if err != nil {
		return err
	}
	snapshot.Filesystems = a.usage.Collect(ctx, set)
	return nil
}

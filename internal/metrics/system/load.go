// Package system collects the scalar host metrics: load, uptime, CPU, memory
// and swap.
package system

import (
	"context"

	"github.com/monify-labs/linuxmon/pkg/models"
	"github.com/shirou/gopsutil/v4/load"
)

// CollectLoadAvg gathers the 1, 5 and 15 minute load averages
func CollectLoadAvg(ctx context.Context) (models.Metrics, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, err
	}

	return models.Metrics{
		"system.load.1":  avg.Load1,
		"system.load.5":  avg.Load5,
		"system.load.15": avg.Load15,
	}, nil
}

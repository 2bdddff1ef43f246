package system

import (
	"context"
	"math"

	"github.com/monify-labs/linuxmon/pkg/models"
	"github.com/shirou/gopsutil/v4/mem"
)

// CollectMemory gathers total and available memory
func CollectMemory(ctx context.Context) (models.Metrics, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	metrics := models.Metrics{
		"system.mem.total":     float64(vm.Total),
		"system.mem.available": float64(vm.Available),
	}
	if vm.Total > 0 {
		metrics["mem.pct.usable"] = round5(float64(vm.Available) / float64(vm.Total) * 100)
	}
	return metrics, nil
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

package system

import (
	"context"

	"github.com/monify-labs/linuxmon/pkg/models"
	"github.com/shirou/gopsutil/v4/mem"
)

// CollectSwap gathers swap memory usage (no sampling needed)
func CollectSwap(ctx context.Context) (models.Metrics, error) {
	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	return models.Metrics{
		"system.swap.free": float64(swap.Free),
		"system.swap.used": float64(swap.Used),
	}, nil
}

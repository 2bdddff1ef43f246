package system

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/host"
)

// CollectUptime returns seconds elapsed since boot, relative to now
func CollectUptime(ctx context.Context, now time.Time) (float64, error) {
	bootTime, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return float64(now.Unix() - int64(bootTime)), nil
}

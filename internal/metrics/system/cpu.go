package system

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/monify-labs/linuxmon/pkg/models"
	"github.com/shirou/gopsutil/v4/cpu"
)

// CollectCPU samples aggregate CPU times twice, interval apart, and returns
// the share of each state over that window
func CollectCPU(ctx context.Context, interval time.Duration) (models.Metrics, error) {
	before, err := cpuTimes(ctx)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	after, err := cpuTimes(ctx)
	if err != nil {
		return nil, err
	}
	return timesPercent(before, after), nil
}

func cpuTimes(ctx context.Context) (cpu.TimesStat, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return cpu.TimesStat{}, err
	}
	if len(times) == 0 {
		return cpu.TimesStat{}, errors.New("no cpu times reported")
	}
	return times[0], nil
}

// busy time excludes guest, which the kernel already counts in user
func totalTime(t cpu.TimesStat) float64 {
	return t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal
}

func timesPercent(before, after cpu.TimesStat) models.Metrics {
	total := totalTime(after) - totalTime(before)

	pct := func(b, a float64) float64 {
		if total <= 0 {
			return 0
		}
		p := math.Round((a-b)/total*1000) / 10
		return math.Min(math.Max(p, 0), 100)
	}

	return models.Metrics{
		"system.cpu.user":   pct(before.User, after.User),
		"system.cpu.system": pct(before.System, after.System),
		"system.cpu.idle":   pct(before.Idle, after.Idle),
		"system.cpu.iowait": pct(before.Iowait, after.Iowait),
	}
}

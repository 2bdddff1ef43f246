package filesystems

import (
	"context"
	"math"

	"github.com/monify-labs/linuxmon/pkg/models"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/sirupsen/logrus"
)

// Metric names reported per filesystem
const (
	MetricDiskPctUsed   = "system.disk.pct_used"
	MetricInodesPctUsed = "system.fs.inodes.pct_used"
)

// InodeStat is the inode part of a statfs result
type InodeStat struct {
	Total uint64
	Free  uint64
}

// UsageReader reads usage figures for a mountpoint
type UsageReader interface {
	UsedPercent(ctx context.Context, mountpoint string) (float64, error)
	Inodes(ctx context.Context, mountpoint string) (*InodeStat, error)
}

// HostUsage reads space usage through gopsutil and inode counts through statfs
type HostUsage struct{}

// UsedPercent implements UsageReader
func (HostUsage) UsedPercent(ctx context.Context, mountpoint string) (float64, error) {
	usage, err := disk.UsageWithContext(ctx, mountpoint)
	if err != nil {
		return 0, err
	}
	return usage.UsedPercent, nil
}

// Inodes implements UsageReader
func (HostUsage) Inodes(ctx context.Context, mountpoint string) (*InodeStat, error) {
	return statInodes(mountpoint)
}

// UsageCollector gathers per-filesystem metrics, tolerating per-item failures
type UsageCollector struct {
	reader UsageReader
	logger logrus.FieldLogger
}

// NewUsageCollector creates a collector backed by reader
func NewUsageCollector(reader UsageReader, logger logrus.FieldLogger) *UsageCollector {
	return &UsageCollector{
		reader: reader,
		logger: logger,
	}
}

// Collect returns metrics keyed by device. Every device gets an entry; a
// missing metric key means that read failed or is undefined.
func (u *UsageCollector) Collect(ctx context.Context, set Set) map[string]models.Metrics {
	u.logger.Info("Collecting filesystem metrics")

	result := make(map[string]models.Metrics, len(set))
	for device, mountpoint := range set {
		u.logger.Infof("Checking filesystem mounted at %s", mountpoint)
		metrics := models.Metrics{}
		result[device] = metrics

		if pct, err := u.reader.UsedPercent(ctx, mountpoint); err != nil {
			u.logger.WithError(err).Errorf("Could not check disk usage on filesystem mounted at %s", mountpoint)
		} else {
			metrics[MetricDiskPctUsed] = pct
		}

		stat, err := u.reader.Inodes(ctx, mountpoint)
		if err != nil {
			u.logger.WithError(err).Errorf("Could not check inode usage on filesystem mounted at %s", mountpoint)
			continue
		}
		// zero total inodes: ratio undefined, not a fault
		if stat.Total == 0 {
			continue
		}
		used := float64(stat.Total) - float64(stat.Free)
		metrics[MetricInodesPctUsed] = round5(used / float64(stat.Total) * 100)
	}
	return result
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// Package filesystems discovers mounted filesystems, filters them and
// collects their space and inode utilization.
package filesystems

import (
	"context"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/sirupsen/logrus"
)

// Entry is one row of the mount table
type Entry struct {
	Device     string
	Mountpoint string
	FSType     string
}

// Set maps device to mountpoint for every filesystem that survived filtering
type Set map[string]string

// ignoredFSTypes are virtual filesystems that never carry usage metrics
var ignoredFSTypes = map[string]bool{
	"autofs":      true,
	"binfmt_misc": true,
	"bpf":         true,
	"cgroup":      true,
	"cgroup2":     true,
	"configfs":    true,
	"debugfs":     true,
	"devpts":      true,
	"efivarfs":    true,
	"fusectl":     true,
	"hugetlbfs":   true,
	"mqueue":      true,
	"nsfs":        true,
	"proc":        true,
	"pstore":      true,
	"rpc_pipefs":  true,
	"securityfs":  true,
	"selinuxfs":   true,
	"sysfs":       true,
	"tracefs":     true,
}

// IgnoredFSType reports whether fstype is in the static exclusion set
func IgnoredFSType(fstype string) bool {
	return ignoredFSTypes[fstype]
}

// PartitionLister returns the full mount table
type PartitionLister interface {
	Partitions(ctx context.Context) ([]Entry, error)
}

// HostPartitions lists the host's mounts through gopsutil, pseudo
// filesystems included
type HostPartitions struct{}

// Partitions implements PartitionLister
func (HostPartitions) Partitions(ctx context.Context) ([]Entry, error) {
	partitions, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(partitions))
	for _, p := range partitions {
		entries = append(entries, Entry{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			FSType:     p.Fstype,
		})
	}
	return entries, nil
}

// Enumerator builds the filtered filesystem set
type Enumerator struct {
	lister PartitionLister
	logger logrus.FieldLogger
}

// NewEnumerator creates an enumerator reading mounts from lister
func NewEnumerator(lister PartitionLister, logger logrus.FieldLogger) *Enumerator {
	return &Enumerator{
		lister: lister,
		logger: logger,
	}
}

// Enumerate lists mounted filesystems and drops those with an ignored type or
// matched by either exclusion predicate. A failure to read the mount table is
// logged and yields an empty set.
func (e *Enumerator) Enumerate(ctx context.Context, mountpointExcluded, deviceExcluded func(string) bool) Set {
	e.logger.Info("Getting filesystems on machine")

	set := make(Set)
	entries, err := e.lister.Partitions(ctx)
	if err != nil {
		e.logger.WithError(err).Error("Could not get filesystems on machine")
		return set
	}

	for _, entry := range entries {
		// skip it if the filesystem type is virtual
		if IgnoredFSType(entry.FSType) {
			e.logger.Debugf("skipping mountpoint '%s' with fs type '%s'", entry.Mountpoint, entry.FSType)
			continue
		}

		if mountpointExcluded(entry.Mountpoint) || deviceExcluded(entry.Device) {
			e.logger.Debugf("skipping mountpoint '%s' on device '%s'", entry.Mountpoint, entry.Device)
			continue
		}

		set[entry.Device] = entry.Mountpoint
	}
	return set
}

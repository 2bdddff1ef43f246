package system

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Presence of keys is asserted, not truthiness: a legitimate zero (no swap in
// use, idle load) must not read as "not collected".

func TestCollectLoadAvg(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("load average is not available on windows")
	}
	metrics, err := CollectLoadAvg(context.Background())
	require.NoError(t, err)
	for _, key := range []string{"system.load.1", "system.load.5", "system.load.15"} {
		assert.Contains(t, metrics, key)
	}
}

func TestCollectUptime(t *testing.T) {
	uptime, err := CollectUptime(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Greater(t, uptime, 0.0)
}

func TestCollectMemory(t *testing.T) {
	metrics, err := CollectMemory(context.Background())
	require.NoError(t, err)
	assert.Contains(t, metrics, "system.mem.total")
	assert.Contains(t, metrics, "system.mem.available")
	assert.Contains(t, metrics, "mem.pct.usable")
	assert.LessOrEqual(t, metrics["mem.pct.usable"], 100.0)
}

func TestCollectSwap(t *testing.T) {
	metrics, err := CollectSwap(context.Background())
	require.NoError(t, err)
	assert.Contains(t, metrics, "system.swap.free")
	assert.Contains(t, metrics, "system.swap.used")
}

func TestCollectCPUCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CollectCPU(ctx, time.Hour)
	assert.Error(t, err)
}

func TestTimesPercent(t *testing.T) {
	before := cpu.TimesStat{User: 100, System: 50, Idle: 800, Iowait: 50}
	after := cpu.TimesStat{User: 125, System: 60, Idle: 855, Iowait: 60, Guest: 40}

	metrics := timesPercent(before, after)
	assert.Equal(t, 25.0, metrics["system.cpu.user"])
	assert.Equal(t, 10.0, metrics["system.cpu.system"])
	assert.Equal(t, 55.0, metrics["system.cpu.idle"])
	assert.Equal(t, 10.0, metrics["system.cpu.iowait"])
}

func TestTimesPercentNoElapsedTime(t *testing.T) {
	same := cpu.TimesStat{User: 1, Idle: 1}
	metrics := timesPercent(same, same)
	assert.Len(t, metrics, 4)
	assert.Equal(t, 0.0, metrics["system.cpu.idle"])
}

func TestRound5(t *testing.T) {
	assert.Equal(t, 12.34568, round5(12.345678))
}

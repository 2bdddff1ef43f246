package models

import "time"

// Metrics maps a dotted metric name to its value. A missing key means the
// value was not collected, never that it is zero.
type Metrics map[string]float64

// Snapshot is the result of one collection run
type Snapshot struct {
	Hostname  string    `json:"hostname"`
	Timestamp time.Time `json:"timestamp"`

	LoadAvg Metrics  `json:"system_load_avg,omitempty"`
	Uptime  *float64 `json:"system.uptime,omitempty"` // seconds
	CPU     Metrics  `json:"system_cpu,omitempty"`
	Memory  Metrics  `json:"system_mem,omitempty"`
	Swap    Metrics  `json:"swap_memory,omitempty"`

	// Filesystems is keyed by device
	Filesystems map[string]Metrics `json:"filesystems"`
}

// NewSnapshot returns an empty snapshot for hostname
func NewSnapshot(hostname string, at time.Time) *Snapshot {
	return &Snapshot{
		Hostname:    hostname,
		Timestamp:   at,
		Filesystems: map[string]Metrics{},
	}
}

// ServerResponse represents the response from server after a snapshot is pushed
type ServerResponse struct {
	Status  string `json:"status"` // "success", "error"
	Message string `json:"message,omitempty"`
}

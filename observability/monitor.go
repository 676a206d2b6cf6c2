// Package observability aggregates process and registry metrics for the
// debug stats endpoint.
package observability

import (
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ConnectionCounter is the slice of the registry the monitor needs.
type ConnectionCounter interface {
	ActiveConversations() int
	ActiveConnections() int
}

// Stats is one point-in-time snapshot of the process.
type Stats struct {
	AllocMemMB          uint64  `json:"alloc_mem_mb"`
	NumGC               uint32  `json:"num_gc"`
	NumGoroutine        int     `json:"num_goroutine"`
	RSSMemMB            uint64  `json:"rss_mem_mb"`
	CPUPercent          float64 `json:"cpu_percent"`
	ActiveConversations int     `json:"active_conversations"`
	ActiveConnections   int     `json:"active_connections"`
	UptimeSeconds       int64   `json:"uptime_seconds"`
}

type Monitor struct {
	log       *slog.Logger
	registry  ConnectionCounter
	proc      *process.Process
	startedAt time.Time
}

func NewMonitor(log *slog.Logger, registry ConnectionCounter) *Monitor {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		// Snapshot degrades to runtime-only metrics.
		log.Warn("process handle unavailable", "error", err)
		proc = nil
	}
	return &Monitor{log: log, registry: registry, proc: proc, startedAt: time.Now()}
}

func (m *Monitor) Snapshot() Stats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := Stats{
		AllocMemMB:          memStats.Alloc / 1024 / 1024,
		NumGC:               memStats.NumGC,
		NumGoroutine:        runtime.NumGoroutine(),
		ActiveConversations: m.registry.ActiveConversations(),
		ActiveConnections:   m.registry.ActiveConnections(),
		UptimeSeconds:       int64(time.Since(m.startedAt).Seconds()),
	}

	if m.proc != nil {
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
		if mem, err := m.proc.MemoryInfo(); err == nil {
			stats.RSSMemMB = mem.RSS / 1024 / 1024
		}
	}
	return stats
}

package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStatus is the host snapshot shown by the system_status widget
// and the detailed health check.
type SystemStatus struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskUsed      string  `json:"disk_used"`
	DiskTotal     string  `json:"disk_total"`
	Clients       int     `json:"dashboard_clients"`
}

// SampleSystem samples CPU over a short window plus memory and root disk usage
func SampleSystem(ctx context.Context) (*SystemStatus, error) {
	percents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return nil, fmt.Errorf("cpu: %w", err)
	}
	memStats, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	diskStats, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return nil, fmt.Errorf("disk: %w", err)
	}

	s := &SystemStatus{
		MemoryPercent: memStats.UsedPercent,
		MemoryUsed:    FormatBytes(memStats.Used),
		MemoryTotal:   FormatBytes(memStats.Total),
		DiskPercent:   diskStats.UsedPercent,
		DiskUsed:      FormatBytes(diskStats.Used),
		DiskTotal:     FormatBytes(diskStats.Total),
	}
	if len(percents) > 0 {
		s.CPUPercent = percents[0]
	}
	return s, nil
}

func FormatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}

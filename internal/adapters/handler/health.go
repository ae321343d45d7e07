package handler

import (
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthHandler serves liveness and system metrics endpoints.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// RegisterHealthRoutes mounts the liveness and metrics endpoints.
func RegisterHealthRoutes(r chi.Router, h *HealthHandler) {
	r.Get("/", h.HandleLiveness)
	r.Get("/api/system/metrics", h.HandleMetrics)
}

var appStartTime = time.Now()

// HandleLiveness answers a plain ok envelope; used by the tunnel/load balancer.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, "messenger-inbox is running", map[string]any{
		"uptime": time.Since(appStartTime).Round(time.Second).String(),
	})
}

// SystemMetricsResponse is the system health payload.
type SystemMetricsResponse struct {
	CPUPercent      float64 `json:"cpu_percent"`
	RAMUsedGB       float64 `json:"ram_used_gb"`
	RAMTotalGB      float64 `json:"ram_total_gb"`
	RAMPercent      float64 `json:"ram_percent"`
	DiskUsedGB      float64 `json:"disk_used_gb"`
	DiskTotalGB     float64 `json:"disk_total_gb"`
	DiskPercent     float64 `json:"disk_percent"`
	GoroutinesCount int     `json:"goroutines_count"`
}

// HandleMetrics returns current host metrics.
// GET /api/system/metrics
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var metrics SystemMetricsResponse

	if cpuPercents, err := cpu.PercentWithContext(ctx, time.Second, false); err == nil && len(cpuPercents) > 0 {
		metrics.CPUPercent = cpuPercents[0]
	}

	if memStat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		metrics.RAMUsedGB = toGB(memStat.Used)
		metrics.RAMTotalGB = toGB(memStat.Total)
		metrics.RAMPercent = memStat.UsedPercent
	}

	if diskStat, err := disk.UsageWithContext(ctx, "."); err == nil {
		metrics.DiskUsedGB = toGB(diskStat.Used)
		metrics.DiskTotalGB = toGB(diskStat.Total)
		metrics.DiskPercent = diskStat.UsedPercent
	}

	metrics.GoroutinesCount = runtime.NumGoroutine()

	slog.Debug("System metrics retrieved",
		"cpu", metrics.CPUPercent,
		"disk_percent", metrics.DiskPercent,
	)

	writeJSON(w, http.StatusOK, "Success", metrics)
}

func toGB(bytes uint64) float64 {
	return float64(bytes) / 1024 / 1024 / 1024
}

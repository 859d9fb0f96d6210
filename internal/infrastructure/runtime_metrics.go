package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a snapshot of process statistics reported by the health endpoint
type RuntimeStats struct {
	Goroutines   int64         `json:"goroutines"`
	HeapAlloc    int64         `json:"heap_alloc_bytes"`
	SystemMemory int64         `json:"system_memory_bytes"`
	GCCount      uint32        `json:"gc_count"`
	LastGCPause  time.Duration `json:"last_gc_pause_ns"`
	CPUCount     int           `json:"cpu_count"`
	Uptime       time.Duration `json:"uptime_ns"`
	CollectedAt  time.Time     `json:"collected_at"`
}

// RuntimeMonitor exposes Go runtime statistics as observable gauges
type RuntimeMonitor struct {
	startTime time.Time
}

// NewRuntimeMonitor registers runtime gauges on meter. The gauges are read on scrape.
func NewRuntimeMonitor(meter metric.Meter) (*RuntimeMonitor, error) {
	rm := &RuntimeMonitor{startTime: time.Now()}

	goroutines, err := meter.Int64ObservableGauge(
		"csvplot_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heap, err := meter.Int64ObservableGauge(
		"csvplot_heap_alloc",
		metric.WithDescription("Heap bytes allocated and in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	uptime, err := meter.Float64ObservableGauge(
		"csvplot_uptime",
		metric.WithDescription("Process uptime"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := rm.Stats()
		o.ObserveInt64(goroutines, stats.Goroutines)
		o.ObserveInt64(heap, stats.HeapAlloc)
		o.ObserveFloat64(uptime, stats.Uptime.Seconds())
		return nil
	}, goroutines, heap, uptime)
	if err != nil {
		return nil, err
	}

	return rm, nil
}

// Stats collects a fresh snapshot
func (rm *RuntimeMonitor) Stats() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		Goroutines:   int64(runtime.NumGoroutine()),
		HeapAlloc:    int64(mem.Alloc),
		SystemMemory: int64(mem.Sys),
		GCCount:      mem.NumGC,
		LastGCPause:  time.Duration(mem.PauseNs[(mem.NumGC+255)%256]),
		CPUCount:     runtime.NumCPU(),
		Uptime:       time.Since(rm.startTime),
		CollectedAt:  time.Now(),
	}
}

package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"babelroom/internal/metrics"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker samples the relay's own process on a ticker and exposes
// CPU and resident memory through the Prometheus gauges. Purely
// observational; sampling errors are logged and skipped.
type TelemetryWorker struct {
	log      *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, m *metrics.Metrics, interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{
		log:      log.With("component", "telemetry"),
		metrics:  m,
		interval: interval,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			cpu, err := proc.CPUPercent()
			if err != nil {
				w.log.Debug("CPU sampling failed", "error", err)
				continue
			}
			ram, err := proc.MemoryPercent()
			if err != nil {
				w.log.Debug("Memory sampling failed", "error", err)
				continue
			}
			w.metrics.ProcessCPUPercent.Set(cpu)
			w.metrics.ProcessRAMPercent.Set(float64(ram))
			w.log.Debug("Process telemetry", "cpu_percent", cpu, "ram_percent", ram)
		}
	}
}

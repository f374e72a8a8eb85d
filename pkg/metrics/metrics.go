package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
)

// Operational metric names.
const (
	MetricStockAdd        = "stock_add_total"
	MetricStockDecrease   = "stock_decrease_total"
	MetricStockDrift      = "stock_drift_repaired_total"
	MetricOrderCreated    = "order_created_total"
	MetricCheckoutFailed  = "checkout_failed_total"
	MetricSystemCPUUsage  = "system_cpu_percent"
	MetricSystemMemUsage  = "system_mem_percent"
	MetricProcMemoryBytes = "process_mem_bytes"
)

var (
	mu      sync.Mutex
	storage tstorage.Storage
)

// InitMetrics opens the embedded time-series store under workdir.
func InitMetrics(workdir string) error {
	mu.Lock()
	defer mu.Unlock()
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithRetention(30*24*time.Hour),
	)
	if err != nil {
		return err
	}
	storage = s
	return nil
}

// Close flushes and closes the metric store.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}

// Inc records a single counter event for name.
func Inc(name string) {
	Gauge(name, 1)
}

// Gauge records an instantaneous value for name.
func Gauge(name string, value float64) {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return
	}
	_ = storage.InsertRows([]tstorage.Row{
		{
			Metric:    name,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
		},
	})
}

// Range returns the datapoints recorded for name in [start, end].
func Range(name string, start, end time.Time) ([]*tstorage.DataPoint, error) {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil, nil
	}
	return storage.Select(name, nil, start.Unix(), end.Unix())
}

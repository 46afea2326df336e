package stats

import (
	"bufio"
	"context"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const gigabyte = 1 << 30

// EnableMemoryStatistics starts a goroutine that logs the memory usage of
// the process every interval. Once ctx is done, the metrics gathered from g
// are appended to dumpFile, if defined.
func EnableMemoryStatistics(
	ctx context.Context, interval time.Duration,
	dumpFile string, g prometheus.Gatherer,
) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				LogRuntimeStatistics()
			case <-ctx.Done():
				if dumpFile == "" || g == nil {
					return
				}
				if err := DumpMetrics(dumpFile, g); err != nil {
					log.WithError(err).Warn("failed to dump metrics")
				}
				return
			}
		}
	}()
}

// LogRuntimeStatistics logs heap usage and number of goroutines.
func LogRuntimeStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.WithFields(log.Fields{
		"total_alloc_gb": float64(memStats.TotalAlloc) / gigabyte,
		"heap_alloc_gb":  float64(memStats.HeapAlloc) / gigabyte,
		"mallocs":        memStats.Mallocs,
		"frees":          memStats.Frees,
		"goroutines":     runtime.NumGoroutine(),
	}).Info("runtime statistics")
}

// DumpMetrics appends every metric family gathered from g to filename.
func DumpMetrics(filename string, g prometheus.Gatherer) error {
	file, err := os.OpenFile(
		filename,
		os.O_APPEND|os.O_CREATE|os.O_RDWR,
		0644,
	)
	if err != nil {
		return err
	}
	defer file.Close()

	families, err := g.Gather()
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(file)
	for _, f := range families {
		if _, err := writer.WriteString(f.String() + "\n"); err != nil {
			return err
		}
	}
	return writer.Flush()
}

package stats_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-yield/pkg/stats"
)

func TestControllerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := stats.NewControllerMetrics(reg)
	require.NoError(t, err)

	m.ObserveOperation("DEPOSIT", stats.OutcomeSuccess, time.Now())
	m.ObserveOperation("HARVEST", stats.OutcomeNoop, time.Now())
	m.ObserveOperation("HARVEST", stats.OutcomeNoop, time.Now())
	m.SetReceiptBalance(49.5)

	count, err := testutil.GatherAndCount(reg, "yield_controller_operations_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Registering twice on the same registry fails.
	_, err = stats.NewControllerMetrics(reg)
	require.Error(t, err)

	// A nil registerer leaves the metrics unregistered.
	_, err = stats.NewControllerMetrics(nil)
	require.NoError(t, err)
}

func TestDumpMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := stats.NewControllerMetrics(reg)
	require.NoError(t, err)
	m.ObserveOperation("WITHDRAW", stats.OutcomeFailure, time.Now())

	dumpFile := filepath.Join(t.TempDir(), "prometheus.txt")
	require.NoError(t, stats.DumpMetrics(dumpFile, reg))
	require.NoError(t, stats.DumpMetrics(dumpFile, reg))

	data, err := os.ReadFile(dumpFile)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(data), "yield_controller_operations_total"))
}

func TestEnableMemoryStatistics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := stats.NewControllerMetrics(reg)
	require.NoError(t, err)

	dumpFile := filepath.Join(t.TempDir(), "prometheus.txt")
	ctx, cancel := context.WithCancel(context.Background())
	stats.EnableMemoryStatistics(ctx, time.Millisecond, dumpFile, reg)
	time.Sleep(5 * time.Millisecond)
	cancel()

	require.Eventually(t, func() bool {
		_, err := os.Stat(dumpFile)
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/domain"
	"mqtt-monitor/internal/logger"
)

func TestNewProbeRegistry_CoversScalarMetrics(t *testing.T) {
	cfg := config.Default()
	cfg.ExtSensors = []config.ExtSensor{
		{Name: "attic", Type: config.SensorSHT21, Bus: 1},
		{Name: "water", Type: config.SensorDS18B20},
	}

	reg := NewProbeRegistry(cfg, nil)

	for _, id := range domain.AllMetrics() {
		if id.Info().PerInstance || id == domain.AptUpdates {
			continue
		}
		_, ok := reg.Lookup(id.String())
		assert.True(t, ok, "no probe for %s", id)
	}

	for _, name := range []string{"ext_attic", "ext_attic_humidity", "ext_water"} {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, "no probe for %s", name)
	}
}

func TestNewProbeRegistry_ReadsConfiguredRoots(t *testing.T) {
	proc := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(proc, "loadavg"), []byte("1.00 0.5 0.2 1/1 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(proc, "uptime"), []byte("90000.5 1.0\n"), 0o644))

	cfg := config.Default()
	cfg.Paths.Proc = proc
	cfg.Paths.Sys = t.TempDir()
	cfg.Metrics = config.MetricsConfig{Uptime: true, UptimeSeconds: true, Memory: true}

	specs := BuildSpecs(cfg, nil)
	snap := NewCollector(NewProbeRegistry(cfg, nil), "pi", time.Second, logger.Nop()).Collect(context.Background(), specs)

	days, _ := snap.Get("uptime_days")
	assert.Equal(t, "1", days.Format())
	secs, _ := snap.Get("uptime_seconds")
	assert.Equal(t, "90000", secs.Format())
	mem, _ := snap.Get("memory")
	assert.Equal(t, "0", mem.Format(), "missing meminfo falls back")
}

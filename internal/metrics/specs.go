package metrics

import (
	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/domain"
)

// BuildSpecs returns the enabled metric specs in canonical order: scalar
// metrics in MetricID order, then drive temperatures, then external
// sensors with humidity following temperature.
func BuildSpecs(cfg *config.Config, drives []string) []domain.MetricSpec {
	m := cfg.Metrics
	tracked := m.Availability

	enabled := map[domain.MetricID]bool{
		domain.CPULoad:       m.CPULoad,
		domain.CPUTemp:       m.CPUTemp,
		domain.UsedSpace:     m.UsedSpace,
		domain.Voltage:       m.Voltage,
		domain.SysClockSpeed: m.SysClockSpeed,
		domain.Swap:          m.Swap,
		domain.Memory:        m.Memory,
		domain.Uptime:        m.Uptime,
		domain.UptimeSeconds: m.UptimeSeconds,
		domain.WifiSignal:    m.WifiSignal,
		domain.WifiSignalDBM: m.WifiSignalDBM,
		domain.FanSpeed:      m.FanSpeed,
		domain.PowerStatus:   m.PowerStatus,
		domain.NetRx:         m.NetIO,
		domain.NetTx:         m.NetIO,
	}

	var specs []domain.MetricSpec

	for _, id := range domain.AllMetrics() {
		if id.Info().PerInstance || !enabled[id] {
			continue
		}
		specs = append(specs, domain.NewSpec(id, "", tracked))
	}

	if m.DriveTemps {
		for _, d := range drives {
			specs = append(specs, domain.NewSpec(domain.DriveTemp, d, tracked))
		}
	}

	for _, s := range cfg.ExtSensors {
		specs = append(specs, domain.NewSpec(domain.ExtTemperature, s.Name, tracked))
		if s.Type == config.SensorSHT21 {
			specs = append(specs, domain.NewSpec(domain.ExtHumidity, s.Name, tracked))
		}
	}

	return specs
}

// AptSpec describes the pending package count published by the update
// cycle.
func AptSpec(cfg *config.Config) domain.MetricSpec {
	return domain.NewSpec(domain.AptUpdates, "", cfg.Metrics.Availability)
}

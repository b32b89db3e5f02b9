package metrics

import (
	"context"

	"mqtt-monitor/internal/collector/cpu"
	"mqtt-monitor/internal/collector/disk"
	"mqtt-monitor/internal/collector/fan"
	"mqtt-monitor/internal/collector/memory"
	"mqtt-monitor/internal/collector/network"
	"mqtt-monitor/internal/collector/power"
	"mqtt-monitor/internal/collector/sensor"
	"mqtt-monitor/internal/collector/uptime"
	"mqtt-monitor/internal/collector/wifi"
	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/domain"
)

func number(read func() (float64, error)) Probe {
	return func(context.Context) (domain.Value, error) {
		v, err := read()
		if err != nil {
			return domain.Null(), err
		}
		return domain.Number(v), nil
	}
}

func numberCtx(read func(context.Context) (float64, error)) Probe {
	return func(ctx context.Context) (domain.Value, error) {
		v, err := read(ctx)
		if err != nil {
			return domain.Null(), err
		}
		return domain.Number(v), nil
	}
}

func text(read func(context.Context) (string, error)) Probe {
	return func(ctx context.Context) (domain.Value, error) {
		v, err := read(ctx)
		if err != nil {
			return domain.Null(), err
		}
		return domain.String(v), nil
	}
}

// NewProbeRegistry wires a probe for every metric the host can report.
// Drives come from disk.Collector.Drives at startup.
func NewProbeRegistry(cfg *config.Config, drives []disk.Drive) *Registry {
	reg := NewRegistry()
	p := cfg.Paths

	cpuc := cpu.NewCollector(p.Proc, p.Sys)
	memc := memory.NewCollector(p.Proc)
	upc := uptime.NewCollector(p.Proc)
	wifc := wifi.NewCollector(p.Proc, cfg.Metrics.WifiInterface)
	netc := network.NewCollector(p.Proc, cfg.Metrics.NetInterface)
	powc := power.NewCollector(p.Vcgencmd)
	fanc := fan.NewCollector(p.Sys)
	usedPath := cfg.Metrics.UsedSpacePath

	reg.Register(domain.CPULoad.String(), number(cpuc.Load))
	reg.Register(domain.CPUTemp.String(), number(cpuc.Temperature))
	reg.Register(domain.SysClockSpeed.String(), number(cpuc.ClockSpeed))
	reg.Register(domain.UsedSpace.String(), number(func() (float64, error) { return disk.UsedSpace(usedPath) }))
	reg.Register(domain.Voltage.String(), numberCtx(powc.Voltage))
	reg.Register(domain.PowerStatus.String(), text(powc.Status))
	reg.Register(domain.Swap.String(), number(memc.SwapUsed))
	reg.Register(domain.Memory.String(), number(memc.MemoryUsed))
	reg.Register(domain.Uptime.String(), number(upc.Days))
	reg.Register(domain.UptimeSeconds.String(), number(upc.Seconds))
	reg.Register(domain.WifiSignal.String(), number(wifc.Signal))
	reg.Register(domain.WifiSignalDBM.String(), number(wifc.SignalDBM))
	reg.Register(domain.FanSpeed.String(), number(fanc.Speed))
	reg.Register(domain.NetRx.String(), number(netc.Download))
	reg.Register(domain.NetTx.String(), number(netc.Upload))

	for _, d := range drives {
		reg.Register(domain.MetricName(domain.DriveTemp, d.Name), number(d.Temperature))
	}

	for _, s := range cfg.ExtSensors {
		switch s.Type {
		case config.SensorDS18B20:
			probe := sensor.NewDS18B20(p.Sys, s.ID)
			reg.Register(domain.MetricName(domain.ExtTemperature, s.Name), number(probe.Temperature))
		case config.SensorSHT21:
			probe := sensor.NewSHT21(s.Bus)
			reg.Register(domain.MetricName(domain.ExtTemperature, s.Name), numberCtx(probe.Temperature))
			reg.Register(domain.MetricName(domain.ExtHumidity, s.Name), numberCtx(probe.Humidity))
		}
	}

	return reg
}

// DriveNames returns the instance names of drives.
func DriveNames(drives []disk.Drive) []string {
	names := make([]string, len(drives))
	for i, d := range drives {
		names[i] = d.Name
	}
	return names
}

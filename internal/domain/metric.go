// Package domain
package domain

import "time"

// MetricID identifies a metric kind. Declaration order is the canonical
// field order used by bulk payloads and the collection pass.
type MetricID int

const (
	CPULoad MetricID = iota
	CPUTemp
	UsedSpace
	Voltage
	SysClockSpeed
	Swap
	Memory
	Uptime
	UptimeSeconds
	WifiSignal
	WifiSignalDBM
	FanSpeed
	PowerStatus
	NetRx
	NetTx
	DriveTemp
	ExtTemperature
	ExtHumidity
	AptUpdates

	// MetricCount is the number of metric kinds.
	MetricCount
)

type ValueKind int

const (
	KindNumber ValueKind = iota
	KindString
)

// MetricInfo is the static description of a MetricID.
type MetricInfo struct {
	Key      string
	Label    string
	Unit     string
	Decimals int
	Kind     ValueKind
	// PerInstance metrics are keyed by drive or sensor name.
	PerInstance bool
	// InBulk reports whether the metric is part of the bulk projection.
	InBulk bool
}

var metricTable = [MetricCount]MetricInfo{
	CPULoad:        {Key: "cpuload", Label: "CPU Usage", Unit: "%", Decimals: 1, InBulk: true},
	CPUTemp:        {Key: "cputemp", Label: "CPU Temperature", Unit: "°C", Decimals: 1, InBulk: true},
	UsedSpace:      {Key: "diskusage", Label: "Disk Usage", Unit: "%", Decimals: 0, InBulk: true},
	Voltage:        {Key: "voltage", Label: "CPU Voltage", Unit: "V", Decimals: 2, InBulk: true},
	SysClockSpeed:  {Key: "sys_clock_speed", Label: "CPU Clock Speed", Unit: "MHz", Decimals: 0, InBulk: true},
	Swap:           {Key: "swap", Label: "Disk Swap", Unit: "%", Decimals: 1, InBulk: true},
	Memory:         {Key: "memory", Label: "Memory Usage", Unit: "%", Decimals: 0, InBulk: true},
	Uptime:         {Key: "uptime_days", Label: "Uptime", Unit: "days", Decimals: 0, InBulk: true},
	UptimeSeconds:  {Key: "uptime_seconds", Label: "Uptime", Unit: "s", Decimals: 0, InBulk: true},
	WifiSignal:     {Key: "wifi_signal", Label: "Wifi Signal", Unit: "%", Decimals: 0, InBulk: true},
	WifiSignalDBM:  {Key: "wifi_signal_dbm", Label: "Wifi Signal", Unit: "dBm", Decimals: 0, InBulk: true},
	FanSpeed:       {Key: "rpi5_fan_speed", Label: "Fan Speed", Unit: "RPM", Decimals: 0, InBulk: true},
	PowerStatus:    {Key: "rpi_power_status", Label: "Power Status", Kind: KindString, InBulk: true},
	NetRx:          {Key: "net_rx", Label: "Network Download", Unit: "Mbit/s", Decimals: 2, InBulk: true},
	NetTx:          {Key: "net_tx", Label: "Network Upload", Unit: "Mbit/s", Decimals: 2, InBulk: true},
	DriveTemp:      {Key: "drive_temp", Label: "Temperature", Unit: "°C", Decimals: 1, PerInstance: true},
	ExtTemperature: {Key: "ext", Label: "Temperature", Unit: "°C", Decimals: 1, PerInstance: true, InBulk: true},
	ExtHumidity:    {Key: "ext", Label: "Humidity", Unit: "%", Decimals: 1, PerInstance: true, InBulk: true},
	AptUpdates:     {Key: "apt_updates", Label: "Apt Updates", Decimals: 0},
}

func (id MetricID) Info() MetricInfo {
	if id < 0 || id >= MetricCount {
		return MetricInfo{}
	}
	return metricTable[id]
}

func (id MetricID) String() string {
	return id.Info().Key
}

func (id MetricID) Valid() bool {
	return id >= 0 && id < MetricCount
}

// AllMetrics returns every MetricID in canonical order.
func AllMetrics() []MetricID {
	ids := make([]MetricID, 0, MetricCount)
	for id := MetricID(0); id < MetricCount; id++ {
		ids = append(ids, id)
	}
	return ids
}

// MetricName returns the wire name of a metric: the key for scalar metrics,
// and a name derived from instance for per-instance ones.
func MetricName(id MetricID, instance string) string {
	switch id {
	case DriveTemp:
		return "drive_temp_" + instance
	case ExtTemperature:
		return "ext_" + instance
	case ExtHumidity:
		return "ext_" + instance + "_humidity"
	default:
		return id.Info().Key
	}
}

type MetricSpec struct {
	ID                  MetricID
	Name                string
	Unit                string
	Decimals            int
	Enabled             bool
	AvailabilityTracked bool
	Fallback            Value
	Instance            string
}

// NewSpec fills name, unit, decimals and fallback from the metric table.
func NewSpec(id MetricID, instance string, tracked bool) MetricSpec {
	info := id.Info()

	fallback := Number(0)
	if info.Kind == KindString {
		fallback = String("Unknown")
	}

	return MetricSpec{
		ID:                  id,
		Name:                MetricName(id, instance),
		Unit:                info.Unit,
		Decimals:            info.Decimals,
		Enabled:             true,
		AvailabilityTracked: tracked,
		Fallback:            fallback,
		Instance:            instance,
	}
}

// Label returns the human readable metric name, qualified by instance.
func (s MetricSpec) Label() string {
	label := s.ID.Info().Label
	if s.Instance != "" {
		return s.Instance + " " + label
	}
	return label
}

type MetricSample struct {
	Spec      MetricSpec
	Value     Value
	Timestamp time.Time
}

// Format renders the sample value with the spec's fixed decimals.
func (s MetricSample) Format() string {
	return s.Value.Format(s.Spec.Decimals)
}

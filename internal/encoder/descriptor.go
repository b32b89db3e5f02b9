package encoder

import "mqtt-monitor/internal/domain"

const (
	ComponentSensor       = "sensor"
	ComponentBinarySensor = "binary_sensor"
	ComponentUpdate       = "update"
	ComponentButton       = "button"
)

// Descriptor is a Home Assistant MQTT discovery document.
type Descriptor struct {
	Name              string `json:"name"`
	UniqueID          string `json:"unique_id"`
	StateTopic        string `json:"state_topic,omitempty"`
	CommandTopic      string `json:"command_topic,omitempty"`
	PayloadPress      string `json:"payload_press,omitempty"`
	PayloadInstall    string `json:"payload_install,omitempty"`
	Icon              string `json:"icon,omitempty"`
	DeviceClass       string `json:"device_class,omitempty"`
	StateClass        string `json:"state_class,omitempty"`
	EntityCategory    string `json:"entity_category,omitempty"`
	Unit              string `json:"unit_of_measurement,omitempty"`
	ValueTemplate     string `json:"value_template,omitempty"`
	AvailabilityTopic string `json:"availability_topic,omitempty"`
	Device            Device `json:"device"`
}

type Device struct {
	Identifiers  []string    `json:"identifiers"`
	Manufacturer string      `json:"manufacturer,omitempty"`
	Model        string      `json:"model,omitempty"`
	Name         string      `json:"name"`
	SWVersion    string      `json:"sw_version,omitempty"`
	Connections  [][2]string `json:"connections,omitempty"`
}

// presentation is the per-metric part of a descriptor.
type presentation struct {
	component     string
	icon          string
	deviceClass   string
	stateClass    string
	category      string
	valueTemplate string
}

type describeFunc func(spec domain.MetricSpec) presentation

func measurement(icon, deviceClass string) describeFunc {
	return func(domain.MetricSpec) presentation {
		return presentation{
			component:   ComponentSensor,
			icon:        icon,
			deviceClass: deviceClass,
			stateClass:  "measurement",
		}
	}
}

func increasing(icon, deviceClass string) describeFunc {
	return func(domain.MetricSpec) presentation {
		return presentation{
			component:   ComponentSensor,
			icon:        icon,
			deviceClass: deviceClass,
			stateClass:  "total_increasing",
		}
	}
}

func powerStatus(domain.MetricSpec) presentation {
	return presentation{
		component:     ComponentBinarySensor,
		icon:          "mdi:flash",
		deviceClass:   "problem",
		category:      "diagnostic",
		valueTemplate: "{{ 'OFF' if 'OK' in value else 'ON' }}",
	}
}

func aptUpdates(domain.MetricSpec) presentation {
	return presentation{
		component:  ComponentSensor,
		icon:       "mdi:package-up",
		stateClass: "measurement",
		category:   "diagnostic",
	}
}

// describers has one entry per MetricID; the array length makes a missing
// kind a compile error and a nil entry a test failure.
var describers = [domain.MetricCount]describeFunc{
	domain.CPULoad:        measurement("mdi:speedometer", ""),
	domain.CPUTemp:        measurement("hass:thermometer", "temperature"),
	domain.UsedSpace:      measurement("mdi:harddisk", ""),
	domain.Voltage:        measurement("mdi:current-dc", "voltage"),
	domain.SysClockSpeed:  measurement("mdi:speedometer", "frequency"),
	domain.Swap:           measurement("mdi:harddisk", ""),
	domain.Memory:         measurement("mdi:memory", ""),
	domain.Uptime:         increasing("mdi:calendar", ""),
	domain.UptimeSeconds:  increasing("mdi:timer-outline", "duration"),
	domain.WifiSignal:     measurement("mdi:wifi", ""),
	domain.WifiSignalDBM:  measurement("mdi:wifi", "signal_strength"),
	domain.FanSpeed:       measurement("mdi:fan", ""),
	domain.PowerStatus:    powerStatus,
	domain.NetRx:          measurement("mdi:download-network", "data_rate"),
	domain.NetTx:          measurement("mdi:upload-network", "data_rate"),
	domain.DriveTemp:      measurement("mdi:harddisk", "temperature"),
	domain.ExtTemperature: measurement("hass:thermometer", "temperature"),
	domain.ExtHumidity:    measurement("mdi:water-percent", "humidity"),
	domain.AptUpdates:     aptUpdates,
}

func describe(spec domain.MetricSpec) presentation {
	if !spec.ID.Valid() || describers[spec.ID] == nil {
		return presentation{component: ComponentSensor}
	}
	return describers[spec.ID](spec)
}

// Package fan
package fan

import (
	"errors"
	"path/filepath"

	"mqtt-monitor/internal/collector/sysfs"
)

var ErrNoFan = errors.New("no fan tachometer")

type Collector struct {
	sys string
}

func NewCollector(sys string) *Collector {
	return &Collector{sys: sys}
}

// Speed returns the fan speed in RPM. The Raspberry Pi 5 cooling_fan
// device is preferred over any other hwmon tachometer.
func (c *Collector) Speed() (float64, error) {
	patterns := []string{
		filepath.Join(c.sys, "devices", "platform", "cooling_fan", "hwmon", "hwmon*", "fan1_input"),
		filepath.Join(c.sys, "class", "hwmon", "hwmon*", "fan1_input"),
	}

	for _, pattern := range patterns {
		matches, _ := filepath.Glob(pattern)
		for _, f := range matches {
			if rpm, err := sysfs.ReadFloat(f); err == nil {
				return rpm, nil
			}
		}
	}

	return 0, ErrNoFan
}

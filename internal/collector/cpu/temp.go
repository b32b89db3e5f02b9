package cpu

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"mqtt-monitor/internal/collector/sysfs"
	"mqtt-monitor/pkg"
)

var ErrNoSensor = errors.New("no cpu temperature sensor")

var hwmonTargets = []string{
	"cpu_thermal",
	"coretemp",
	"k10temp",
	"zenpower",
	"soc_thermal",
}

// Temperature reads the last thermal zone, falling back to a known hwmon
// CPU sensor. Result is in °C.
func (c *Collector) Temperature() (float64, error) {
	zones, _ := filepath.Glob(c.sysPath("class/thermal/thermal_zone*/temp"))
	for i := len(zones) - 1; i >= 0; i-- {
		v, err := sysfs.ReadFloat(zones[i])
		if err == nil {
			return sysfs.Round(v/1e3, 1), nil
		}
	}

	matches, _ := filepath.Glob(c.sysPath("class/hwmon/hwmon*/temp*_input"))
	for _, f := range matches {
		nameBytes, err := os.ReadFile(filepath.Join(filepath.Dir(f), "name"))
		if err != nil {
			continue
		}

		if !pkg.MatchAny(strings.TrimSpace(string(nameBytes)), hwmonTargets) {
			continue
		}

		v, err := sysfs.ReadFloat(f)
		if err == nil {
			return sysfs.Round(v/1e3, 1), nil
		}
	}

	return 0, ErrNoSensor
}

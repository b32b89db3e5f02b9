package cpu

import (
	"fmt"
	"strconv"
	"strings"

	"mqtt-monitor/internal/collector/sysfs"
)

// Load returns the one minute load average as a percentage of the
// available CPUs, rounded to one decimal.
func (c *Collector) Load() (float64, error) {
	raw, err := sysfs.ReadString(c.procPath("loadavg"))
	if err != nil {
		return 0, err
	}

	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty loadavg")
	}

	load, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parse loadavg: %w", err)
	}

	cpus := c.cpus
	if cpus < 1 {
		cpus = 1
	}

	return sysfs.Round(load/float64(cpus)*100, 1), nil
}

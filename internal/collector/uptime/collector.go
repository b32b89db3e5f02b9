// Package uptime
package uptime

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"mqtt-monitor/internal/collector/sysfs"
)

type Collector struct {
	path string
}

func NewCollector(proc string) *Collector {
	return &Collector{path: filepath.Join(proc, "uptime")}
}

// Seconds returns whole seconds since boot.
func (c *Collector) Seconds() (float64, error) {
	raw, err := sysfs.ReadString(c.path)
	if err != nil {
		return 0, err
	}

	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%s is empty", c.path)
	}

	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parse uptime %q: %w", fields[0], err)
	}

	return float64(int64(seconds)), nil
}

// Days returns completed days since boot.
func (c *Collector) Days() (float64, error) {
	seconds, err := c.Seconds()
	if err != nil {
		return 0, err
	}

	return float64(int64(seconds / 86400)), nil
}

package memory

import (
	"errors"

	"mqtt-monitor/internal/collector/sysfs"
)

var ErrNoMemTotal = errors.New("meminfo has no MemTotal")

// MemoryUsed returns used RAM as a whole percentage of total.
func (c *Collector) MemoryUsed() (float64, error) {
	info, err := c.readMemInfo()
	if err != nil {
		return 0, err
	}

	if info.memTotal == 0 {
		return 0, ErrNoMemTotal
	}

	used := info.memTotal - min(info.memAvailable, info.memTotal)
	return sysfs.Round(float64(used)/float64(info.memTotal)*100, 0), nil
}

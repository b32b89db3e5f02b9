package memory

import "mqtt-monitor/internal/collector/sysfs"

// SwapUsed returns used swap as a percentage, 0 when no swap is configured.
func (c *Collector) SwapUsed() (float64, error) {
	info, err := c.readMemInfo()
	if err != nil {
		return 0, err
	}

	if info.swapTotal == 0 {
		return 0, nil
	}

	used := info.swapTotal - min(info.swapFree, info.swapTotal)
	return sysfs.Round(float64(used)/float64(info.swapTotal)*100, 1), nil
}

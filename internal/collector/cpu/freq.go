package cpu

import "mqtt-monitor/internal/collector/sysfs"

// ClockSpeed returns the current frequency of cpu0 in MHz.
func (c *Collector) ClockSpeed() (float64, error) {
	khz, err := sysfs.ReadFloat(c.sysPath("devices/system/cpu/cpu0/cpufreq/scaling_cur_freq"))
	if err != nil {
		return 0, err
	}

	return sysfs.Round(khz/1e3, 0), nil
}

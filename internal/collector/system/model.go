package system

import (
	"bufio"
	"os"
	"strings"

	"mqtt-monitor/internal/collector/sysfs"
)

// getModel prefers the "Model" line of cpuinfo, which Raspberry Pi kernels
// provide, then the device tree and DMI product name.
func (c *Collector) getModel() string {
	if model := c.cpuinfoModel(); model != "" {
		return model
	}

	if b, err := os.ReadFile(c.path(c.proc, "device-tree", "model")); err == nil {
		if model := strings.TrimSpace(strings.TrimRight(string(b), "\x00")); model != "" {
			return model
		}
	}

	model, _ := sysfs.ReadString(c.path(c.sys, "class", "dmi", "id", "product_name"))
	return model
}

func (c *Collector) cpuinfoModel() string {
	f, err := os.Open(c.path(c.proc, "cpuinfo"))
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if ok && strings.TrimSpace(key) == "Model" {
			return strings.TrimSpace(value)
		}
	}

	return ""
}

func (c *Collector) getVendor() string {
	vendor, _ := sysfs.ReadString(c.path(c.sys, "class", "dmi", "id", "sys_vendor"))
	return vendor
}

func (c *Collector) getMAC(iface string) string {
	if iface == "" {
		iface = "eth0"
	}

	mac, err := sysfs.ReadString(c.path(c.sys, "class", "net", iface, "address"))
	if err != nil {
		return ""
	}
	return mac
}

// Package system
package system

import (
	"path/filepath"
	"strings"

	"mqtt-monitor/internal/domain"
)

type Collector struct {
	proc      string
	sys       string
	osRelease string
}

func NewCollector(proc, sys string) *Collector {
	return &Collector{
		proc:      proc,
		sys:       sys,
		osRelease: "/etc/os-release",
	}
}

// Facts gathers the host description once at startup. Missing sources
// leave the corresponding field empty.
func (c *Collector) Facts(hostname, iface string) domain.HostFacts {
	model := c.getModel()

	manufacturer := c.getVendor()
	if strings.Contains(model, "Raspberry Pi") {
		manufacturer = "Raspberry Pi"
	}

	if hostname == "" {
		hostname = getHostname()
	}

	return domain.HostFacts{
		Hostname:     hostname,
		Model:        model,
		Manufacturer: manufacturer,
		OS:           c.getOSName(),
		Kernel:       getKernelVersion(),
		MAC:          c.getMAC(iface),
	}
}

func (c *Collector) path(root string, elem ...string) string {
	return filepath.Join(append([]string{root}, elem...)...)
}

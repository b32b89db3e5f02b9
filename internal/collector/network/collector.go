// Package network
package network

import (
	"path/filepath"
	"time"
)

// NewCollector reads byte counters from proc/net/dev. An empty iface sums
// every interface except loopback.
func NewCollector(proc, iface string) *Collector {
	return &Collector{
		devPath: filepath.Join(proc, "net", "dev"),
		iface:   iface,
		now:     time.Now,
	}
}

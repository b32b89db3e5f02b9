// Package wifi
package wifi

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mqtt-monitor/internal/collector/sysfs"
)

// maxQuality is the link quality scale reported by most drivers.
const maxQuality = 70

type Collector struct {
	path  string
	iface string
}

func NewCollector(proc, iface string) *Collector {
	return &Collector{path: filepath.Join(proc, "net", "wireless"), iface: iface}
}

type reading struct {
	quality float64
	level   float64
}

func (c *Collector) read() (reading, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return reading{}, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name, rest, ok := strings.Cut(scanner.Text(), ":")
		if !ok || strings.TrimSpace(name) != c.iface {
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) < 3 {
			return reading{}, fmt.Errorf("short wireless line for %s", c.iface)
		}

		quality, err := parseField(fields[1])
		if err != nil {
			return reading{}, err
		}
		level, err := parseField(fields[2])
		if err != nil {
			return reading{}, err
		}

		return reading{quality: quality, level: level}, nil
	}

	if err := scanner.Err(); err != nil {
		return reading{}, err
	}

	return reading{}, fmt.Errorf("interface %s not in %s", c.iface, c.path)
}

func parseField(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(s, "."), 64)
}

// Signal returns the link quality as a whole percentage.
func (c *Collector) Signal() (float64, error) {
	r, err := c.read()
	if err != nil {
		return 0, err
	}

	return sysfs.Round(r.quality/maxQuality*100, 0), nil
}

// SignalDBM returns the signal level in dBm.
func (c *Collector) SignalDBM() (float64, error) {
	r, err := c.read()
	if err != nil {
		return 0, err
	}

	return r.level, nil
}

package network

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

func (c *Collector) readTotals() (uint64, uint64, error) {
	f, err := os.Open(c.devPath)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	var rxTotal uint64
	var txTotal uint64

	scanner := bufio.NewScanner(f)
	// skip headers (first two lines)
	for i := 0; i < 2 && scanner.Scan(); i++ {
	}

	for scanner.Scan() {
		name, rest, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok {
			continue
		}

		parts := strings.Fields(rest)
		if len(parts) < 16 {
			continue
		}

		iface := strings.TrimSpace(name)
		if c.iface == "" && iface == "lo" {
			continue
		}
		if c.iface != "" && iface != c.iface {
			continue
		}

		rxTotal += parseUint(parts[0])
		txTotal += parseUint(parts[8])
	}

	return rxTotal, txTotal, scanner.Err()
}

func parseUint(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

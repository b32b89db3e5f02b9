package network

import "mqtt-monitor/internal/collector/sysfs"

// Download returns the receive rate in Mbit/s since the previous call.
// The first call primes the counter and returns 0.
func (c *Collector) Download() (float64, error) {
	rx, _, err := c.readTotals()
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate(&c.rx, rx), nil
}

// Upload is Download for the transmit direction.
func (c *Collector) Upload() (float64, error) {
	_, tx, err := c.readTotals()
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate(&c.tx, tx), nil
}

func (c *Collector) rate(last *counter, bytes uint64) float64 {
	now := c.now()

	var mbps float64
	if !last.at.IsZero() {
		elapsed := now.Sub(last.at).Seconds()
		if elapsed > 0 && bytes >= last.bytes {
			mbps = float64(bytes-last.bytes) * 8 / elapsed / 1_000_000
		}
	}

	last.bytes = bytes
	last.at = now

	return sysfs.Round(mbps, 2)
}

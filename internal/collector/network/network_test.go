package network

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devHeader = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
`

func devLine(iface string, rx, tx uint64) string {
	return fmt.Sprintf("%6s: %d 10 0 0 0 0 0 0 %d 10 0 0 0 0 0 0\n", iface, rx, tx)
}

func TestRates(t *testing.T) {
	proc := t.TempDir()
	devFile := filepath.Join(proc, "net", "dev")
	require.NoError(t, os.MkdirAll(filepath.Dir(devFile), 0o755))

	write := func(rx, tx uint64) {
		content := devHeader + devLine("lo", 999999, 999999) + devLine("eth0", rx, tx)
		require.NoError(t, os.WriteFile(devFile, []byte(content), 0o644))
	}

	clock := time.Unix(1000, 0)
	c := NewCollector(proc, "")
	c.now = func() time.Time { return clock }

	write(1_000_000, 500_000)
	down, err := c.Download()
	require.NoError(t, err)
	assert.Zero(t, down)
	up, err := c.Upload()
	require.NoError(t, err)
	assert.Zero(t, up)

	clock = clock.Add(2 * time.Second)
	write(1_500_000, 750_000)

	down, err = c.Download()
	require.NoError(t, err)
	assert.Equal(t, 2.0, down)

	up, err = c.Upload()
	require.NoError(t, err)
	assert.Equal(t, 1.0, up)
}

func TestReadTotals_Interface(t *testing.T) {
	proc := t.TempDir()
	devFile := filepath.Join(proc, "net", "dev")
	require.NoError(t, os.MkdirAll(filepath.Dir(devFile), 0o755))
	content := devHeader + devLine("eth0", 10, 20) + devLine("wlan0", 100, 200)
	require.NoError(t, os.WriteFile(devFile, []byte(content), 0o644))

	rx, tx, err := NewCollector(proc, "wlan0").readTotals()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), rx)
	assert.Equal(t, uint64(200), tx)

	rx, tx, err = NewCollector(proc, "").readTotals()
	require.NoError(t, err)
	assert.Equal(t, uint64(110), rx)
	assert.Equal(t, uint64(220), tx)
}

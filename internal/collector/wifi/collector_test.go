package wifi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wireless = `Inter-| sta-|   Quality        |   Discarded packets               | Missed | WE
 face | tus | link level noise |  nwid  crypt   frag  retry   misc | beacon | 22
 wlan0: 0000   56.  -54.  -256        0      0      0      0     57        0
`

func newCollector(t *testing.T, iface string) *Collector {
	t.Helper()
	proc := t.TempDir()
	path := filepath.Join(proc, "net", "wireless")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(wireless), 0o644))
	return NewCollector(proc, iface)
}

func TestSignal(t *testing.T) {
	c := newCollector(t, "wlan0")

	pct, err := c.Signal()
	require.NoError(t, err)
	assert.Equal(t, 80.0, pct)

	dbm, err := c.SignalDBM()
	require.NoError(t, err)
	assert.Equal(t, -54.0, dbm)
}

func TestSignal_MissingInterface(t *testing.T) {
	_, err := newCollector(t, "wlan1").Signal()
	assert.Error(t, err)
}

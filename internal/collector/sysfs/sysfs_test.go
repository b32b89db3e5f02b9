package sysfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFloat(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "temp")
	bad := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(good, []byte("48312\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("n/a\n"), 0o644))

	v, err := ReadFloat(good)
	require.NoError(t, err)
	assert.Equal(t, 48312.0, v)

	_, err = ReadFloat(bad)
	assert.Error(t, err)

	_, err = ReadFloat(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 21.6, Round(21.5654, 1))
	assert.Equal(t, 42.0, Round(42.49, 0))
	assert.Equal(t, -1.3, Round(-1.25, 1))
}

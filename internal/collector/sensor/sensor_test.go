package sensor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	assert.Equal(t, byte(249), Checksum([]byte{99, 172}))
	assert.Equal(t, byte(132), Checksum([]byte{99, 160}))
}

func TestConvert(t *testing.T) {
	assert.InDelta(t, 21.5654, ConvertTemperature([]byte{99, 172}), 1e-4)
	assert.InDelta(t, 42.4924, ConvertHumidity([]byte{99, 82}), 1e-4)
}

type fakeI2C struct {
	written  []byte
	response []byte
	closed   bool
}

func (f *fakeI2C) Write(p []byte) (int, error) {
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakeI2C) Read(p []byte) (int, error) {
	return bytes.NewReader(f.response).Read(p)
}

func (f *fakeI2C) Close() error {
	f.closed = true
	return nil
}

func TestSHT21_Temperature(t *testing.T) {
	dev := &fakeI2C{response: []byte{99, 172, 249}}
	s := NewSHT21(1)
	s.open = func(bus int) (i2cDevice, error) {
		assert.Equal(t, 1, bus)
		return dev, nil
	}

	temp, err := s.Temperature(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 21.6, temp)
	assert.Equal(t, []byte{cmdSoftReset, cmdTriggerTempNH}, dev.written)
	assert.True(t, dev.closed)
}

func TestSHT21_BadChecksum(t *testing.T) {
	s := NewSHT21(1)
	s.open = func(int) (i2cDevice, error) {
		return &fakeI2C{response: []byte{99, 82, 0}}, nil
	}

	_, err := s.Humidity(context.Background())
	assert.ErrorIs(t, err, ErrBadCRC)
}

func TestSHT21_OpenError(t *testing.T) {
	s := NewSHT21(1)
	s.open = func(int) (i2cDevice, error) { return nil, errors.New("no bus") }

	_, err := s.Temperature(context.Background())
	assert.EqualError(t, err, "no bus")
}

func TestSHT21_Cancelled(t *testing.T) {
	s := NewSHT21(1)
	s.open = func(int) (i2cDevice, error) { return &fakeI2C{}, nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Temperature(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func writeW1(t *testing.T, sys, id, content string) {
	t.Helper()
	dir := filepath.Join(sys, "bus", "w1", "devices", id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "w1_slave"), []byte(content), 0o644))
}

const w1OK = "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=23125\n"

func TestDS18B20_ResolvesAndCaches(t *testing.T) {
	sys := t.TempDir()
	writeW1(t, sys, "28-0000075a1b2c", w1OK)
	writeW1(t, sys, "28-0000082f3e4d", "00 00 : crc=00 YES\n00 00 t=30000\n")
	require.NoError(t, os.MkdirAll(filepath.Join(sys, "bus", "w1", "devices", "w1_bus_master1"), 0o755))

	s := NewDS18B20(sys, "")
	assert.Empty(t, s.ID())

	temp, err := s.Temperature()
	require.NoError(t, err)
	assert.Equal(t, 23.1, temp)
	assert.Equal(t, "28-0000075a1b2c", s.ID())

	// a new device appearing first in order does not change the cached ID
	writeW1(t, sys, "28-0000000000aa", "00 : crc=00 YES\n00 t=1000\n")
	temp, err = s.Temperature()
	require.NoError(t, err)
	assert.Equal(t, 23.1, temp)
}

func TestDS18B20_ExplicitID(t *testing.T) {
	sys := t.TempDir()
	writeW1(t, sys, "28-0000082f3e4d", "00 00 : crc=00 YES\n00 00 t=-1500\n")

	temp, err := NewDS18B20(sys, "0000082f3e4d").Temperature()
	require.NoError(t, err)
	assert.Equal(t, -1.5, temp)
}

func TestDS18B20_Errors(t *testing.T) {
	sys := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(sys, "bus", "w1", "devices"), 0o755))

	_, err := NewDS18B20(sys, "").Temperature()
	assert.ErrorIs(t, err, ErrNoDevice)

	writeW1(t, sys, "28-bad", "00 : crc=00 NO\n00 t=1000\n")
	_, err = NewDS18B20(sys, "28-bad").Temperature()
	assert.ErrorIs(t, err, ErrBadCRC)
}

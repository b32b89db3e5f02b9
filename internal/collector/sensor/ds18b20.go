// Package sensor reads external 1-Wire and I2C sensors.
package sensor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"mqtt-monitor/internal/collector/sysfs"
)

var (
	ErrNoDevice  = errors.New("no 1-wire temperature device")
	ErrBadCRC    = errors.New("sensor checksum mismatch")
	ErrMalformed = errors.New("malformed sensor reading")
)

const w1Family = "28-"

// DS18B20 is a 1-Wire temperature probe. An empty ID is resolved to the
// first device on the bus on first read and reused afterwards.
type DS18B20 struct {
	devicesDir string

	mu sync.Mutex
	id string
}

func NewDS18B20(sys, id string) *DS18B20 {
	if id != "" && !strings.HasPrefix(id, w1Family) {
		id = w1Family + id
	}

	return &DS18B20{
		devicesDir: filepath.Join(sys, "bus", "w1", "devices"),
		id:         id,
	}
}

// ID returns the device directory name, empty until resolved.
func (s *DS18B20) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *DS18B20) resolve() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != "" {
		return s.id, nil
	}

	ids, err := AvailableDS18B20(s.devicesDir)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", ErrNoDevice
	}

	s.id = ids[0]
	return s.id, nil
}

// AvailableDS18B20 lists temperature probes present in dir, sorted.
func AvailableDS18B20(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), w1Family) {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)

	return ids, nil
}

// Temperature returns °C rounded to one decimal.
func (s *DS18B20) Temperature() (float64, error) {
	id, err := s.resolve()
	if err != nil {
		return 0, err
	}

	b, err := os.ReadFile(filepath.Join(s.devicesDir, id, "w1_slave"))
	if err != nil {
		return 0, err
	}

	milli, err := parseW1Slave(string(b))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", id, err)
	}

	return sysfs.Round(milli/1000, 1), nil
}

// parseW1Slave extracts t= from the second line after checking the CRC
// verdict on the first.
func parseW1Slave(content string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) < 2 {
		return 0, ErrMalformed
	}

	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, ErrBadCRC
	}

	_, raw, ok := strings.Cut(lines[1], "t=")
	if !ok {
		return 0, ErrMalformed
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

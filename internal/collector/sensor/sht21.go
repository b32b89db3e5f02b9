package sensor

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"mqtt-monitor/internal/collector/sysfs"
)

const (
	sht21Address      = 0x40
	i2cSlave          = 0x0703
	cmdSoftReset      = 0xFE
	cmdTriggerTempNH  = 0xF3
	cmdTriggerHumidNH = 0xF5
	statusBitsMask    = 0xFFFC
	crcPolynomial     = 0x131
	softResetWait     = 50 * time.Millisecond
	temperatureWait   = 86 * time.Millisecond
	humidityWait      = 30 * time.Millisecond
)

type i2cDevice interface {
	io.ReadWriteCloser
}

type openFunc func(bus int) (i2cDevice, error)

// SHT21 reads temperature and humidity from a Sensirion SHT21 on an I2C
// bus. Each reading opens the bus, resets the sensor and closes it again.
type SHT21 struct {
	bus  int
	open openFunc

	// mu serialises bus access between the temperature and humidity probes.
	mu sync.Mutex
}

func NewSHT21(bus int) *SHT21 {
	return &SHT21{bus: bus, open: openI2C}
}

func openI2C(bus int) (i2cDevice, error) {
	f, err := os.OpenFile(fmt.Sprintf("/dev/i2c-%d", bus), os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	if err := unix.IoctlSetInt(int(f.Fd()), i2cSlave, sht21Address); err != nil {
		f.Close()
		return nil, fmt.Errorf("select i2c address 0x%x: %w", sht21Address, err)
	}

	return f, nil
}

func (s *SHT21) Temperature(ctx context.Context) (float64, error) {
	data, err := s.measure(ctx, cmdTriggerTempNH, temperatureWait)
	if err != nil {
		return 0, err
	}
	return sysfs.Round(ConvertTemperature(data), 1), nil
}

func (s *SHT21) Humidity(ctx context.Context) (float64, error) {
	data, err := s.measure(ctx, cmdTriggerHumidNH, humidityWait)
	if err != nil {
		return 0, err
	}
	return sysfs.Round(ConvertHumidity(data), 1), nil
}

func (s *SHT21) measure(ctx context.Context, cmd byte, wait time.Duration) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, err := s.open(s.bus)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	if _, err := dev.Write([]byte{cmdSoftReset}); err != nil {
		return nil, fmt.Errorf("soft reset: %w", err)
	}
	if err := sleep(ctx, softResetWait); err != nil {
		return nil, err
	}

	if _, err := dev.Write([]byte{cmd}); err != nil {
		return nil, fmt.Errorf("trigger 0x%x: %w", cmd, err)
	}
	if err := sleep(ctx, wait); err != nil {
		return nil, err
	}

	data := make([]byte, 3)
	if _, err := io.ReadFull(dev, data); err != nil {
		return nil, fmt.Errorf("read measurement: %w", err)
	}

	if Checksum(data[:2]) != data[2] {
		return nil, ErrBadCRC
	}

	return data, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Checksum is the SHT21 CRC-8 over data, polynomial x^8+x^5+x^4+1.
func Checksum(data []byte) byte {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b)
		for range 8 {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return byte(crc)
}

func rawValue(data []byte) float64 {
	return float64((uint16(data[0])<<8 | uint16(data[1])) & statusBitsMask)
}

// ConvertTemperature applies T = -46.85 + 175.72 * ST / 2^16.
func ConvertTemperature(data []byte) float64 {
	return -46.85 + 175.72*rawValue(data)/65536
}

// ConvertHumidity applies RH = -6 + 125 * SRH / 2^16.
func ConvertHumidity(data []byte) float64 {
	return -6 + 125*rawValue(data)/65536
}

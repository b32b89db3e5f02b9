package disk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mqtt-monitor/internal/collector/sysfs"
	"mqtt-monitor/pkg"
)

var ErrUnknownDrive = errors.New("unknown drive")

var driveTargets = []string{"nvme", "sd*", "drivetemp"}

// Drive is a hwmon device reporting a drive temperature.
type Drive struct {
	Name string
	dir  string
}

// Drives lists hwmon devices that belong to drives, sorted by name. Devices
// sharing a hwmon name get a numeric suffix.
func (c *Collector) Drives() []Drive {
	dirs, _ := filepath.Glob(filepath.Join(c.hwmonRoot, "hwmon*"))
	sort.Strings(dirs)

	var drives []Drive
	seen := make(map[string]int)

	for _, dir := range dirs {
		name, err := sysfs.ReadString(filepath.Join(dir, "name"))
		if err != nil || !pkg.MatchAny(name, driveTargets) {
			continue
		}

		name = sanitize(name)
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s%d", name, n-1)
		}

		drives = append(drives, Drive{Name: name, dir: dir})
	}

	sort.Slice(drives, func(i, j int) bool { return drives[i].Name < drives[j].Name })
	return drives
}

// Temperature returns the first temp*_input of the drive in °C.
func (d Drive) Temperature() (float64, error) {
	if d.dir == "" {
		return 0, ErrUnknownDrive
	}

	inputs, _ := filepath.Glob(filepath.Join(d.dir, "temp*_input"))
	sort.Strings(inputs)

	for _, f := range inputs {
		v, err := sysfs.ReadFloat(f)
		if err == nil {
			return sysfs.Round(v/1e3, 1), nil
		}
	}

	return 0, fmt.Errorf("%s: %w", d.Name, os.ErrNotExist)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)
}

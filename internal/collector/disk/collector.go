// Package disk
package disk

import "path/filepath"

type Collector struct {
	hwmonRoot string
}

func NewCollector(sys string) *Collector {
	return &Collector{hwmonRoot: filepath.Join(sys, "class", "hwmon")}
}

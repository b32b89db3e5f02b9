// Package memory
package memory

import "path/filepath"

type Collector struct {
	meminfoPath string
}

func NewCollector(proc string) *Collector {
	return &Collector{meminfoPath: filepath.Join(proc, "meminfo")}
}

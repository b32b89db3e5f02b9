// Package cpu
package cpu

import (
	"path/filepath"
	"runtime"
)

type Collector struct {
	proc string
	sys  string
	cpus int
}

func NewCollector(proc, sys string) *Collector {
	return &Collector{
		proc: proc,
		sys:  sys,
		cpus: runtime.NumCPU(),
	}
}

func (c *Collector) procPath(elem ...string) string {
	return filepath.Join(append([]string{c.proc}, elem...)...)
}

func (c *Collector) sysPath(elem ...string) string {
	return filepath.Join(append([]string{c.sys}, elem...)...)
}

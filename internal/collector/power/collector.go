// Package power reads Raspberry Pi firmware values through vcgencmd.
package power

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

type Collector struct {
	vcgencmd string
	run      runFunc
}

func NewCollector(vcgencmd string) *Collector {
	return &Collector{vcgencmd: vcgencmd, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// query runs vcgencmd and returns the value after "key=".
func (c *Collector) query(ctx context.Context, key string, args ...string) (string, error) {
	out, err := c.run(ctx, c.vcgencmd, args...)
	if err != nil {
		return "", err
	}

	line := strings.TrimSpace(string(out))
	k, v, ok := strings.Cut(line, "=")
	if !ok || k != key {
		return "", fmt.Errorf("unexpected vcgencmd output %q", line)
	}
	return v, nil
}

// Voltage returns the core voltage in volts.
func (c *Collector) Voltage(ctx context.Context) (float64, error) {
	raw, err := c.query(ctx, "volt", "measure_volts")
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "V"), 64)
	if err != nil {
		return 0, fmt.Errorf("parse voltage %q: %w", raw, err)
	}
	return v, nil
}

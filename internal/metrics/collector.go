// Package metrics
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mqtt-monitor/internal/domain"
	"mqtt-monitor/internal/logger"
)

var (
	ErrNoProbe      = errors.New("no probe registered")
	ErrProbeTimeout = errors.New("probe timed out")
	ErrNoReading    = errors.New("probe returned no reading")
)

type Collector struct {
	registry *Registry
	host     string
	timeout  time.Duration
	log      logger.Logger
	now      func() time.Time
}

func NewCollector(registry *Registry, host string, timeout time.Duration, log logger.Logger) *Collector {
	return &Collector{
		registry: registry,
		host:     host,
		timeout:  timeout,
		log:      log,
		now:      time.Now,
	}
}

// Collect runs the probe of every enabled spec in order. Failed probes
// yield null for tracked specs and the spec fallback otherwise; Collect
// itself never fails.
func (c *Collector) Collect(ctx context.Context, specs []domain.MetricSpec) *domain.Snapshot {
	snap := domain.NewSnapshot(c.host, c.now().UTC())

	for _, spec := range specs {
		if !spec.Enabled {
			continue
		}

		value, err := c.read(ctx, spec.Name)
		if err != nil {
			c.log.Warn("collector", "name", spec.Name, "error", err)
			if spec.AvailabilityTracked {
				value = domain.Null()
			} else {
				value = spec.Fallback
			}
		}

		snap.Add(domain.MetricSample{
			Spec:      spec,
			Value:     value,
			Timestamp: c.now().UTC(),
		})
	}

	return snap
}

type result struct {
	value domain.Value
	err   error
}

func (c *Collector) read(ctx context.Context, name string) (domain.Value, error) {
	probe, ok := c.registry.Lookup(name)
	if !ok {
		return domain.Null(), fmt.Errorf("%s: %w", name, ErrNoProbe)
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("probe panic: %v", r)}
			}
		}()

		v, err := probe(probeCtx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return domain.Null(), r.err
		}
		if r.value.IsNull() {
			return domain.Null(), ErrNoReading
		}
		return r.value, nil
	case <-probeCtx.Done():
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			return domain.Null(), fmt.Errorf("%w after %s", ErrProbeTimeout, c.timeout)
		}
		return domain.Null(), probeCtx.Err()
	}
}

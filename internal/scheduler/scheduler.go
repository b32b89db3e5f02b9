// Package scheduler drives the metrics and update-check cycles.
package scheduler

import (
	"context"
	"io"
	"math/rand/v2"
	"time"

	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/domain"
	"mqtt-monitor/internal/encoder"
	"mqtt-monitor/internal/logger"
	"mqtt-monitor/internal/storage/snapshot"
)

type Collector interface {
	Collect(ctx context.Context, specs []domain.MetricSpec) *domain.Snapshot
}

type Publisher interface {
	PublishAll(msgs []encoder.Message) (int, error)
}

type StateSink interface {
	Push(ctx context.Context, snap *domain.Snapshot) error
}

type UpdateChecker interface {
	Check(ctx context.Context) (domain.UpdateStatus, error)
}

type History interface {
	Insert(ctx context.Context, snap *domain.Snapshot) error
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type SnapshotWriter interface {
	Write(snap *domain.Snapshot) error
}

type Broadcaster interface {
	Broadcast(snap *domain.Snapshot)
}

// Deps are the collaborators of a Scheduler. Collector and Encoder are
// required; exactly one of Publisher and Sink is used for each cycle, the
// sink taking precedence. The rest are optional.
type Deps struct {
	Collector Collector
	Encoder   *encoder.Encoder
	Publisher Publisher
	Sink      StateSink
	Checker   UpdateChecker
	History   History
	File      SnapshotWriter
	Live      Broadcaster
	Latest    *snapshot.Latest
	// Display receives a table of every snapshot when set.
	Display io.Writer
}

type Scheduler struct {
	Deps

	specs   []domain.MetricSpec
	apt     *domain.MetricSpec
	log     logger.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) bool
	jitter  func(limit time.Duration) time.Duration
	bulk    bool
	enabled bool

	interval       time.Duration
	updateInterval time.Duration
	randomDelay    time.Duration
	repeatEvery    int
	retention      time.Duration

	metricCycles int
	updateCycles int
}

func New(cfg *config.Config, specs []domain.MetricSpec, apt *domain.MetricSpec, deps Deps, log logger.Logger) *Scheduler {
	return &Scheduler{
		Deps:           deps,
		specs:          specs,
		apt:            apt,
		log:            log.With("component", "scheduler"),
		now:            time.Now,
		sleep:          sleep,
		jitter:         jitter,
		bulk:           cfg.PublishMode == config.PublishBulk,
		enabled:        cfg.Discovery.Enabled,
		interval:       cfg.UpdateInterval,
		updateInterval: cfg.Update.CheckInterval,
		randomDelay:    cfg.RandomDelay,
		repeatEvery:    cfg.Discovery.RepeatEvery,
		retention:      cfg.History.Retention,
	}
}

// RunOnce performs a single metrics cycle, after the configured random
// delay.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.metricsCycle(ctx, s.randomDelay)
	return nil
}

// RunMetrics repeats the metrics cycle every interval until ctx ends. A
// cycle that has started always completes, and none starts after ctx ends.
func (s *Scheduler) RunMetrics(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			s.log.Debug("metrics loop stopped")
			return nil
		}

		s.metricsCycle(ctx, 0)

		if !s.sleep(ctx, s.interval) {
			s.log.Debug("metrics loop stopped")
			return nil
		}
	}
}

// RunUpdates repeats the update check until ctx ends. Without a checker it
// returns immediately.
func (s *Scheduler) RunUpdates(ctx context.Context) error {
	if s.Checker == nil {
		return nil
	}

	for {
		if ctx.Err() != nil {
			s.log.Debug("update loop stopped")
			return nil
		}

		s.CheckOnce(ctx)

		if !s.sleep(ctx, s.updateInterval) {
			s.log.Debug("update loop stopped")
			return nil
		}
	}
}

// CheckOnce runs one update check and publishes its result.
func (s *Scheduler) CheckOnce(ctx context.Context) {
	if s.Checker == nil {
		return
	}
	work := context.WithoutCancel(ctx)

	status, err := s.Checker.Check(work)
	if err != nil {
		s.log.Warn("update check failed", "error", err)
	}

	withDiscovery := s.discoveryDue(s.updateCycles)
	s.updateCycles++

	if s.Publisher == nil || s.Sink != nil {
		s.log.Debug("update status not published without a broker", "available", status.Available())
		return
	}

	s.publish(s.Encoder.EncodeUpdate(status, s.apt, withDiscovery))
}

func (s *Scheduler) metricsCycle(ctx context.Context, delay time.Duration) {
	work := context.WithoutCancel(ctx)
	start := s.now()

	snap := s.Collector.Collect(work, s.specs)

	if delay > 0 {
		d := s.jitter(delay)
		s.log.Debug("delaying publish", "delay", d)
		s.sleep(work, d)
	}

	if s.Display != nil {
		if err := snapshot.Format(s.Display, snap); err != nil {
			s.log.Warn("display failed", "error", err)
		}
	}

	withDiscovery := s.discoveryDue(s.metricCycles)
	s.metricCycles++

	switch {
	case s.Sink != nil:
		if err := s.Sink.Push(work, snap); err != nil {
			s.log.Warn("state push incomplete", "error", err)
		}
	case s.Publisher != nil:
		if s.bulk {
			s.publish(s.Encoder.EncodeBulkBatch(snap))
		} else {
			s.publish(s.Encoder.EncodeDiscrete(snap, withDiscovery))
		}
	}

	if s.Latest != nil {
		s.Latest.Set(snap)
	}
	if s.Live != nil {
		s.Live.Broadcast(snap)
	}
	s.record(work, snap)

	if s.File != nil {
		if err := s.File.Write(snap); err != nil {
			s.log.Warn("snapshot file write failed", "error", err)
		}
	}

	s.log.Debug("metrics cycle finished", "metrics", snap.Len(), "time", s.now().Sub(start))
}

func (s *Scheduler) record(ctx context.Context, snap *domain.Snapshot) {
	if s.History == nil {
		return
	}

	if err := s.History.Insert(ctx, snap); err != nil {
		s.log.Warn("history insert failed", "error", err)
		return
	}

	if s.retention <= 0 {
		return
	}
	n, err := s.History.Prune(ctx, snap.Taken.Add(-s.retention))
	if err != nil {
		s.log.Warn("history prune failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Debug("history pruned", "rows", n)
	}
}

func (s *Scheduler) publish(msgs []encoder.Message) {
	n, err := s.Publisher.PublishAll(msgs)
	if err != nil {
		s.log.Warn("publish incomplete", "accepted", n, "total", len(msgs), "error", err)
	}
}

// discoveryDue reports whether cycle n carries discovery documents: the
// first cycle, then every repeatEvery cycles.
func (s *Scheduler) discoveryDue(n int) bool {
	if !s.enabled {
		return false
	}
	if n == 0 {
		return true
	}
	return s.repeatEvery > 0 && n%s.repeatEvery == 0
}

// sleep waits for d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func jitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}

// Package command reacts to control payloads received from the broker and
// runs host commands.
package command

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/domain"
	"mqtt-monitor/internal/logger"
	"mqtt-monitor/internal/shutdown"
)

type Installer interface {
	Install(ctx context.Context) error
}

type runner interface {
	Run(ctx context.Context, argv []string) (string, error)
}

type Handler struct {
	cfg       config.CommandsConfig
	installer Installer
	stop      *shutdown.Coordinator
	run       runner
	log       logger.Logger

	installing atomic.Bool
	powerOnce  sync.Once
	wg         sync.WaitGroup
}

func NewHandler(cfg config.CommandsConfig, installer Installer, stop *shutdown.Coordinator, log logger.Logger) *Handler {
	log = log.With("component", "command")
	return &Handler{
		cfg:       cfg,
		installer: installer,
		stop:      stop,
		run:       NewRunner(log, cfg.Timeout),
		log:       log,
	}
}

// Handle dispatches one payload. It never blocks on the command itself, so
// it is safe to call from the MQTT client's delivery goroutine.
func (h *Handler) Handle(payload []byte) {
	cmd := domain.Command(strings.TrimSpace(string(payload)))
	h.log.Info("command received", "command", string(cmd))

	switch cmd {
	case domain.CommandInstall:
		h.install()
	case domain.CommandRestart:
		h.power(shutdown.ReasonRestart, h.cfg.Restart)
	case domain.CommandShutdown:
		h.power(shutdown.ReasonShutdown, h.cfg.Shutdown)
	case domain.CommandDisplayOn:
		h.async(string(cmd), h.cfg.DisplayOn)
	case domain.CommandDisplayOff:
		h.async(string(cmd), h.cfg.DisplayOff)
	default:
		h.log.Warn("unknown command ignored", "command", string(cmd))
	}
}

func (h *Handler) install() {
	if h.installer == nil {
		h.log.Warn("install requested but updates are not configured")
		return
	}
	if !h.installing.CompareAndSwap(false, true) {
		h.log.Info("install already running")
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		if err := h.installer.Install(context.Background()); err != nil {
			h.log.Error("install failed", "error", err)
			h.installing.Store(false)
			return
		}

		h.log.Info("install finished, exiting for restart")
		h.stop.Trigger(shutdown.ReasonUpdate, shutdown.ExitUpdated)
	}()
}

// power stops the agent before handing the host command off, so no cycle
// starts while the machine goes down.
func (h *Handler) power(reason shutdown.Reason, argv []string) {
	h.powerOnce.Do(func() {
		h.stop.Trigger(reason, shutdown.ExitOK)
		h.async(string(reason), argv)
	})
}

func (h *Handler) async(name string, argv []string) {
	if len(argv) == 0 {
		h.log.Warn("no command configured", "command", name)
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if _, err := h.run.Run(context.Background(), argv); err != nil {
			h.log.Error("command failed", "command", name, "error", err)
			return
		}
		h.log.Info("command finished", "command", name)
	}()
}

// Wait blocks until every command started by Handle returns or ctx ends.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"mqtt-monitor/internal/broker"
	"mqtt-monitor/internal/collector/disk"
	"mqtt-monitor/internal/collector/system"
	"mqtt-monitor/internal/command"
	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/domain"
	"mqtt-monitor/internal/encoder"
	"mqtt-monitor/internal/hass"
	"mqtt-monitor/internal/logger"
	"mqtt-monitor/internal/metrics"
	"mqtt-monitor/internal/scheduler"
	"mqtt-monitor/internal/shutdown"
	"mqtt-monitor/internal/storage/snapshot"
	"mqtt-monitor/internal/storage/sqlite"
	httpserver "mqtt-monitor/internal/transport/http"
	liveview "mqtt-monitor/internal/transport/websocket"
	"mqtt-monitor/internal/update"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const tokenExpiryWarning = 7 * 24 * time.Hour

type options struct {
	configPath string
	service    bool
	display    bool
	version    bool
	update     bool
	uninstall  bool
	hassAPI    bool
}

func parseFlags(args []string) (options, error) {
	var o options

	fs := pflag.NewFlagSet("mqtt-monitor", pflag.ContinueOnError)
	fs.StringVarP(&o.configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	fs.BoolVarP(&o.service, "service", "s", false, "run continuously instead of publishing once")
	fs.BoolVarP(&o.display, "display", "d", false, "print every snapshot to stdout")
	fs.BoolVarP(&o.version, "version", "v", false, "print the version and exit")
	fs.BoolVarP(&o.update, "update", "u", false, "update from the git checkout and exit")
	fs.BoolVar(&o.uninstall, "uninstall", false, "remove discovery entities from the broker and exit")
	fs.BoolVar(&o.hassAPI, "hass-api", false, "push states to the Home Assistant API instead of MQTT")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args)
	if err != nil {
		return shutdown.ExitFailure
	}

	if opts.version {
		fmt.Println(version)
		return shutdown.ExitOK
	}

	var cfgOpts []config.Option
	if opts.hassAPI {
		cfgOpts = append(cfgOpts, config.WithHassAPI())
	}

	cfg, err := config.Load(opts.configPath, cfgOpts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		return shutdown.ExitFailure
	}

	appLog := logger.New(cfg)
	appLog.Info("mqtt-monitor: starting...", "version", version, "host", cfg.Hostname, "service", opts.service)

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	coord := shutdown.New(sigCtx)

	runner := command.NewRunner(appLog, cfg.Commands.Timeout)
	installer := update.NewInstaller(cfg.Update, runner, appLog)

	if opts.update {
		if err := installer.Install(coord.Context()); err != nil {
			appLog.Error("update failed", "error", err)
			return shutdown.ExitFailure
		}
		appLog.Info("update installed")
		return shutdown.ExitOK
	}

	facts := system.NewCollector(cfg.Paths.Proc, cfg.Paths.Sys).Facts(cfg.Hostname, cfg.Metrics.NetInterface)

	var drives []disk.Drive
	if cfg.Metrics.DriveTemps {
		drives = disk.NewCollector(cfg.Paths.Sys).Drives()
	}

	specs := metrics.BuildSpecs(cfg, metrics.DriveNames(drives))
	enc := encoder.New(cfg, facts, version)
	latest := snapshot.NewLatest()

	deps := scheduler.Deps{
		Collector: metrics.NewCollector(metrics.NewProbeRegistry(cfg, drives), cfg.Hostname, cfg.ProbeTimeout, appLog),
		Encoder:   enc,
		Latest:    latest,
	}
	if opts.display {
		deps.Display = os.Stdout
	}
	if cfg.SnapshotFile.Path != "" {
		deps.File = snapshot.NewFileWriter(cfg.SnapshotFile)
	}

	var history *sqlite.HistoryRepository
	if cfg.History.Path != "" {
		db, err := sqlite.NewSqliteDB(cfg.History.Path, appLog)
		if err != nil {
			appLog.Warn("history disabled", "error", err)
		} else {
			defer db.Close()
			history = sqlite.NewHistoryRepository(db)
			deps.History = history
		}
	}

	var (
		conn    *broker.Connection
		handler *command.Handler
	)

	if cfg.HassAPI.Enabled {
		client := hass.NewClient(cfg, appLog)
		client.CheckToken(time.Now(), tokenExpiryWarning)
		deps.Sink = client
	} else {
		var onCommand broker.CommandFunc
		if opts.service {
			handler = command.NewHandler(cfg.Commands, installer, coord, appLog)
			onCommand = handler.Handle
		}

		conn, err = connect(coord.Context(), cfg, enc, appLog, onCommand)
		if err != nil {
			appLog.Error("broker connect failed", "error", err)
			return shutdown.ExitFailure
		}
		deps.Publisher = conn
	}

	if opts.uninstall {
		if conn == nil {
			appLog.Error("uninstall needs an MQTT broker")
			return shutdown.ExitFailure
		}
		removal := enc.EncodeRemoval(append(specs, metrics.AptSpec(cfg)))
		if _, err := conn.PublishAll(removal); err != nil {
			appLog.Error("failed to queue removal", "error", err)
		}
		closeBroker(conn, cfg, appLog)
		appLog.Info("discovery entities removed", "count", len(removal))
		return shutdown.ExitOK
	}

	if cfg.Update.CheckEnabled {
		checker, err := update.NewChecker(cfg, version, runner, appLog)
		if err != nil {
			appLog.Warn("update check disabled", "error", err)
		} else {
			deps.Checker = checker
		}
	}

	var hub *liveview.Hub
	if opts.service && cfg.LiveView.Addr != "" {
		hub = liveview.NewHub(latest, appLog)
		deps.Live = hub
	}

	var apt *domain.MetricSpec
	if cfg.Metrics.AptUpdates {
		s := metrics.AptSpec(cfg)
		apt = &s
	}

	sched := scheduler.New(cfg, specs, apt, deps, appLog)

	if !opts.service {
		sched.RunOnce(coord.Context())
		sched.CheckOnce(coord.Context())
		closeBroker(conn, cfg, appLog)
		return shutdown.ExitOK
	}

	g, gCtx := errgroup.WithContext(coord.Context())

	// 1. Metrics cycle
	g.Go(func() error {
		return sched.RunMetrics(gCtx)
	})

	// 2. Update checks
	g.Go(func() error {
		return sched.RunUpdates(gCtx)
	})

	// 3. Live view
	if hub != nil {
		g.Go(func() error {
			hub.Run(gCtx)
			return nil
		})

		srv := httpserver.NewServer(cfg.LiveView.Addr, latest, liveview.NewHandler(hub, cfg.LiveView.JWTSecret, appLog), appLog)
		if history != nil {
			srv.WithHistory(history)
		}
		g.Go(func() error {
			if err := srv.Start(gCtx); err != nil {
				appLog.Error("live view stopped", "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		appLog.Error("agent failed unexpectedly", "error", err)
		coord.Trigger(shutdown.ReasonFailure, shutdown.ExitFailure)
	}

	if handler != nil {
		waitCtx, cancel := context.WithTimeout(context.Background(), cfg.Commands.Timeout)
		if err := handler.Wait(waitCtx); err != nil {
			appLog.Warn("commands still running at exit", "error", err)
		}
		cancel()
	}

	closeBroker(conn, cfg, appLog)

	code := coord.ExitCode()
	appLog.Info("agent stopped gracefully.", "reason", string(coord.Reason()), "exit_code", code)
	return code
}

func connect(ctx context.Context, cfg *config.Config, enc *encoder.Encoder, log logger.Logger, onCommand broker.CommandFunc) (*broker.Connection, error) {
	clientID := cfg.MQTT.ClientID
	if clientID == "" {
		id, err := broker.LoadClientID(cfg.StateDir)
		if err != nil {
			log.Warn("using hostname based client id", "error", err)
			id = "mqtt-monitor-" + cfg.Hostname
		}
		clientID = id
	}

	conn := broker.New(cfg, clientID, enc, log, onCommand)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.MQTT.ConnectTimeout)
	defer cancel()

	if err := conn.Connect(connectCtx); err != nil {
		return nil, err
	}
	return conn, nil
}

// closeBroker flushes queued messages within the publish timeout and
// disconnects.
func closeBroker(conn *broker.Connection, cfg *config.Config, log logger.Logger) {
	if conn == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MQTT.PublishTimeout)
	defer cancel()

	if err := conn.Disconnect(ctx); err != nil {
		log.Warn("broker closed with pending messages", "error", err)
	}
}

// Package config
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "/etc/mqtt-monitor/config.yaml"

const (
	PublishDiscrete = "discrete"
	PublishBulk     = "bulk"

	OfflineQueue = "queue"
	OfflineDrop  = "drop"

	SnapshotOverwrite = "overwrite"
	SnapshotAppend    = "append"

	SensorDS18B20 = "ds18b20"
	SensorSHT21   = "sht21"
)

type Config struct {
	Hostname       string        `yaml:"hostname"`
	LogLevel       string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat      string        `yaml:"log_format" validate:"oneof=text json"`
	UpdateInterval time.Duration `yaml:"update_interval" validate:"gt=0"`
	RandomDelay    time.Duration `yaml:"random_delay" validate:"gte=0"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout" validate:"gt=0"`
	PublishMode    string        `yaml:"publish_mode" validate:"oneof=discrete bulk"`
	StateDir       string        `yaml:"state_dir" validate:"required"`

	MQTT         MQTTConfig      `yaml:"mqtt"`
	Discovery    DiscoveryConfig `yaml:"discovery"`
	Metrics      MetricsConfig   `yaml:"metrics"`
	ExtSensors   []ExtSensor     `yaml:"ext_sensors" validate:"dive"`
	HassAPI      HassAPIConfig   `yaml:"hass_api"`
	Update       UpdateConfig    `yaml:"update"`
	Commands     CommandsConfig  `yaml:"commands"`
	SnapshotFile SnapshotConfig  `yaml:"snapshot_file"`
	History      HistoryConfig   `yaml:"history"`
	LiveView     LiveViewConfig  `yaml:"live_view"`
	Paths        PathsConfig     `yaml:"paths"`
}

type MQTTConfig struct {
	Host                 string        `yaml:"host"`
	Port                 int           `yaml:"port" validate:"min=1,max=65535"`
	User                 string        `yaml:"user"`
	Password             string        `yaml:"password"`
	ClientID             string        `yaml:"client_id"`
	TopicPrefix          string        `yaml:"topic_prefix" validate:"required"`
	UNSPrefix            string        `yaml:"uns_prefix"`
	QoS                  byte          `yaml:"qos" validate:"max=2"`
	Retain               bool          `yaml:"retain"`
	KeepAlive            time.Duration `yaml:"keep_alive" validate:"gt=0"`
	ConnectTimeout       time.Duration `yaml:"connect_timeout" validate:"gt=0"`
	MaxReconnectInterval time.Duration `yaml:"max_reconnect_interval" validate:"gt=0"`
	OfflinePolicy        string        `yaml:"offline_policy" validate:"oneof=queue drop"`
	QueueSize            int           `yaml:"queue_size" validate:"gt=0"`
	PublishTimeout       time.Duration `yaml:"publish_timeout" validate:"gt=0"`
}

type DiscoveryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Prefix      string `yaml:"prefix" validate:"required"`
	RepeatEvery int    `yaml:"repeat_every" validate:"gte=0"`
	DeviceName  string `yaml:"device_name"`
}

type MetricsConfig struct {
	CPULoad       bool   `yaml:"cpu_load"`
	CPUTemp       bool   `yaml:"cpu_temp"`
	UsedSpace     bool   `yaml:"used_space"`
	Voltage       bool   `yaml:"voltage"`
	SysClockSpeed bool   `yaml:"sys_clock_speed"`
	Swap          bool   `yaml:"swap"`
	Memory        bool   `yaml:"memory"`
	Uptime        bool   `yaml:"uptime"`
	UptimeSeconds bool   `yaml:"uptime_seconds"`
	WifiSignal    bool   `yaml:"wifi_signal"`
	WifiSignalDBM bool   `yaml:"wifi_signal_dbm"`
	FanSpeed      bool   `yaml:"rpi5_fan_speed"`
	PowerStatus   bool   `yaml:"rpi_power_status"`
	NetIO         bool   `yaml:"net_io"`
	DriveTemps    bool   `yaml:"drive_temps"`
	AptUpdates    bool   `yaml:"apt_updates"`
	Availability  bool   `yaml:"availability"`
	UsedSpacePath string `yaml:"used_space_path" validate:"required"`
	WifiInterface string `yaml:"wifi_interface"`
	NetInterface  string `yaml:"net_interface"`
}

type ExtSensor struct {
	Name string `yaml:"name" validate:"required,alphanum"`
	Type string `yaml:"type" validate:"oneof=ds18b20 sht21"`
	ID   string `yaml:"id"`
	Bus  int    `yaml:"bus" validate:"gte=0"`
}

type HassAPIConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url" validate:"required_if=Enabled true,omitempty,url"`
	Token   string        `yaml:"token" validate:"required_if=Enabled true"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

type UpdateConfig struct {
	CheckEnabled  bool          `yaml:"check_enabled"`
	CheckInterval time.Duration `yaml:"check_interval" validate:"gt=0"`
	Repository    string        `yaml:"repository" validate:"required_if=CheckEnabled true"`
	RepoDir       string        `yaml:"repo_dir"`
	Branch        string        `yaml:"branch"`
	PostInstall   []string      `yaml:"post_install"`
	GitHubAPIURL  string        `yaml:"github_api_url" validate:"omitempty,url"`
}

type CommandsConfig struct {
	Restart    []string      `yaml:"restart" validate:"min=1"`
	Shutdown   []string      `yaml:"shutdown" validate:"min=1"`
	DisplayOn  []string      `yaml:"display_on" validate:"min=1"`
	DisplayOff []string      `yaml:"display_off" validate:"min=1"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
}

type SnapshotConfig struct {
	Path string `yaml:"path"`
	Mode string `yaml:"mode" validate:"oneof=overwrite append"`
}

type HistoryConfig struct {
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention" validate:"gte=0"`
}

type LiveViewConfig struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"`
}

type PathsConfig struct {
	Proc     string `yaml:"proc" validate:"required"`
	Sys      string `yaml:"sys" validate:"required"`
	Vcgencmd string `yaml:"vcgencmd" validate:"required"`
}

func Default() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		UpdateInterval: 5 * time.Minute,
		ProbeTimeout:   3 * time.Second,
		PublishMode:    PublishDiscrete,
		StateDir:       "/var/lib/mqtt-monitor",
		MQTT: MQTTConfig{
			Port:                 1883,
			TopicPrefix:          "rpi-MQTT-monitor",
			QoS:                  1,
			Retain:               true,
			KeepAlive:            60 * time.Second,
			ConnectTimeout:       10 * time.Second,
			MaxReconnectInterval: 2 * time.Minute,
			OfflinePolicy:        OfflineQueue,
			QueueSize:            1000,
			PublishTimeout:       10 * time.Second,
		},
		Discovery: DiscoveryConfig{
			Enabled: true,
			Prefix:  "homeassistant",
		},
		Metrics: MetricsConfig{
			CPULoad:       true,
			CPUTemp:       true,
			UsedSpace:     true,
			Voltage:       true,
			SysClockSpeed: true,
			Swap:          true,
			Memory:        true,
			Uptime:        true,
			WifiSignal:    false,
			UsedSpacePath: "/",
			WifiInterface: "wlan0",
		},
		HassAPI: HassAPIConfig{
			Timeout: 10 * time.Second,
		},
		Update: UpdateConfig{
			CheckInterval: 6 * time.Hour,
			Repository:    "hjelev/rpi-mqtt-monitor",
			Branch:        "master",
		},
		Commands: CommandsConfig{
			Restart:    []string{"sudo", "reboot"},
			Shutdown:   []string{"sudo", "shutdown", "now"},
			DisplayOn:  []string{"vcgencmd", "display_power", "1"},
			DisplayOff: []string{"vcgencmd", "display_power", "0"},
			Timeout:    30 * time.Second,
		},
		SnapshotFile: SnapshotConfig{
			Mode: SnapshotOverwrite,
		},
		History: HistoryConfig{
			Retention: 7 * 24 * time.Hour,
		},
		Paths: PathsConfig{
			Proc:     "/proc",
			Sys:      "/sys",
			Vcgencmd: "vcgencmd",
		},
	}
}

// Load reads the YAML file at path on top of Default, applies environment
// overrides and validates the result. A missing file is reported with an
// error wrapping fs.ErrNotExist.
// Option adjusts the decoded config before it is validated. Command line
// flags reach the config this way.
type Option func(*Config)

// WithHassAPI switches publishing to the Home Assistant HTTP API.
func WithHassAPI() Option {
	return func(c *Config) {
		c.HassAPI.Enabled = true
	}
}

func Load(path string, opts ...Option) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(raw, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes raw YAML, applies environment overrides and opts, then
// validates.
func Parse(raw []byte, opts ...Option) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	applyEnv(cfg, os.LookupEnv)
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.finalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) finalize() {
	if c.Hostname == "" {
		if h, err := os.Hostname(); err == nil {
			c.Hostname = h
		}
	}

	for i := range c.ExtSensors {
		if c.ExtSensors[i].Type == SensorSHT21 && c.ExtSensors[i].Bus == 0 {
			c.ExtSensors[i].Bus = 1
		}
	}
}

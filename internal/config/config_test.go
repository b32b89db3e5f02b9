package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("hostname: pi\nmqtt:\n  host: broker.local\n"))
	require.NoError(t, err)

	assert.Equal(t, "pi", cfg.Hostname)
	assert.Equal(t, 5*time.Minute, cfg.UpdateInterval)
	assert.Equal(t, 3*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, PublishDiscrete, cfg.PublishMode)
	assert.Equal(t, "homeassistant", cfg.Discovery.Prefix)
	assert.Equal(t, OfflineQueue, cfg.MQTT.OfflinePolicy)
	assert.Equal(t, 1000, cfg.MQTT.QueueSize)
	assert.Equal(t, []string{"sudo", "reboot"}, cfg.Commands.Restart)
}

func TestParse_Overrides(t *testing.T) {
	raw := `
hostname: garage
update_interval: 30s
publish_mode: bulk
mqtt:
  host: 10.0.0.2
  port: 8883
  qos: 0
  offline_policy: drop
discovery:
  repeat_every: 12
ext_sensors:
  - name: attic
    type: sht21
  - name: water
    type: ds18b20
    id: 28-0000
`
	cfg, err := Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.UpdateInterval)
	assert.Equal(t, PublishBulk, cfg.PublishMode)
	assert.Equal(t, 8883, cfg.MQTT.Port)
	assert.Equal(t, byte(0), cfg.MQTT.QoS)
	assert.Equal(t, OfflineDrop, cfg.MQTT.OfflinePolicy)
	assert.Equal(t, 12, cfg.Discovery.RepeatEvery)
	require.Len(t, cfg.ExtSensors, 2)
	assert.Equal(t, 1, cfg.ExtSensors[0].Bus)
	assert.Equal(t, "28-0000", cfg.ExtSensors[1].ID)
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	_, err := Parse([]byte("hostname: pi\nmqtt:\n  host: b\n  hots: typo\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"missing broker", "hostname: pi\n", "mqtt.host"},
		{"bad publish mode", "hostname: pi\nmqtt: {host: b}\npublish_mode: both\n", "publishmode"},
		{"bad qos", "hostname: pi\nmqtt: {host: b, qos: 3}\n", "mqtt.qos"},
		{"bad port", "hostname: pi\nmqtt: {host: b, port: 70000}\n", "mqtt.port"},
		{"hass without token", "hostname: pi\nhass_api: {enabled: true, url: 'http://ha:8123'}\n", "hassapi.token"},
		{"bad sensor type", "hostname: pi\nmqtt: {host: b}\next_sensors: [{name: a, type: dht22}]\n", "extsensors[0].type"},
		{"duplicate sensors", "hostname: pi\nmqtt: {host: b}\next_sensors: [{name: a, type: sht21}, {name: a, type: ds18b20}]\n", "ext_sensors[1].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestValidate_HassModeNeedsNoBroker(t *testing.T) {
	cfg, err := Parse([]byte("hostname: pi\nhass_api: {enabled: true, url: 'http://ha:8123', token: abc}\n"))
	require.NoError(t, err)
	assert.True(t, cfg.HassAPI.Enabled)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"MQTT_MONITOR_MQTT_HOST":       "env-broker",
		"MQTT_MONITOR_MQTT_PORT":       "1884",
		"MQTT_MONITOR_MQTT_PASSWORD":   "secret",
		"MQTT_MONITOR_UPDATE_INTERVAL": "not-a-duration",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	applyEnv(cfg, lookup)

	assert.Equal(t, "env-broker", cfg.MQTT.Host)
	assert.Equal(t, 1884, cfg.MQTT.Port)
	assert.Equal(t, "secret", cfg.MQTT.Password)
	assert.Equal(t, 5*time.Minute, cfg.UpdateInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hostname: lab\nmqtt:\n  host: broker\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "lab", cfg.Hostname)
	assert.Equal(t, "broker", cfg.MQTT.Host)
}

func TestParse_WithHassAPI(t *testing.T) {
	raw := []byte("hostname: pi\nmqtt: {host: broker}\nhass_api: {url: 'http://ha:8123', token: abc}\n")

	cfg, err := Parse(raw)
	require.NoError(t, err)
	assert.False(t, cfg.HassAPI.Enabled)

	cfg, err = Parse(raw, WithHassAPI())
	require.NoError(t, err)
	assert.True(t, cfg.HassAPI.Enabled)
	assert.Equal(t, "http://ha:8123", cfg.HassAPI.URL)
}

func TestParse_WithHassAPIStillValidated(t *testing.T) {
	_, err := Parse([]byte("hostname: pi\n"), WithHassAPI())
	require.Error(t, err)
}

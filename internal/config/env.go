package config

import (
	"strconv"
	"strings"
	"time"
)

const envPrefix = "MQTT_MONITOR_"

type lookupFunc func(key string) (string, bool)

// applyEnv overrides connection fields and secrets from the environment.
// Values that fail to parse are ignored, keeping the file value.
func applyEnv(cfg *Config, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	str("HOSTNAME", &cfg.Hostname)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("MQTT_HOST", &cfg.MQTT.Host)
	str("MQTT_USER", &cfg.MQTT.User)
	str("MQTT_PASSWORD", &cfg.MQTT.Password)
	str("MQTT_CLIENT_ID", &cfg.MQTT.ClientID)
	str("MQTT_TOPIC_PREFIX", &cfg.MQTT.TopicPrefix)
	str("HASS_API_URL", &cfg.HassAPI.URL)
	str("HASS_API_TOKEN", &cfg.HassAPI.Token)
	str("LIVE_VIEW_JWT_SECRET", &cfg.LiveView.JWTSecret)

	if v, ok := lookup(envPrefix + "MQTT_PORT"); ok {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.MQTT.Port = port
		}
	}

	if v, ok := lookup(envPrefix + "UPDATE_INTERVAL"); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && d > 0 {
			cfg.UpdateInterval = d
		}
	}

	if v, ok := lookup(envPrefix + "HASS_API_ENABLED"); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.HassAPI.Enabled = b
		}
	}
}

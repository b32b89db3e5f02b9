// Package encoder turns snapshots into MQTT messages.
package encoder

import "mqtt-monitor/internal/config"

// Topics derives every topic from the configured prefixes and host.
type Topics struct {
	uns       string
	prefix    string
	host      string
	discovery string
}

func NewTopics(cfg *config.Config) Topics {
	return Topics{
		uns:       cfg.MQTT.UNSPrefix,
		prefix:    cfg.MQTT.TopicPrefix,
		host:      cfg.Hostname,
		discovery: cfg.Discovery.Prefix,
	}
}

// Bulk is {uns}{prefix}/{host}.
func (t Topics) Bulk() string {
	return t.uns + t.prefix + "/" + t.host
}

func (t Topics) State(metric string) string {
	return t.Bulk() + "/" + metric
}

func (t Topics) Availability(metric string) string {
	return t.State(metric) + "_availability"
}

func (t Topics) Status() string {
	return t.State("status")
}

// Discovery is {discovery}/{component}/{prefix}/{host}_{metric}/config.
func (t Topics) Discovery(component, metric string) string {
	return t.discovery + "/" + component + "/" + t.prefix + "/" + t.host + "_" + metric + "/config"
}

func (t Topics) Command() string {
	return t.discovery + "/update/" + t.host + "/command"
}

func (t Topics) UniqueID(metric string) string {
	return t.host + "_" + metric
}

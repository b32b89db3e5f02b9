package encoder

import (
	"encoding/json"
	"strings"

	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/domain"
)

const (
	StatusOnline  = "1"
	StatusOffline = "0"

	availabilityOnline  = "online"
	availabilityOffline = "offline"

	gitUpdateMetric = "git_update"
)

type Message struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

type Encoder struct {
	topics   Topics
	device   Device
	hostname string
	qos      byte
	retain   bool
}

func New(cfg *config.Config, facts domain.HostFacts, version string) *Encoder {
	name := cfg.Discovery.DeviceName
	if name == "" {
		name = cfg.Hostname
	}

	device := Device{
		Identifiers:  []string{cfg.Hostname},
		Manufacturer: facts.Manufacturer,
		Model:        facts.Model,
		Name:         name,
		SWVersion:    softwareVersion(facts, version),
	}
	if facts.MAC != "" {
		device.Connections = [][2]string{{"mac", facts.MAC}}
	}

	return &Encoder{
		topics:   NewTopics(cfg),
		device:   device,
		hostname: cfg.Hostname,
		qos:      cfg.MQTT.QoS,
		retain:   cfg.MQTT.Retain,
	}
}

// softwareVersion describes the host software stack, e.g.
// "Debian GNU/Linux 12 (bookworm), kernel 6.6.31, mqtt-monitor 1.2.0".
func softwareVersion(facts domain.HostFacts, version string) string {
	var parts []string
	if facts.OS != "" {
		parts = append(parts, facts.OS)
	}
	if facts.Kernel != "" {
		parts = append(parts, "kernel "+facts.Kernel)
	}
	if version != "" {
		parts = append(parts, "mqtt-monitor "+version)
	}
	return strings.Join(parts, ", ")
}

func (e *Encoder) Topics() Topics {
	return e.topics
}

// EncodeDiscrete emits, per sample in snapshot order, the discovery
// document (when requested), the state and the availability message, then
// control buttons (with discovery) and a final retained status of "1".
func (e *Encoder) EncodeDiscrete(snap *domain.Snapshot, withDiscovery bool) []Message {
	samples := snap.Samples()
	msgs := make([]Message, 0, len(samples)*3+6)

	for _, s := range samples {
		if withDiscovery {
			msgs = append(msgs, e.discovery(s.Spec))
		}
		msgs = append(msgs, e.sampleMessages(s)...)
	}

	if withDiscovery {
		msgs = append(msgs, e.EncodeControls()...)
	}

	return append(msgs, e.StatusMessage())
}

func (e *Encoder) sampleMessages(s domain.MetricSample) []Message {
	var msgs []Message

	if !s.Value.IsNull() {
		msgs = append(msgs, e.state(e.topics.State(s.Spec.Name), s.Format()))
	}

	if s.Spec.AvailabilityTracked {
		payload := availabilityOnline
		if s.Value.IsNull() {
			payload = availabilityOffline
		}
		msgs = append(msgs, Message{
			Topic:   e.topics.Availability(s.Spec.Name),
			Payload: []byte(payload),
			QoS:     e.qos,
			Retain:  true,
		})
	}

	return msgs
}

// EncodeBulk joins the bulk-eligible samples with ", " in snapshot order.
// Null values are written as 0 so field positions never shift.
func (e *Encoder) EncodeBulk(snap *domain.Snapshot) Message {
	var fields []string
	for _, s := range snap.Samples() {
		if !s.Spec.ID.Info().InBulk {
			continue
		}
		if s.Value.IsNull() {
			fields = append(fields, "0")
			continue
		}
		fields = append(fields, s.Format())
	}

	return e.state(e.topics.Bulk(), strings.Join(fields, ", "))
}

// EncodeBulkBatch is the bulk payload followed by the retained status, the
// bulk counterpart of an EncodeDiscrete batch.
func (e *Encoder) EncodeBulkBatch(snap *domain.Snapshot) []Message {
	return []Message{e.EncodeBulk(snap), e.StatusMessage()}
}

func (e *Encoder) StatusMessage() Message {
	return Message{
		Topic:   e.topics.Status(),
		Payload: []byte(StatusOnline),
		QoS:     e.qos,
		Retain:  true,
	}
}

// Will is the last-will message the broker publishes on unclean
// disconnect.
func (e *Encoder) Will() Message {
	return Message{
		Topic:   e.topics.Status(),
		Payload: []byte(StatusOffline),
		QoS:     e.qos,
		Retain:  true,
	}
}

func (e *Encoder) state(topic, payload string) Message {
	return Message{
		Topic:   topic,
		Payload: []byte(payload),
		QoS:     e.qos,
		Retain:  e.retain,
	}
}

func (e *Encoder) discovery(spec domain.MetricSpec) Message {
	p := describe(spec)

	d := Descriptor{
		Name:           e.hostname + " " + spec.Label(),
		UniqueID:       e.topics.UniqueID(spec.Name),
		StateTopic:     e.topics.State(spec.Name),
		Icon:           p.icon,
		DeviceClass:    p.deviceClass,
		StateClass:     p.stateClass,
		EntityCategory: p.category,
		Unit:           spec.Unit,
		ValueTemplate:  p.valueTemplate,
		Device:         e.device,
	}
	if p.component == ComponentBinarySensor {
		d.Unit = ""
		d.StateClass = ""
	}
	if spec.AvailabilityTracked {
		d.AvailabilityTopic = e.topics.Availability(spec.Name)
	}

	return e.document(e.topics.Discovery(p.component, spec.Name), d)
}

func (e *Encoder) document(topic string, d Descriptor) Message {
	// Descriptor holds only strings and slices, Marshal cannot fail.
	payload, _ := json.Marshal(d)

	return Message{
		Topic:   topic,
		Payload: payload,
		QoS:     e.qos,
		Retain:  true,
	}
}

package encoder

import (
	"encoding/json"
	"strings"

	"mqtt-monitor/internal/domain"
)

var buttonIcons = map[domain.Command]string{
	domain.CommandInstall:    "mdi:update",
	domain.CommandRestart:    "mdi:restart",
	domain.CommandShutdown:   "mdi:power",
	domain.CommandDisplayOn:  "mdi:monitor",
	domain.CommandDisplayOff: "mdi:monitor-off",
}

// EncodeUpdate publishes the update entity state and, when apt is set,
// the pending package count. Discovery documents come first.
func (e *Encoder) EncodeUpdate(status domain.UpdateStatus, apt *domain.MetricSpec, withDiscovery bool) []Message {
	var msgs []Message

	if withDiscovery {
		msgs = append(msgs, e.updateDiscovery())
		if apt != nil {
			msgs = append(msgs, e.discovery(*apt))
		}
	}

	// UpdateStatus marshals plain strings only.
	payload, _ := json.Marshal(status)
	msgs = append(msgs, Message{
		Topic:   e.topics.State(gitUpdateMetric),
		Payload: payload,
		QoS:     e.qos,
		Retain:  true,
	})

	if apt != nil {
		value := domain.Number(float64(status.AptUpdates))
		if status.AptUpdates < 0 {
			value = domain.Null()
			if !apt.AvailabilityTracked {
				value = apt.Fallback
			}
		}
		msgs = append(msgs, e.sampleMessages(domain.MetricSample{Spec: *apt, Value: value})...)
	}

	return msgs
}

func (e *Encoder) updateDiscovery() Message {
	return e.document(e.topics.Discovery(ComponentUpdate, gitUpdateMetric), Descriptor{
		Name:           e.hostname + " Update",
		UniqueID:       e.topics.UniqueID(gitUpdateMetric),
		StateTopic:     e.topics.State(gitUpdateMetric),
		CommandTopic:   e.topics.Command(),
		PayloadInstall: string(domain.CommandInstall),
		Icon:           "mdi:update",
		DeviceClass:    "firmware",
		EntityCategory: "diagnostic",
		Device:         e.device,
	})
}

// EncodeControls announces one button per command.
func (e *Encoder) EncodeControls() []Message {
	cmds := domain.Commands()
	msgs := make([]Message, 0, len(cmds))

	for _, cmd := range cmds {
		name := string(cmd)
		msgs = append(msgs, e.document(e.topics.Discovery(ComponentButton, name), Descriptor{
			Name:         e.hostname + " " + buttonLabel(name),
			UniqueID:     e.topics.UniqueID(name),
			CommandTopic: e.topics.Command(),
			PayloadPress: name,
			Icon:         buttonIcons[cmd],
			Device:       e.device,
		}))
	}

	return msgs
}

// EncodeRemoval clears every discovery document this host may have
// announced, for uninstall.
func (e *Encoder) EncodeRemoval(specs []domain.MetricSpec) []Message {
	var topics []string

	for _, spec := range specs {
		topics = append(topics, e.topics.Discovery(describe(spec).component, spec.Name))
	}
	topics = append(topics, e.topics.Discovery(ComponentUpdate, gitUpdateMetric))
	for _, cmd := range domain.Commands() {
		topics = append(topics, e.topics.Discovery(ComponentButton, string(cmd)))
	}

	msgs := make([]Message, 0, len(topics))
	for _, topic := range topics {
		msgs = append(msgs, Message{Topic: topic, Payload: []byte{}, QoS: e.qos, Retain: true})
	}

	return msgs
}

func buttonLabel(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

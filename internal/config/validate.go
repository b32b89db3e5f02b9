package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError carries one message per offending field, keyed by the
// field's namespace (e.g. "mqtt.port").
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}

	return "invalid config: " + strings.Join(parts, "; ")
}

func (c *Config) Validate() error {
	fields := make(map[string]string)

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}

		for _, fe := range verrs {
			fields[fieldName(fe.Namespace())] = describe(fe)
		}
	}

	if !c.HassAPI.Enabled && c.MQTT.Host == "" {
		fields["mqtt.host"] = "required unless hass_api is enabled"
	}

	if c.Hostname == "" {
		fields["hostname"] = "could not be determined"
	}

	names := make(map[string]bool, len(c.ExtSensors))
	for i, s := range c.ExtSensors {
		if names[s.Name] {
			fields[fmt.Sprintf("ext_sensors[%d].name", i)] = "duplicate sensor name " + s.Name
		}
		names[s.Name] = true
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}

// fieldName turns "Config.MQTT.QueueSize" into "mqtt.queuesize".
func fieldName(ns string) string {
	ns = strings.TrimPrefix(ns, "Config.")
	return strings.ToLower(ns)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	case "url":
		return "must be a valid URL"
	case "alphanum":
		return "must be alphanumeric"
	default:
		return "is invalid"
	}
}

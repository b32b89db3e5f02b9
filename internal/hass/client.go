// Package hass pushes snapshots to the Home Assistant REST state API.
package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/domain"
	"mqtt-monitor/internal/logger"
)

var ErrUnavailable = errors.New("home assistant returned an error status")

const unavailableState = "unavailable"

type Client struct {
	client  *http.Client
	baseURL string
	token   string
	host    string
	log     logger.Logger
}

func NewClient(cfg *config.Config, log logger.Logger) *Client {
	return &Client{
		client:  &http.Client{Timeout: cfg.HassAPI.Timeout},
		baseURL: strings.TrimSuffix(cfg.HassAPI.URL, "/"),
		token:   cfg.HassAPI.Token,
		host:    cfg.Hostname,
		log:     log.With("component", "hass"),
	}
}

type stateRequest struct {
	State      string            `json:"state"`
	Attributes map[string]string `json:"attributes"`
}

// EntityID is the sensor entity a metric is written to.
func (c *Client) EntityID(metric string) string {
	return "sensor." + objectID(c.host+"_"+metric)
}

// Push sends one request per sample. Failures are logged and returned
// together; nothing is retried.
func (c *Client) Push(ctx context.Context, snap *domain.Snapshot) error {
	var errs []error
	sent := 0

	for _, s := range snap.Samples() {
		if err := c.push(ctx, s); err != nil {
			c.log.Warn("state push failed", "metric", s.Spec.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Spec.Name, err))
			continue
		}
		sent++
	}

	c.log.Debug("states pushed", "sent", sent, "failed", len(errs))
	return errors.Join(errs...)
}

func (c *Client) push(ctx context.Context, s domain.MetricSample) error {
	state := s.Format()
	if s.Value.IsNull() {
		state = unavailableState
	}

	attrs := map[string]string{
		"friendly_name": c.host + " " + s.Spec.Label(),
	}
	if s.Spec.Unit != "" {
		attrs["unit_of_measurement"] = s.Spec.Unit
	}

	body, err := json.Marshal(stateRequest{State: state, Attributes: attrs})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	url := c.baseURL + "/api/states/" + c.EntityID(s.Spec.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d", ErrUnavailable, resp.StatusCode)
	}

	return nil
}

// objectID lowercases s and replaces anything outside [a-z0-9_] with an
// underscore.
func objectID(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

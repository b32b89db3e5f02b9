package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/domain"
	"mqtt-monitor/internal/logger"
)

type recorded struct {
	path string
	auth string
	body stateRequest
}

func stateServer(t *testing.T, status func(path string) int) (*httptest.Server, func() []recorded) {
	t.Helper()

	var (
		mu   sync.Mutex
		reqs []recorded
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body stateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, http.MethodPost, r.Method)

		mu.Lock()
		reqs = append(reqs, recorded{path: r.URL.Path, auth: r.Header.Get("Authorization"), body: body})
		mu.Unlock()

		w.WriteHeader(status(r.URL.Path))
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), reqs...)
	}
}

func testConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.Hostname = "Pi-Kitchen"
	cfg.HassAPI = config.HassAPIConfig{Enabled: true, URL: url + "/", Token: "secret", Timeout: time.Second}
	return cfg
}

func testSnapshot() *domain.Snapshot {
	snap := domain.NewSnapshot("Pi-Kitchen", time.Unix(0, 0))
	snap.Add(domain.MetricSample{Spec: domain.NewSpec(domain.CPUTemp, "", false), Value: domain.Number(48.26)})
	snap.Add(domain.MetricSample{Spec: domain.NewSpec(domain.Memory, "", true), Value: domain.Null()})
	return snap
}

func TestPush(t *testing.T) {
	srv, requests := stateServer(t, func(string) int { return http.StatusCreated })
	c := NewClient(testConfig(srv.URL), logger.Nop())

	require.NoError(t, c.Push(context.Background(), testSnapshot()))

	reqs := requests()
	require.Len(t, reqs, 2)

	assert.Equal(t, "/api/states/sensor.pi_kitchen_cputemp", reqs[0].path)
	assert.Equal(t, "Bearer secret", reqs[0].auth)
	assert.Equal(t, "48.3", reqs[0].body.State)
	assert.Equal(t, "°C", reqs[0].body.Attributes["unit_of_measurement"])
	assert.Equal(t, "Pi-Kitchen CPU Temperature", reqs[0].body.Attributes["friendly_name"])

	assert.Equal(t, "/api/states/sensor.pi_kitchen_memory", reqs[1].path)
	assert.Equal(t, "unavailable", reqs[1].body.State)
}

func TestPush_ErrorStatusContinues(t *testing.T) {
	srv, requests := stateServer(t, func(path string) int {
		if path == "/api/states/sensor.pi_kitchen_cputemp" {
			return http.StatusUnauthorized
		}
		return http.StatusOK
	})
	c := NewClient(testConfig(srv.URL), logger.Nop())

	err := c.Push(context.Background(), testSnapshot())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Len(t, requests(), 2, "a failed metric must not stop the others")
}

func TestObjectID(t *testing.T) {
	assert.Equal(t, "pi_kitchen_drive_temp_nvme0", objectID("Pi-Kitchen_drive_temp_nvme0"))
	assert.Equal(t, "a_b_c", objectID("a.b c"))
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := TokenExpiry(signed(t, jwt.MapClaims{"exp": exp.Unix()}))
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))

	got, err = TokenExpiry(signed(t, jwt.MapClaims{"iss": "ha"}))
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = TokenExpiry("not-a-jwt")
	assert.Error(t, err)
}

func TestCheckToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"expired", signed(t, jwt.MapClaims{"exp": now.Add(-time.Hour).Unix()}), "access token expired"},
		{"soon", signed(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}), "access token expires soon"},
		{"opaque", "abc", "access token is not a JWT"},
		{"fine", signed(t, jwt.MapClaims{"exp": now.Add(90 * 24 * time.Hour).Unix()}), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := testConfig("http://localhost")
			cfg.HassAPI.Token = tt.token
			c := NewClient(cfg, logger.NewWithWriter(&buf, "debug", "text"))

			c.CheckToken(now, 7*24*time.Hour)

			if tt.want == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

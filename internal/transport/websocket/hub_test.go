package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mqtt-monitor/internal/domain"
	"mqtt-monitor/internal/logger"
	"mqtt-monitor/internal/storage/snapshot"
)

func newTestServer(t *testing.T, latest *snapshot.Latest, secret string) (*Hub, string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(latest, logger.Nop())
	go hub.Run(ctx)

	srv := httptest.NewServer(NewHandler(hub, secret, logger.Nop()))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func snap(load float64) *domain.Snapshot {
	s := domain.NewSnapshot("pi", time.Unix(0, 0).UTC())
	s.Add(domain.MetricSample{Spec: domain.NewSpec(domain.CPULoad, "", false), Value: domain.Number(load)})
	return s
}

type wireSnapshot struct {
	Host    string             `json:"host"`
	Metrics map[string]float64 `json:"metrics"`
}

func readSnapshot(t *testing.T, conn *websocket.Conn) wireSnapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var out wireSnapshot
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestHub_SendsLatestThenBroadcasts(t *testing.T) {
	latest := snapshot.NewLatest()
	latest.Set(snap(1))
	hub, url := newTestServer(t, latest, "")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readSnapshot(t, conn)
	assert.Equal(t, 1.0, first.Metrics["cpuload"])

	hub.Broadcast(snap(2))
	second := readSnapshot(t, conn)
	assert.Equal(t, "pi", second.Host)
	assert.Equal(t, 2.0, second.Metrics["cpuload"])
}

func TestHandler_RequiresToken(t *testing.T) {
	_, url := newTestServer(t, snapshot.NewLatest(), "s3cret")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "viewer"}).SignedString([]byte("other"))
	require.NoError(t, err)
	_, resp, err = websocket.DefaultDialer.Dial(url+"?token="+bad, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	good, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "viewer"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	header := http.Header{"Authorization": []string{"Bearer " + good}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestBroadcast_NeverBlocks(t *testing.T) {
	hub := NewHub(snapshot.NewLatest(), logger.Nop())

	done := make(chan struct{})
	go func() {
		for range broadcastBuffer + 5 {
			hub.Broadcast(snap(1))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked without a running hub")
	}
}

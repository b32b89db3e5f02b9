package websocket

import (
	"errors"
	"net/http"
	"strings"

	"mqtt-monitor/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      logger.Logger
	secret   []byte
}

// NewHandler returns the /ws endpoint. With an empty secret every client is
// accepted; otherwise an HMAC signed JWT is required.
func NewHandler(hub *Hub, secret string, log logger.Logger) *Handler {
	return &Handler{
		hub:    hub,
		log:    log.With("component", "live-view"),
		secret: []byte(secret),
	}
}

func (h *Handler) verify(token string) error {
	if token == "" {
		return errors.New("empty token")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return h.secret, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("invalid token")
	}

	return nil
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter since browsers cannot set headers on websocket requests.
func bearerToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return r.URL.Query().Get("token")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if len(h.secret) > 0 {
		if err := h.verify(bearerToken(r)); err != nil {
			h.log.Warn("jwt verification failed", "error", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("upgrade failed", "error", err)
		return
	}

	client := NewClient(h.hub, conn, h.log)
	if !h.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	h.log.Info("client connected", "remote_addr", conn.RemoteAddr().String())
}

package broker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	clientIDFile   = "client-id"
	clientIDPrefix = "mqtt-monitor-"
)

// LoadClientID returns the client identifier persisted in stateDir,
// creating it on first use. A stable ID lets the broker resume the
// session after restarts.
func LoadClientID(stateDir string) (string, error) {
	path := filepath.Join(stateDir, clientIDFile)

	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if _, err := uuid.Parse(strings.TrimPrefix(id, clientIDPrefix)); err != nil {
			return "", fmt.Errorf("invalid client id in %s: %w", path, err)
		}
		return id, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read client id %s: %w", path, err)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate client id: %w", err)
	}
	value := clientIDPrefix + id.String()

	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return "", fmt.Errorf("create state dir %s: %w", stateDir, err)
	}
	if err := os.WriteFile(path, []byte(value+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write client id %s: %w", path, err)
	}

	return value, nil
}

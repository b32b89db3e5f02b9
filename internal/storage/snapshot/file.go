package snapshot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/domain"
)

// FileWriter writes each snapshot to a file, replacing or appending to
// its contents.
type FileWriter struct {
	mu     sync.Mutex
	path   string
	append bool
}

func NewFileWriter(cfg config.SnapshotConfig) *FileWriter {
	return &FileWriter{
		path:   cfg.Path,
		append: cfg.Mode == config.SnapshotAppend,
	}
}

func (f *FileWriter) Write(snap *domain.Snapshot) error {
	var buf bytes.Buffer
	if err := Format(&buf, snap); err != nil {
		return fmt.Errorf("format snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.append {
		return f.appendFile(buf.Bytes())
	}
	return f.replaceFile(buf.Bytes())
}

func (f *FileWriter) appendFile(data []byte) error {
	fh, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}

	if _, err := fh.Write(append(data, '\n')); err != nil {
		fh.Close()
		return fmt.Errorf("append %s: %w", f.path, err)
	}
	return fh.Close()
}

// replaceFile writes through a temporary file so readers never observe a
// partial snapshot.
func (f *FileWriter) replaceFile(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("rename to %s: %w", f.path, err)
	}
	return nil
}

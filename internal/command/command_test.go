package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/logger"
	"mqtt-monitor/internal/shutdown"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, argv []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, argv)
	return "", f.err
}

func (f *fakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

type fakeInstaller struct {
	mu      sync.Mutex
	calls   int
	err     error
	release chan struct{}
}

func (f *fakeInstaller) Install(context.Context) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return f.err
}

func (f *fakeInstaller) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testCommands() config.CommandsConfig {
	return config.CommandsConfig{
		Restart:    []string{"sudo", "reboot"},
		Shutdown:   []string{"sudo", "shutdown", "now"},
		DisplayOn:  []string{"vcgencmd", "display_power", "1"},
		DisplayOff: []string{"vcgencmd", "display_power", "0"},
		Timeout:    time.Second,
	}
}

func newTestHandler(inst Installer) (*Handler, *fakeRunner, *shutdown.Coordinator) {
	stop := shutdown.New(context.Background())
	h := NewHandler(testCommands(), inst, stop, logger.Nop())
	r := &fakeRunner{}
	h.run = r
	return h, r, stop
}

func wait(t *testing.T, h *Handler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.Wait(ctx))
}

func TestHandle_Display(t *testing.T) {
	h, r, stop := newTestHandler(nil)

	h.Handle([]byte("display_off"))
	wait(t, h)
	h.Handle([]byte(" display_on\n"))
	wait(t, h)

	assert.Equal(t, [][]string{
		{"vcgencmd", "display_power", "0"},
		{"vcgencmd", "display_power", "1"},
	}, r.Calls())
	assert.False(t, stop.Triggered())
}

func TestHandle_RestartOnce(t *testing.T) {
	h, r, stop := newTestHandler(nil)

	h.Handle([]byte("restart"))
	h.Handle([]byte("restart"))
	h.Handle([]byte("shutdown"))
	wait(t, h)

	assert.True(t, stop.Triggered())
	assert.Equal(t, shutdown.ReasonRestart, stop.Reason())
	assert.Equal(t, shutdown.ExitOK, stop.ExitCode())
	assert.Equal(t, [][]string{{"sudo", "reboot"}}, r.Calls())
}

func TestHandle_Shutdown(t *testing.T) {
	h, r, stop := newTestHandler(nil)

	h.Handle([]byte("shutdown"))
	wait(t, h)

	assert.Equal(t, shutdown.ReasonShutdown, stop.Reason())
	assert.Equal(t, [][]string{{"sudo", "shutdown", "now"}}, r.Calls())
}

func TestHandle_Unknown(t *testing.T) {
	h, r, stop := newTestHandler(nil)

	h.Handle([]byte("self_destruct"))
	wait(t, h)

	assert.Empty(t, r.Calls())
	assert.False(t, stop.Triggered())
}

func TestHandle_InstallSuccess(t *testing.T) {
	inst := &fakeInstaller{}
	h, _, stop := newTestHandler(inst)

	h.Handle([]byte("install"))
	wait(t, h)

	assert.Equal(t, 1, inst.Calls())
	assert.Equal(t, shutdown.ReasonUpdate, stop.Reason())
	assert.Equal(t, shutdown.ExitUpdated, stop.ExitCode())
}

func TestHandle_InstallFailureKeepsServing(t *testing.T) {
	inst := &fakeInstaller{err: errors.New("git pull failed")}
	h, _, stop := newTestHandler(inst)

	h.Handle([]byte("install"))
	wait(t, h)
	assert.False(t, stop.Triggered())

	h.Handle([]byte("install"))
	wait(t, h)
	assert.Equal(t, 2, inst.Calls())
}

func TestHandle_InstallNotConcurrent(t *testing.T) {
	inst := &fakeInstaller{release: make(chan struct{})}
	h, _, _ := newTestHandler(inst)

	h.Handle([]byte("install"))
	require.Eventually(t, func() bool { return inst.Calls() == 1 }, time.Second, 5*time.Millisecond)

	h.Handle([]byte("install"))
	close(inst.release)
	wait(t, h)

	assert.Equal(t, 1, inst.Calls())
}

func TestHandle_InstallWithoutInstaller(t *testing.T) {
	h, _, stop := newTestHandler(nil)

	h.Handle([]byte("install"))
	wait(t, h)
	assert.False(t, stop.Triggered())
}

func TestCommand_Run(t *testing.T) {
	var (
		mu     sync.Mutex
		lines  []string
		levels []Level
	)

	out, err := NewCommand("", "sh", "-c", "echo hello; echo 'warning: low' >&2").Run(context.Background(),
		func(line string, _ Stream, level Level) {
			mu.Lock()
			defer mu.Unlock()
			lines = append(lines, line)
			levels = append(levels, level)
		})
	require.NoError(t, err)
	assert.Contains(t, out, "hello\n")
	assert.ElementsMatch(t, []string{"hello", "warning: low"}, lines)
	assert.ElementsMatch(t, []Level{LevelInfo, LevelWarn}, levels)
}

func TestCommand_RunFailure(t *testing.T) {
	_, err := NewCommand("", "sh", "-c", "exit 2").Run(context.Background())
	assert.Error(t, err)
}

func TestRunner_EmptyAndTimeout(t *testing.T) {
	r := NewRunner(logger.Nop(), 50*time.Millisecond)

	_, err := r.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyCommand)

	_, err = r.Run(context.Background(), []string{"sleep", "5"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassifyLine(t *testing.T) {
	tests := map[string]Level{
		"E: Failed to fetch":    LevelError,
		"WARNING: disk is slow": LevelWarn,
		"debug: cache hit":      LevelDebug,
		"Already up to date.":   LevelInfo,
	}

	for line, want := range tests {
		assert.Equal(t, want, classifyLine(line), line)
	}
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitLines("a\r\nb\rc"))
}

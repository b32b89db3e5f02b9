package command

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"mqtt-monitor/internal/logger"
)

const (
	initialScannerBufferSize = 4096
	maxScannerBufferSize     = 1024 * 1024
)

var ErrEmptyCommand = errors.New("empty command")

type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

type LineHandler = func(line string, stream Stream, level Level)

// Command is a single host process whose output is streamed line by line.
type Command struct {
	workDir string
	name    string
	args    []string
}

func NewCommand(workDir, name string, args ...string) *Command {
	return &Command{
		workDir: workDir,
		name:    name,
		args:    args,
	}
}

func (c *Command) String() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

// Run executes the command and returns its combined output.
func (c *Command) Run(ctx context.Context, handlers ...LineHandler) (string, error) {
	var (
		mu  sync.Mutex
		buf bytes.Buffer
	)

	err := c.execute(ctx, func(line string, stream Stream, level Level) {
		mu.Lock()
		buf.WriteString(line)
		buf.WriteString("\n")
		mu.Unlock()

		for _, h := range handlers {
			if h != nil {
				h(line, stream, level)
			}
		}
	})

	return buf.String(), err
}

func (c *Command) execute(ctx context.Context, handler LineHandler) error {
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Dir = c.workDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.name, err)
	}

	errCh := make(chan error, 2)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := streamOutput(stdout, handler, StreamStdout); err != nil {
			errCh <- fmt.Errorf("stdout: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := streamOutput(stderr, handler, StreamStderr); err != nil {
			errCh <- fmt.Errorf("stderr: %w", err)
		}
	}()

	// Pipes must be fully read before Wait closes them.
	wg.Wait()
	cmdErr := cmd.Wait()
	close(errCh)

	if cmdErr != nil {
		return fmt.Errorf("%s: %w", c.name, cmdErr)
	}

	var streamErrs []error
	for err := range errCh {
		streamErrs = append(streamErrs, err)
	}

	return errors.Join(streamErrs...)
}

func streamOutput(r io.Reader, handler LineHandler, stream Stream) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialScannerBufferSize), maxScannerBufferSize)

	for scanner.Scan() {
		for _, line := range splitLines(scanner.Text()) {
			line = strings.TrimSpace(line)
			if line != "" {
				handler(line, stream, classifyLine(line))
			}
		}
	}

	return scanner.Err()
}

// splitLines breaks on carriage returns too, which progress output uses.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func classifyLine(line string) Level {
	l := strings.ToLower(line)

	switch {
	case strings.Contains(l, "error"),
		strings.Contains(l, "fatal"),
		strings.Contains(l, "failed"):
		return LevelError

	case strings.Contains(l, "warn"),
		strings.Contains(l, "deprecated"):
		return LevelWarn

	case strings.Contains(l, "debug"):
		return LevelDebug
	}

	return LevelInfo
}

// Runner executes argv-style host commands with a timeout and logs their
// output.
type Runner struct {
	log     logger.Logger
	timeout time.Duration
	workDir string
}

func NewRunner(log logger.Logger, timeout time.Duration) *Runner {
	return &Runner{log: log, timeout: timeout}
}

// InDir returns a copy of r that runs commands in dir.
func (r *Runner) InDir(dir string) *Runner {
	cp := *r
	cp.workDir = dir
	return &cp
}

func (r *Runner) Run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 || argv[0] == "" {
		return "", ErrEmptyCommand
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := NewCommand(r.workDir, argv[0], argv[1:]...)
	log := r.log.With("cmd", cmd.String())
	log.Debug("running command", "dir", r.workDir)

	out, err := cmd.Run(ctx, func(line string, stream Stream, level Level) {
		switch level {
		case LevelError:
			log.Error(line, "stream", string(stream))
		case LevelWarn:
			log.Warn(line, "stream", string(stream))
		case LevelDebug:
			log.Debug(line, "stream", string(stream))
		default:
			log.Info(line, "stream", string(stream))
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", err, ctx.Err())
		}
		return out, err
	}

	return out, nil
}

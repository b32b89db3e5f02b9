package update

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mqtt-monitor/internal/logger"
)

// Git runs git against a single checkout.
type Git struct {
	dir string
	run runner
	log logger.Logger
}

func NewGit(dir string, run runner, log logger.Logger) *Git {
	return &Git{dir: dir, run: run, log: log}
}

func (g *Git) IsRepo() bool {
	_, err := os.Stat(filepath.Join(g.dir, ".git"))
	return err == nil
}

func (g *Git) Pull(ctx context.Context, branch string) (string, error) {
	if branch != "" {
		if _, err := g.git(ctx, "checkout", branch); err != nil {
			g.log.Warn("checkout failed, pulling current branch", "branch", branch, "error", err)
		}
	}

	args := []string{"pull"}
	if branch != "" {
		args = append(args, "origin", branch)
	}

	out, err := g.git(ctx, args...)
	if err != nil {
		return out, fmt.Errorf("git pull: %w", err)
	}

	g.log.Info("repository updated", "branch", branch, "dir", g.dir)
	return out, nil
}

func (g *Git) CurrentCommit(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (g *Git) git(ctx context.Context, args ...string) (string, error) {
	return g.run.Run(ctx, append([]string{"git", "-C", g.dir}, args...))
}

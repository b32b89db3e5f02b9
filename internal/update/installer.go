package update

import (
	"context"
	"errors"
	"fmt"

	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/logger"
)

var ErrNotRepository = errors.New("install directory is not a git checkout")

// Installer updates the agent in place: git pull followed by the
// configured post-install command.
type Installer struct {
	git         *Git
	branch      string
	postInstall []string
	run         runner
	log         logger.Logger
}

func NewInstaller(cfg config.UpdateConfig, run runner, log logger.Logger) *Installer {
	log = log.With("component", "installer")
	return &Installer{
		git:         NewGit(cfg.RepoDir, run, log),
		branch:      cfg.Branch,
		postInstall: cfg.PostInstall,
		run:         run,
		log:         log,
	}
}

func (i *Installer) Install(ctx context.Context) error {
	if !i.git.IsRepo() {
		return fmt.Errorf("%w: %s", ErrNotRepository, i.git.dir)
	}

	before, err := i.git.CurrentCommit(ctx)
	if err != nil {
		return err
	}

	if _, err := i.git.Pull(ctx, i.branch); err != nil {
		return err
	}

	after, err := i.git.CurrentCommit(ctx)
	if err != nil {
		return err
	}
	i.log.Info("checkout updated", "from", before, "to", after)

	if len(i.postInstall) > 0 {
		if _, err := i.run.Run(ctx, i.postInstall); err != nil {
			return fmt.Errorf("post-install: %w", err)
		}
	}

	return nil
}

// Package update checks GitHub for a newer release, counts pending OS
// packages and installs new versions from a git checkout.
package update

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v57/github"

	"mqtt-monitor/internal/config"
	"mqtt-monitor/internal/domain"
	"mqtt-monitor/internal/logger"
)

type runner interface {
	Run(ctx context.Context, argv []string) (string, error)
}

type Checker struct {
	client    *github.Client
	owner     string
	repo      string
	installed string
	countApt  bool
	run       runner
	log       logger.Logger
}

func NewChecker(cfg *config.Config, installed string, run runner, log logger.Logger) (*Checker, error) {
	owner, repo, ok := strings.Cut(cfg.Update.Repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("invalid repository %q, expected owner/repo", cfg.Update.Repository)
	}

	client := github.NewClient(nil)
	if base := cfg.Update.GitHubAPIURL; base != "" {
		u, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github api url: %w", err)
		}
		client.BaseURL = u
	}

	return &Checker{
		client:    client,
		owner:     owner,
		repo:      repo,
		installed: installed,
		countApt:  cfg.Metrics.AptUpdates,
		run:       run,
		log:       log.With("component", "update"),
	}, nil
}

// Check looks up the latest release. LatestVersion equals InstalledVersion
// unless the release is strictly newer.
func (c *Checker) Check(ctx context.Context) (domain.UpdateStatus, error) {
	status := domain.UpdateStatus{
		InstalledVersion: c.installed,
		LatestVersion:    c.installed,
		Title:            "mqtt-monitor",
		AptUpdates:       -1,
	}

	if c.countApt {
		n, err := CountAptUpdates(ctx, c.run)
		if err != nil {
			c.log.Warn("apt update count failed", "error", err)
		} else {
			status.AptUpdates = n
		}
	}

	release, _, err := c.client.Repositories.GetLatestRelease(ctx, c.owner, c.repo)
	if err != nil {
		return status, fmt.Errorf("get latest release: %w", err)
	}

	tag := release.GetTagName()
	if name := release.GetName(); name != "" {
		status.Title = name
	}
	status.ReleaseURL = release.GetHTMLURL()

	if Newer(c.installed, tag) {
		status.LatestVersion = tag
	} else if _, err := semver.NewVersion(c.installed); err != nil {
		c.log.Warn("installed version is not a semantic version, updates are not offered", "installed", c.installed, "latest", tag)
	}

	c.log.Debug("update checked", "installed", c.installed, "latest", tag, "available", status.Available())
	return status, nil
}

// Newer reports whether candidate is a later version than current. When
// either side is not a semantic version, such as a "dev" build, nothing
// counts as newer.
func Newer(current, candidate string) bool {
	cur, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	cand, err := semver.NewVersion(candidate)
	if err != nil {
		return false
	}

	return cand.GreaterThan(cur)
}

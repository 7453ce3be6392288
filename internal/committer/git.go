// Package committer records archive changes in version control.
package committer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/page-archiver/internal/archive"
)

// GitConfig configures the git-backed committer.
type GitConfig struct {
	// RepoDir is the working tree the ChangeSet paths are relative to.
	RepoDir     string
	Binary      string
	AuthorName  string
	AuthorEmail string
	// Push runs "git push" after a successful commit.
	Push bool
}

// runner executes git with args in dir and returns stdout.
type runner func(ctx context.Context, dir string, args ...string) (string, error)

// Git commits ChangeSets with the git CLI.
type Git struct {
	cfg    GitConfig
	logger *zap.Logger
	run    runner
}

// NewGit creates a Git committer. An empty Binary means "git" on PATH.
func NewGit(cfg GitConfig, logger *zap.Logger) *Git {
	if cfg.Binary == "" {
		cfg.Binary = "git"
	}
	if cfg.RepoDir == "" {
		cfg.RepoDir = "."
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Git{cfg: cfg, logger: logger}
	g.run = g.exec
	return g
}

// Commit stages changes and commits them with message. An empty ChangeSet, or
// one whose paths have no staged difference, is a no-op.
func (g *Git) Commit(ctx context.Context, changes archive.ChangeSet, message string) error {
	if changes.Empty() {
		g.logger.Info("nothing to commit")
		return nil
	}
	paths := []string(changes)

	if _, err := g.run(ctx, g.cfg.RepoDir, append([]string{"add", "--"}, paths...)...); err != nil {
		return fmt.Errorf("%w: git add: %v", archive.ErrCommitFailure, err)
	}

	staged, err := g.hasStaged(ctx, paths)
	if err != nil {
		return fmt.Errorf("%w: git diff: %v", archive.ErrCommitFailure, err)
	}
	if !staged {
		g.logger.Info("no staged differences; skipping commit", zap.Strings("paths", paths))
		return nil
	}

	args := g.identityArgs()
	args = append(args, "commit", "--quiet", "-m", message, "--")
	args = append(args, paths...)
	if _, err := g.run(ctx, g.cfg.RepoDir, args...); err != nil {
		return fmt.Errorf("%w: git commit: %v", archive.ErrCommitFailure, err)
	}
	g.logger.Info("changes committed", zap.Strings("paths", paths), zap.String("message", message))

	if g.cfg.Push {
		if _, err := g.run(ctx, g.cfg.RepoDir, "push", "--quiet"); err != nil {
			return fmt.Errorf("%w: git push: %v", archive.ErrCommitFailure, err)
		}
		g.logger.Info("changes pushed")
	}
	return nil
}

func (g *Git) identityArgs() []string {
	var args []string
	if g.cfg.AuthorName != "" {
		args = append(args, "-c", "user.name="+g.cfg.AuthorName)
	}
	if g.cfg.AuthorEmail != "" {
		args = append(args, "-c", "user.email="+g.cfg.AuthorEmail)
	}
	return args
}

// hasStaged reports whether the index differs from HEAD for paths. A
// repository without commits always has staged content once paths are added.
func (g *Git) hasStaged(ctx context.Context, paths []string) (bool, error) {
	if _, err := g.run(ctx, g.cfg.RepoDir, "rev-parse", "--verify", "--quiet", "HEAD"); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return true, nil
		}
		return false, err
	}
	_, err := g.run(ctx, g.cfg.RepoDir, append([]string{"diff", "--cached", "--quiet", "--"}, paths...)...)
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, err
}

func (g *Git) exec(ctx context.Context, dir string, args ...string) (string, error) {
	// #nosec G204 -- binary comes from operator configuration; args are built here.
	cmd := exec.CommandContext(ctx, g.cfg.Binary, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w: %s", g.cfg.Binary, args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

var _ archive.Committer = (*Git)(nil)

package sync

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitDestination writes the export parts into a directory of a local clone,
// commits them with the export summary as message, and pushes to origin.
type GitDestination struct {
	repo   string // path to the local clone
	dir    string // directory within the clone, "" for the root
	branch string
}

// NewGitDestination creates a git destination. repo is the path to an
// existing local clone.
func NewGitDestination(repo, dir, branch string) *GitDestination {
	return &GitDestination{repo: repo, dir: dir, branch: branch}
}

func (d *GitDestination) Name() string { return "git:" + filepath.Join(d.repo, d.dir) }

// Publish commits the parts of e. Nothing is committed when the files
// already hold the same content.
func (d *GitDestination) Publish(ctx context.Context, e *Export) error {
	if _, err := d.git(ctx, "checkout", d.branch); err != nil {
		return err
	}
	// The remote may not have the branch yet.
	_, _ = d.git(ctx, "pull", "--ff-only", "origin", d.branch)

	target := filepath.Join(d.repo, d.dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	paths := make([]string, 0, len(e.Parts))
	for _, p := range e.Parts {
		if err := os.WriteFile(filepath.Join(target, p.Name), p.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", p.Name, err)
		}
		paths = append(paths, filepath.Join(d.dir, p.Name))
	}

	if _, err := d.git(ctx, append([]string{"add", "--"}, paths...)...); err != nil {
		return err
	}
	if _, err := d.git(ctx, "diff", "--cached", "--quiet"); err == nil {
		return nil
	}
	msg := fmt.Sprintf("facets: export %s\n\nDigest: %s", e.Summary(), e.Digest)
	if _, err := d.git(ctx, "commit", "-m", msg); err != nil {
		return err
	}
	if _, err := d.git(ctx, "push", "origin", d.branch); err != nil {
		return err
	}
	return nil
}

// git runs a git command in the clone and returns its standard output.
// Errors carry the command's standard error.
func (d *GitDestination) git(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout.String(), nil
}

package sync

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/issuefacets/internal/model"
)

// newClone creates a bare remote with one commit on main and returns the
// path of a working clone.
func newClone(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}

	remoteDir := t.TempDir()
	run(t, remoteDir, "git", "init", "--bare")

	workDir := t.TempDir()
	run(t, workDir, "git", "clone", remoteDir, "repo")
	repoDir := filepath.Join(workDir, "repo")

	run(t, repoDir, "git", "config", "user.email", "test@test.com")
	run(t, repoDir, "git", "config", "user.name", "Test")
	run(t, repoDir, "git", "branch", "-m", "main")

	if err := os.WriteFile(filepath.Join(repoDir, ".gitkeep"), nil, 0o644); err != nil {
		t.Fatalf("write .gitkeep: %v", err)
	}
	run(t, repoDir, "git", "add", ".")
	run(t, repoDir, "git", "commit", "-m", "init")
	run(t, repoDir, "git", "push", "origin", "main")
	return repoDir
}

func TestGitDestination(t *testing.T) {
	repoDir := newClone(t)
	ctx := context.Background()
	dest := NewGitDestination(repoDir, "data/facets", "main")

	ms := newMockStore()
	_ = ms.CreateIssue(ctx, &model.Issue{Key: "AY-1", Type: model.TypeBug, CreatedAt: time.Now().UTC()})
	first := mustExport(t, ms)
	if err := dest.Publish(ctx, first); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	for _, p := range first.Parts {
		got, err := os.ReadFile(filepath.Join(repoDir, "data", "facets", p.Name))
		if err != nil {
			t.Fatalf("read %s: %v", p.Name, err)
		}
		if string(got) != string(p.Data) {
			t.Fatalf("%s content mismatch: got %q", p.Name, got)
		}
	}
	subject, err := dest.git(ctx, "log", "-1", "--format=%s")
	if err != nil {
		t.Fatal(err)
	}
	if want := "facets: export 1 issue, new code: previous version"; strings.TrimSpace(subject) != want {
		t.Errorf("commit subject = %q, want %q", subject, want)
	}

	// Publishing the same content again commits nothing.
	if err := dest.Publish(ctx, mustExport(t, ms)); err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if n := commitCount(t, dest); n != 2 {
		t.Fatalf("commits = %d, want 2", n)
	}

	_ = ms.CreateIssue(ctx, &model.Issue{Key: "AY-2", Type: model.TypeCodeSmell, CreatedAt: time.Now().UTC()})
	if err := dest.Publish(ctx, mustExport(t, ms)); err != nil {
		t.Fatalf("third publish: %v", err)
	}
	if n := commitCount(t, dest); n != 3 {
		t.Fatalf("commits = %d, want 3", n)
	}
	// The commit reached origin.
	if _, err := dest.git(ctx, "fetch", "origin"); err != nil {
		t.Fatal(err)
	}
	local, _ := dest.git(ctx, "rev-parse", "main")
	remote, _ := dest.git(ctx, "rev-parse", "origin/main")
	if local != remote {
		t.Errorf("origin/main = %q, want %q", remote, local)
	}
}

func TestGitDestinationMissingBranch(t *testing.T) {
	repoDir := newClone(t)
	dest := NewGitDestination(repoDir, "", "backups")

	err := dest.Publish(context.Background(), mustExport(t, newMockStore()))
	if err == nil || !strings.Contains(err.Error(), "git checkout") {
		t.Fatalf("expected a checkout error, got %v", err)
	}
}

func commitCount(t *testing.T, d *GitDestination) int {
	t.Helper()
	out, err := d.git(context.Background(), "rev-list", "--count", "HEAD")
	if err != nil {
		t.Fatal(err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("rev-list output %q: %v", out, err)
	}
	return n
}

func run(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("%s %v failed: %v", name, args, err)
	}
}

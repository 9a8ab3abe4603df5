package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// initTestRepo builds a throwaway git repository with one committed task
// file and returns its path. Skips when git is not installed.
func initTestRepo(t *testing.T, content string) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	git("init", "-q")
	git("config", "user.email", "test@example.com")
	git("config", "user.name", "test")

	if err := os.MkdirAll(filepath.Join(dir, "tasks"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tasks", "TASK-1 - Demo.md"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing task file: %v", err)
	}
	git("add", ".")
	git("commit", "-q", "-m", "add task")
	git("branch", "-M", "main")
	return dir
}

func TestGitCLIReadFileAtRefExactBytes(t *testing.T) {
	content := "---\nid: TASK-1\ntitle: Demo\n---\n\n# Demo\n"
	dir := initTestRepo(t, content)
	g := NewGitCLI(dir)
	ctx := context.Background()

	got, err := g.ReadFileAtRef(ctx, "main", "tasks/TASK-1 - Demo.md")
	if err != nil {
		t.Fatalf("ReadFileAtRef: %v", err)
	}
	if got != content {
		t.Errorf("ReadFileAtRef returned %q, want the committed bytes %q", got, content)
	}
}

func TestGitCLIBranchAndFileListing(t *testing.T) {
	dir := initTestRepo(t, "---\nid: TASK-1\ntitle: Demo\n---\n")
	g := NewGitCLI(dir)
	ctx := context.Background()

	branch, err := g.CurrentBranch(ctx)
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "main" {
		t.Errorf("CurrentBranch = %q, want main", branch)
	}

	branches, err := g.ListLocalBranches(ctx)
	if err != nil {
		t.Fatalf("ListLocalBranches: %v", err)
	}
	if len(branches) != 1 || branches[0].Name != "main" {
		t.Fatalf("ListLocalBranches = %v, want just main", branches)
	}
	if branches[0].LastActivity.IsZero() {
		t.Error("LastActivity should come from the commit date")
	}

	files, err := g.ListFilesAtRef(ctx, "main", "tasks")
	if err != nil {
		t.Fatalf("ListFilesAtRef: %v", err)
	}
	if len(files) != 1 || !strings.HasPrefix(files[0], "tasks/") {
		t.Errorf("ListFilesAtRef = %v, want the committed task file", files)
	}
}

func TestGitCLIFailureMentionsStderr(t *testing.T) {
	dir := initTestRepo(t, "x\n")
	g := NewGitCLI(dir)

	_, err := g.ReadFileAtRef(context.Background(), "no-such-branch", "tasks/missing.md")
	if err == nil {
		t.Fatal("reading at a missing ref should fail")
	}
	if !strings.Contains(err.Error(), "git show failed") {
		t.Errorf("error %q should name the failing git command", err)
	}
}

func TestParseBranchList(t *testing.T) {
	out := "main|1700000000\n" +
		"feature/login|1700003600\n" +
		"\n" +
		"bad-line-without-separator\n" +
		"broken|not-a-number\n"

	branches := parseBranchList(out, false)
	if len(branches) != 2 {
		t.Fatalf("parsed %d branches, want 2: %v", len(branches), branches)
	}
	if branches[0].Name != "main" || branches[0].Remote {
		t.Errorf("branches[0] = %+v, want local main", branches[0])
	}
	if got, want := branches[0].LastActivity, time.Unix(1700000000, 0).UTC(); !got.Equal(want) {
		t.Errorf("LastActivity = %v, want %v", got, want)
	}
	if branches[1].Name != "feature/login" {
		t.Errorf("branches[1].Name = %q, want feature/login", branches[1].Name)
	}
}

func TestParseBranchListDropsRemoteHead(t *testing.T) {
	out := "origin/HEAD|1700000000\n" +
		"origin/main|1700000000\n" +
		"origin/feature/x|1700001000\n"

	branches := parseBranchList(out, true)
	if len(branches) != 2 {
		t.Fatalf("parsed %d branches, want 2: %v", len(branches), branches)
	}
	for _, b := range branches {
		if !b.Remote {
			t.Errorf("branch %q should be marked remote", b.Name)
		}
		if b.Name == "origin/HEAD" {
			t.Error("origin/HEAD should have been dropped")
		}
	}
}

func TestParseBranchListEmpty(t *testing.T) {
	if got := parseBranchList("", false); got != nil {
		t.Errorf("parseBranchList(empty) = %v, want nil", got)
	}
}

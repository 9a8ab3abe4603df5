package gitops

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// gitCLI implements Plumbing by shelling out to the git binary with the
// repository directory as working directory.
type gitCLI struct {
	repoPath string
}

// NewGitCLI creates a Plumbing implementation over the git repository at
// repoPath.
func NewGitCLI(repoPath string) Plumbing {
	return &gitCLI{repoPath: repoPath}
}

// run executes one git command and returns its raw stdout. Stderr is kept
// separate so warnings on a successful call never leak into the result,
// and only feeds the error message on failure.
func (g *gitCLI) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %s: %w", args[0], strings.TrimSpace(stderr.String()), err)
	}
	return stdout.String(), nil
}

func (g *gitCLI) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// branchRefFormat asks for-each-ref for "name|unix-committerdate" lines.
const branchRefFormat = "%(refname:short)|%(committerdate:unix)"

func (g *gitCLI) ListLocalBranches(ctx context.Context) ([]Branch, error) {
	out, err := g.run(ctx, "for-each-ref", "--format="+branchRefFormat, "refs/heads")
	if err != nil {
		return nil, err
	}
	return parseBranchList(out, false), nil
}

func (g *gitCLI) ListRemoteBranches(ctx context.Context) ([]Branch, error) {
	out, err := g.run(ctx, "for-each-ref", "--format="+branchRefFormat, "refs/remotes")
	if err != nil {
		return nil, err
	}
	return parseBranchList(out, true), nil
}

// parseBranchList parses for-each-ref output. Symbolic remote HEAD entries
// (origin/HEAD) are dropped.
func parseBranchList(out string, remote bool) []Branch {
	var branches []Branch
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, stamp, ok := strings.Cut(line, "|")
		if !ok {
			continue
		}
		if remote && strings.HasSuffix(name, "/HEAD") {
			continue
		}
		unix, err := strconv.ParseInt(strings.TrimSpace(stamp), 10, 64)
		if err != nil {
			continue
		}
		branches = append(branches, Branch{
			Name:         strings.TrimSpace(name),
			Remote:       remote,
			LastActivity: time.Unix(unix, 0).UTC(),
		})
	}
	return branches
}

func (g *gitCLI) ListFilesAtRef(ctx context.Context, ref, dir string) ([]string, error) {
	args := []string{"ls-tree", "-r", "--name-only", ref}
	if dir != "" {
		args = append(args, "--", dir)
	}
	out, err := g.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

func (g *gitCLI) ReadFileAtRef(ctx context.Context, ref, path string) (string, error) {
	return g.run(ctx, "show", ref+":"+path)
}

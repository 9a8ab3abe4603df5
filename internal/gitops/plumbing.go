// Package gitops wraps the external git tool behind a narrow plumbing
// interface: listing branches with last-activity timestamps and reading
// files from a branch's tree without checking it out. The reconciler is the
// only consumer; tests substitute an in-memory fake.
package gitops

import (
	"context"
	"time"
)

// Branch is one candidate branch with its last-activity timestamp.
type Branch struct {
	Name         string
	Remote       bool
	LastActivity time.Time
}

// Plumbing is the version-control surface the branch reconciler consumes.
// All calls are blocking; callers impose timeouts through ctx.
type Plumbing interface {
	// CurrentBranch returns the name of the checked-out branch.
	CurrentBranch(ctx context.Context) (string, error)
	// ListLocalBranches returns all local branches.
	ListLocalBranches(ctx context.Context) ([]Branch, error)
	// ListRemoteBranches returns all remote-tracking branches.
	ListRemoteBranches(ctx context.Context) ([]Branch, error)
	// ListFilesAtRef returns the paths under dir in the ref's tree.
	ListFilesAtRef(ctx context.Context, ref, dir string) ([]string, error)
	// ReadFileAtRef returns the content of one file in the ref's tree.
	ReadFileAtRef(ctx context.Context, ref, path string) (string, error)
}

// Package reconcile merges per-branch snapshots of task records into one
// authoritative view per task id. Branch access goes through the gitops
// plumbing interface; no branch is ever checked out.
package reconcile

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/valter-silva-au/taskforge/internal/codec"
	"github.com/valter-silva-au/taskforge/internal/gitops"
	"github.com/valter-silva-au/taskforge/pkg/models"
)

// ConfigSource supplies the current workspace configuration. Defined here
// so reconcile does not depend on the config package.
type ConfigSource interface {
	Load() (*models.Config, error)
}

// scanParallelism bounds concurrent branch scans so the external git
// process is not overwhelmed.
const scanParallelism = 4

// Reconciler enumerates candidate branches, loads each branch's task
// snapshots, and resolves one winner per task id.
type Reconciler struct {
	plumbing gitops.Plumbing
	cfg      ConfigSource
	log      zerolog.Logger

	// tasksDir is the repo-relative directory holding active task records.
	tasksDir string

	now func() time.Time
}

// NewReconciler creates a Reconciler scanning tasksDir (relative to the
// repository root) across branches.
func NewReconciler(plumbing gitops.Plumbing, cfg ConfigSource, tasksDir string, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		plumbing: plumbing,
		cfg:      cfg,
		log:      log.With().Str("component", "reconcile").Logger(),
		tasksDir: tasksDir,
		now:      time.Now,
	}
}

// ListCrossBranch returns the cross-branch view: one resolved snapshot per
// task id found on candidate branches, appended to the caller's local
// tasks. Local tasks are never subject to arbitration and stay the only
// writable representation even when a branch snapshot of the same id wins
// for display.
func (r *Reconciler) ListCrossBranch(ctx context.Context, localTasks []*models.Task) ([]*models.Task, error) {
	cfg, err := r.cfg.Load()
	if err != nil {
		return nil, fmt.Errorf("cross-branch listing: %w", err)
	}
	if !cfg.CheckActiveBranches {
		return localTasks, nil
	}

	branches, err := r.candidateBranches(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cross-branch listing: %w", err)
	}

	snapshots, err := r.scanBranches(ctx, branches)
	if err != nil {
		return nil, fmt.Errorf("cross-branch listing: %w", err)
	}

	byID := make(map[string][]*models.Task)
	for _, snap := range snapshots {
		byID[snap.ID] = append(byID[snap.ID], snap)
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]*models.Task, 0, len(localTasks)+len(ids))
	result = append(result, localTasks...)
	for _, id := range ids {
		winner := Resolve(byID[id], cfg.TaskResolutionStrategy, cfg)
		if winner != nil {
			result = append(result, winner)
		}
	}

	r.log.Debug().
		Int("branches", len(branches)).
		Int("snapshots", len(snapshots)).
		Int("resolved", len(ids)).
		Msg("cross-branch reconciliation completed")
	return result, nil
}

// candidateBranches lists local (and, when enabled, remote) branches,
// drops the current checkout, and applies the recency window so stale
// branches are skipped before any expensive tree scan.
func (r *Reconciler) candidateBranches(ctx context.Context, cfg *models.Config) ([]gitops.Branch, error) {
	current, err := r.plumbing.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}

	branches, err := r.plumbing.ListLocalBranches(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.RemoteOperations {
		remotes, err := r.plumbing.ListRemoteBranches(ctx)
		if err != nil {
			return nil, err
		}
		branches = append(branches, remotes...)
	}

	var cutoff time.Time
	if cfg.ActiveBranchDays > 0 {
		cutoff = r.now().Add(-time.Duration(cfg.ActiveBranchDays) * 24 * time.Hour)
	}

	var kept []gitops.Branch
	for _, b := range branches {
		if b.Name == current {
			continue
		}
		if !cutoff.IsZero() && b.LastActivity.Before(cutoff) {
			continue
		}
		kept = append(kept, b)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Name < kept[j].Name })
	return kept, nil
}

// scanBranches loads every task snapshot from each branch's tree with
// bounded parallelism. Each branch read is independent and side-effect
// free; a failed branch is logged and skipped rather than failing the
// whole scan.
func (r *Reconciler) scanBranches(ctx context.Context, branches []gitops.Branch) ([]*models.Task, error) {
	var (
		mu        sync.Mutex
		snapshots []*models.Task
		wg        sync.WaitGroup
	)
	sem := make(chan struct{}, scanParallelism)

	for _, branch := range branches {
		wg.Add(1)
		go func(b gitops.Branch) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			snaps, err := r.scanBranch(ctx, b)
			if err != nil {
				r.log.Warn().Err(err).Str("branch", b.Name).Msg("skipping unscannable branch")
				return
			}
			mu.Lock()
			snapshots = append(snapshots, snaps...)
			mu.Unlock()
		}(branch)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// scanBranch reads every task record in one branch's tree and parses it
// into a snapshot tagged with branch provenance.
func (r *Reconciler) scanBranch(ctx context.Context, branch gitops.Branch) ([]*models.Task, error) {
	files, err := r.plumbing.ListFilesAtRef(ctx, branch.Name, r.tasksDir)
	if err != nil {
		return nil, err
	}

	source := models.SourceLocalBranch
	if branch.Remote {
		source = models.SourceRemote
	}

	var snaps []*models.Task
	for _, file := range files {
		if !strings.HasSuffix(file, ".md") {
			continue
		}
		content, err := r.plumbing.ReadFileAtRef(ctx, branch.Name, file)
		if err != nil {
			r.log.Debug().Err(err).Str("branch", branch.Name).Str("file", file).Msg("skipping unreadable snapshot")
			continue
		}

		rec, _ := codec.Parse(content, codec.ParseOptions{})
		task := rec.Task()
		if task.ID == "" {
			task.ID = idFromPath(file)
		}
		if task.ID == "" {
			continue
		}
		task.Source = source
		task.Branch = branch.Name
		task.FilePath = file
		task.LastModified = snapshotTime(task, branch)
		snaps = append(snaps, task)
	}
	return snaps, nil
}

// snapshotTime derives a snapshot's modification timestamp: the record's
// updated (or created) date when parseable, otherwise the branch's last
// activity.
func snapshotTime(task *models.Task, branch gitops.Branch) time.Time {
	if t, ok := models.ParseRecordDate(task.UpdatedDate); ok {
		return t
	}
	if t, ok := models.ParseRecordDate(task.CreatedDate); ok {
		return t
	}
	return branch.LastActivity
}

// idFromPath recovers a record id from a tree path like
// "tasks/TASK-3 - Title.md".
func idFromPath(file string) string {
	base := strings.TrimSuffix(path.Base(file), ".md")
	if i := strings.Index(base, " - "); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSpace(base)
}

package models

import "strings"

// ResolutionStrategy selects how the branch reconciler picks the winning
// snapshot when the same task ID exists on several branches.
type ResolutionStrategy string

const (
	// ResolveMostRecent picks the snapshot with the latest modification
	// timestamp, breaking ties by branch name order.
	ResolveMostRecent ResolutionStrategy = "most_recent"
	// ResolveMostProgressed picks the snapshot whose status sits furthest
	// along the configured status list, ignoring recency.
	ResolveMostProgressed ResolutionStrategy = "most_progressed"
)

// Config holds the per-workspace settings that shape record parsing, ID
// generation, and cross-branch reconciliation. It is loaded from config.yml
// at the store root and cached keyed by the file's mtime.
type Config struct {
	// Statuses is the ordered status list. The first entry is the default
	// for new tasks; the last is treated as "done" for progress metrics.
	Statuses []string `yaml:"statuses"`

	// TaskPrefix is the uppercase ID prefix, e.g. "TASK" in TASK-12.
	TaskPrefix string `yaml:"task_prefix"`

	// ZeroPaddedIDs is the zero-padding width of the numeric ID portion.
	// 0 disables padding (TASK-1 rather than TASK-00001).
	ZeroPaddedIDs int `yaml:"zero_padded_ids"`

	// CheckActiveBranches enables cross-branch reconciliation.
	CheckActiveBranches bool `yaml:"check_active_branches"`

	// RemoteOperations additionally includes remote-tracking branches in
	// reconciliation. Has no effect unless CheckActiveBranches is set.
	RemoteOperations bool `yaml:"remote_operations"`

	// ActiveBranchDays is the recency window: branches whose last activity
	// is older than this many days are skipped before scanning.
	ActiveBranchDays int `yaml:"active_branch_days"`

	// TaskResolutionStrategy picks the winner among branch snapshots.
	TaskResolutionStrategy ResolutionStrategy `yaml:"task_resolution_strategy"`
}

// DefaultStatus returns the status assigned to newly created tasks.
func (c *Config) DefaultStatus() string {
	if len(c.Statuses) == 0 {
		return ""
	}
	return c.Statuses[0]
}

// DoneStatus returns the status treated as "done".
func (c *Config) DoneStatus() string {
	if len(c.Statuses) == 0 {
		return ""
	}
	return c.Statuses[len(c.Statuses)-1]
}

// StatusIndex returns the position of status in the configured list using
// case-insensitive comparison, or -1 if the status is not configured.
func (c *Config) StatusIndex(status string) int {
	for i, s := range c.Statuses {
		if strings.EqualFold(s, status) {
			return i
		}
	}
	return -1
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/taskforge/pkg/models"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	mgr := NewManager(t.TempDir())

	cfg, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	if cfg.TaskPrefix != want.TaskPrefix {
		t.Errorf("TaskPrefix = %q, want %q", cfg.TaskPrefix, want.TaskPrefix)
	}
	if len(cfg.Statuses) != 3 || cfg.Statuses[0] != "To Do" || cfg.Statuses[2] != "Done" {
		t.Errorf("Statuses = %v, want %v", cfg.Statuses, want.Statuses)
	}
	if cfg.ActiveBranchDays != 30 {
		t.Errorf("ActiveBranchDays = %d, want 30", cfg.ActiveBranchDays)
	}
	if cfg.TaskResolutionStrategy != models.ResolveMostRecent {
		t.Errorf("TaskResolutionStrategy = %q, want %q", cfg.TaskResolutionStrategy, models.ResolveMostRecent)
	}
	if cfg.CheckActiveBranches || cfg.RemoteOperations {
		t.Error("branch scanning flags should default to off")
	}
}

func TestLoadReadsFileValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `statuses:
  - Backlog
  - Doing
  - Shipped
task_prefix: OPS
zero_padded_ids: 3
check_active_branches: true
remote_operations: true
active_branch_days: 7
task_resolution_strategy: most_progressed
`)
	mgr := NewManager(dir)

	cfg, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TaskPrefix != "OPS" {
		t.Errorf("TaskPrefix = %q, want OPS", cfg.TaskPrefix)
	}
	if cfg.ZeroPaddedIDs != 3 {
		t.Errorf("ZeroPaddedIDs = %d, want 3", cfg.ZeroPaddedIDs)
	}
	if !cfg.CheckActiveBranches || !cfg.RemoteOperations {
		t.Error("branch scanning flags should be on")
	}
	if cfg.ActiveBranchDays != 7 {
		t.Errorf("ActiveBranchDays = %d, want 7", cfg.ActiveBranchDays)
	}
	if cfg.TaskResolutionStrategy != models.ResolveMostProgressed {
		t.Errorf("TaskResolutionStrategy = %q, want %q", cfg.TaskResolutionStrategy, models.ResolveMostProgressed)
	}
	if want := []string{"Backlog", "Doing", "Shipped"}; len(cfg.Statuses) != len(want) {
		t.Fatalf("Statuses = %v, want %v", cfg.Statuses, want)
	}
	if cfg.StatusIndex("doing") != 1 {
		t.Errorf("StatusIndex(doing) = %d, want 1", cfg.StatusIndex("doing"))
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "task_prefix: BUG\n")
	mgr := NewManager(dir)

	cfg, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TaskPrefix != "BUG" {
		t.Errorf("TaskPrefix = %q, want BUG", cfg.TaskPrefix)
	}
	if len(cfg.Statuses) != 3 || cfg.Statuses[0] != "To Do" {
		t.Errorf("Statuses = %v, want defaults", cfg.Statuses)
	}
	if cfg.ActiveBranchDays != 30 {
		t.Errorf("ActiveBranchDays = %d, want default 30", cfg.ActiveBranchDays)
	}
}

func TestLoadCachesUntilModTimeChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "task_prefix: ONE\n")
	mgr := NewManager(dir)

	first, err := mgr.Load()
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	second, err := mgr.Load()
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if first != second {
		t.Error("unchanged file should return the cached config")
	}

	if err := os.WriteFile(path, []byte("task_prefix: TWO\n"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}
	// Force a distinct mtime; writes within the same filesystem tick would
	// otherwise keep serving the cache.
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("bumping mtime: %v", err)
	}

	third, err := mgr.Load()
	if err != nil {
		t.Fatalf("third Load: %v", err)
	}
	if third.TaskPrefix != "TWO" {
		t.Errorf("TaskPrefix = %q, want TWO after mtime change", third.TaskPrefix)
	}
}

func TestInvalidateForcesReRead(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "task_prefix: ONE\n")
	mgr := NewManager(dir)

	if _, err := mgr.Load(); err != nil {
		t.Fatalf("first Load: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if err := os.WriteFile(path, []byte("task_prefix: TWO\n"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}
	// Restore the original mtime so only Invalidate can trigger the re-read.
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		t.Fatalf("restoring mtime: %v", err)
	}

	mgr.Invalidate()
	cfg, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load after Invalidate: %v", err)
	}
	if cfg.TaskPrefix != "TWO" {
		t.Errorf("TaskPrefix = %q, want TWO after Invalidate", cfg.TaskPrefix)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "task_prefix: lowercase\n")
	mgr := NewManager(dir)

	if _, err := mgr.Load(); err == nil {
		t.Fatal("Load should reject an invalid task_prefix")
	}
}

func TestValidate(t *testing.T) {
	mgr := NewManager(t.TempDir())

	valid := func() *models.Config { return Default() }

	tests := []struct {
		name    string
		mutate  func(*models.Config)
		wantErr string
	}{
		{
			name:   "defaults pass",
			mutate: func(c *models.Config) {},
		},
		{
			name:    "empty statuses",
			mutate:  func(c *models.Config) { c.Statuses = nil },
			wantErr: "statuses must not be empty",
		},
		{
			name:    "blank status entry",
			mutate:  func(c *models.Config) { c.Statuses = []string{"To Do", "  "} },
			wantErr: "blank entries",
		},
		{
			name:    "duplicate status ignoring case",
			mutate:  func(c *models.Config) { c.Statuses = []string{"Done", "done"} },
			wantErr: "appears more than once",
		},
		{
			name:    "lowercase prefix",
			mutate:  func(c *models.Config) { c.TaskPrefix = "task" },
			wantErr: "task_prefix",
		},
		{
			name:    "prefix too long",
			mutate:  func(c *models.Config) { c.TaskPrefix = "ABCDEFGHIJK" },
			wantErr: "task_prefix",
		},
		{
			name:    "empty prefix",
			mutate:  func(c *models.Config) { c.TaskPrefix = "" },
			wantErr: "task_prefix",
		},
		{
			name:    "padding out of range",
			mutate:  func(c *models.Config) { c.ZeroPaddedIDs = 11 },
			wantErr: "zero_padded_ids",
		},
		{
			name:    "negative padding",
			mutate:  func(c *models.Config) { c.ZeroPaddedIDs = -1 },
			wantErr: "zero_padded_ids",
		},
		{
			name:    "negative branch days",
			mutate:  func(c *models.Config) { c.ActiveBranchDays = -5 },
			wantErr: "active_branch_days",
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *models.Config) { c.TaskResolutionStrategy = "newest" },
			wantErr: "task_resolution_strategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := mgr.Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	mgr := NewManager(t.TempDir())
	cfg := Default()
	cfg.TaskPrefix = "bad"
	cfg.ZeroPaddedIDs = 99
	cfg.TaskResolutionStrategy = "bogus"

	err := mgr.Validate(cfg)
	if err == nil {
		t.Fatal("Validate should fail")
	}
	for _, want := range []string{"task_prefix", "zero_padded_ids", "task_resolution_strategy"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

// Package config loads the per-workspace taskforge configuration with
// Viper and caches the parsed result keyed by the config file's mtime.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/taskforge/pkg/models"
)

// FileName is the workspace config file expected at the store root.
const FileName = "config.yml"

// validPrefixPattern matches uppercase alphanumeric prefixes between 1 and 10 characters.
var validPrefixPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// Manager loads, validates, and caches the workspace configuration.
type Manager interface {
	Load() (*models.Config, error)
	Validate(cfg *models.Config) error
	// Invalidate drops the cached config so the next Load re-reads the file.
	Invalidate()
}

// viperManager implements Manager. The cache holds one entry: the parsed
// config together with the file mtime it was read at; a changed mtime or an
// explicit Invalidate forces a re-read.
type viperManager struct {
	basePath string

	mu     sync.Mutex
	cached *models.Config
	mtime  time.Time
}

// NewManager creates a Manager reading config.yml from basePath.
func NewManager(basePath string) Manager {
	return &viperManager{basePath: basePath}
}

// Default returns a Config populated with the documented defaults.
func Default() *models.Config {
	return &models.Config{
		Statuses:               []string{"To Do", "In Progress", "Done"},
		TaskPrefix:             "TASK",
		ZeroPaddedIDs:          0,
		CheckActiveBranches:    false,
		RemoteOperations:       false,
		ActiveBranchDays:       30,
		TaskResolutionStrategy: models.ResolveMostRecent,
	}
}

// Load returns the workspace configuration. A missing file yields the
// defaults; a present file is parsed, validated, and cached until its
// mtime changes.
func (m *viperManager) Load() (*models.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := filepath.Join(m.basePath, FileName)
	info, statErr := os.Stat(path)
	if statErr == nil && m.cached != nil && info.ModTime().Equal(m.mtime) {
		return m.cached, nil
	}

	cfg, err := m.read()
	if err != nil {
		return nil, err
	}
	if err := m.Validate(cfg); err != nil {
		return nil, err
	}

	m.cached = cfg
	if statErr == nil {
		m.mtime = info.ModTime()
	} else {
		m.mtime = time.Time{}
	}
	return cfg, nil
}

// read parses config.yml through Viper, falling back to defaults for
// missing keys and a missing file.
func (m *viperManager) read() (*models.Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(m.basePath)

	v.SetDefault("statuses", cfg.Statuses)
	v.SetDefault("task_prefix", cfg.TaskPrefix)
	v.SetDefault("zero_padded_ids", cfg.ZeroPaddedIDs)
	v.SetDefault("check_active_branches", cfg.CheckActiveBranches)
	v.SetDefault("remote_operations", cfg.RemoteOperations)
	v.SetDefault("active_branch_days", cfg.ActiveBranchDays)
	v.SetDefault("task_resolution_strategy", string(cfg.TaskResolutionStrategy))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg.Statuses = v.GetStringSlice("statuses")
	cfg.TaskPrefix = v.GetString("task_prefix")
	cfg.ZeroPaddedIDs = v.GetInt("zero_padded_ids")
	cfg.CheckActiveBranches = v.GetBool("check_active_branches")
	cfg.RemoteOperations = v.GetBool("remote_operations")
	cfg.ActiveBranchDays = v.GetInt("active_branch_days")
	cfg.TaskResolutionStrategy = models.ResolutionStrategy(v.GetString("task_resolution_strategy"))

	return cfg, nil
}

// Validate checks the configuration for invalid values and returns a clear
// error naming every problem found.
func (m *viperManager) Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if len(cfg.Statuses) == 0 {
		errs = append(errs, "statuses must not be empty")
	}
	seen := make(map[string]bool, len(cfg.Statuses))
	for _, s := range cfg.Statuses {
		key := strings.ToLower(s)
		if strings.TrimSpace(s) == "" {
			errs = append(errs, "statuses must not contain blank entries")
			continue
		}
		if seen[key] {
			errs = append(errs, fmt.Sprintf("status %q appears more than once", s))
		}
		seen[key] = true
	}

	if !validPrefixPattern.MatchString(cfg.TaskPrefix) {
		errs = append(errs, fmt.Sprintf(
			"task_prefix %q is invalid, must match [A-Z0-9]{1,10}",
			cfg.TaskPrefix,
		))
	}

	if cfg.ZeroPaddedIDs < 0 || cfg.ZeroPaddedIDs > 10 {
		errs = append(errs, fmt.Sprintf(
			"zero_padded_ids %d is invalid, must be between 0 and 10",
			cfg.ZeroPaddedIDs,
		))
	}

	if cfg.ActiveBranchDays < 0 {
		errs = append(errs, fmt.Sprintf(
			"active_branch_days must be non-negative, got %d",
			cfg.ActiveBranchDays,
		))
	}

	switch cfg.TaskResolutionStrategy {
	case models.ResolveMostRecent, models.ResolveMostProgressed:
	default:
		errs = append(errs, fmt.Sprintf(
			"task_resolution_strategy %q is invalid, must be one of: most_recent, most_progressed",
			cfg.TaskResolutionStrategy,
		))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Invalidate drops the cached config.
func (m *viperManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = nil
	m.mtime = time.Time{}
}

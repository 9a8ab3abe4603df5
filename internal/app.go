// Package internal provides the App struct that wires the record store,
// configuration, branch reconciler, and CLI layer together.
package internal

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/valter-silva-au/taskforge/internal/cli"
	"github.com/valter-silva-au/taskforge/internal/config"
	"github.com/valter-silva-au/taskforge/internal/gitops"
	"github.com/valter-silva-au/taskforge/internal/observability"
	"github.com/valter-silva-au/taskforge/internal/reconcile"
	"github.com/valter-silva-au/taskforge/internal/store"
)

// App holds all service dependencies for the taskforge CLI.
type App struct {
	Root string

	ConfigMgr  config.Manager
	Store      store.TaskStore
	Docs       *store.DocStore
	Reconciler *reconcile.Reconciler
	EventLog   observability.EventLog
	Log        zerolog.Logger
}

// NewApp creates and wires all components rooted at the given store
// directory.
func NewApp(root string) (*App, error) {
	app := &App{Root: root}

	logCfg := observability.DefaultLogConfig()
	if level := os.Getenv("TASKFORGE_LOG_LEVEL"); level != "" {
		logCfg.Level = level
	}
	if os.Getenv("TASKFORGE_LOG_FILE") != "" {
		logCfg.FilePath = os.Getenv("TASKFORGE_LOG_FILE")
		logCfg.Console = false
	}
	log, err := observability.NewLogger(logCfg)
	if err != nil {
		return nil, err
	}
	app.Log = log

	// Audit logging is best-effort: fall back to a no-op sink rather than
	// refusing to start.
	eventLog, err := observability.NewJSONLEventLog(filepath.Join(root, ".taskforge_events.jsonl"))
	if err != nil {
		log.Warn().Err(err).Msg("audit log unavailable")
		eventLog = observability.NopEventLog{}
	}
	app.EventLog = eventLog

	app.ConfigMgr = config.NewManager(root)
	app.Store = store.NewFileStore(root, app.ConfigMgr, log, eventLog)
	app.Docs = store.NewDocStore(root, log)

	plumbing := gitops.NewGitCLI(root)
	app.Reconciler = reconcile.NewReconciler(plumbing, app.ConfigMgr, store.TasksDir, log)

	cli.Root = root
	cli.Store = app.Store
	cli.Docs = app.Docs
	cli.ConfigMgr = app.ConfigMgr
	cli.Reconciler = app.Reconciler
	cli.Events = app.EventLog

	return app, nil
}

// Close releases resources held by the App.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveRoot determines the store root directory. It checks the
// TASKFORGE_DIR env var, then walks up from the working directory looking
// for a config.yml, and finally falls back to the working directory.
func ResolveRoot() string {
	if dir := os.Getenv("TASKFORGE_DIR"); dir != "" {
		return dir
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	cwd := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

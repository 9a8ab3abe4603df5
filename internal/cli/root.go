// Package cli implements the taskforge command tree. Service instances
// are package-level variables wired during app initialization.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskforge/internal/config"
	"github.com/valter-silva-au/taskforge/internal/observability"
	"github.com/valter-silva-au/taskforge/internal/reconcile"
	"github.com/valter-silva-au/taskforge/internal/store"
)

// Service instances, set during app initialization in app.go.
var (
	Root       string
	Store      store.TaskStore
	Docs       *store.DocStore
	ConfigMgr  config.Manager
	Reconciler *reconcile.Reconciler
	Events     observability.EventLog
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "taskforge",
	Short: "Plain-file task tracker for git repositories",
	Long: `Taskforge keeps tasks, documents, and decisions as markdown files with
structured frontmatter, versioned alongside the code they describe.

Records round-trip byte-for-byte through edits, concurrent writers are
detected before they clobber each other, and tasks living on sibling
branches can be merged into one view without checking anything out.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskforge %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

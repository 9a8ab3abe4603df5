package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskforge/internal/observability"
	"github.com/valter-silva-au/taskforge/internal/store"
	"github.com/valter-silva-au/taskforge/pkg/models"
)

var (
	listScopeFlag  string
	listStatusFlag string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks grouped by status",
	Long: `List tasks in the chosen scope, grouped by status in configured order.

Scopes: tasks (default), drafts, completed, archived, all.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized")
		}

		tasks, err := Store.ListTasks(store.Scope(listScopeFlag))
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}
		if listStatusFlag != "" {
			var kept []*models.Task
			for _, t := range tasks {
				if strings.EqualFold(t.Status, listStatusFlag) {
					kept = append(kept, t)
				}
			}
			tasks = kept
		}
		printGrouped(tasks)
		return nil
	},
}

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List tasks across active branches",
	Long: `Merge task snapshots from active sibling branches into one view.

Each task id is shown once with the winning snapshot according to the
configured resolution strategy. Local records are listed alongside and
remain the only writable copies.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil || Reconciler == nil {
			return fmt.Errorf("store not initialized")
		}

		local, err := Store.ListTasks(store.ScopeActive)
		if err != nil {
			return fmt.Errorf("listing local tasks: %w", err)
		}
		merged, err := Reconciler.ListCrossBranch(context.Background(), local)
		if err != nil {
			return fmt.Errorf("cross-branch listing: %w", err)
		}
		if Events != nil {
			Events.Record(observability.EventReconcileDone, "cross-branch listing completed", map[string]any{
				"local":  len(local),
				"merged": len(merged),
			})
		}
		printGrouped(merged)
		return nil
	},
}

// printGrouped displays tasks bucketed by status, in the order the
// configuration declares statuses, with unknown statuses trailing.
func printGrouped(tasks []*models.Task) {
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return
	}

	var order []string
	if ConfigMgr != nil {
		if cfg, err := ConfigMgr.Load(); err == nil {
			order = cfg.Statuses
		}
	}

	grouped := make(map[string][]*models.Task)
	for _, t := range tasks {
		key := normalizeStatus(t.Status, order)
		grouped[key] = append(grouped[key], t)
	}

	seen := make(map[string]bool)
	for _, status := range order {
		if bucket := grouped[status]; len(bucket) > 0 {
			printStatusGroup(status, bucket)
			seen[status] = true
		}
	}
	var unknown []string
	for status := range grouped {
		if !seen[status] {
			unknown = append(unknown, status)
		}
	}
	sort.Strings(unknown)
	for _, status := range unknown {
		printStatusGroup(status, grouped[status])
	}
}

// normalizeStatus maps a status to its configured spelling when it matches
// case-insensitively, so grouping is stable across hand-edited records.
func normalizeStatus(status string, order []string) string {
	for _, s := range order {
		if strings.EqualFold(s, status) {
			return s
		}
	}
	return status
}

func printStatusGroup(status string, tasks []*models.Task) {
	if status == "" {
		status = "(no status)"
	}
	fmt.Println(headerStyle.Render(fmt.Sprintf("%s (%d)", status, len(tasks))))
	for _, t := range tasks {
		fmt.Println("  " + renderTaskLine(t))
	}
	fmt.Println()
}

func init() {
	listCmd.Flags().StringVarP(&listScopeFlag, "scope", "s", string(store.ScopeActive),
		"scope to list: tasks, drafts, completed, archived, all")
	listCmd.Flags().StringVar(&listStatusFlag, "status", "", "filter to a single status")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(branchesCmd)
}

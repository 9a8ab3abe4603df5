package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskforge/internal/store"
	"github.com/valter-silva-au/taskforge/pkg/models"
)

var editFlags struct {
	title       string
	status      string
	priority    string
	milestone   string
	description string
	parent      string
	ordinal     float64
	due         string
	labels      []string
	assignee    []string
	deps        []string
	refs        []string
	docs        []string
	token       string
}

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Edit task fields",
	Long: `Apply a partial update to a task record. Only the flags you pass
change; everything else in the file keeps its exact bytes.

The update is guarded: the record is re-read under a lock and the write is
refused if someone else changed the file since you last read it. Pass
--token with a value from "view --token" to pin the expected state.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized")
		}
		id := args[0]

		update := models.TaskUpdate{}
		if cmd.Flags().Changed("title") {
			update.Title = &editFlags.title
		}
		if cmd.Flags().Changed("status") {
			update.Status = &editFlags.status
		}
		if cmd.Flags().Changed("priority") {
			p := models.Priority(editFlags.priority)
			update.Priority = &p
		}
		if cmd.Flags().Changed("milestone") {
			update.Milestone = &editFlags.milestone
		}
		if cmd.Flags().Changed("description") {
			update.Description = &editFlags.description
		}
		if cmd.Flags().Changed("parent") {
			update.ParentTaskID = &editFlags.parent
		}
		if cmd.Flags().Changed("ordinal") {
			update.Ordinal = &editFlags.ordinal
		}
		if cmd.Flags().Changed("due") {
			update.DueDate = &editFlags.due
		}
		if cmd.Flags().Changed("label") {
			update.Labels = editFlags.labels
		}
		if cmd.Flags().Changed("assignee") {
			update.Assignee = editFlags.assignee
		}
		if cmd.Flags().Changed("dep") {
			update.Dependencies = editFlags.deps
		}
		if cmd.Flags().Changed("ref") {
			update.References = editFlags.refs
		}
		if cmd.Flags().Changed("doc") {
			update.Documentation = editFlags.docs
		}
		if update.Empty() {
			return fmt.Errorf("nothing to change: pass at least one field flag")
		}

		token := editFlags.token
		if token == "" {
			current, err := Store.StateToken(id)
			if err != nil {
				return fmt.Errorf("reading %s: %w", id, err)
			}
			token = current
		}

		if err := Store.UpdateTask(id, update, token); err != nil {
			var conflict *store.ConflictError
			if errors.As(err, &conflict) {
				return fmt.Errorf("%s changed since it was read; re-run view and retry", id)
			}
			return fmt.Errorf("updating %s: %w", id, err)
		}
		fmt.Printf("Updated %s\n", idStyle.Render(id))
		return nil
	},
}

func init() {
	f := editCmd.Flags()
	f.StringVar(&editFlags.title, "title", "", "new title")
	f.StringVar(&editFlags.status, "status", "", "new status")
	f.StringVar(&editFlags.priority, "priority", "", "new priority (empty clears)")
	f.StringVar(&editFlags.milestone, "milestone", "", "new milestone (empty clears)")
	f.StringVarP(&editFlags.description, "description", "d", "", "new description")
	f.StringVar(&editFlags.parent, "parent", "", "new parent task id (empty clears)")
	f.Float64Var(&editFlags.ordinal, "ordinal", 0, "new ordering weight")
	f.StringVar(&editFlags.due, "due", "", "due date, YYYY-MM-DD (empty clears)")
	f.StringSliceVarP(&editFlags.labels, "label", "l", nil, "replacement label set")
	f.StringSliceVarP(&editFlags.assignee, "assignee", "a", nil, "replacement assignee set")
	f.StringSliceVar(&editFlags.deps, "dep", nil, "replacement dependency set")
	f.StringSliceVar(&editFlags.refs, "ref", nil, "replacement reference set")
	f.StringSliceVar(&editFlags.docs, "doc", nil, "replacement documentation set")
	f.StringVar(&editFlags.token, "token", "", "expected state token from a prior read")
	rootCmd.AddCommand(editCmd)
}

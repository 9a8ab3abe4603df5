package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <task-id>",
	Short: "Move a task to the archive",
	Long: `Move a task from tasks/ to archive/tasks/.

Dangling pointers are cleaned up on the way out: any active task holding
this id in its dependencies or references has the entry removed. Only
whole-value matches are touched; ids embedded in text or URLs stay.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized")
		}
		if err := Store.ArchiveTask(args[0]); err != nil {
			return fmt.Errorf("archiving %s: %w", args[0], err)
		}
		fmt.Printf("Archived %s\n", idStyle.Render(args[0]))
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <task-id>",
	Short: "Restore an archived task to tasks/",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized")
		}
		if err := Store.RestoreTask(args[0]); err != nil {
			return fmt.Errorf("restoring %s: %w", args[0], err)
		}
		fmt.Printf("Restored %s\n", idStyle.Render(args[0]))
		return nil
	},
}

var deleteForceFlag bool

var deleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task file permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized")
		}
		id := args[0]
		if !deleteForceFlag {
			return fmt.Errorf("refusing to delete %s without --force; archive is the recoverable path", id)
		}
		if err := Store.DeleteTask(id); err != nil {
			return fmt.Errorf("deleting %s: %w", id, err)
		}
		fmt.Printf("Deleted %s\n", id)
		return nil
	},
}

var promoteCmd = &cobra.Command{
	Use:   "promote <draft-id>",
	Short: "Promote a draft to an active task",
	Long: `Move a draft from drafts/ to tasks/, assigning it a fresh id from the
active namespace. The old draft id is retired.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized")
		}
		newID, err := Store.PromoteDraft(args[0])
		if err != nil {
			return fmt.Errorf("promoting %s: %w", args[0], err)
		}
		fmt.Printf("Promoted %s to %s\n", args[0], idStyle.Render(newID))
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteForceFlag, "force", false, "confirm permanent deletion")
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(promoteCmd)
}

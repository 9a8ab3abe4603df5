package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskforge/pkg/models"
)

var checkListFlag string

func checklistKind() (models.ChecklistKind, error) {
	switch checkListFlag {
	case "ac", string(models.ChecklistAcceptanceCriteria):
		return models.ChecklistAcceptanceCriteria, nil
	case "dod", string(models.ChecklistDefinitionOfDone):
		return models.ChecklistDefinitionOfDone, nil
	}
	return "", fmt.Errorf("unknown checklist %q (use ac or dod)", checkListFlag)
}

var checkCmd = &cobra.Command{
	Use:   "check <task-id> <item-number>",
	Short: "Toggle a checklist item",
	Long: `Flip the checked state of one checklist item, addressed by its #N
number. The rest of the file keeps its exact bytes.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized")
		}
		kind, err := checklistKind()
		if err != nil {
			return err
		}
		itemID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("item number %q is not a number", args[1])
		}
		if err := Store.ToggleChecklistItem(args[0], kind, itemID); err != nil {
			return fmt.Errorf("toggling item #%d of %s: %w", itemID, args[0], err)
		}
		fmt.Printf("Toggled #%d in %s of %s\n", itemID, kind, idStyle.Render(args[0]))
		return nil
	},
}

var checkAddCmd = &cobra.Command{
	Use:   "add <task-id> <text>",
	Short: "Append a checklist item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized")
		}
		kind, err := checklistKind()
		if err != nil {
			return err
		}
		itemID, err := Store.AddChecklistItem(args[0], kind, args[1])
		if err != nil {
			return fmt.Errorf("adding item to %s: %w", args[0], err)
		}
		fmt.Printf("Added #%d to %s of %s\n", itemID, kind, idStyle.Render(args[0]))
		return nil
	},
}

func init() {
	checkCmd.PersistentFlags().StringVar(&checkListFlag, "list", "ac",
		"checklist: ac (acceptance criteria) or dod (definition of done)")
	checkCmd.AddCommand(checkAddCmd)
	rootCmd.AddCommand(checkCmd)
}

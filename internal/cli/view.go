package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskforge/pkg/models"
)

var viewTokenFlag bool

var viewCmd = &cobra.Command{
	Use:   "view <task-id>",
	Short: "Show one task in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized")
		}
		id := args[0]

		task, err := Store.GetTask(id)
		if err != nil {
			return fmt.Errorf("reading %s: %w", id, err)
		}

		fmt.Println(headerStyle.Render(task.ID) + "  " + task.Title)
		printField("Status", task.Status)
		printField("Priority", string(task.Priority))
		printField("Milestone", task.Milestone)
		printField("Labels", strings.Join(task.Labels, ", "))
		printField("Assignee", strings.Join(task.Assignee, ", "))
		printField("Dependencies", strings.Join(task.Dependencies, ", "))
		printField("References", strings.Join(task.References, ", "))
		printField("Parent", task.ParentTaskID)
		printField("Created", task.CreatedDate)
		printField("Updated", task.UpdatedDate)
		printField("Due", task.DueDate)
		if task.Source != models.SourceLocal && task.Source != "" {
			printField("Source", fmt.Sprintf("%s (read-only)", task.Source))
			printField("Branch", task.Branch)
		}

		if task.Description != "" {
			fmt.Println()
			fmt.Println(task.Description)
		}
		printChecklist("Acceptance Criteria", task.AcceptanceCriteria)
		printChecklist("Definition of Done", task.DefinitionOfDone)

		if viewTokenFlag {
			token, err := Store.StateToken(id)
			if err != nil {
				return fmt.Errorf("computing state token: %w", err)
			}
			fmt.Println()
			printField("Token", token)
		}
		return nil
	},
}

func printField(name, value string) {
	if value == "" {
		return
	}
	fmt.Printf("  %s %s\n", dimStyle.Render(fmt.Sprintf("%-13s", name+":")), value)
}

func printChecklist(name string, items []models.ChecklistItem) {
	if len(items) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(dimStyle.Render(name))
	for _, item := range items {
		mark := " "
		if item.Checked {
			mark = "x"
		}
		fmt.Printf("  [%s] #%d %s\n", mark, item.ID, item.Text)
	}
}

func init() {
	viewCmd.Flags().BoolVar(&viewTokenFlag, "token", false, "also print the record's state token")
	rootCmd.AddCommand(viewCmd)
}

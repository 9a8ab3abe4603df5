package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskforge/internal/store"
	"github.com/valter-silva-au/taskforge/pkg/models"
)

var createFlags struct {
	description  string
	status       string
	priority     string
	milestone    string
	labels       []string
	assignee     []string
	dependencies []string
	references   []string
	docs         []string
	parent       string
	ac           []string
	dod          []string
	draft        bool
}

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new task",
	Long: `Create a new task record under tasks/, or under drafts/ with --draft.

The id is allocated from the configured prefix. Acceptance criteria and
definition of done items can be seeded with repeated --ac and --dod flags.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized")
		}

		created, err := Store.CreateTask(store.CreateTaskInput{
			Title:              args[0],
			Description:        createFlags.description,
			Status:             createFlags.status,
			Priority:           models.Priority(createFlags.priority),
			Milestone:          createFlags.milestone,
			Labels:             createFlags.labels,
			Assignee:           createFlags.assignee,
			Dependencies:       createFlags.dependencies,
			References:         createFlags.references,
			Documentation:      createFlags.docs,
			Parent:             createFlags.parent,
			AcceptanceCriteria: createFlags.ac,
			DefinitionOfDone:   createFlags.dod,
			Draft:              createFlags.draft,
		})
		if err != nil {
			return fmt.Errorf("creating task: %w", err)
		}

		fmt.Printf("Created %s\n", idStyle.Render(created.ID))
		fmt.Printf("  File: %s\n", created.Path)
		return nil
	},
}

func init() {
	f := createCmd.Flags()
	f.StringVarP(&createFlags.description, "description", "d", "", "task description")
	f.StringVar(&createFlags.status, "status", "", "initial status (defaults to first configured status)")
	f.StringVar(&createFlags.priority, "priority", "", "priority: high, medium, low")
	f.StringVar(&createFlags.milestone, "milestone", "", "milestone")
	f.StringSliceVarP(&createFlags.labels, "label", "l", nil, "label (repeatable)")
	f.StringSliceVarP(&createFlags.assignee, "assignee", "a", nil, "assignee (repeatable)")
	f.StringSliceVar(&createFlags.dependencies, "dep", nil, "dependency task id (repeatable)")
	f.StringSliceVar(&createFlags.references, "ref", nil, "reference (repeatable)")
	f.StringSliceVar(&createFlags.docs, "doc", nil, "documentation link (repeatable)")
	f.StringVar(&createFlags.parent, "parent", "", "parent task id (creates a subtask id)")
	f.StringSliceVar(&createFlags.ac, "ac", nil, "acceptance criterion (repeatable)")
	f.StringSliceVar(&createFlags.dod, "dod", nil, "definition of done item (repeatable)")
	f.BoolVar(&createFlags.draft, "draft", false, "create under drafts/ instead of tasks/")
	rootCmd.AddCommand(createCmd)
}

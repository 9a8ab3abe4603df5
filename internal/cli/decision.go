package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskforge/internal/observability"
	"github.com/valter-silva-au/taskforge/pkg/models"
)

var decisionCmd = &cobra.Command{
	Use:   "decision",
	Short: "Manage decision records",
	Long: `Decision records capture an architectural choice with four fixed
sections: Context, Decision, Consequences, and Alternatives. Each section
can be rewritten on its own without disturbing the rest of the file.`,
}

var decisionCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a decision record under decisions/",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Docs == nil {
			return fmt.Errorf("store not initialized")
		}
		dec, err := Docs.CreateDecision(args[0])
		if err != nil {
			return fmt.Errorf("creating decision: %w", err)
		}
		fmt.Printf("Created %s\n", idStyle.Render(dec.ID))
		return nil
	},
}

var decisionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List decisions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Docs == nil {
			return fmt.Errorf("store not initialized")
		}
		decisions, err := Docs.ListDecisions()
		if err != nil {
			return fmt.Errorf("listing decisions: %w", err)
		}
		if len(decisions) == 0 {
			fmt.Println("No decisions found.")
			return nil
		}
		for _, d := range decisions {
			line := idStyle.Render(d.ID) + "  " + d.Title
			if d.Status != "" {
				line += "  " + dimStyle.Render("("+d.Status+")")
			}
			fmt.Println(line)
		}
		return nil
	},
}

var decisionViewCmd = &cobra.Command{
	Use:   "view <decision-id>",
	Short: "Show one decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Docs == nil {
			return fmt.Errorf("store not initialized")
		}
		dec, err := Docs.GetDecision(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		fmt.Println(headerStyle.Render(dec.ID) + "  " + dec.Title)
		printField("Status", dec.Status)
		printField("Created", dec.CreatedDate)
		printSection("Context", dec.Context)
		printSection("Decision", dec.Decision)
		printSection("Consequences", dec.Consequences)
		printSection("Alternatives", dec.Alternatives)
		return nil
	},
}

var decisionSetTokenFlag string

var decisionSetCmd = &cobra.Command{
	Use:   "set <decision-id> <section> <text>",
	Short: "Rewrite one section of a decision",
	Long: `Replace the text of one section. Section names: context, decision,
consequences, alternatives. The write is refused if the file changed since
the token was read; omit --token to use the file's current state.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Docs == nil {
			return fmt.Errorf("store not initialized")
		}
		id := args[0]

		var section models.DecisionSection
		for _, s := range models.DecisionSections {
			if strings.EqualFold(string(s), args[1]) {
				section = s
				break
			}
		}
		if section == "" {
			return fmt.Errorf("unknown section %q", args[1])
		}

		token := decisionSetTokenFlag
		if token == "" {
			current, err := Docs.StateToken(id)
			if err != nil {
				return fmt.Errorf("reading %s: %w", id, err)
			}
			token = current
		}
		if err := Docs.UpdateDecisionSection(id, section, args[2], token); err != nil {
			return fmt.Errorf("updating %s: %w", id, err)
		}
		if Events != nil {
			Events.Record(observability.EventDecisionSaved, "decision section updated", map[string]any{
				"id":      id,
				"section": string(section),
			})
		}
		fmt.Printf("Updated %s of %s\n", section, idStyle.Render(id))
		return nil
	},
}

func printSection(name, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Println()
	fmt.Println(dimStyle.Render(name))
	fmt.Println(text)
}

func init() {
	decisionSetCmd.Flags().StringVar(&decisionSetTokenFlag, "token", "", "expected state token from a prior read")
	decisionCmd.AddCommand(decisionCreateCmd)
	decisionCmd.AddCommand(decisionListCmd)
	decisionCmd.AddCommand(decisionViewCmd)
	decisionCmd.AddCommand(decisionSetCmd)
	rootCmd.AddCommand(decisionCmd)
}

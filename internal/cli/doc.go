package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskforge/internal/observability"
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage freeform documents",
}

var docCreateFlags struct {
	docType string
	body    string
}

var docCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a document under docs/",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Docs == nil {
			return fmt.Errorf("store not initialized")
		}
		doc, err := Docs.CreateDocument(args[0], docCreateFlags.docType, docCreateFlags.body)
		if err != nil {
			return fmt.Errorf("creating document: %w", err)
		}
		if Events != nil {
			Events.Record(observability.EventDocCreated, "document created", map[string]any{"id": doc.ID})
		}
		fmt.Printf("Created %s\n", idStyle.Render(doc.ID))
		return nil
	},
}

var docListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Docs == nil {
			return fmt.Errorf("store not initialized")
		}
		docs, err := Docs.ListDocuments()
		if err != nil {
			return fmt.Errorf("listing documents: %w", err)
		}
		if len(docs) == 0 {
			fmt.Println("No documents found.")
			return nil
		}
		for _, d := range docs {
			line := idStyle.Render(d.ID) + "  " + d.Title
			if d.Type != "" {
				line += "  " + dimStyle.Render("("+d.Type+")")
			}
			fmt.Println(line)
		}
		return nil
	},
}

var docViewCmd = &cobra.Command{
	Use:   "view <doc-id>",
	Short: "Show one document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Docs == nil {
			return fmt.Errorf("store not initialized")
		}
		doc, err := Docs.GetDocument(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		fmt.Println(headerStyle.Render(doc.ID) + "  " + doc.Title)
		printField("Type", doc.Type)
		printField("Created", doc.CreatedDate)
		if doc.Body != "" {
			fmt.Println()
			fmt.Println(doc.Body)
		}
		return nil
	},
}

func init() {
	docCreateCmd.Flags().StringVarP(&docCreateFlags.docType, "type", "t", "", "document type label")
	docCreateCmd.Flags().StringVarP(&docCreateFlags.body, "body", "b", "", "initial body text")
	docCmd.AddCommand(docCreateCmd)
	docCmd.AddCommand(docListCmd)
	docCmd.AddCommand(docViewCmd)
	rootCmd.AddCommand(docCmd)
}

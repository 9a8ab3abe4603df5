package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/taskforge/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a taskforge workspace in the current directory",
	Long: `Create the folder layout (tasks/, drafts/, completed/, archive/, docs/,
decisions/) and write a config.yml with defaults. Existing files are left
untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}

		for _, dir := range []string{
			"tasks", "drafts", "completed",
			filepath.Join("archive", "tasks"),
			"docs", "decisions",
		} {
			if err := os.MkdirAll(filepath.Join(root, dir), 0o750); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}
		}

		cfgPath := filepath.Join(root, config.FileName)
		if _, err := os.Stat(cfgPath); err == nil {
			fmt.Printf("Workspace ready (existing %s kept).\n", config.FileName)
			return nil
		}

		data, err := yaml.Marshal(config.Default())
		if err != nil {
			return fmt.Errorf("encoding default config: %w", err)
		}
		if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", config.FileName, err)
		}
		fmt.Printf("Initialized taskforge workspace in %s\n", root)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

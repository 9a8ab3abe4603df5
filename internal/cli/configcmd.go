package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskforge/internal/observability"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect workspace configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConfigMgr == nil {
			return fmt.Errorf("config not initialized")
		}
		cfg, err := ConfigMgr.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		printField("Statuses", strings.Join(cfg.Statuses, ", "))
		printField("Prefix", cfg.TaskPrefix)
		printField("Padded ids", fmt.Sprintf("%d", cfg.ZeroPaddedIDs))
		printField("Branch check", fmt.Sprintf("%t", cfg.CheckActiveBranches))
		printField("Remotes", fmt.Sprintf("%t", cfg.RemoteOperations))
		printField("Window days", fmt.Sprintf("%d", cfg.ActiveBranchDays))
		printField("Strategy", string(cfg.TaskResolutionStrategy))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConfigMgr == nil {
			return fmt.Errorf("config not initialized")
		}
		cfg, err := ConfigMgr.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := ConfigMgr.Validate(cfg); err != nil {
			return fmt.Errorf("configuration invalid:\n%w", err)
		}
		fmt.Println("Configuration is valid.")
		return nil
	},
}

var configReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Drop the cached configuration and re-read config.yml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConfigMgr == nil {
			return fmt.Errorf("config not initialized")
		}
		ConfigMgr.Invalidate()
		cfg, err := ConfigMgr.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if Events != nil {
			Events.Record(observability.EventConfigReloaded, "configuration reloaded", map[string]any{
				"statuses": strings.Join(cfg.Statuses, ","),
				"prefix":   cfg.TaskPrefix,
			})
		}
		fmt.Println("Configuration reloaded.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configReloadCmd)
	rootCmd.AddCommand(configCmd)
}

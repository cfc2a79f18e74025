package cli

import (
	"github.com/spf13/cobra"

	"github.com/LeJamon/goFeedEscrow/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configExampleCmd = &cobra.Command{
	Use:   "example <path>",
	Short: "Write a configuration file holding the defaults",
	Args:  cobra.ExactArgs(1),
	// Overrides the root hook so this command runs without loading a config.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return config.SaveExampleConfig(args[0])
	},
}

func init() {
	configCmd.AddCommand(configExampleCmd)
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goFeedEscrow/internal/app"
	"github.com/LeJamon/goFeedEscrow/internal/config"
	"github.com/LeJamon/goFeedEscrow/internal/logging"
)

var (
	// Global flags
	configFile string
	chainFile  string
	debug      bool
	logLevel   string

	appHandle *app.App
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "feedescrow",
	Short: "Escrow contract gated by an oracle price feed",
	Long: `feedescrow reads the oracle's price feed from chain, runs the escrow
validator against planned or supplied transactions and derives the deploy,
deposit, claim, refund and undeploy transactions of the contract.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil {
			return nil
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if debug {
			cfg.Logging.Level = "debug"
		}

		logger := logging.NewLogger(cfg.Logging)
		appHandle = app.NewApp(cfg, logger)
		appHandle.ChainFile = chainFile
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().StringVar(&chainFile, "chain-file", "", "read chain state from a JSON snapshot instead of Ogmios")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level defined in config")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(decisionsCmd)
	rootCmd.AddCommand(configCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}

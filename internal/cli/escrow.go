package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goFeedEscrow/internal/app"
	"github.com/LeJamon/goFeedEscrow/internal/core/protocol"
)

var (
	evalOpts       app.EvaluateOptions
	decisionsLimit int
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "List the outputs at the contract address by role",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Classify(cmd.Context())
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the escrow validator against a transaction view",
	RunE: func(cmd *cobra.Command, args []string) error {
		if evalOpts.TxFile == "" || evalOpts.Datum == "" {
			return fmt.Errorf("--tx and --datum must be provided")
		}
		return getApp().Evaluate(cmd.Context(), evalOpts)
	},
}

var planCmd = &cobra.Command{
	Use:       "plan <deploy|deposit|claim|refund|undeploy>",
	Short:     "Derive a protocol transaction from chain state",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"deploy", "deposit", "claim", "refund", "undeploy"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := protocol.ParseKind(args[0])
		if err != nil {
			return err
		}
		return getApp().Plan(cmd.Context(), kind)
	},
}

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Show recent entries of the decision log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if decisionsLimit <= 0 {
			return fmt.Errorf("--limit must be positive")
		}
		return getApp().Decisions(cmd.Context(), decisionsLimit)
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evalOpts.TxFile, "tx", "", "transaction view JSON file")
	evaluateCmd.Flags().StringVar(&evalOpts.Datum, "datum", "", "escrow datum as hex")
	evaluateCmd.Flags().StringVar(&evalOpts.Redeemer, "redeemer", "claim", "claim, refund or redeemer hex")
	evaluateCmd.Flags().StringVar(&evalOpts.EscrowRef, "escrow", "", "escrow output reference recorded with the decision")

	decisionsCmd.Flags().IntVar(&decisionsLimit, "limit", 20, "number of entries to show")
}

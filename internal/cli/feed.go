package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var watchInterval time.Duration

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Inspect the oracle price feed",
}

var feedDecodeCmd = &cobra.Command{
	Use:   "decode <hex|file>",
	Short: "Decode a feed datum given as hex or a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().FeedDecode(args[0])
	},
}

var feedLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the latest authenticated feed at the oracle address",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().FeedLatest(cmd.Context())
	},
}

var feedWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the oracle address and log each new feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval := watchInterval
		if interval <= 0 {
			interval = getApp().Config.Ogmios.PollInterval
		}
		return getApp().FeedWatch(cmd.Context(), interval)
	},
}

func init() {
	feedWatchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "poll interval (default ogmios.poll_interval)")

	feedCmd.AddCommand(feedDecodeCmd)
	feedCmd.AddCommand(feedLatestCmd)
	feedCmd.AddCommand(feedWatchCmd)
}

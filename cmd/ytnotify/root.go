package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ytnotify",
	Short: "WebSub subscriber for YouTube channel feeds",
	Long: `ytnotify subscribes to YouTube channel video feeds through the
public WebSub hub, serves the callback endpoint the hub verifies against,
and logs every verified handshake and delivered video update.

Subscription state lives in memory only; a restarted process must
subscribe again.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(discoverCmd)
}

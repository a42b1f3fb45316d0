package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamsanghera/go-ytnotify/pkg/discovery"
	"github.com/adamsanghera/go-ytnotify/pkg/subscription"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [channel_id | feed_url ...]",
	Short: "Print the hub and topic a feed advertises",
	Long: `Resolves the WebSub endpoints for each argument. Arguments that
parse as URLs are fetched directly; anything else is treated as a YouTube
channel ID and resolved through its feed URL.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Usage()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: 10 * time.Second}

		for _, arg := range args {
			target := arg
			if u, err := url.Parse(arg); err != nil || u.Scheme == "" {
				target = subscription.TopicForChannel(arg)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			eps, err := discovery.Discover(ctx, client, target)
			cancel()
			if err != nil {
				return fmt.Errorf("discovering %s: %w", arg, err)
			}

			fmt.Printf("%s\n  topic: %s\n", arg, eps.Topic)
			for _, hub := range eps.Hubs {
				fmt.Printf("  hub:   %s\n", hub)
			}
		}
		return nil
	},
}

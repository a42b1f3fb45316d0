package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"

	"github.com/adamsanghera/go-ytnotify/pkg/notifier"
	"github.com/adamsanghera/go-ytnotify/pkg/subscription"
)

// fileConfig mirrors the run flags in a YAML config file. Flags set on the
// command line win over file values.
type fileConfig struct {
	HubCallback   string   `yaml:"hub_callback"`
	Secret        string   `yaml:"secret"`
	Port          int      `yaml:"port"`
	Path          string   `yaml:"path"`
	Hub           string   `yaml:"hub"`
	DedupCapacity int      `yaml:"dedup_capacity"`
	Channels      []string `yaml:"channels"`
	Renew         bool     `yaml:"renew"`
	RenewHeadroom string   `yaml:"renew_headroom"` // a duration, e.g. "12h"
	LogLevel      string   `yaml:"log_level"`
}

var runFlags struct {
	configFile    string
	hubCallback   string
	secret        string
	port          int
	path          string
	hub           string
	dedupCapacity int
	renew         bool
	renewHeadroom time.Duration
	logLevel      string
}

var runCmd = &cobra.Command{
	Use:   "run [channel_id ...]",
	Short: "Serve the callback endpoint and subscribe to the given channels",
	Long: `Starts the callback server, subscribes to each channel ID given as
an argument or listed in the config file, and logs events until
interrupted. With --renew, leases are refreshed before they expire.`,
	RunE: runNotifier,
}

func init() {
	flags := runCmd.Flags()
	flags.StringVar(&runFlags.configFile, "config", "", "YAML config file")
	flags.StringVar(&runFlags.hubCallback, "hub-callback", "", "public base URL the hub reaches this process at (required)")
	flags.StringVar(&runFlags.secret, "secret", "", "shared secret for signed deliveries")
	flags.IntVar(&runFlags.port, "port", notifier.DefaultPort, "callback listen port")
	flags.StringVar(&runFlags.path, "path", notifier.DefaultPath, "callback endpoint path")
	flags.StringVar(&runFlags.hub, "hub", notifier.DefaultHub, "hub endpoint subscription requests go to")
	flags.IntVar(&runFlags.dedupCapacity, "dedup-capacity", 0, "recent notification IDs to remember (0 = default)")
	flags.BoolVar(&runFlags.renew, "renew", false, "re-subscribe before leases expire")
	flags.DurationVar(&runFlags.renewHeadroom, "renew-headroom", subscription.DefaultRenewHeadroom, "renew once a lease expires within this window")
	flags.StringVar(&runFlags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

// renewOptions is the merged lease-renewal choice.
type renewOptions struct {
	enabled  bool
	headroom time.Duration
}

// buildConfig merges the config file, if any, with the command-line flags.
func buildConfig(cmd *cobra.Command, args []string) (*notifier.Config, []string, renewOptions, error) {
	var renew renewOptions

	file := &fileConfig{}
	if runFlags.configFile != "" {
		data, err := os.ReadFile(runFlags.configFile)
		if err != nil {
			return nil, nil, renew, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, file); err != nil {
			return nil, nil, renew, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg := notifier.NewConfig()
	cfg.HubCallback = file.HubCallback
	cfg.Secret = file.Secret
	cfg.DedupCapacity = file.DedupCapacity
	if file.Port != 0 {
		cfg.Port = file.Port
	}
	if file.Path != "" {
		cfg.Path = file.Path
	}
	if file.Hub != "" {
		cfg.HubURL = file.Hub
	}

	flags := cmd.Flags()
	if flags.Changed("hub-callback") {
		cfg.HubCallback = runFlags.hubCallback
	}
	if flags.Changed("secret") {
		cfg.Secret = runFlags.secret
	}
	if flags.Changed("port") {
		cfg.Port = runFlags.port
	}
	if flags.Changed("path") {
		cfg.Path = runFlags.path
	}
	if flags.Changed("hub") {
		cfg.HubURL = runFlags.hub
	}
	if flags.Changed("dedup-capacity") {
		cfg.DedupCapacity = runFlags.dedupCapacity
	}
	renew.enabled = file.Renew || runFlags.renew
	renew.headroom = runFlags.renewHeadroom
	if file.RenewHeadroom != "" && !flags.Changed("renew-headroom") {
		headroom, err := time.ParseDuration(file.RenewHeadroom)
		if err != nil {
			return nil, nil, renew, fmt.Errorf("parsing renew_headroom: %w", err)
		}
		renew.headroom = headroom
	}

	channels := args
	if len(channels) == 0 {
		channels = file.Channels
	}

	level := file.LogLevel
	if flags.Changed("log-level") || level == "" {
		level = runFlags.logLevel
	}
	cfg.Logger = newLogger(level)

	return cfg, channels, renew, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func runNotifier(cmd *cobra.Command, args []string) error {
	cfg, channels, renew, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := cfg.Logger

	n, err := notifier.New(cfg)
	if err != nil {
		return err
	}

	n.OnNotification(func(v notifier.Notification) {
		logger.Info("video update",
			"video_id", v.Video.ID,
			"title", v.Video.Title,
			"link", v.Video.Link,
			"channel", v.Channel.ID,
			"channel_name", v.Channel.Name,
			"published", v.Published,
		)
	})
	n.OnSubscribe(func(u notifier.SubscriptionUpdate) {
		logger.Info("subscription verified", "channel", u.Channel, "lease_seconds", u.LeaseSeconds)
	})
	n.OnUnsubscribe(func(u notifier.SubscriptionUpdate) {
		logger.Info("unsubscription verified", "channel", u.Channel)
	})
	n.OnError(func(err error) {
		logger.Error("notifier error", "err", err)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := n.Setup(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	n.Subscribe(ctx, channels...)

	if renew.enabled {
		renewer := n.Renewer(subscription.RenewerConfig{Headroom: renew.headroom})
		go renewer.Run(ctx)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return n.Shutdown(shutdownCtx)
}

package notifier

import (
	"log/slog"
	"net/http"
)

// DefaultHub is the Google-operated hub that serves YouTube video feeds.
const DefaultHub = "https://pubsubhubbub.appspot.com/"

// Defaults applied by NewConfig and New.
const (
	DefaultPort = 3000
	DefaultPath = "/"
)

// Config is the configuration information for a Notifier.
type Config struct {
	HubCallback string // public base URL the hub reaches this process at (required)
	Secret      string // shared secret for signed deliveries; empty disables verification
	Middleware  bool   // serve through an existing server instead of owning one
	Port        int    // listen port in standalone mode
	Path        string // path the callback endpoint is mounted at
	HubURL      string // hub endpoint subscription requests go to

	DedupCapacity int // how many recent notification IDs to remember

	Client *http.Client // outbound client, replaced in tests
	Logger *slog.Logger
}

// NewConfig returns the default config for a Notifier. HubCallback must
// still be filled in by the caller.
func NewConfig() *Config {
	return &Config{
		Port:   DefaultPort,
		Path:   DefaultPath,
		HubURL: DefaultHub,
	}
}

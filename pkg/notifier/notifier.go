package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/adamsanghera/go-ytnotify/pkg/dedup"
	"github.com/adamsanghera/go-ytnotify/pkg/signature"
	"github.com/adamsanghera/go-ytnotify/pkg/subscription"
	"github.com/adamsanghera/go-ytnotify/pkg/subscription/storage"
	"github.com/adamsanghera/go-ytnotify/pkg/subscription/storage/sqlite"
)

var (
	// ErrMissingHubCallback is returned by New when no public callback URL
	// is configured. Without one the hub has nowhere to verify or deliver.
	ErrMissingHubCallback = errors.New("notifier: hub callback URL is required")

	// ErrMiddlewareMode is returned by Setup on a middleware-mode Notifier.
	ErrMiddlewareMode = errors.New("notifier: configured as middleware, use Listener instead of Setup")

	// ErrStandaloneMode is returned by Listener on a standalone Notifier.
	ErrStandaloneMode = errors.New("notifier: configured standalone, use Setup instead of Listener")
)

// Notifier subscribes to YouTube channel feeds over WebSub and republishes
// hub deliveries as events. It owns the callback endpoint the hub talks to,
// either on its own server (standalone) or as a handler the caller mounts
// (middleware mode).
type Notifier struct {
	// Client, to make calls to the hub
	transport *http.Transport
	client    *http.Client

	// Server and mux, to handle callbacks (standalone mode only)
	callbackMux *http.ServeMux
	callbackSrv *http.Server
	path        string

	manager  *subscription.Manager
	verifier *signature.Verifier // nil when no secret is configured
	ledger   *dedup.Ledger

	// Centralized source of truth for subscriptions
	store *sqlite.Store

	logger *slog.Logger

	handlersMu     sync.RWMutex
	onNotification []func(Notification)
	onSubscribe    []func(SubscriptionUpdate)
	onUnsubscribe  []func(SubscriptionUpdate)
	onError        []func(error)
}

// New creates and returns a new Notifier from a given config object.
func New(cfg *Config) (*Notifier, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if cfg.HubCallback == "" {
		return nil, ErrMissingHubCallback
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	hubURL := cfg.HubURL
	if hubURL == "" {
		hubURL = DefaultHub
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Init our storage system
	store, err := sqlite.New(sqlite.NewConfig())
	if err != nil {
		return nil, err
	}

	// Init transport and client
	transport := &http.Transport{}
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	n := &Notifier{
		transport: transport,
		client:    client,
		path:      path,
		ledger:    dedup.New(cfg.DedupCapacity),
		store:     store,
		logger:    logger,
	}

	if cfg.Secret != "" {
		n.verifier = signature.NewVerifier(cfg.Secret)
	}

	n.manager, err = subscription.NewManager(subscription.ManagerConfig{
		Hub:      hubURL,
		Callback: joinCallback(cfg.HubCallback, path),
		Secret:   cfg.Secret,
		Client:   client,
		Store:    store,
		Logger:   logger,
		OnError:  n.emitError,
	})
	if err != nil {
		store.Shutdown()
		return nil, err
	}

	// Init the http server needed to support callbacks
	if !cfg.Middleware {
		n.callbackMux = http.NewServeMux()
		n.callbackSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: n.callbackMux,
		}
	}

	return n, nil
}

// Setup starts the Notifier's callback server and blocks until Shutdown.
// It is only available in standalone mode.
func (n *Notifier) Setup() error {
	if n.callbackSrv == nil {
		return ErrMiddlewareMode
	}

	n.callbackMux.HandleFunc(n.path, n.callback)
	n.logger.Info("callback server listening", "addr", n.callbackSrv.Addr, "path", n.path)
	return n.callbackSrv.ListenAndServe()
}

// Listener returns the callback handler for mounting into an existing
// server. It is only available in middleware mode.
func (n *Notifier) Listener() (http.Handler, error) {
	if n.callbackSrv != nil {
		return nil, ErrStandaloneMode
	}
	return http.HandlerFunc(n.callback), nil
}

// Subscribe asks the hub for each channel's feed. It returns once the
// requests are dispatched; verification lands later as subscribe events.
func (n *Notifier) Subscribe(ctx context.Context, channels ...string) {
	n.manager.Subscribe(ctx, channels...)
}

// Unsubscribe asks the hub to drop each channel's feed.
func (n *Notifier) Unsubscribe(ctx context.Context, channels ...string) {
	n.manager.Unsubscribe(ctx, channels...)
}

// Subscriptions returns every subscription and its handshake state.
func (n *Notifier) Subscriptions(ctx context.Context) ([]storage.Record, error) {
	return n.manager.Subscriptions(ctx)
}

// ActiveSubscriptions returns verified subscriptions with a live lease.
func (n *Notifier) ActiveSubscriptions(ctx context.Context) ([]storage.Record, error) {
	return n.manager.Active(ctx)
}

// Renewer returns a lease renewer over this Notifier's subscriptions. The
// caller decides whether to run it.
func (n *Notifier) Renewer(cfg subscription.RenewerConfig) *subscription.Renewer {
	return subscription.NewRenewer(n.manager, cfg)
}

// Shutdown stops the callback server, if any, and releases the store.
func (n *Notifier) Shutdown(ctx context.Context) error {
	if n.callbackSrv != nil {
		if err := n.callbackSrv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down callback server: %w", err)
		}
	}
	return n.store.Shutdown()
}

// joinCallback composes the hub.callback URL from the public base URL and
// the endpoint path.
func joinCallback(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
